package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/baharkarakas/premiumshop-backend/internal/models"
	"github.com/baharkarakas/premiumshop-backend/internal/repository"
)

// Store keeps the whole ledger in process memory. Nothing survives a restart.
type Store struct {
	mu sync.RWMutex

	users    map[string]*models.User
	pending  map[string]models.PendingTopup
	topupLog []models.TopupLogEntry
	audit    []models.AuditLog

	// ids ever inserted into pending, so a removed id can never come back
	seenTopups map[string]struct{}
}

func New() *Store {
	return &Store{
		users:      make(map[string]*models.User),
		pending:    make(map[string]models.PendingTopup),
		topupLog:   make([]models.TopupLogEntry, 0),
		seenTopups: make(map[string]struct{}),
	}
}

// NewRepositories wires one Store behind every repository interface.
func NewRepositories() (repository.Repositories, *Store) {
	s := New()
	return repository.Repositories{
		Users:     usersRepo{s},
		Pending:   pendingRepo{s},
		TopupLog:  topupLogRepo{s},
		AuditLogs: auditRepo{s},
	}, s
}

// AuditLogs returns a copy of every recorded audit entry.
func (s *Store) AuditLogs() []models.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AuditLog, len(s.audit))
	copy(out, s.audit)
	return out
}

func (s *Store) userLocked(email string) *models.User {
	u, ok := s.users[email]
	if !ok {
		now := time.Now()
		u = &models.User{Email: email, Name: models.DefaultUserName, CreatedAt: now, UpdatedAt: now}
		s.users[email] = u
	}
	return u
}

// ----------------- users -----------------

type usersRepo struct{ s *Store }

func (r usersRepo) GetOrCreate(_ context.Context, email string) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return *r.s.userLocked(email), nil
}

func (r usersRepo) Get(_ context.Context, email string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[email]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return *u, nil
}

func (r usersRepo) SetName(_ context.Context, email, name string) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.userLocked(email)
	u.Name = name
	u.UpdatedAt = time.Now()
	return *u, nil
}

func (r usersRepo) Credit(_ context.Context, email string, amount int64) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.userLocked(email)
	u.BalanceCents += amount
	u.UpdatedAt = time.Now()
	return *u, nil
}

func (r usersRepo) Debit(_ context.Context, email string, amount int64) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.userLocked(email)
	if amount > u.BalanceCents {
		return *u, repository.ErrInsufficientBalance
	}
	u.BalanceCents -= amount
	u.UpdatedAt = time.Now()
	return *u, nil
}

// ----------------- pending topups -----------------

type pendingRepo struct{ s *Store }

func (r pendingRepo) Create(_ context.Context, t models.PendingTopup) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, seen := r.s.seenTopups[t.ID]; seen {
		return repository.ErrAlreadyExists
	}
	r.s.seenTopups[t.ID] = struct{}{}
	r.s.pending[t.ID] = t
	return nil
}

func (r pendingRepo) Get(_ context.Context, id string) (models.PendingTopup, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.pending[id]
	if !ok {
		return models.PendingTopup{}, repository.ErrNotFound
	}
	return t, nil
}

func (r pendingRepo) Take(_ context.Context, id string) (models.PendingTopup, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.pending[id]
	if !ok {
		return models.PendingTopup{}, repository.ErrNotFound
	}
	delete(r.s.pending, id)
	return t, nil
}

func (r pendingRepo) DeleteOlderThan(_ context.Context, before time.Time) ([]models.PendingTopup, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.PendingTopup
	for id, t := range r.s.pending {
		if t.CreatedAt.Before(before) {
			out = append(out, t)
			delete(r.s.pending, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r pendingRepo) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.pending), nil
}

func (r pendingRepo) SumByEmail(_ context.Context, email string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var sum int64
	for _, t := range r.s.pending {
		if t.Email == email {
			sum += t.AmountCents
		}
	}
	return sum, nil
}

// ----------------- topup log -----------------

type topupLogRepo struct{ s *Store }

func (r topupLogRepo) Append(_ context.Context, e models.TopupLogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.topupLog = append(r.s.topupLog, e)
	return nil
}

func (r topupLogRepo) SumSince(_ context.Context, email string, since time.Time) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var sum int64
	for _, e := range r.s.topupLog {
		if e.Email == email && !e.TS.Before(since) {
			sum += e.AmountCents
		}
	}
	return sum, nil
}

// ----------------- audit -----------------

type auditRepo struct{ s *Store }

func (r auditRepo) Create(_ context.Context, l models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	r.s.audit = append(r.s.audit, l)
	return nil
}

var (
	_ repository.Users         = usersRepo{}
	_ repository.PendingTopups = pendingRepo{}
	_ repository.TopupLog      = topupLogRepo{}
	_ repository.AuditLogs     = auditRepo{}
)
