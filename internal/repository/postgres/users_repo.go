package postgres

import (
	"context"

	"github.com/baharkarakas/premiumshop-backend/internal/models"
	"github.com/baharkarakas/premiumshop-backend/internal/repository"
)

type usersRepo struct{ db DBTX }

const userCols = `email, name, balance_cents, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.Email, &u.Name, &u.BalanceCents, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *usersRepo) GetOrCreate(ctx context.Context, email string) (models.User, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users(email, name) VALUES($1, $2) ON CONFLICT (email) DO NOTHING`,
		email, models.DefaultUserName,
	)
	if err != nil {
		return models.User{}, err
	}
	return r.Get(ctx, email)
}

func (r *usersRepo) Get(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email=$1`, email))
	return u, notFound(err)
}

func (r *usersRepo) SetName(ctx context.Context, email, name string) (models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`INSERT INTO users(email, name) VALUES($1, $2)
		 ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, updated_at = now()
		 RETURNING `+userCols,
		email, name,
	))
	return u, err
}

func (r *usersRepo) Credit(ctx context.Context, email string, amount int64) (models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`INSERT INTO users(email, name, balance_cents) VALUES($1, $2, $3)
		 ON CONFLICT (email) DO UPDATE
		    SET balance_cents = users.balance_cents + EXCLUDED.balance_cents,
		        updated_at = now()
		 RETURNING `+userCols,
		email, models.DefaultUserName, amount,
	))
	return u, err
}

// Debit is a compare-and-swap: the row only changes when the balance covers amount.
func (r *usersRepo) Debit(ctx context.Context, email string, amount int64) (models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`UPDATE users
		    SET balance_cents = balance_cents - $2,
		        updated_at = now()
		  WHERE email = $1 AND balance_cents >= $2
		  RETURNING `+userCols,
		email, amount,
	))
	if err == nil {
		return u, nil
	}
	if notFound(err) != repository.ErrNotFound {
		return models.User{}, err
	}
	current, gerr := r.GetOrCreate(ctx, email)
	if gerr != nil {
		return models.User{}, gerr
	}
	return current, repository.ErrInsufficientBalance
}
