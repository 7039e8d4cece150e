package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/baharkarakas/premiumshop-backend/internal/auth"
	"github.com/baharkarakas/premiumshop-backend/internal/catalog"
	"github.com/baharkarakas/premiumshop-backend/internal/config"
	"github.com/baharkarakas/premiumshop-backend/internal/logger"
	"github.com/baharkarakas/premiumshop-backend/internal/models"
	"github.com/baharkarakas/premiumshop-backend/internal/payment"
	"github.com/baharkarakas/premiumshop-backend/internal/repository"
	"github.com/baharkarakas/premiumshop-backend/internal/repository/memory"
	"github.com/baharkarakas/premiumshop-backend/internal/services"
)

const webhookSecret = "whsec_test"

type okProvider struct{}

func (okProvider) CreatePayment(_ context.Context, req payment.CreatePaymentRequest) (payment.Payment, error) {
	return payment.Payment{PaymentURL: "https://pay.example/c/" + req.ReferenceID}, nil
}

type testServer struct {
	h      http.Handler
	repos  repository.Repositories
	wallet *services.WalletService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Discard()
	repos, _ := memory.NewRepositories()
	cfg := config.Config{
		Env:                  "test",
		CORSOrigins:          []string{"*"},
		HoodPayWebhookSecret: webhookSecret,
		PublicBaseURL:        "http://shop.test",
	}

	sessions := auth.NewSessionManager("test-secret", "premiumshop", time.Hour)
	authSvc, err := services.NewAuthService(repos.Users, sessions, "demo@shop.com", "demo1234", log)
	if err != nil {
		t.Fatal(err)
	}
	wallet := services.NewWalletService(repos, nil, log)
	topups := services.NewTopupService(repos, wallet, okProvider{}, nil, nil, log, services.DefaultTopupConfig())
	products := catalog.Static{
		{ID: 1, Name: "Hoodie", Price: "10.00"},
		{ID: 2, Name: "Mug", Price: "6,00", SalePrice: "4,50"},
	}
	checkout := services.NewCheckoutService(wallet, products, nil, nil, log)

	return &testServer{
		h: NewRouter(RouterDeps{
			Cfg:      cfg,
			Log:      log,
			Auth:     authSvc,
			Wallet:   wallet,
			Topups:   topups,
			Checkout: checkout,
			Catalog:  products,
		}),
		repos:  repos,
		wallet: wallet,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string, cookie *http.Cookie, hdr map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.h.ServeHTTP(rr, req)

	out := map[string]any{}
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rr.Body.String(), err)
		}
	}
	return rr, out
}

func (s *testServer) login(t *testing.T) *http.Cookie {
	t.Helper()
	rr, _ := s.do(t, http.MethodPost, "/api/login", `{"email":"demo@shop.com","password":"demo1234"}`, nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rr.Code, rr.Body.String())
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("login set no session cookie")
	return nil
}

func signed(body string) map[string]string {
	return map[string]string{"Hoodpay-Signature": "sha256=" + hex.EncodeToString(payment.Sign(webhookSecret, []byte(body)))}
}

func (s *testServer) balance(t *testing.T, c *http.Cookie) float64 {
	t.Helper()
	rr, out := s.do(t, http.MethodGet, "/api/balance", "", c, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("balance: %d %s", rr.Code, rr.Body.String())
	}
	return out["balanceCents"].(float64)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	rr, out := s.do(t, http.MethodPost, "/api/login", `{"email":"demo@shop.com","password":"demo1234"}`, nil, nil)
	if rr.Code != http.StatusOK || out["ok"] != true {
		t.Fatalf("login: %d %v", rr.Code, out)
	}
	user := out["user"].(map[string]any)
	if user["email"] != "demo@shop.com" || user["name"] != "Demo Customer" {
		t.Fatalf("user: %v", user)
	}
	setCookie := rr.Header().Get("Set-Cookie")
	for _, attr := range []string{"ps_email=", "Path=/", "HttpOnly", "SameSite=Lax"} {
		if !strings.Contains(setCookie, attr) {
			t.Errorf("cookie %q lacks %s", setCookie, attr)
		}
	}

	tests := []struct {
		name, body, code string
		status           int
	}{
		{"wrong password", `{"email":"demo@shop.com","password":"nope"}`, "invalid_login", 401},
		{"missing password", `{"email":"demo@shop.com"}`, "missing_credentials", 400},
		{"malformed json", `{"email":`, "missing_credentials", 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, out := s.do(t, http.MethodPost, "/api/login", tt.body, nil, nil)
			if rr.Code != tt.status || out["error"] != tt.code {
				t.Fatalf("got %d %v", rr.Code, out)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	rr, out := s.do(t, http.MethodPost, "/api/logout", "", nil, nil)
	if rr.Code != http.StatusOK || out["ok"] != true || !strings.Contains(rr.Header().Get("Set-Cookie"), "Max-Age=0") {
		t.Fatalf("logout: %d %v %s", rr.Code, out, rr.Header().Get("Set-Cookie"))
	}
}

func TestSessionRequired(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/balance", "/api/topup/status?topupId=x"} {
		rr, out := s.do(t, http.MethodGet, path, "", nil, nil)
		if rr.Code != http.StatusUnauthorized || out["error"] != "not_logged_in" {
			t.Errorf("%s: %d %v", path, rr.Code, out)
		}
	}
	bad := &http.Cookie{Name: auth.CookieName, Value: "demo@shop.com"}
	if rr, _ := s.do(t, http.MethodPost, "/api/checkout", `{"cart":[]}`, bad, nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("forged cookie accepted: %d", rr.Code)
	}
}

func TestTopupWebhookFlow(t *testing.T) {
	s := newTestServer(t)
	c := s.login(t)

	rr, out := s.do(t, http.MethodPost, "/api/topup/create", `{"amountCents":1500}`, c, nil)
	if rr.Code != http.StatusOK || out["ok"] != true {
		t.Fatalf("create: %d %v", rr.Code, out)
	}
	id := out["topupId"].(string)
	if !strings.HasSuffix(out["paymentUrl"].(string), id) {
		t.Fatalf("paymentUrl: %v", out["paymentUrl"])
	}

	rr, out = s.do(t, http.MethodGet, "/api/topup/status?topupId="+id, "", c, nil)
	if rr.Code != http.StatusOK || out["status"] != "pending" || out["amountCents"] != float64(1500) {
		t.Fatalf("status: %d %v", rr.Code, out)
	}

	body := `{"type":"payment.paid","data":{"referenceId":"` + id + `"}}`
	if rr, out := s.do(t, http.MethodPost, "/api/hoodpay/webhook", body, nil, nil); rr.Code != http.StatusUnauthorized || out["error"] != "invalid_signature" {
		t.Fatalf("unsigned webhook: %d %v", rr.Code, out)
	}

	rr, out = s.do(t, http.MethodPost, "/api/hoodpay/webhook", body, nil, signed(body))
	if rr.Code != http.StatusOK || out["ok"] != true || out["ignored"] != nil {
		t.Fatalf("webhook: %d %v", rr.Code, out)
	}
	if b := s.balance(t, c); b != 1500 {
		t.Fatalf("balance: got %v, want 1500", b)
	}

	// replay after the entry was credited and removed
	rr, out = s.do(t, http.MethodPost, "/api/hoodpay/webhook", body, nil, signed(body))
	if rr.Code != http.StatusOK || out["ignored"] != true {
		t.Fatalf("replayed webhook: %d %v", rr.Code, out)
	}
	if b := s.balance(t, c); b != 1500 {
		t.Fatalf("replay changed balance: %v", b)
	}

	rr, out = s.do(t, http.MethodGet, "/api/topup/status?topupId="+id, "", c, nil)
	if rr.Code != http.StatusOK || out["status"] != "credited_or_unknown" {
		t.Fatalf("status after credit: %d %v", rr.Code, out)
	}
}

func TestWebhookEdgeCases(t *testing.T) {
	s := newTestServer(t)
	c := s.login(t)
	_, out := s.do(t, http.MethodPost, "/api/topup/create", `{"amountCents":"2000"}`, c, nil)
	id := out["topupId"].(string)

	tests := []struct {
		name   string
		body   string
		status int
		check  func(map[string]any) bool
	}{
		{"no reference", `{"type":"payment.paid","data":{}}`, 400, func(m map[string]any) bool { return m["error"] == "missing_referenceId" }},
		{"unpaid", `{"type":"payment.created","data":{"reference_id":"` + id + `","status":"OPEN"}}`, 200, func(m map[string]any) bool { return m["pending"] == true }},
		{"unknown", `{"status":"paid","referenceId":"top_nope"}`, 200, func(m map[string]any) bool { return m["ignored"] == true }},
		{"flat paid via metadata", `{"status":"Succeeded","metadata":{"referenceId":"` + id + `"}}`, 200, func(m map[string]any) bool { return m["ok"] == true && len(m) == 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, out := s.do(t, http.MethodPost, "/api/hoodpay/webhook", tt.body, nil, signed(tt.body))
			if rr.Code != tt.status || !tt.check(out) {
				t.Fatalf("got %d %v", rr.Code, out)
			}
		})
	}
	if b := s.balance(t, c); b != 2000 {
		t.Fatalf("balance: got %v, want 2000", b)
	}
}

func TestTopupValidation(t *testing.T) {
	s := newTestServer(t)
	c := s.login(t)

	tests := []struct {
		body, code string
	}{
		{`{"amountCents":999}`, "min_10_eur"},
		{`{"amountCents":50100}`, "max_500_eur"},
		{`{"amountCents":1050}`, "must_be_whole_eur"},
		{`{"amountCents":1000.5}`, "amount_not_integer"},
		{`{"amountCents":"ten"}`, "invalid_amount"},
		{`{}`, "invalid_amount"},
		{`not json`, "invalid_amount"},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			rr, out := s.do(t, http.MethodPost, "/api/topup/create", tt.body, c, nil)
			if rr.Code != http.StatusBadRequest || out["error"] != tt.code {
				t.Fatalf("got %d %v, want 400 %s", rr.Code, out, tt.code)
			}
		})
	}
}

func TestTopupDailyLimit(t *testing.T) {
	s := newTestServer(t)
	c := s.login(t)
	_ = s.repos.TopupLog.Append(context.Background(), models.TopupLogEntry{
		Email: "demo@shop.com", AmountCents: 160000, TS: time.Now().Add(-time.Hour),
	})

	rr, out := s.do(t, http.MethodPost, "/api/topup/create", `{"amountCents":50000}`, c, nil)
	if rr.Code != http.StatusTooManyRequests || out["error"] != "daily_limit_reached" {
		t.Fatalf("got %d %v", rr.Code, out)
	}
	if out["usedCents"] != float64(160000) || out["limitCents"] != float64(200000) {
		t.Fatalf("fields: %v", out)
	}
	if n, _ := s.repos.Pending.Count(context.Background()); n != 0 {
		t.Fatalf("pending entries after rejection: %d", n)
	}
}

func TestTopupStatusForbidden(t *testing.T) {
	s := newTestServer(t)
	c := s.login(t)
	p := models.PendingTopup{ID: "top_other", Email: "other@x.io", AmountCents: 1000, CreatedAt: time.Now()}
	_ = s.repos.Pending.Create(context.Background(), p)

	if rr, out := s.do(t, http.MethodGet, "/api/topup/status?topupId=top_other", "", c, nil); rr.Code != http.StatusForbidden || out["error"] != "forbidden" {
		t.Fatalf("got %d %v", rr.Code, out)
	}
	if rr, out := s.do(t, http.MethodGet, "/api/topup/status", "", c, nil); rr.Code != http.StatusBadRequest || out["error"] != "missing_topupId" {
		t.Fatalf("got %d %v", rr.Code, out)
	}
}

func TestCheckout(t *testing.T) {
	s := newTestServer(t)
	c := s.login(t)
	if _, err := s.wallet.Credit(context.Background(), "demo@shop.com", 1500, "seed"); err != nil {
		t.Fatal(err)
	}

	rr, out := s.do(t, http.MethodPost, "/api/checkout", `{"cart":[{"id":1,"qty":2}]}`, c, nil)
	if rr.Code != http.StatusPaymentRequired || out["error"] != "insufficient_balance" ||
		out["totalCents"] != float64(2000) || out["balanceCents"] != float64(1500) {
		t.Fatalf("insufficient: %d %v", rr.Code, out)
	}
	if b := s.balance(t, c); b != 1500 {
		t.Fatalf("balance changed: %v", b)
	}

	rr, out = s.do(t, http.MethodPost, "/api/checkout", `{"cart":[{"id":"1","qty":1},{"id":2,"qty":"1"}]}`, c, nil)
	if rr.Code != http.StatusOK || out["ok"] != true || out["totalCents"] != float64(1450) || out["balanceCents"] != float64(50) {
		t.Fatalf("checkout: %d %v", rr.Code, out)
	}
	if !strings.HasPrefix(out["orderId"].(string), "ord_") {
		t.Fatalf("orderId: %v", out["orderId"])
	}

	tests := []struct {
		name, body, code string
		status           int
	}{
		{"empty cart", `{"cart":[]}`, "cart_empty", 400},
		{"no cart", `{}`, "cart_empty", 400},
		{"malformed", `{"cart":`, "cart_empty", 400},
		{"unknown product", `{"cart":[{"id":42,"qty":1}]}`, "unknown_product", 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, out := s.do(t, http.MethodPost, "/api/checkout", tt.body, c, nil)
			if rr.Code != tt.status || out["error"] != tt.code {
				t.Fatalf("got %d %v", rr.Code, out)
			}
		})
	}
}

func TestProductsAndHealth(t *testing.T) {
	s := newTestServer(t)

	rr, out := s.do(t, http.MethodGet, "/api/products", "", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("products: %d", rr.Code)
	}
	list := out["products"].([]any)
	if len(list) != 2 || list[1].(map[string]any)["unitPriceCents"] != float64(450) {
		t.Fatalf("products: %v", list)
	}

	rr, _ = s.do(t, http.MethodGet, "/health", "", nil, nil)
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("health: %d %q", rr.Code, rr.Body.String())
	}
	rr, _ = s.do(t, http.MethodGet, "/metrics", "", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rr.Code)
	}
}
