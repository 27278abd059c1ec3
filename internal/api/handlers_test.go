package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrno/tokenmarket/internal/apierr"
	"github.com/vrno/tokenmarket/internal/auth"
	"github.com/vrno/tokenmarket/internal/models"
	"github.com/vrno/tokenmarket/internal/notify"
)

const testAPIKey = "test-gateway-key"

// fakeStore satisfies Store in memory and counts writes so tests can assert
// the database was never touched.
type fakeStore struct {
	users        map[string]*models.User // by id
	balances     map[string]*models.Balance
	configs      map[string]string
	packages     map[string]*models.TokenPackage
	collectibles map[string]*models.Collectible

	tradeCalls    int
	purchaseCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[string]*models.User),
		balances:     make(map[string]*models.Balance),
		configs:      make(map[string]string),
		packages:     make(map[string]*models.TokenPackage),
		collectibles: make(map[string]*models.Collectible),
	}
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apierr.NotFound("user")
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apierr.NotFound("user")
}

func (f *fakeStore) GetBalance(_ context.Context, username string) (*models.Balance, error) {
	for _, b := range f.balances {
		if b.Username == username {
			return b, nil
		}
	}
	return nil, apierr.NotFound("user")
}

func (f *fakeStore) GetBalanceByID(_ context.Context, userID string) (*models.Balance, error) {
	if b, ok := f.balances[userID]; ok {
		return b, nil
	}
	return nil, apierr.NotFound("user")
}

func (f *fakeStore) GetUserAssets(context.Context, string) ([]models.Asset, error) {
	return nil, nil
}

func (f *fakeStore) GetUserReferrals(context.Context, string) ([]models.Referral, error) {
	return nil, nil
}

func (f *fakeStore) GetUserMovements(context.Context, string, int) ([]models.Transaction, error) {
	return nil, nil
}

func (f *fakeStore) GetPortfolioGains(context.Context, string) (*models.PortfolioGains, error) {
	return &models.PortfolioGains{}, nil
}

func (f *fakeStore) ListCollectibles(context.Context) ([]models.Collectible, error) {
	var out []models.Collectible
	for _, c := range f.collectibles {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeStore) GetCollectible(_ context.Context, id string) (*models.Collectible, error) {
	if c, ok := f.collectibles[id]; ok {
		return c, nil
	}
	return nil, apierr.NotFound("collectible")
}

func (f *fakeStore) ListPrices(context.Context) (map[string]float64, error) {
	prices := make(map[string]float64)
	for _, c := range f.collectibles {
		prices[c.Name] = c.CurrentPrice
	}
	return prices, nil
}

func (f *fakeStore) ListImages(context.Context) (map[string]string, error) {
	return map[string]string{}, nil
}

func (f *fakeStore) GetPriceHistory(context.Context, string, int) ([]models.PricePoint, error) {
	return nil, nil
}

func (f *fakeStore) GetMarketSummary(context.Context, string) (*models.MarketSummary, error) {
	return nil, apierr.NotFound("market summary")
}

func (f *fakeStore) ExecuteTrade(_ context.Context, userID, collectibleID, tradeType string, quantity float64) (*models.Transaction, error) {
	f.tradeCalls++
	return &models.Transaction{
		ID:            "tx-1",
		UserID:        userID,
		CollectibleID: collectibleID,
		Type:          tradeType,
		Quantity:      quantity,
		Status:        models.TxCompleted,
	}, nil
}

func (f *fakeStore) RecordPurchase(_ context.Context, userID string, tokens, amountUSD float64) (*models.Transaction, error) {
	f.purchaseCalls++
	if b, ok := f.balances[userID]; ok {
		b.Balance += tokens
	}
	return &models.Transaction{
		ID:       "tx-p1",
		UserID:   userID,
		Type:     models.TxPurchase,
		Quantity: tokens,
		Amount:   amountUSD,
		Status:   models.TxCompleted,
	}, nil
}

func (f *fakeStore) ListAdminConfigs(context.Context) ([]models.AdminConfig, error) {
	var out []models.AdminConfig
	for k, v := range f.configs {
		out = append(out, models.AdminConfig{Key: k, Value: v})
	}
	return out, nil
}

func (f *fakeStore) GetAdminConfig(_ context.Context, key string) (string, error) {
	if v, ok := f.configs[key]; ok {
		return v, nil
	}
	return "", apierr.NotFound("config")
}

func (f *fakeStore) SetAdminConfig(_ context.Context, key, value string) error {
	f.configs[key] = value
	return nil
}

func (f *fakeStore) ListTokenPackages(context.Context) ([]models.TokenPackage, error) {
	var out []models.TokenPackage
	for _, p := range f.packages {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) GetTokenPackage(_ context.Context, id string) (*models.TokenPackage, error) {
	if p, ok := f.packages[id]; ok {
		return p, nil
	}
	return nil, apierr.NotFound("token package")
}

func (f *fakeStore) CreateTokenPackage(_ context.Context, p *models.TokenPackage) (*models.TokenPackage, error) {
	p.ID = "pkg-new"
	f.packages[p.ID] = p
	return p, nil
}

func (f *fakeStore) UpdateTokenPackage(_ context.Context, p *models.TokenPackage) error {
	if _, ok := f.packages[p.ID]; !ok {
		return apierr.NotFound("token package")
	}
	f.packages[p.ID] = p
	return nil
}

func (f *fakeStore) DeleteTokenPackage(_ context.Context, id string) error {
	if _, ok := f.packages[id]; !ok {
		return apierr.NotFound("token package")
	}
	delete(f.packages, id)
	return nil
}

func (f *fakeStore) ListReferralCodes(context.Context) ([]models.ReferralCode, error) {
	return nil, nil
}

func (f *fakeStore) CreateReferralCode(_ context.Context, code, ownerID string, maxUses int) (*models.ReferralCode, error) {
	return &models.ReferralCode{ID: "rc-1", Code: code, OwnerID: ownerID, MaxUses: maxUses}, nil
}

// fakeTokens is an in-memory auth.TokenStore with once-only consumption.
type fakeTokens struct {
	rows map[string]struct {
		userID, purpose string
		expiresAt       time.Time
		used            bool
	}
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{rows: make(map[string]struct {
		userID, purpose string
		expiresAt       time.Time
		used            bool
	})}
}

func (f *fakeTokens) InsertAuthToken(_ context.Context, tokenHash, userID, purpose string, expiresAt time.Time) error {
	f.rows[tokenHash] = struct {
		userID, purpose string
		expiresAt       time.Time
		used            bool
	}{userID, purpose, expiresAt, false}
	return nil
}

func (f *fakeTokens) ConsumeAuthToken(_ context.Context, tokenHash, purpose string) (string, error) {
	row, ok := f.rows[tokenHash]
	if !ok || row.used || row.purpose != purpose || time.Now().After(row.expiresAt) {
		return "", apierr.Auth("invalid or expired token")
	}
	row.used = true
	f.rows[tokenHash] = row
	return row.userID, nil
}

type fakePayments struct {
	captured []string
}

func (p *fakePayments) CreateOrder(_ context.Context, amountUSD float64, _ string) (*notify.PaymentOrder, error) {
	return &notify.PaymentOrder{ID: "order-1", Status: "CREATED", ApproveURL: "https://paypal.test/approve"}, nil
}

func (p *fakePayments) CaptureOrder(_ context.Context, orderID string) (*notify.PaymentCapture, error) {
	p.captured = append(p.captured, orderID)
	return &notify.PaymentCapture{ID: orderID, Status: "COMPLETED"}, nil
}

type fakeEmail struct{ sent []string }

func (e *fakeEmail) Send(_ context.Context, to, _, _ string) error {
	e.sent = append(e.sent, to)
	return nil
}

type testEnv struct {
	store    *fakeStore
	auth     *auth.Service
	payments *fakePayments
	email    *fakeEmail
	router   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newFakeStore()
	authSvc := auth.NewService(testAPIKey, newFakeTokens(), 15*time.Minute)
	payments := &fakePayments{}
	email := &fakeEmail{}

	h := NewHandler(store, authSvc, email, notify.DisabledSMS(), payments, zerolog.Nop())
	return &testEnv{
		store:    store,
		auth:     authSvc,
		payments: payments,
		email:    email,
		router:   NewRouter(h, http.NotFoundHandler(), []string{"*"}),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func withKey(extra map[string]string) map[string]string {
	h := map[string]string{"vrno-api-key": testAPIKey}
	for k, v := range extra {
		h[k] = v
	}
	return h
}

func TestMissingAPIKeyRejectedBeforeHandler(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{"user_id": "u1", "asset_id": "a1", "type": "buy", "amount": 2.0}

	rec := env.do(t, http.MethodPost, "/api/transactions", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/transactions", body, map[string]string{"vrno-api-key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Zero(t, env.store.tradeCalls, "handler must not run without a valid key")
}

func TestAPIKeyAltHeaderAccepted(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/tokens",
		map[string]string{"user_id": "u1", "purpose": "trade"},
		map[string]string{"x-api-key": testAPIKey})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestOneTimeTokenConsumedOnce(t *testing.T) {
	env := newTestEnv(t)

	token, _, err := env.auth.IssueToken(context.Background(), "u1", "trade")
	require.NoError(t, err)

	body := map[string]any{"user_id": "u1", "asset_id": "a1", "type": "buy", "amount": 2.0}
	headers := withKey(map[string]string{"x-auth-token": token})

	rec := env.do(t, http.MethodPost, "/api/transactions", body, headers)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, env.store.tradeCalls)

	// Same token again.
	rec = env.do(t, http.MethodPost, "/api/transactions", body, headers)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1, env.store.tradeCalls)
}

func TestTokenUserMustMatchTradeUser(t *testing.T) {
	env := newTestEnv(t)

	token, _, err := env.auth.IssueToken(context.Background(), "u2", "trade")
	require.NoError(t, err)

	body := map[string]any{"user_id": "u1", "asset_id": "a1", "type": "buy", "amount": 2.0}
	rec := env.do(t, http.MethodPost, "/api/transactions", body, withKey(map[string]string{"x-auth-token": token}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, env.store.tradeCalls)
}

func TestBalanceReadEchoesStoredValue(t *testing.T) {
	env := newTestEnv(t)
	env.store.balances["u1"] = &models.Balance{UserID: "u1", Username: "alice", Balance: 123.45}

	rec := env.do(t, http.MethodGet, "/api/users/alice/balance", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Balance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 123.45, got.Balance)
	assert.Equal(t, "alice", got.Username)
}

func TestNegativeTradeAmountRejectedBeforeStore(t *testing.T) {
	env := newTestEnv(t)

	token, _, err := env.auth.IssueToken(context.Background(), "u1", "trade")
	require.NoError(t, err)

	body := map[string]any{"user_id": "u1", "asset_id": "a1", "type": "buy", "amount": -5.0}
	rec := env.do(t, http.MethodPost, "/api/transactions", body, withKey(map[string]string{"x-auth-token": token}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, env.store.tradeCalls, "store must not be touched")
}

func TestTradeValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing user", map[string]any{"asset_id": "a1", "type": "buy", "amount": 1.0}},
		{"missing asset", map[string]any{"user_id": "u1", "type": "buy", "amount": 1.0}},
		{"bad type", map[string]any{"user_id": "u1", "asset_id": "a1", "type": "hodl", "amount": 1.0}},
		{"zero amount", map[string]any{"user_id": "u1", "asset_id": "a1", "type": "sell", "amount": 0.0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, _, err := env.auth.IssueToken(context.Background(), "u1", "trade")
			require.NoError(t, err)

			rec := env.do(t, http.MethodPost, "/api/transactions", tc.body, withKey(map[string]string{"x-auth-token": token}))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Zero(t, env.store.tradeCalls)
}

func TestMaintenanceMode(t *testing.T) {
	env := newTestEnv(t)
	env.store.configs["maintenance_mode"] = "true"

	rec := env.do(t, http.MethodGet, "/api/collectibles", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// Health and admin stay reachable so the flag can be flipped back.
	rec = env.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/admin/configs",
		map[string]string{"config_key": "maintenance_mode", "config_value": "false"}, withKey(nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/collectibles", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMaintenanceStatusPublic(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/maintenance", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"maintenance":false}`, rec.Body.String())

	env.store.configs["maintenance_mode"] = "true"
	rec = env.do(t, http.MethodGet, "/api/maintenance", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"maintenance":true}`, rec.Body.String())
}

func TestSecureBalanceUsesTokenUser(t *testing.T) {
	env := newTestEnv(t)
	env.store.balances["u1"] = &models.Balance{UserID: "u1", Username: "alice", Balance: 42}

	token, _, err := env.auth.IssueToken(context.Background(), "u1", "read")
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/secure/balance", nil, withKey(map[string]string{"x-auth-token": token}))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Balance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, 42.0, got.Balance)
}

func TestPaymentCaptureCreditsAndSendsReceipt(t *testing.T) {
	env := newTestEnv(t)
	env.store.users["u1"] = &models.User{ID: "u1", Username: "alice", Email: "alice@example.com"}
	env.store.balances["u1"] = &models.Balance{UserID: "u1", Username: "alice", Balance: 10}
	env.store.packages["pkg1"] = &models.TokenPackage{ID: "pkg1", Name: "Starter", Tokens: 100, PriceUSD: 4.99, Active: true}

	token, _, err := env.auth.IssueToken(context.Background(), "u1", "payment")
	require.NoError(t, err)

	body := map[string]string{"user_id": "u1", "package_id": "pkg1"}
	rec := env.do(t, http.MethodPost, "/api/payments/orders/order-1/capture", body, withKey(map[string]string{"x-auth-token": token}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, []string{"order-1"}, env.payments.captured)
	assert.Equal(t, 1, env.store.purchaseCalls)
	assert.Equal(t, 110.0, env.store.balances["u1"].Balance)
	assert.Equal(t, []string{"alice@example.com"}, env.email.sent)
}

func TestCreatePaymentOrderInactivePackage(t *testing.T) {
	env := newTestEnv(t)
	env.store.packages["pkg1"] = &models.TokenPackage{ID: "pkg1", Name: "Retired", Tokens: 100, PriceUSD: 4.99, Active: false}

	body := map[string]string{"user_id": "u1", "package_id": "pkg1"}
	rec := env.do(t, http.MethodPost, "/api/payments/orders", body, withKey(nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownCollectible404(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/collectibles/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
