package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/afric-remit/bankapp/internal/auth"
	"github.com/afric-remit/bankapp/internal/interfaces"
	"github.com/afric-remit/bankapp/internal/ledger"
	"github.com/afric-remit/bankapp/internal/models"
	"github.com/afric-remit/bankapp/internal/models/events"
	"github.com/afric-remit/bankapp/internal/server"
	"github.com/afric-remit/bankapp/internal/storage/memory"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	topics []string
	events []events.TransactionPosted
}

func (p *capturePublisher) Publish(topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event.(events.TransactionPosted))
	return nil
}

type fixture struct {
	ts        *httptest.Server
	store     *memory.Store
	publisher *capturePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	require.NoError(t, store.Create(context.Background(), &models.Account{
		AccountNumber: "123456789",
		Balance:       decimal.RequireFromString("100.00"),
	}))

	clock := interfaces.SystemClock{}
	processor := ledger.NewProcessor(store, clock)
	authSvc := auth.NewService(memory.NewUserStore(), clock, []byte("test-secret"), time.Hour)
	publisher := &capturePublisher{}

	srv := server.New(processor, authSvc, publisher, "transaction_posted", zap.NewNop())
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &fixture{ts: ts, store: store, publisher: publisher}
}

func (f *fixture) post(t *testing.T, path, token, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, f.ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func (f *fixture) get(t *testing.T, path, token string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, f.ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func (f *fixture) login(t *testing.T) string {
	t.Helper()
	resp, _ := f.post(t, "/api/register", "", `{"username":"testuser","password":"password123","email":"test@example.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.post(t, "/api/login", "", `{"username":"testuser","password":"password123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	require.NotEmpty(t, out["token"])
	return out["token"]
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp, body := f.get(t, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestRegisterAndLoginFlow(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)
	assert.NotEmpty(t, token)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	resp, body := f.post(t, "/api/register", "", `{"username":"testuser","password":"other","email":"o@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "username already exists")
}

func TestRegisterInvalidEmail(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.post(t, "/api/register", "", `{"username":"testuser","password":"password123","email":"invalid-email"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	resp, _ := f.post(t, "/api/login", "", `{"username":"testuser","password":"wrong"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreditHappyPath(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	resp, body := f.post(t, "/api/account/credit", token, `{"accountNumber":"123456789","amount":"50.00"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Credit successful", body)

	account, err := f.store.FindByAccountNumber(context.Background(), "123456789")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("150.00")))

	require.Len(t, f.publisher.events, 1)
	event := f.publisher.events[0]
	assert.Equal(t, "CREDIT", event.Type)
	assert.Equal(t, "testuser", event.InitiatedBy)
	assert.Equal(t, "transaction_posted", f.publisher.topics[0])
}

func TestDebitHappyPath(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	resp, body := f.post(t, "/api/account/debit", token, `{"accountNumber":"123456789","amount":"100.00"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Debit successful", body)

	account, err := f.store.FindByAccountNumber(context.Background(), "123456789")
	require.NoError(t, err)
	assert.True(t, account.Balance.IsZero())
}

func TestDebitInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	resp, body := f.post(t, "/api/account/debit", token, `{"accountNumber":"123456789","amount":"200.00"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "insufficient funds")

	account, err := f.store.FindByAccountNumber(context.Background(), "123456789")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("100.00")))
	assert.Empty(t, f.publisher.events)
}

func TestTransactionValidation(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"missing account number", `{"amount":"100.00"}`, http.StatusBadRequest, "Account number is required"},
		{"missing amount", `{"accountNumber":"123456789"}`, http.StatusBadRequest, "Amount is required"},
		{"negative amount", `{"accountNumber":"123456789","amount":"-100.00"}`, http.StatusBadRequest, "amount must be positive"},
		{"zero amount", `{"accountNumber":"123456789","amount":"0"}`, http.StatusBadRequest, "amount must be positive"},
		{"malformed json", `invalid json`, http.StatusBadRequest, "invalid request body"},
		{"unknown account", `{"accountNumber":"nonexistent","amount":"50.00"}`, http.StatusNotFound, "Account not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.post(t, "/api/account/credit", token, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, body, tt.message)
		})
	}
}

func TestAuthenticationRequired(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.post(t, "/api/account/credit", "", `{"accountNumber":"123456789","amount":"100.00"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.post(t, "/api/account/credit", "invalid-token", `{"accountNumber":"123456789","amount":"100.00"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	account, err := f.store.FindByAccountNumber(context.Background(), "123456789")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("100.00")))
}

func TestBalanceAndJournalEndpoints(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	for i := 0; i < 3; i++ {
		resp, _ := f.post(t, "/api/account/credit", token, fmt.Sprintf(`{"accountNumber":"123456789","amount":"%d.00"}`, i+1))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := f.get(t, "/api/account/123456789/balance", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"106"`)

	resp, body = f.get(t, "/api/account/123456789/journal", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []models.JournalEntry
	require.NoError(t, json.Unmarshal([]byte(body), &entries))
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Amount.Equal(decimal.RequireFromString("3.00")))

	resp, _ = f.get(t, "/api/account/nonexistent/journal", token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
