package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"walletline/internal/amqp"
	"walletline/internal/client"
	"walletline/internal/core"
)

type fakeAPI struct {
	wallets    []core.Wallet
	wallet     *core.Wallet
	walletErr  error
	walletTxs  []core.Transaction
	allTxs     []core.Transaction
	fetchErr   error
	fetchCalls int
}

func (f *fakeAPI) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	return f.wallets, nil
}

func (f *fakeAPI) GetWallet(ctx context.Context, walletID string) (*core.Wallet, error) {
	return f.wallet, f.walletErr
}

func (f *fakeAPI) FetchAllWalletTransactions(ctx context.Context, walletID string) ([]core.Transaction, error) {
	f.fetchCalls++
	return f.walletTxs, f.fetchErr
}

func (f *fakeAPI) FetchAllTransactions(ctx context.Context, filters client.TransactionFilters) ([]core.Transaction, error) {
	f.fetchCalls++
	return f.allTxs, f.fetchErr
}

type fakePublisher struct {
	published []*amqp.ExportMessage
	err       error
}

func (f *fakePublisher) PublishExport(ctx context.Context, msg *amqp.ExportMessage) error {
	f.published = append(f.published, msg)
	return f.err
}

func newTestServer(api UpstreamAPI, publisher ExportPublisher) *Server {
	return NewServer(":0", api, Options{
		CacheTTL:  time.Minute,
		Publisher: publisher,
	})
}

func doRequest(s *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func walletTxFixture() []core.Transaction {
	return []core.Transaction{
		{
			ID:              "t1",
			Amount:          50,
			TransactionDate: "2024-02-14T17:00:00Z",
			TransactionType: core.TypeExpense,
			Description:     "Dinner",
			Category:        core.TransactionCategory{Name: "Entertainment"},
		},
		{
			ID:              "t2",
			Amount:          20,
			TransactionDate: "2024-02-14T08:00:00Z",
			TransactionType: core.TypeExpense,
			Description:     "Bus",
			Category:        core.TransactionCategory{Name: "Transportation"},
		},
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&fakeAPI{}, nil)
	rec := doRequest(s, http.MethodGet, "/healthz")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleListWallets_CachesResult(t *testing.T) {
	api := &fakeAPI{wallets: []core.Wallet{{ID: "w1", Name: "Main", Currency: "USD"}}}
	s := newTestServer(api, nil)

	first := doRequest(s, http.MethodGet, "/api/wallets")
	second := doRequest(s, http.MethodGet, "/api/wallets")

	for _, rec := range []*httptest.ResponseRecorder{first, second} {
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body struct {
			Data []core.Wallet `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.Data) != 1 || body.Data[0].Name != "Main" {
			t.Errorf("body = %+v", body)
		}
	}
}

func TestHandleWalletTimeline(t *testing.T) {
	api := &fakeAPI{
		walletTxs: walletTxFixture(),
		wallet:    &core.Wallet{ID: "w1", Name: "Main", Currency: "USD"},
	}
	s := newTestServer(api, nil)

	rec := doRequest(s, http.MethodGet, "/api/wallets/w1/timeline")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var grouped core.GroupedTimeline
	if err := json.Unmarshal(rec.Body.Bytes(), &grouped); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if grouped.Today != nil {
		t.Errorf("today = %+v, want null for all-past fixture", grouped.Today)
	}
	if len(grouped.Months) != 1 || len(grouped.Months[0].Days) != 1 {
		t.Fatalf("months = %+v", grouped.Months)
	}
	day := grouped.Months[0].Days[0]
	if len(day.Items) != 2 || day.Items[0].ID != "t1" || day.Items[1].ID != "t2" {
		t.Errorf("items = %+v, want t1 (17:00) before t2 (08:00)", day.Items)
	}
	// Currency backfilled from the wallet keeps the month total typed.
	if total := grouped.Months[0].Total; total.Value != -70 || total.Currency != "USD" {
		t.Errorf("total = %+v, want -70 USD", total)
	}
}

func TestHandleWalletTimeline_CachesByWalletAndLocale(t *testing.T) {
	api := &fakeAPI{walletTxs: walletTxFixture(), wallet: &core.Wallet{ID: "w1", Currency: "USD"}}
	s := newTestServer(api, nil)

	doRequest(s, http.MethodGet, "/api/wallets/w1/timeline")
	baseline := api.fetchCalls
	doRequest(s, http.MethodGet, "/api/wallets/w1/timeline")
	if api.fetchCalls != baseline {
		t.Errorf("second request refetched upstream (%d -> %d)", baseline, api.fetchCalls)
	}

	doRequest(s, http.MethodGet, "/api/wallets/w1/timeline?locale=de")
	if api.fetchCalls == baseline {
		t.Error("different locale must not share a cache entry")
	}
}

func TestHandleWalletTimeline_UpstreamDown(t *testing.T) {
	api := &fakeAPI{fetchErr: errors.New("connection refused")}
	s := newTestServer(api, nil)

	rec := doRequest(s, http.MethodGet, "/api/wallets/w1/timeline")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestHandleWalletTimeline_NotFound(t *testing.T) {
	api := &fakeAPI{fetchErr: fmt.Errorf("wrap: %w", client.ErrNotFound)}
	s := newTestServer(api, nil)

	rec := doRequest(s, http.MethodGet, "/api/wallets/unknown/timeline")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleTransactionsTimeline(t *testing.T) {
	now := time.Now()
	api := &fakeAPI{allTxs: []core.Transaction{{
		ID:              "today-1",
		Amount:          5,
		TransactionDate: now.UTC().Format(time.RFC3339),
		TransactionType: core.TypeIncome,
	}}}
	s := newTestServer(api, nil)

	rec := doRequest(s, http.MethodGet, "/api/transactions/timeline?type=income&per_page=50")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var grouped core.GroupedTimeline
	if err := json.Unmarshal(rec.Body.Bytes(), &grouped); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if grouped.Today == nil || len(grouped.Today.Items) != 1 {
		t.Errorf("today = %+v, want the single fresh item", grouped.Today)
	}
	if grouped.Months == nil {
		t.Error("months must encode as [] rather than null")
	}
}

func TestHandleExportWallet(t *testing.T) {
	publisher := &fakePublisher{}
	s := newTestServer(&fakeAPI{}, publisher)

	rec := doRequest(s, http.MethodPost, "/api/wallets/w1/export?locale=it")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if len(publisher.published) != 1 || publisher.published[0].WalletID != "w1" || publisher.published[0].Locale != "it" {
		t.Errorf("published = %+v", publisher.published)
	}
}

func TestHandleExportWallet_NoQueue(t *testing.T) {
	s := newTestServer(&fakeAPI{}, nil)

	rec := doRequest(s, http.MethodPost, "/api/wallets/w1/export")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHandleExportWallet_PublishFailure(t *testing.T) {
	s := newTestServer(&fakeAPI{}, &fakePublisher{err: errors.New("broker down")})

	rec := doRequest(s, http.MethodPost, "/api/wallets/w1/export")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestParseFilters(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/api/transactions/timeline?type=expense&start=2024-01-01&wallet_id=w1&sort=-amount&per_page=25", nil)

	f := parseFilters(req)

	want := client.TransactionFilters{
		Type:     core.TypeExpense,
		Start:    "2024-01-01",
		WalletID: "w1",
		Sort:     "-amount",
		PerPage:  25,
	}
	if f != want {
		t.Errorf("filters = %+v, want %+v", f, want)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)

	if !rl.allow("1.2.3.4") || !rl.allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("1.2.3.4") {
		t.Error("third request in the window should be rejected")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("limits are per client")
	}
}
