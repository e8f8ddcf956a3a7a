// Package client talks to the upstream wallet/transaction REST API and
// normalizes its inconsistently wrapped responses.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"walletline/internal/core"
	"walletline/internal/log"
	"walletline/internal/pagination"
)

var (
	// ErrNotPaginated means a response carried no locatable item array.
	ErrNotPaginated = errors.New("upstream response is not paginated")
	// ErrNotFound maps upstream 404s.
	ErrNotFound = errors.New("not found upstream")
)

// Config configures a Client. Zero values get sensible defaults.
type Config struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration
	PerPage     int
	Concurrency int
	Logger      *log.Logger
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

type Client struct {
	baseURL     string
	token       string
	httpc       *http.Client
	perPage     int
	concurrency int
	logger      *log.Logger
}

func New(cfg Config) *Client {
	httpc := cfg.HTTPClient
	if httpc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpc = &http.Client{Timeout: timeout}
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentClient})
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		httpc:       httpc,
		perPage:     perPage,
		concurrency: concurrency,
		logger:      logger.WithComponent(log.ComponentClient),
	}
}

// ListTransactions fetches one page of the user-wide transaction listing.
func (c *Client) ListTransactions(ctx context.Context, f TransactionFilters) (*pagination.Page[core.Transaction], error) {
	if f.PerPage == 0 {
		f.PerPage = c.perPage
	}
	raw, err := c.getJSON(ctx, "/user/transactions", f.Values())
	if err != nil {
		return nil, err
	}
	page := pagination.Coerce[core.Transaction](raw)
	if page == nil {
		return nil, fmt.Errorf("list transactions: %w", ErrNotPaginated)
	}
	return page, nil
}

// ListWalletTransactions fetches one page of a single wallet's history.
func (c *Client) ListWalletTransactions(ctx context.Context, walletID string, page, perPage int) (*pagination.Page[core.Transaction], error) {
	if perPage <= 0 {
		perPage = c.perPage
	}
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	q.Set("per_page", strconv.Itoa(perPage))

	raw, err := c.getJSON(ctx, "/user/wallets/"+url.PathEscape(walletID)+"/transactions", q)
	if err != nil {
		return nil, err
	}
	coerced := pagination.Coerce[core.Transaction](raw)
	if coerced == nil {
		return nil, fmt.Errorf("list wallet %s transactions: %w", walletID, ErrNotPaginated)
	}
	return coerced, nil
}

// ListWallets fetches the user's wallets.
func (c *Client) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	raw, err := c.getJSON(ctx, "/user/wallets", nil)
	if err != nil {
		return nil, err
	}
	page := pagination.Coerce[core.Wallet](raw)
	if page == nil {
		return nil, fmt.Errorf("list wallets: %w", ErrNotPaginated)
	}
	return page.Data, nil
}

// GetWallet fetches a single wallet detail record.
func (c *Client) GetWallet(ctx context.Context, walletID string) (*core.Wallet, error) {
	raw, err := c.getJSON(ctx, "/user/wallets/"+url.PathEscape(walletID), nil)
	if err != nil {
		return nil, err
	}

	// Detail payloads use the same 0-2 level envelope as listings.
	payload, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("get wallet %s: unexpected payload shape", walletID)
	}
	for attempt := 0; attempt < 2; attempt++ {
		inner, ok := payload["data"].(map[string]any)
		if !ok {
			break
		}
		payload = inner
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("get wallet %s: %w", walletID, err)
	}
	var wallet core.Wallet
	if err := json.Unmarshal(encoded, &wallet); err != nil {
		return nil, fmt.Errorf("get wallet %s: %w", walletID, err)
	}
	if wallet.ID == "" {
		return nil, fmt.Errorf("get wallet %s: %w", walletID, ErrNotFound)
	}
	return &wallet, nil
}

// FetchAllTransactions walks every page of a filtered listing. The first
// page is fetched alone to learn the page count; the rest are fetched
// concurrently and reassembled in page order.
func (c *Client) FetchAllTransactions(ctx context.Context, f TransactionFilters) ([]core.Transaction, error) {
	return c.fetchAll(ctx, func(ctx context.Context, page int) (*pagination.Page[core.Transaction], error) {
		return c.ListTransactions(ctx, f.WithPage(page))
	})
}

// FetchAllWalletTransactions walks every page of a wallet's history.
func (c *Client) FetchAllWalletTransactions(ctx context.Context, walletID string) ([]core.Transaction, error) {
	return c.fetchAll(ctx, func(ctx context.Context, page int) (*pagination.Page[core.Transaction], error) {
		return c.ListWalletTransactions(ctx, walletID, page, c.perPage)
	})
}

func (c *Client) fetchAll(ctx context.Context, fetch func(ctx context.Context, page int) (*pagination.Page[core.Transaction], error)) ([]core.Transaction, error) {
	first, err := fetch(ctx, 1)
	if err != nil {
		return nil, err
	}
	if first.LastPage <= first.CurrentPage {
		return first.Data, nil
	}

	pages := make([][]core.Transaction, first.LastPage+1)
	pages[1] = first.Data

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for page := 2; page <= first.LastPage; page++ {
		g.Go(func() error {
			result, err := fetch(gctx, page)
			if err != nil {
				return err
			}
			pages[page] = result.Data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []core.Transaction
	for _, page := range pages {
		all = append(all, page...)
	}
	c.logger.InfoContext(ctx, "fetched all pages",
		log.FieldLastPage, first.LastPage,
		log.FieldItemCount, len(all))
	return all, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values) (any, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.InfoContext(ctx, "upstream request",
		log.FieldPath, path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("GET %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: upstream status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return raw, nil
}
