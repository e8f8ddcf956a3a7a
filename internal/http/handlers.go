package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"walletline/internal/amqp"
	"walletline/internal/client"
	"walletline/internal/core"
	"walletline/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	const cacheKey = "wallets"
	if wallets, ok := s.walletsCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, map[string]any{"data": wallets})
		return
	}

	wallets, err := s.api.ListWallets(r.Context())
	if err != nil {
		s.writeUpstreamError(w, r, "list wallets", err)
		return
	}
	s.walletsCache.Set(cacheKey, wallets)
	writeJSON(w, http.StatusOK, map[string]any{"data": wallets})
}

func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := s.api.GetWallet(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeUpstreamError(w, r, "get wallet", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": wallet})
}

// handleWalletTimeline serves the grouped timeline of a single wallet,
// the payload behind the wallet detail sheet.
func (s *Server) handleWalletTimeline(w http.ResponseWriter, r *http.Request) {
	walletID := r.PathValue("id")
	locale := s.locale(r)
	cacheKey := "wallet:" + walletID + ":" + locale

	if grouped, ok := s.timelineCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, grouped)
		return
	}

	txs, err := s.api.FetchAllWalletTransactions(r.Context(), walletID)
	if err != nil {
		s.writeUpstreamError(w, r, "fetch wallet transactions", err)
		return
	}

	items := core.TimelineItems(txs)
	// Wallet-scoped records carry no currency; backfill from the wallet
	// so month totals come out with one.
	if wallet, err := s.api.GetWallet(r.Context(), walletID); err == nil && wallet.Currency != "" {
		for i := range items {
			if items[i].Amount.Currency == "" {
				items[i].Amount.Currency = wallet.Currency
			}
		}
	}

	grouped := core.GroupTimeline(items, core.GroupOptions{Locale: locale})
	s.timelineCache.Set(cacheKey, grouped)
	writeJSON(w, http.StatusOK, grouped)
}

// handleTransactionsTimeline serves the grouped timeline of the
// user-wide transaction listing, honoring the upstream filters.
func (s *Server) handleTransactionsTimeline(w http.ResponseWriter, r *http.Request) {
	filters := parseFilters(r)
	locale := s.locale(r)
	cacheKey := "transactions:" + r.URL.RawQuery

	if grouped, ok := s.timelineCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, grouped)
		return
	}

	txs, err := s.api.FetchAllTransactions(r.Context(), filters)
	if err != nil {
		s.writeUpstreamError(w, r, "fetch transactions", err)
		return
	}

	grouped := core.GroupTimeline(core.TimelineItems(txs), core.GroupOptions{Locale: locale})
	s.timelineCache.Set(cacheKey, grouped)
	writeJSON(w, http.StatusOK, grouped)
}

func (s *Server) handleExportWallet(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("export queue is not configured"))
		return
	}

	msg := amqp.NewExportMessage(r.PathValue("id"), s.locale(r))
	if err := s.publisher.PublishExport(r.Context(), msg); err != nil {
		s.logger.ErrorContext(r.Context(), "publish export failed",
			log.FieldWalletID, msg.WalletID,
			log.FieldError, err)
		writeJSON(w, http.StatusBadGateway, errorBody("failed to enqueue export"))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) locale(r *http.Request) string {
	if locale := r.URL.Query().Get("locale"); locale != "" {
		return locale
	}
	return s.defaultLocale
}

func (s *Server) writeUpstreamError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.ErrorContext(r.Context(), "upstream call failed",
		"operation", op,
		log.FieldError, err)
	if errors.Is(err, client.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusBadGateway, errorBody("upstream request failed"))
}

func parseFilters(r *http.Request) client.TransactionFilters {
	q := r.URL.Query()
	f := client.TransactionFilters{
		Type:       core.TransactionType(q.Get("type")),
		Start:      q.Get("start"),
		End:        q.Get("end"),
		WalletID:   q.Get("wallet_id"),
		CategoryID: q.Get("category_id"),
		Search:     q.Get("search"),
		Sort:       q.Get("sort"),
	}
	if v := q.Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.PerPage = n
		}
	}
	return f
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}
