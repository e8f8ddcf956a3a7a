// Package worker turns timeline export requests into spreadsheet rows.
package worker

import (
	"context"
	"fmt"

	"walletline/internal/amqp"
	"walletline/internal/core"
	"walletline/internal/log"
	"walletline/internal/sheets"
)

// TransactionFetcher pulls a wallet's full history from the upstream API.
type TransactionFetcher interface {
	FetchAllWalletTransactions(ctx context.Context, walletID string) ([]core.Transaction, error)
}

// WalletGetter resolves wallet details (name, currency) upstream.
type WalletGetter interface {
	GetWallet(ctx context.Context, walletID string) (*core.Wallet, error)
}

// SnapshotStore is the local fallback used when the upstream is down.
type SnapshotStore interface {
	ListWalletTransactions(ctx context.Context, walletID string) ([]core.Transaction, error)
	ReplaceWalletTransactions(ctx context.Context, walletID string, txs []core.Transaction) error
}

// ExportWorker handles export messages: fetch, group, write.
type ExportWorker struct {
	fetcher       TransactionFetcher
	wallets       WalletGetter
	store         SnapshotStore
	writer        sheets.TimelineWriter
	defaultLocale string
	logger        *log.Logger
}

func NewExportWorker(fetcher TransactionFetcher, wallets WalletGetter, store SnapshotStore, writer sheets.TimelineWriter, defaultLocale string, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentWorker})
	}
	return &ExportWorker{
		fetcher:       fetcher,
		wallets:       wallets,
		store:         store,
		writer:        writer,
		defaultLocale: defaultLocale,
		logger:        logger.WithComponent(log.ComponentWorker),
	}
}

// HandleExport processes one export message. A fresh fetch is preferred
// and snapshotted; when the upstream fails, the last snapshot is used
// instead so exports keep working through outages.
func (w *ExportWorker) HandleExport(ctx context.Context, msg *amqp.ExportMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	txs, err := w.loadTransactions(ctx, msg.WalletID)
	if err != nil {
		return err
	}

	walletName := msg.WalletID
	currencyFallback := ""
	if w.wallets != nil {
		if wallet, err := w.wallets.GetWallet(ctx, msg.WalletID); err == nil {
			walletName = wallet.Name
			currencyFallback = wallet.Currency
		} else {
			w.logger.WarnContext(ctx, "wallet lookup failed, using id as name",
				log.FieldWalletID, msg.WalletID,
				log.FieldError, err)
		}
	}

	items := core.TimelineItems(txs)
	// Wallet-scoped records carry no currency of their own; the wallet's
	// currency keeps month totals meaningful.
	if currencyFallback != "" {
		for i := range items {
			if items[i].Amount.Currency == "" {
				items[i].Amount.Currency = currencyFallback
			}
		}
	}

	locale := msg.Locale
	if locale == "" {
		locale = w.defaultLocale
	}
	grouped := core.GroupTimeline(items, core.GroupOptions{Locale: locale})

	if err := w.writer.WriteTimeline(ctx, walletName, grouped); err != nil {
		return fmt.Errorf("write timeline for wallet %s: %w", msg.WalletID, err)
	}

	w.logger.InfoContext(ctx, "exported wallet timeline",
		log.FieldWalletID, msg.WalletID,
		log.FieldLocale, locale,
		log.FieldItemCount, len(items))
	return nil
}

func (w *ExportWorker) loadTransactions(ctx context.Context, walletID string) ([]core.Transaction, error) {
	txs, fetchErr := w.fetcher.FetchAllWalletTransactions(ctx, walletID)
	if fetchErr == nil {
		if w.store != nil {
			if err := w.store.ReplaceWalletTransactions(ctx, walletID, txs); err != nil {
				w.logger.WarnContext(ctx, "snapshot update failed",
					log.FieldWalletID, walletID,
					log.FieldError, err)
			}
		}
		return txs, nil
	}

	if w.store == nil {
		return nil, fmt.Errorf("fetch wallet %s transactions: %w", walletID, fetchErr)
	}

	w.logger.WarnContext(ctx, "upstream fetch failed, falling back to snapshot",
		log.FieldWalletID, walletID,
		log.FieldError, fetchErr)
	snapshot, err := w.store.ListWalletTransactions(ctx, walletID)
	if err != nil || len(snapshot) == 0 {
		return nil, fmt.Errorf("fetch wallet %s transactions: %w", walletID, fetchErr)
	}
	return snapshot, nil
}
