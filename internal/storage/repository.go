// Package storage keeps a local snapshot of fetched transactions so
// timelines can still be served or exported while the upstream API is
// unreachable.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"walletline/internal/core"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReplaceWalletTransactions swaps the stored snapshot of one wallet for
// a freshly fetched batch, atomically.
func (r *Repository) ReplaceWalletTransactions(ctx context.Context, walletID string, txs []core.Transaction) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM transactions WHERE wallet_id = ?`, walletID); err != nil {
		return fmt.Errorf("clear wallet snapshot: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	const insert = `
		INSERT INTO transactions
			(id, wallet_id, amount, transaction_date, transaction_type,
			 description, category_name, wallet_name, wallet_currency, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, tx := range txs {
		wid := tx.WalletID
		if wid == "" {
			wid = walletID
		}
		_, err := dbTx.ExecContext(ctx, insert,
			tx.ID, wid, float64(tx.Amount), tx.TransactionDate, string(tx.TransactionType),
			tx.Description, tx.Category.Name, tx.Wallet.Name, tx.Wallet.Currency, now)
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// ListWalletTransactions returns the stored snapshot for one wallet,
// newest first.
func (r *Repository) ListWalletTransactions(ctx context.Context, walletID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, wallet_id, amount, transaction_date, transaction_type,
		       description, category_name, wallet_name, wallet_currency
		FROM transactions
		WHERE wallet_id = ?
		ORDER BY transaction_date DESC`, walletID)
	if err != nil {
		return nil, fmt.Errorf("query wallet transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListTransactions returns every stored transaction, newest first.
func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, wallet_id, amount, transaction_date, transaction_type,
		       description, category_name, wallet_name, wallet_currency
		FROM transactions
		ORDER BY transaction_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// WalletFetchedAt reports when a wallet's snapshot was last replaced.
// A zero time means no snapshot exists.
func (r *Repository) WalletFetchedAt(ctx context.Context, walletID string) (time.Time, error) {
	var fetchedAt sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(fetched_at) FROM transactions WHERE wallet_id = ?`, walletID).Scan(&fetchedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("query fetched_at: %w", err)
	}
	if !fetchedAt.Valid || fetchedAt.String == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, fetchedAt.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse fetched_at: %w", err)
	}
	return parsed, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var txs []core.Transaction
	for rows.Next() {
		var tx core.Transaction
		var amount float64
		var txType string
		err := rows.Scan(&tx.ID, &tx.WalletID, &amount, &tx.TransactionDate, &txType,
			&tx.Description, &tx.Category.Name, &tx.Wallet.Name, &tx.Wallet.Currency)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Amount = core.Amount(amount)
		tx.TransactionType = core.TransactionType(txType)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}
