package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/logger"
	"ngo-backend/internal/repository"
)

type transactionRepository struct {
	db      *sql.DB
	connStr string
}

func NewTransactionRepository(db *sql.DB, connStr string) repository.TransactionRepository {
	return &transactionRepository{db: db, connStr: connStr}
}

func (r *transactionRepository) Add(ctx context.Context, tx *domain.Transaction) error {
	query := `INSERT INTO transactions (amount, type, date, description, member_name, transaction_id)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	logger.StoreCall("INSERT", repository.CollectionTransactions, "type", tx.Type)
	err := r.db.QueryRowContext(ctx, query,
		tx.Amount.StringFixed(domain.AmountScale), tx.Type, tx.Date, tx.Description,
		nullString(tx.MemberName), nullString(tx.TransactionID),
	).Scan(&tx.ID)
	logger.StoreResult("INSERT", repository.CollectionTransactions, err, "id", tx.ID)
	return err
}

func (r *transactionRepository) List(ctx context.Context) ([]domain.Transaction, error) {
	query := `SELECT id, amount, type, date, description, COALESCE(member_name, ''), COALESCE(transaction_id, '')
	          FROM transactions ORDER BY date DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []domain.Transaction{}
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.ID, &tx.Amount, &tx.Type, &tx.Date, &tx.Description, &tx.MemberName, &tx.TransactionID); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// DeleteAll is a single statement, so concurrent readers see either the
// full ledger or an empty one.
func (r *transactionRepository) DeleteAll(ctx context.Context) error {
	logger.StoreCall("DELETE_ALL", repository.CollectionTransactions)
	result, err := r.db.ExecContext(ctx, `DELETE FROM transactions`)
	var affected int64
	if err == nil {
		affected, _ = result.RowsAffected()
	}
	logger.StoreResult("DELETE_ALL", repository.CollectionTransactions, err, "rows_affected", affected)
	if err != nil {
		return fmt.Errorf("failed to clear transactions: %w", err)
	}
	return nil
}

func (r *transactionRepository) Watch(ctx context.Context, fn func([]domain.Transaction)) error {
	return watchChannel(ctx, r.connStr, repository.CollectionTransactions, func(ctx context.Context) error {
		txs, err := r.List(ctx)
		if err != nil {
			return err
		}
		fn(txs)
		return nil
	})
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
