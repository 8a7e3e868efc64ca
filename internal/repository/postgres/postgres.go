package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/lib/pq"

	"ngo-backend/internal/logger"
	"ngo-backend/internal/repository"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db           *sql.DB
	transactions repository.TransactionRepository
	members      repository.MemberRepository
	notices      repository.NoticeRepository
}

// NewStore wires the repositories. connStr is used to open the dedicated
// LISTEN connections that drive Watch.
func NewStore(db *sql.DB, connStr string) *Store {
	return &Store{
		db:           db,
		transactions: NewTransactionRepository(db, connStr),
		members:      NewMemberRepository(db, connStr),
		notices:      NewNoticeRepository(db, connStr),
	}
}

func (s *Store) Transactions() repository.TransactionRepository { return s.transactions }
func (s *Store) Members() repository.MemberRepository           { return s.members }
func (s *Store) Notices() repository.NoticeRepository           { return s.notices }

func (s *Store) Close() error {
	return s.db.Close()
}

// ApplySchema creates tables and change-notification triggers if missing.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	logger.StoreCall("APPLY_SCHEMA", "*")
	_, err := db.ExecContext(ctx, schemaSQL)
	logger.StoreResult("APPLY_SCHEMA", "*", err)
	if err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
