package postgres

import (
	"context"
	"database/sql"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/logger"
	"ngo-backend/internal/repository"
)

type noticeRepository struct {
	db      *sql.DB
	connStr string
}

func NewNoticeRepository(db *sql.DB, connStr string) repository.NoticeRepository {
	return &noticeRepository{db: db, connStr: connStr}
}

func (r *noticeRepository) Create(ctx context.Context, n *domain.Notice) error {
	logger.StoreCall("INSERT", repository.CollectionNotices)
	err := r.db.QueryRowContext(ctx, `INSERT INTO notices (message, date) VALUES ($1, $2) RETURNING id`, n.Message, n.Date).Scan(&n.ID)
	logger.StoreResult("INSERT", repository.CollectionNotices, err, "id", n.ID)
	return err
}

func (r *noticeRepository) List(ctx context.Context) ([]domain.Notice, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, message, date FROM notices ORDER BY date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notices := []domain.Notice{}
	for rows.Next() {
		var n domain.Notice
		if err := rows.Scan(&n.ID, &n.Message, &n.Date); err != nil {
			return nil, err
		}
		notices = append(notices, n)
	}
	return notices, rows.Err()
}

func (r *noticeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *noticeRepository) Watch(ctx context.Context, fn func([]domain.Notice)) error {
	return watchChannel(ctx, r.connStr, repository.CollectionNotices, func(ctx context.Context) error {
		notices, err := r.List(ctx)
		if err != nil {
			return err
		}
		fn(notices)
		return nil
	})
}
