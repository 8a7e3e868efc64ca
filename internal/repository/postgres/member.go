package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/logger"
	"ngo-backend/internal/repository"
)

const memberColumns = `id, name, email, phone, address, COALESCE(father_name, ''), COALESCE(mother_name, ''),
	COALESCE(date_of_birth, ''), COALESCE(blood_group, ''), COALESCE(occupation, ''), COALESCE(national_id, ''),
	COALESCE(photo_url, ''), status, join_date, role, permissions`

type memberRepository struct {
	db      *sql.DB
	connStr string
}

func NewMemberRepository(db *sql.DB, connStr string) repository.MemberRepository {
	return &memberRepository{db: db, connStr: connStr}
}

func (r *memberRepository) Create(ctx context.Context, m *domain.Member) error {
	query := `INSERT INTO members (name, email, phone, address, father_name, mother_name, date_of_birth,
	          blood_group, occupation, national_id, photo_url, status, join_date, role, permissions)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15) RETURNING id`
	role := m.Role
	if role == "" {
		role = domain.MemberRoleMember
	}
	logger.StoreCall("INSERT", repository.CollectionMembers, "status", m.Status)
	err := r.db.QueryRowContext(ctx, query,
		m.Name, m.Email, m.Phone, m.Address,
		nullString(m.FatherName), nullString(m.MotherName), nullString(m.DateOfBirth),
		nullString(m.BloodGroup), nullString(m.Occupation), nullString(m.NationalID), nullString(m.PhotoURL),
		m.Status, m.JoinDate, role, pq.Array(permissionStrings(m.Permissions)),
	).Scan(&m.ID)
	logger.StoreResult("INSERT", repository.CollectionMembers, err, "id", m.ID)
	return err
}

func (r *memberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *memberRepository) List(ctx context.Context) ([]domain.Member, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+memberColumns+` FROM members ORDER BY join_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []domain.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (r *memberRepository) UpdateStatus(ctx context.Context, id string, status domain.MemberStatus) error {
	return r.execAffectingOne(ctx, "UPDATE", `UPDATE members SET status = $1 WHERE id = $2`, status, id)
}

func (r *memberRepository) UpdateRole(ctx context.Context, id string, role domain.MemberRole, permissions []domain.Permission) error {
	return r.execAffectingOne(ctx, "UPDATE", `UPDATE members SET role = $1, permissions = $2 WHERE id = $3`,
		role, pq.Array(permissionStrings(permissions)), id)
}

func (r *memberRepository) Delete(ctx context.Context, id string) error {
	return r.execAffectingOne(ctx, "DELETE", `DELETE FROM members WHERE id = $1`, id)
}

func (r *memberRepository) execAffectingOne(ctx context.Context, op, query string, args ...any) error {
	logger.StoreCall(op, repository.CollectionMembers)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.StoreResult(op, repository.CollectionMembers, err)
		return err
	}
	rows, err := result.RowsAffected()
	logger.StoreResult(op, repository.CollectionMembers, err, "rows_affected", rows)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *memberRepository) Watch(ctx context.Context, fn func([]domain.Member)) error {
	return watchChannel(ctx, r.connStr, repository.CollectionMembers, func(ctx context.Context) error {
		members, err := r.List(ctx)
		if err != nil {
			return err
		}
		fn(members)
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*domain.Member, error) {
	var m domain.Member
	var perms []string
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Address, &m.FatherName, &m.MotherName,
		&m.DateOfBirth, &m.BloodGroup, &m.Occupation, &m.NationalID, &m.PhotoURL,
		&m.Status, &m.JoinDate, &m.Role, pq.Array(&perms))
	if err != nil {
		return nil, err
	}
	for _, p := range perms {
		m.Permissions = append(m.Permissions, domain.Permission(p))
	}
	return &m, nil
}

func permissionStrings(perms []domain.Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, string(p))
	}
	return out
}
