package technicians

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

type technicianRow struct {
	TechnicianULID string
	AccountID      string
	Name           string
	Phone          *string
	Email          *string
	IsActive       int
	CreatedAt      sql.NullTime
	UpdatedAt      sql.NullTime
}

func (r technicianRow) toDTO() TechnicianResponse {
	return TechnicianResponse{
		TechnicianULID: r.TechnicianULID,
		AccountID:      r.AccountID,
		Name:           r.Name,
		Phone:          r.Phone,
		Email:          r.Email,
		IsActive:       r.IsActive != 0,
		CreatedAt:      r.CreatedAt.Time,
		UpdatedAt:      r.UpdatedAt.Time,
	}
}

const selectCols = `technician_ulid, account_id, name, phone, email, is_active, created_at, updated_at`

func (s *Store) Insert(ctx context.Context, ulid string, in CreateTechnicianRequest) error {
	const q = `
	INSERT INTO technicians
	(technician_ulid, account_id, name, phone, email, is_active, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, 1, NOW(6), NOW(6))`
	_, err := s.db.ExecContext(ctx, q, ulid, in.AccountID, in.Name, in.Phone, in.Email)
	return err
}

func (s *Store) GetByULID(ctx context.Context, ulid string) (*TechnicianResponse, error) {
	q := `SELECT ` + selectCols + ` FROM technicians WHERE technician_ulid = ?`
	var r technicianRow
	if err := s.db.QueryRowContext(ctx, q, ulid).Scan(
		&r.TechnicianULID, &r.AccountID, &r.Name, &r.Phone, &r.Email,
		&r.IsActive, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	out := r.toDTO()
	return &out, nil
}

func (s *Store) List(ctx context.Context, q ListQuery) ([]TechnicianResponse, int64, error) {
	var (
		buf    bytes.Buffer
		args   []any
		wheres []string
	)

	buf.WriteString(`SELECT ` + selectCols + ` FROM technicians`)
	if q.Search != nil && *q.Search != "" {
		wheres = append(wheres, "name LIKE ?")
		args = append(args, "%"+*q.Search+"%")
	}
	if q.ActiveOnly {
		wheres = append(wheres, "is_active = 1")
	}
	if len(wheres) > 0 {
		buf.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}
	buf.WriteString(" ORDER BY name ASC, technician_ulid ASC")

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	buf.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, q.Offset))

	rows, err := s.db.QueryContext(ctx, buf.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []TechnicianResponse
	for rows.Next() {
		var r technicianRow
		if err := rows.Scan(&r.TechnicianULID, &r.AccountID, &r.Name, &r.Phone, &r.Email,
			&r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, r.toDTO())
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var cntBuf bytes.Buffer
	cntBuf.WriteString("SELECT COUNT(*) FROM technicians")
	if len(wheres) > 0 {
		cntBuf.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, cntBuf.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) Update(ctx context.Context, ulid string, in UpdateTechnicianRequest) (int64, error) {
	sets := []string{}
	args := []any{}
	if in.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *in.Name)
	}
	if in.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *in.Phone)
	}
	if in.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *in.Email)
	}
	if len(sets) == 0 {
		return 0, nil
	}
	sets = append(sets, "updated_at = NOW(6)")

	q := "UPDATE technicians SET " + strings.Join(sets, ", ") + " WHERE technician_ulid = ?"
	args = append(args, ulid)

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetActive: 削除はしない（打刻履歴・レポートが参照するため論理無効化のみ）
func (s *Store) SetActive(ctx context.Context, ulid string, active bool) (int64, error) {
	v := 0
	if active {
		v = 1
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE technicians SET is_active = ?, updated_at = NOW(6) WHERE technician_ulid = ?`, v, ulid)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
