package clients

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Insert(ctx context.Context, ulid string, in CreateClientRequest) error {
	const q = `
	INSERT INTO clients
	(client_ulid, name, contact_person, phone, email, address, elevator_count, notes, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW(6), NOW(6))`
	_, err := s.db.ExecContext(ctx, q,
		ulid, in.Name, in.ContactPerson, in.Phone, in.Email, in.Address, in.ElevatorCount, in.Notes)
	return err
}

func (s *Store) GetByULID(ctx context.Context, ulid string) (*ClientResponse, error) {
	const q = `
	SELECT client_ulid, name, contact_person, phone, email, address, elevator_count, notes, created_at, updated_at
	FROM clients WHERE client_ulid = ?`
	var r ClientResponse
	if err := s.db.QueryRowContext(ctx, q, ulid).Scan(
		&r.ClientULID, &r.Name, &r.ContactPerson, &r.Phone, &r.Email,
		&r.Address, &r.ElevatorCount, &r.Notes, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &r, nil
}

// List: 検索語はname/address部分一致。件数はCOUNTの再クエリで取る。
func (s *Store) List(ctx context.Context, q ListQuery) ([]ClientResponse, int64, error) {
	var (
		buf    bytes.Buffer
		args   []any
		wheres []string
	)

	buf.WriteString(`
	SELECT client_ulid, name, contact_person, phone, email, address, elevator_count, notes, created_at, updated_at
	FROM clients
	`)
	if q.Search != nil && *q.Search != "" {
		wheres = append(wheres, "(name LIKE ? OR address LIKE ?)")
		like := "%" + *q.Search + "%"
		args = append(args, like, like)
	}
	if len(wheres) > 0 {
		buf.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}
	buf.WriteString(" ORDER BY name ASC, client_ulid ASC")

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

	var out []ClientResponse
	for rows.Next() {
		var r ClientResponse
		if err := rows.Scan(&r.ClientULID, &r.Name, &r.ContactPerson, &r.Phone, &r.Email,
			&r.Address, &r.ElevatorCount, &r.Notes, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var cntBuf bytes.Buffer
	cntBuf.WriteString("SELECT COUNT(*) FROM clients")
	if len(wheres) > 0 {
		cntBuf.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, cntBuf.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update: 動的アップデート
func (s *Store) Update(ctx context.Context, ulid string, in UpdateClientRequest) (int64, error) {
	sets := []string{}
	args := []any{}
	if in.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *in.Name)
	}
	if in.ContactPerson != nil {
		sets = append(sets, "contact_person = ?")
		args = append(args, *in.ContactPerson)
	}
	if in.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *in.Phone)
	}
	if in.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *in.Email)
	}
	if in.Address != nil {
		sets = append(sets, "address = ?")
		args = append(args, *in.Address)
	}
	if in.ElevatorCount != nil {
		sets = append(sets, "elevator_count = ?")
		args = append(args, *in.ElevatorCount)
	}
	if in.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *in.Notes)
	}
	if len(sets) == 0 {
		return 0, nil
	}
	sets = append(sets, "updated_at = NOW(6)")

	q := "UPDATE clients SET " + strings.Join(sets, ", ") + " WHERE client_ulid = ?"
	args = append(args, ulid)

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Delete(ctx context.Context, ulid string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE client_ulid = ?`, ulid)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
