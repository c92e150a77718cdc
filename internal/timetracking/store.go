package timetracking

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, q string, args ...any) *sql.Row
}

// Store: 打刻イベントのイベントログ。append-onlyで、UPDATE/DELETEは無い。
type Store struct{ db DBTX }

func NewStore(db DBTX) *Store { return &Store{db: db} }

// DB行に対応（スキャン用）
type clockEventRow struct {
	EventULID      string
	TechnicianULID string
	EventType      string
	OccurredAt     time.Time
	Latitude       sql.NullFloat64
	Longitude      sql.NullFloat64
	Address        *string
	Notes          *string
}

func (r clockEventRow) toModel() ClockEvent {
	ev := ClockEvent{
		EventULID:      r.EventULID,
		TechnicianULID: r.TechnicianULID,
		Type:           EventType(r.EventType),
		Timestamp:      r.OccurredAt.UTC(),
		Notes:          r.Notes,
	}
	if r.Latitude.Valid && r.Longitude.Valid {
		ev.Location = &Location{
			Latitude:  r.Latitude.Float64,
			Longitude: r.Longitude.Float64,
			Address:   r.Address,
		}
	}
	return ev
}

// Append: 1件INSERT（all-or-nothing）。意味的な検証はservice側で済ませてから呼ぶ。
func (s *Store) Append(ctx context.Context, ev ClockEvent) error {
	var lat, lng any
	var addr *string
	if ev.Location != nil {
		lat, lng = ev.Location.Latitude, ev.Location.Longitude
		addr = ev.Location.Address
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO clock_events
	(event_ulid, technician_ulid, event_type, occurred_at, latitude, longitude, address, notes)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.EventULID, ev.TechnicianULID, string(ev.Type), ev.Timestamp.UTC(),
		lat, lng, addr, ev.Notes,
	)
	return err
}

// AllFor: 指定技術者の全イベント。event_ulid順（ULIDは時系列に単調）で返す。
// reconstructは改めてtimestampでsortするが、同値のtie-breakが呼び出しごとに
// ぶれないよう格納順をここで固定する。
func (s *Store) AllFor(ctx context.Context, technicianULID string) ([]ClockEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT event_ulid, technician_ulid, event_type, occurred_at, latitude, longitude, address, notes
	FROM clock_events
	WHERE technician_ulid = ?
	ORDER BY event_ulid ASC`, technicianULID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ClockEvent
	for rows.Next() {
		var r clockEventRow
		if err := rows.Scan(&r.EventULID, &r.TechnicianULID, &r.EventType, &r.OccurredAt,
			&r.Latitude, &r.Longitude, &r.Address, &r.Notes); err != nil {
			return nil, err
		}
		out = append(out, r.toModel())
	}
	return out, rows.Err()
}

// TechnicianULIDs: 期間内に打刻のある技術者の一覧（stats用）。
func (s *Store) TechnicianULIDs(ctx context.Context, from, to time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT DISTINCT technician_ulid
	FROM clock_events
	WHERE occurred_at >= ? AND occurred_at < ?
	ORDER BY technician_ulid ASC`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
