package reports

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	platformdb "LIFT-backend/internal/platform/db"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

type reportRow struct {
	ReportULID     string
	ClientULID     string
	TechnicianULID string
	ElevatorID     string
	ReportDate     string
	Remarks        *string
	Status         string
	CreatedAt      time.Time
	SubmittedAt    sql.NullTime
}

func (r reportRow) toDTO() ReportResponse {
	out := ReportResponse{
		ReportULID:     r.ReportULID,
		ClientULID:     r.ClientULID,
		TechnicianULID: r.TechnicianULID,
		ElevatorID:     r.ElevatorID,
		ReportDate:     r.ReportDate,
		Remarks:        r.Remarks,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
	}
	if r.SubmittedAt.Valid {
		t := r.SubmittedAt.Time
		out.SubmittedAt = &t
	}
	return out
}

const selectCols = `report_ulid, client_ulid, technician_ulid, elevator_id,
	DATE_FORMAT(report_date, '%Y-%m-%d'), remarks, status, created_at, submitted_at`

// InsertWithChecklist: レポート本体とチェックリスト行を1トランザクションで書く。
func (s *Store) InsertWithChecklist(ctx context.Context, ulid string, in CreateReportRequest) error {
	return platformdb.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx platformdb.DBTX) error {
		const q = `
		INSERT INTO maintenance_reports
		(report_ulid, client_ulid, technician_ulid, elevator_id, report_date, remarks, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 'draft', NOW(6))`
		if _, err := tx.ExecContext(ctx, q,
			ulid, in.ClientULID, in.TechnicianULID, in.ElevatorID, in.ReportDate, in.Remarks); err != nil {
			return err
		}

		const iq = `
		INSERT INTO report_checklist_items (report_ulid, item_key, result, remark, position)
		VALUES (?, ?, ?, ?, ?)`
		for i, item := range in.Checklist {
			if _, err := tx.ExecContext(ctx, iq, ulid, item.Key, item.Result, item.Remark, i); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByULID: ヘッダとチェックリストの2クエリを読み取り専用Txで同一スナップショットから読む。
func (s *Store) GetByULID(ctx context.Context, ulid string) (*ReportResponse, error) {
	var out ReportResponse
	err := platformdb.ReadOnly(ctx, s.db, func(ctx context.Context, tx platformdb.DBTX) error {
		q := `SELECT ` + selectCols + ` FROM maintenance_reports WHERE report_ulid = ?`
		var r reportRow
		if err := tx.QueryRowContext(ctx, q, ulid).Scan(
			&r.ReportULID, &r.ClientULID, &r.TechnicianULID, &r.ElevatorID,
			&r.ReportDate, &r.Remarks, &r.Status, &r.CreatedAt, &r.SubmittedAt,
		); err != nil {
			return err
		}

		items, err := checklistFor(ctx, tx, ulid)
		if err != nil {
			return err
		}
		out = r.toDTO()
		out.Checklist = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func checklistFor(ctx context.Context, tx platformdb.DBTX, reportULID string) ([]ChecklistEntryResponse, error) {
	rows, err := tx.QueryContext(ctx, `
	SELECT item_key, result, remark
	FROM report_checklist_items
	WHERE report_ulid = ?
	ORDER BY position ASC`, reportULID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ChecklistEntryResponse{}
	for rows.Next() {
		var e ChecklistEntryResponse
		if err := rows.Scan(&e.Key, &e.Result, &e.Remark); err != nil {
			return nil, err
		}
		e.Label = labelFor(e.Key)
		out = append(out, e)
	}
	return out, rows.Err()
}

// List: 一覧はチェックリスト抜きのヘッダだけ返す（詳細はGetで）。
func (s *Store) List(ctx context.Context, q ListQuery) ([]ReportResponse, int64, error) {
	var (
		buf    bytes.Buffer
		args   []any
		wheres []string
	)

	buf.WriteString(`SELECT ` + selectCols + ` FROM maintenance_reports`)
	if q.ClientULID != nil && *q.ClientULID != "" {
		wheres = append(wheres, "client_ulid = ?")
		args = append(args, *q.ClientULID)
	}
	if q.TechnicianULID != nil && *q.TechnicianULID != "" {
		wheres = append(wheres, "technician_ulid = ?")
		args = append(args, *q.TechnicianULID)
	}
	if q.From != nil && *q.From != "" {
		wheres = append(wheres, "report_date >= ?")
		args = append(args, *q.From)
	}
	if q.To != nil && *q.To != "" {
		wheres = append(wheres, "report_date <= ?")
		args = append(args, *q.To)
	}
	if q.Status != nil && *q.Status != "" {
		wheres = append(wheres, "status = ?")
		args = append(args, *q.Status)
	}
	if len(wheres) > 0 {
		buf.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}
	buf.WriteString(" ORDER BY report_date DESC, report_ulid DESC")

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

	var out []ReportResponse
	for rows.Next() {
		var r reportRow
		if err := rows.Scan(&r.ReportULID, &r.ClientULID, &r.TechnicianULID, &r.ElevatorID,
			&r.ReportDate, &r.Remarks, &r.Status, &r.CreatedAt, &r.SubmittedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, r.toDTO())
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var cntBuf bytes.Buffer
	cntBuf.WriteString("SELECT COUNT(*) FROM maintenance_reports")
	if len(wheres) > 0 {
		cntBuf.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, cntBuf.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Submit: draft → submitted（提出済みは再提出できない）
func (s *Store) Submit(ctx context.Context, ulid string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
	UPDATE maintenance_reports
	SET status = 'submitted', submitted_at = NOW(6)
	WHERE report_ulid = ? AND status = 'draft'`, ulid)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
