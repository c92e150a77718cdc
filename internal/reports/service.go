package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	mysql "github.com/go-sql-driver/mysql"
	ulid "github.com/oklog/ulid/v2"

	"LIFT-backend/internal/timetracking"
)

// ===== Error model (clients/technicians と同型) =====
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict:
			return 409
		default:
			return 500
		}
	}
	return 500
}

// SessionSource: 勤務表PDFに載せるセッション列の供給元（timetracking.Serviceが実装）。
type SessionSource interface {
	Sessions(ctx context.Context, technicianULID string, q timetracking.ListSessionsQuery) (timetracking.SessionListResponse, error)
}

// ===== Service =====

type Service struct {
	db       *sql.DB
	store    *Store
	sessions SessionSource
}

func NewService(db *sql.DB, sessions SessionSource) *Service {
	return &Service{db: db, store: NewStore(db), sessions: sessions}
}

func (s *Service) Create(ctx context.Context, in CreateReportRequest) (ReportResponse, error) {
	if strings.TrimSpace(in.ElevatorID) == "" {
		return ReportResponse{}, ErrInvalid("elevator_id is required")
	}
	if _, err := time.Parse(DateLayout, in.ReportDate); err != nil {
		return ReportResponse{}, ErrInvalid("report_date must be YYYY-MM-DD")
	}
	if len(in.Checklist) == 0 {
		return ReportResponse{}, ErrInvalid("checklist must not be empty")
	}
	seen := map[string]bool{}
	for _, item := range in.Checklist {
		if !validResult(item.Result) {
			return ReportResponse{}, ErrInvalid(fmt.Sprintf("checklist item %q: result must be ok, defect or not_checked", item.Key))
		}
		if seen[item.Key] {
			return ReportResponse{}, ErrInvalid(fmt.Sprintf("checklist item %q appears twice", item.Key))
		}
		seen[item.Key] = true
	}

	id := ulid.Make().String()
	if err := s.store.InsertWithChecklist(ctx, id, in); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1452 {
			return ReportResponse{}, ErrInvalid("unknown client_id or technician_id")
		}
		return ReportResponse{}, err
	}

	created, err := s.store.GetByULID(ctx, id)
	if err != nil {
		return ReportResponse{}, ErrInternal("inserted but not found")
	}
	return *created, nil
}

func (s *Service) Get(ctx context.Context, reportULID string) (ReportResponse, error) {
	r, err := s.store.GetByULID(ctx, reportULID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ReportResponse{}, ErrNotFound("report not found")
		}
		return ReportResponse{}, err
	}
	return *r, nil
}

func (s *Service) List(ctx context.Context, q ListQuery) (ReportListResponse, error) {
	if q.From != nil && *q.From != "" {
		if _, err := time.Parse(DateLayout, *q.From); err != nil {
			return ReportListResponse{}, ErrInvalid("from must be YYYY-MM-DD")
		}
	}
	if q.To != nil && *q.To != "" {
		if _, err := time.Parse(DateLayout, *q.To); err != nil {
			return ReportListResponse{}, ErrInvalid("to must be YYYY-MM-DD")
		}
	}
	rows, total, err := s.store.List(ctx, q)
	if err != nil {
		return ReportListResponse{}, err
	}
	if rows == nil {
		rows = []ReportResponse{}
	}
	return ReportListResponse{Reports: rows, Total: total}, nil
}

func (s *Service) Submit(ctx context.Context, reportULID string) (ReportResponse, error) {
	n, err := s.store.Submit(ctx, reportULID)
	if err != nil {
		return ReportResponse{}, err
	}
	if n == 0 {
		r, err := s.store.GetByULID(ctx, reportULID)
		if err != nil {
			return ReportResponse{}, ErrNotFound("report not found")
		}
		if r.Status == StatusSubmitted {
			return ReportResponse{}, ErrConflict("report already submitted")
		}
		return ReportResponse{}, ErrConflict("report cannot be submitted")
	}
	r, err := s.store.GetByULID(ctx, reportULID)
	if err != nil {
		return ReportResponse{}, ErrInternal("updated but not found")
	}
	return *r, nil
}

// ReportPDF: 点検レポートの帳票
func (s *Service) ReportPDF(ctx context.Context, reportULID string) ([]byte, error) {
	r, err := s.Get(ctx, reportULID)
	if err != nil {
		return nil, err
	}
	buf, err := renderReportPDF(r)
	if err != nil {
		return nil, ErrInternal("pdf rendering failed")
	}
	return buf, nil
}

// TimesheetPDF: 再構築したセッション列から勤務表を作る
func (s *Service) TimesheetPDF(ctx context.Context, technicianULID, from, to string) ([]byte, error) {
	if _, err := time.Parse(DateLayout, from); err != nil {
		return nil, ErrInvalid("from must be YYYY-MM-DD")
	}
	if _, err := time.Parse(DateLayout, to); err != nil {
		return nil, ErrInvalid("to must be YYYY-MM-DD")
	}

	status := timetracking.StatusCompleted
	res, err := s.sessions.Sessions(ctx, technicianULID, timetracking.ListSessionsQuery{
		From:   &from,
		To:     &to,
		Status: &status,
	})
	if err != nil {
		return nil, err
	}

	buf, err := renderTimesheetPDF(technicianULID, from, to, res.Sessions)
	if err != nil {
		return nil, ErrInternal("pdf rendering failed")
	}
	return buf, nil
}
