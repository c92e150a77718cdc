package timetracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	ulid "github.com/oklog/ulid/v2"
)

// ===== Error model (clients/reports と同型) =====
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeStorage         Code = "STORAGE_UNAVAILABLE"
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
func ErrStorage(msg string) *APIError  { return &APIError{Code: CodeStorage, Message: msg} }

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
		case CodeStorage:
			return 503
		default:
			return 500
		}
	}
	return 500
}

// ===== Service =====

type Service struct {
	db    *sql.DB
	store *Store
	now   func() time.Time
	loc   *time.Location
}

func NewService(db *sql.DB, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{db: db, store: NewStore(db), now: time.Now, loc: loc}
}

// WithClock: テスト用にnowを差し替える。
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// POST /timeclock/events
// 状態機械で次の打刻として合法かを検証してからappendする。
// 不正な遷移は409。ログに書かれてしまった過去の不正はreconstructが吸収する。
func (s *Service) Clock(ctx context.Context, in ClockActionRequest) (ClockEventResponse, error) {
	if in.TechnicianULID == "" {
		return ClockEventResponse{}, ErrInvalid("technician_id is required")
	}
	if !in.Type.Valid() {
		return ClockEventResponse{}, ErrInvalid("type must be one of clock_in, clock_out, break_start, break_end")
	}

	events, err := s.store.AllFor(ctx, in.TechnicianULID)
	if err != nil {
		return ClockEventResponse{}, ErrStorage("failed to read clock events")
	}
	res := s.reconstructAt(in.TechnicianULID, events, s.now().UTC())

	state := StateOf(res)
	if _, err := NextState(state, in.Type); err != nil {
		var ite *InvalidTransitionError
		if errors.As(err, &ite) {
			return ClockEventResponse{}, ErrConflict(ite.Error())
		}
		return ClockEventResponse{}, err
	}

	ev := ClockEvent{
		EventULID:      ulid.Make().String(),
		TechnicianULID: in.TechnicianULID,
		Type:           in.Type,
		Timestamp:      s.now().UTC(),
		Notes:          in.Notes,
	}
	if in.Location != nil {
		ev.Location = &Location{
			Latitude:  in.Location.Latitude,
			Longitude: in.Location.Longitude,
			Address:   in.Location.Address,
		}
	}
	if err := s.store.Append(ctx, ev); err != nil {
		return ClockEventResponse{}, ErrStorage("failed to append clock event")
	}
	return ev.toDTO(), nil
}

// GET /technicians/:technician_id/timeclock/status
func (s *Service) Status(ctx context.Context, technicianULID string) (StatusResponse, error) {
	if technicianULID == "" {
		return StatusResponse{}, ErrInvalid("technician_id is required")
	}
	res, now, err := s.sessionsFor(ctx, technicianULID)
	if err != nil {
		return StatusResponse{}, err
	}
	state := StateOf(res)
	return StatusResponse{
		TechnicianULID: technicianULID,
		State:          state,
		LegalActions:   LegalActions(state),
		AsOf:           now,
	}, nil
}

// GET /technicians/:technician_id/sessions
func (s *Service) Sessions(ctx context.Context, technicianULID string, q ListSessionsQuery) (SessionListResponse, error) {
	if technicianULID == "" {
		return SessionListResponse{}, ErrInvalid("technician_id is required")
	}
	var from, to string
	if q.From != nil && *q.From != "" {
		if _, err := time.ParseInLocation(DateLayout, *q.From, s.loc); err != nil {
			return SessionListResponse{}, ErrInvalid("from must be YYYY-MM-DD")
		}
		from = *q.From
	}
	if q.To != nil && *q.To != "" {
		if _, err := time.ParseInLocation(DateLayout, *q.To, s.loc); err != nil {
			return SessionListResponse{}, ErrInvalid("to must be YYYY-MM-DD")
		}
		to = *q.To
	}
	if q.Status != nil {
		switch *q.Status {
		case StatusActive, StatusOnBreak, StatusCompleted:
		default:
			return SessionListResponse{}, ErrInvalid("status must be active, on_break or completed")
		}
	}

	res, now, err := s.sessionsFor(ctx, technicianULID)
	if err != nil {
		return SessionListResponse{}, err
	}

	out := SessionListResponse{Sessions: []SessionResponse{}, AsOf: now}
	for i := range res.Sessions {
		ws := &res.Sessions[i]
		if q.Status != nil && ws.Status != *q.Status {
			continue
		}
		// 日付範囲はcompletedの絞り込み用。openセッションはstatusフィルタだけ通す。
		if ws.Status == StatusCompleted {
			if from != "" && ws.Date < from {
				continue
			}
			if to != "" && ws.Date > to {
				continue
			}
		}
		out.Sessions = append(out.Sessions, ws.toDTO())
	}
	return out, nil
}

// GET /technicians/:technician_id/sessions/current
func (s *Service) Current(ctx context.Context, technicianULID string) (SessionResponse, error) {
	if technicianULID == "" {
		return SessionResponse{}, ErrInvalid("technician_id is required")
	}
	res, _, err := s.sessionsFor(ctx, technicianULID)
	if err != nil {
		return SessionResponse{}, err
	}
	cur := CurrentSession(res)
	if cur == nil {
		return SessionResponse{}, ErrNotFound("no open session")
	}
	return cur.toDTO(), nil
}

// GET /timeclock/stats （admin用の集計）
func (s *Service) Stats(ctx context.Context, req StatsRequest) ([]StatsRow, error) {
	from, err := time.ParseInLocation(DateLayout, req.From, s.loc)
	if err != nil {
		return nil, ErrInvalid("from must be YYYY-MM-DD")
	}
	to, err := time.ParseInLocation(DateLayout, req.To, s.loc)
	if err != nil {
		return nil, ErrInvalid("to must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, ErrInvalid("to must be >= from")
	}
	toEnd := to.AddDate(0, 0, 1) // 終端は排他

	ids, err := s.store.TechnicianULIDs(ctx, from, toEnd)
	if err != nil {
		return nil, ErrStorage("failed to read clock events")
	}

	out := make([]StatsRow, 0, len(ids))
	for _, id := range ids {
		events, err := s.store.AllFor(ctx, id)
		if err != nil {
			return nil, ErrStorage("failed to read clock events")
		}
		res := s.reconstructAt(id, events, s.now().UTC())

		row := StatsRow{TechnicianULID: id, DroppedEvents: res.Dropped}
		for i := range res.Sessions {
			ws := &res.Sessions[i]
			if ws.Status != StatusCompleted {
				continue
			}
			if ws.Date < req.From || ws.Date > req.To {
				continue
			}
			row.Sessions++
			row.WorkedMinutes += ws.WorkedMinutes
			row.BreakMinutes += ws.BreakMinutes
			if ws.IncompleteData {
				row.IncompleteData++
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// sessionsFor: イベント読み出し + 再構築。nowは一回だけ取る（表示のas_ofと計算を一致させる）。
func (s *Service) sessionsFor(ctx context.Context, technicianULID string) (Result, time.Time, error) {
	events, err := s.store.AllFor(ctx, technicianULID)
	if err != nil {
		return Result{}, time.Time{}, ErrStorage("failed to read clock events")
	}
	now := s.now().UTC()
	return s.reconstructAt(technicianULID, events, now), now, nil
}

func (s *Service) reconstructAt(technicianULID string, events []ClockEvent, now time.Time) Result {
	res := Reconstruct(events, now, s.loc)
	for _, m := range res.Malformed {
		log.Printf("[WARN] skipped malformed clock event for %s: %v", technicianULID, m)
	}
	if res.Dropped > 0 {
		log.Printf("[WARN] dropped %d orphaned clock events for %s", res.Dropped, technicianULID)
	}
	return res
}
