package technicians

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
	ulid "github.com/oklog/ulid/v2"
)

// ===== Error model (clients/reports と同型) =====
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

// ===== Service =====

type Service struct {
	db    *sql.DB
	store *Store
}

func NewService(db *sql.DB) *Service { return &Service{db: db, store: NewStore(db)} }

func (s *Service) Create(ctx context.Context, in CreateTechnicianRequest) (TechnicianResponse, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.AccountID) == "" {
		return TechnicianResponse{}, ErrInvalid("account_id and name are required")
	}

	id := ulid.Make().String()
	if err := s.store.Insert(ctx, id, in); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) {
			switch me.Number {
			case 1062: // account_id UNIQUE
				return TechnicianResponse{}, ErrConflict("account already linked to a technician")
			case 1452:
				return TechnicianResponse{}, ErrInvalid("account_id does not exist")
			}
		}
		return TechnicianResponse{}, err
	}

	created, err := s.store.GetByULID(ctx, id)
	if err != nil {
		return TechnicianResponse{}, ErrInternal("inserted but not found")
	}
	return *created, nil
}

func (s *Service) Get(ctx context.Context, technicianULID string) (TechnicianResponse, error) {
	r, err := s.store.GetByULID(ctx, technicianULID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TechnicianResponse{}, ErrNotFound("technician not found")
		}
		return TechnicianResponse{}, err
	}
	return *r, nil
}

func (s *Service) List(ctx context.Context, q ListQuery) (TechnicianListResponse, error) {
	rows, total, err := s.store.List(ctx, q)
	if err != nil {
		return TechnicianListResponse{}, err
	}
	if rows == nil {
		rows = []TechnicianResponse{}
	}
	return TechnicianListResponse{Technicians: rows, Total: total}, nil
}

func (s *Service) Update(ctx context.Context, technicianULID string, in UpdateTechnicianRequest) (TechnicianResponse, error) {
	if _, err := s.store.Update(ctx, technicianULID, in); err != nil {
		return TechnicianResponse{}, err
	}
	updated, err := s.store.GetByULID(ctx, technicianULID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TechnicianResponse{}, ErrNotFound("technician not found")
		}
		return TechnicianResponse{}, err
	}
	return *updated, nil
}

func (s *Service) SetActive(ctx context.Context, technicianULID string, active bool) error {
	n, err := s.store.SetActive(ctx, technicianULID, active)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound("technician not found")
	}
	return nil
}
