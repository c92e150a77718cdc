package clients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
	ulid "github.com/oklog/ulid/v2"
)

// ===== Error model (timetracking/reports と同型) =====
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

func (s *Service) Create(ctx context.Context, in CreateClientRequest) (ClientResponse, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Address) == "" {
		return ClientResponse{}, ErrInvalid("name and address are required")
	}

	id := ulid.Make().String()
	if err := s.store.Insert(ctx, id, in); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ClientResponse{}, ErrConflict("client already exists")
		}
		return ClientResponse{}, err
	}

	created, err := s.store.GetByULID(ctx, id)
	if err != nil {
		return ClientResponse{}, ErrInternal("inserted but not found")
	}
	return *created, nil
}

func (s *Service) Get(ctx context.Context, clientULID string) (ClientResponse, error) {
	r, err := s.store.GetByULID(ctx, clientULID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ClientResponse{}, ErrNotFound("client not found")
		}
		return ClientResponse{}, err
	}
	return *r, nil
}

func (s *Service) List(ctx context.Context, q ListQuery) (ClientListResponse, error) {
	rows, total, err := s.store.List(ctx, q)
	if err != nil {
		return ClientListResponse{}, err
	}
	if rows == nil {
		rows = []ClientResponse{}
	}
	return ClientListResponse{Clients: rows, Total: total}, nil
}

func (s *Service) Update(ctx context.Context, clientULID string, in UpdateClientRequest) (ClientResponse, error) {
	n, err := s.store.Update(ctx, clientULID, in)
	if err != nil {
		return ClientResponse{}, err
	}
	if n == 0 {
		// 変更なしでも存在確認はして404を返し分ける
		if _, err := s.store.GetByULID(ctx, clientULID); errors.Is(err, sql.ErrNoRows) {
			return ClientResponse{}, ErrNotFound("client not found")
		}
	}
	updated, err := s.store.GetByULID(ctx, clientULID)
	if err != nil {
		return ClientResponse{}, ErrNotFound("client not found")
	}
	return *updated, nil
}

func (s *Service) Delete(ctx context.Context, clientULID string) error {
	n, err := s.store.Delete(ctx, clientULID)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1451 { // FK制約（レポートが参照中）
			return ErrConflict("client has maintenance reports and cannot be deleted")
		}
		return err
	}
	if n == 0 {
		return ErrNotFound("client not found")
	}
	return nil
}
