package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin      = "admin"
	RoleTechnician = "technician"

	tokenTTL = 24 * time.Hour
)

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	ErrAuthFailed    = errors.New("authentication failed")
	ErrBadRole       = errors.New("role must be admin or technician")
)

type Service struct {
	store  AccountStore
	secret []byte
}

// secret はconfigから渡す
func NewService(db *sql.DB, secret []byte) *Service {
	return &Service{store: NewStore(db), secret: secret}
}

type AuthService interface {
	Login(ctx context.Context, id, password string) (string, string, error)
	Register(ctx context.Context, id, password, role string) error
	Delete(ctx context.Context, id string) error
	ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error
}

func (s *Service) Secret() []byte { return s.secret }

// Login: 成功でJWT(HS256)とroleを返す。失敗理由は出し分けない。
func (s *Service) Login(ctx context.Context, id, password string) (string, string, error) {
	acct, err := s.store.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	if acct == nil || acct.IsDisabled {
		return "", "", ErrAuthFailed
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return "", "", ErrAuthFailed
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  acct.ID,
		"role": acct.Role,
		"exp":  time.Now().Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return signed, acct.Role, nil
}

func (s *Service) Register(ctx context.Context, id, password, role string) error {
	if role != RoleAdmin && role != RoleTechnician {
		return ErrBadRole
	}
	exists, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if exists != nil {
		return ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.Create(ctx, &Account{
		ID:           id,
		PasswordHash: string(hash),
		Role:         role,
		IsDisabled:   false,
	})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ChangePassword: 本人確認（旧パスワード）の上で更新。
func (s *Service) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	acct, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if acct == nil {
		return ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrAuthFailed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	n, err := s.store.UpdatePassword(ctx, id, string(hash))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
