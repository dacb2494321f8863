package user

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/LordErl/itsells-core/internal/clock"
	"github.com/LordErl/itsells-core/internal/types/user"
	"github.com/LordErl/itsells-core/internal/util/cpf"
)

var (
	ErrUserExists       = errors.New("user already exists")
	ErrInvalidCreds     = errors.New("invalid credentials")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrInvalidCPF       = errors.New("invalid cpf")
	ErrUserNotFound     = errors.New("user not found")
)

type Service struct {
	repo      UserRepository
	clk       clock.Clock
	jwtSecret []byte
	jwtTTL    time.Duration
}

func NewService(repo UserRepository, clk clock.Clock, jwtSecret []byte, jwtTTL time.Duration) *Service {
	return &Service{repo: repo, clk: clk, jwtSecret: jwtSecret, jwtTTL: jwtTTL}
}

func (s *Service) Register(ctx context.Context, login, password, name, document string, role user.Role) (*user.User, error) {
	if len(password) < 8 {
		return nil, ErrPasswordTooShort
	}
	if !cpf.Validate(document) {
		return nil, ErrInvalidCPF
	}
	if role == "" {
		role = user.RoleCustomer
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &user.User{
		Login:        login,
		Name:         name,
		CPF:          document,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    s.clk.Now(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Authenticate(ctx context.Context, login, password string) (string, error) {
	u, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		return "", ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCreds
	}
	now := s.clk.Now()
	claims := jwt.RegisteredClaims{
		Subject:   login,
		ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}
	return signed, nil
}
