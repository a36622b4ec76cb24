package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("authentication failed")
	ErrDisabled           = errors.New("account disabled")
)

type AuthService interface {
	Login(ctx context.Context, id, password string) (string, error)
	Register(ctx context.Context, in RegisterInput) error
	Delete(ctx context.Context, id string) error
}

type RegisterInput struct {
	ID       string
	Password string
	Role     string
	FullName string
	Email    string
}

type Service struct {
	store  AccountStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(store AccountStore, secret []byte, ttl time.Duration) *Service {
	return &Service{store: store, secret: secret, ttl: ttl, now: time.Now}
}

// Secret は RequireAuth に渡す署名鍵
func (s *Service) Secret() []byte { return s.secret }

func (s *Service) Login(ctx context.Context, id, password string) (string, error) {
	acct, err := s.store.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if acct == nil {
		return "", ErrInvalidCredentials
	}
	if acct.IsDisabled {
		return "", ErrDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.Issue(acct.ID, acct.Role)
}

// Issue signs an HS256 token carrying sub and role.
func (s *Service) Issue(sub, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  s.now().Add(s.ttl).Unix(),
	})
	return token.SignedString(s.secret)
}

func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" || in.Password == "" {
		return ErrInvalidCredentials
	}
	if in.Role == "" {
		in.Role = RoleReader
	}

	exists, err := s.store.GetByID(ctx, in.ID)
	if err != nil {
		return err
	}
	if exists != nil {
		return ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.store.Create(ctx, &Account{
		ID:           in.ID,
		PasswordHash: string(hash),
		Role:         in.Role,
		FullName:     in.FullName,
		Email:        in.Email,
	})
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
func (s *Service) EnsureAdmin(ctx context.Context, id, password string) error {
	err := s.Register(ctx, RegisterInput{ID: id, Password: password, Role: RoleAdmin, FullName: id})
	if errors.Is(err, ErrAlreadyExists) {
		return nil
	}
	return err
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
