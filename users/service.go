package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Service manages user accounts.
type Service struct {
	repo    UserRepo
	nowFunc func() time.Time
}

type ServiceOption func(*Service)

func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func NewService(repo UserRepo, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[users.NewService] repo is required")
	}
	s := &Service{
		repo:    repo,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, password, name string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("[users.Service.Register] valid email is required")
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return nil, errors.Wrap(err, "[users.Service.Register]")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "[users.Service.Register] HashPassword")
	}

	now := s.nowFunc()
	user := &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks resource-owner credentials. Unknown email and wrong
// password produce the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile changes the mutable account fields.
func (s *Service) UpdateProfile(ctx context.Context, id, name string) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Name = name
	user.UpdatedAt = s.nowFunc()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "[users.Service.UpdateProfile] Update")
	}
	return user, nil
}
