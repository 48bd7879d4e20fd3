package accounts

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const minimumPasswordLength = 8

// RegisterInput carries sign-up fields.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Service manages user accounts.
type Service struct {
	store    Store
	nowFn    func() time.Time
	hashCost int
}

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) ServiceOption {
	return func(service *Service) {
		service.hashCost = cost
	}
}

// NewService wires a Service.
func NewService(store Store, now func() time.Time, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, nowFn: now, hashCost: bcrypt.DefaultCost}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	if service.hashCost < bcrypt.MinCost || service.hashCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d out of range", ErrInvalidServiceConfig, service.hashCost)
	}
	return service, nil
}

// Register creates an account with a hashed password.
func (service *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return User{}, fmt.Errorf("%w: empty username", ErrInvalidUser)
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	address, err := mail.ParseAddress(email)
	if err != nil || address.Address != email {
		return User{}, fmt.Errorf("%w: invalid email %q", ErrInvalidUser, input.Email)
	}
	if len(input.Password) < minimumPasswordLength {
		return User{}, fmt.Errorf("%w: password shorter than %d characters", ErrInvalidUser, minimumPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), service.hashCost)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}
	return service.store.CreateUser(ctx, User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    service.nowFn().UTC(),
	})
}

// Profile returns the account of userID.
func (service *Service) Profile(ctx context.Context, userID string) (User, error) {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return User{}, fmt.Errorf("%w: empty user id", ErrInvalidUser)
	}
	return service.store.GetUser(ctx, trimmed)
}

// List returns every account.
func (service *Service) List(ctx context.Context) ([]User, error) {
	return service.store.ListUsers(ctx)
}
