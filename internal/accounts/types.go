package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MarkoPoloResearchLab/prestations/pkg/booking"
)

// Account errors wrap the booking sentinels so the HTTP layer maps them uniformly.
var (
	ErrUserNotFound         = fmt.Errorf("user %w", booking.ErrNotFound)
	ErrInvalidUser          = fmt.Errorf("user %w", booking.ErrInvalidInput)
	ErrDuplicateUser        = errors.New("username or email already registered")
	ErrInvalidServiceConfig = errors.New("invalid accounts config")
)

// User is a registered account. PasswordHash never leaves the service boundary.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store persists users.
type Store interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}
