package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MarkoPoloResearchLab/prestations/pkg/booking"
	"github.com/shopspring/decimal"
)

// Catalog errors wrap the booking sentinels so callers can classify them uniformly.
var (
	ErrPrestationNotFound   = fmt.Errorf("prestation %w", booking.ErrNotFound)
	ErrInvalidPrestation    = fmt.Errorf("prestation %w", booking.ErrInvalidInput)
	ErrDuplicateSlug        = errors.New("duplicate prestation slug")
	ErrInvalidServiceConfig = errors.New("invalid catalog config")
)

// Prestation is an offered service.
type Prestation struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	AvailableDays []string        `json:"availableDays"`
	Slug          string          `json:"slug"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Input carries the editable fields of a prestation.
type Input struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	AvailableDays []string
}

// Store persists prestations. Missing rows are reported with ErrPrestationNotFound and
// slug collisions with ErrDuplicateSlug.
type Store interface {
	ListPrestations(ctx context.Context) ([]Prestation, error)
	GetPrestation(ctx context.Context, id string) (Prestation, error)
	GetPrestationBySlug(ctx context.Context, slug string) (Prestation, error)
	CreatePrestation(ctx context.Context, prestation Prestation) (Prestation, error)
	UpdatePrestation(ctx context.Context, prestation Prestation) (Prestation, error)
	DeletePrestation(ctx context.Context, id string) error
}

// Cache holds the full prestation listing.
type Cache interface {
	GetPrestations(ctx context.Context) ([]Prestation, bool, error)
	SetPrestations(ctx context.Context, prestations []Prestation) error
	InvalidatePrestations(ctx context.Context) error
}
