package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MarkoPoloResearchLab/prestations/pkg/booking"
	"go.uber.org/zap"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// WithCache serves listings from cache and invalidates it on writes.
func WithCache(cache Cache) ServiceOption {
	return func(service *Service) {
		service.cache = cache
	}
}

// WithLogger wires the logger used for cache failures.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(service *Service) {
		if logger != nil {
			service.logger = logger
		}
	}
}

// Service manages the prestation catalog.
type Service struct {
	store  Store
	cache  Cache
	logger *zap.Logger
}

// NewService wires a Service.
func NewService(store Store, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, logger: zap.NewNop()}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// List returns every prestation.
func (service *Service) List(ctx context.Context) ([]Prestation, error) {
	if service.cache != nil {
		cached, found, err := service.cache.GetPrestations(ctx)
		if err != nil {
			service.logger.Warn("catalog cache read failed", zap.Error(err))
		} else if found {
			return cached, nil
		}
	}
	prestations, err := service.store.ListPrestations(ctx)
	if err != nil {
		return nil, err
	}
	if service.cache != nil {
		if err := service.cache.SetPrestations(ctx, prestations); err != nil {
			service.logger.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return prestations, nil
}

// Get returns a prestation by id.
func (service *Service) Get(ctx context.Context, id string) (Prestation, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return Prestation{}, fmt.Errorf("%w: empty id", ErrInvalidPrestation)
	}
	return service.store.GetPrestation(ctx, trimmed)
}

// GetBySlug returns a prestation by name or slug.
func (service *Service) GetBySlug(ctx context.Context, nameOrSlug string) (Prestation, error) {
	normalized := Slugify(nameOrSlug)
	if normalized == "" {
		return Prestation{}, fmt.Errorf("%w: empty name", ErrInvalidPrestation)
	}
	return service.store.GetPrestationBySlug(ctx, normalized)
}

// Create validates input and stores a new prestation.
func (service *Service) Create(ctx context.Context, input Input) (Prestation, error) {
	prestation, err := buildPrestation(input)
	if err != nil {
		return Prestation{}, err
	}
	created, err := service.store.CreatePrestation(ctx, prestation)
	if err != nil {
		return Prestation{}, err
	}
	service.invalidate(ctx)
	return created, nil
}

// Update replaces the editable fields of a prestation; the slug follows the name.
func (service *Service) Update(ctx context.Context, id string, input Input) (Prestation, error) {
	existing, err := service.Get(ctx, id)
	if err != nil {
		return Prestation{}, err
	}
	prestation, err := buildPrestation(input)
	if err != nil {
		return Prestation{}, err
	}
	prestation.ID = existing.ID
	prestation.CreatedAt = existing.CreatedAt
	updated, err := service.store.UpdatePrestation(ctx, prestation)
	if err != nil {
		return Prestation{}, err
	}
	service.invalidate(ctx)
	return updated, nil
}

// Delete removes a prestation.
func (service *Service) Delete(ctx context.Context, id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidPrestation)
	}
	if err := service.store.DeletePrestation(ctx, trimmed); err != nil {
		return err
	}
	service.invalidate(ctx)
	return nil
}

// FindByID resolves an offering for the reservation workflow.
func (service *Service) FindByID(ctx context.Context, id booking.PrestationID) (booking.Offering, error) {
	prestation, err := service.store.GetPrestation(ctx, id.String())
	if err != nil {
		return booking.Offering{}, err
	}
	return prestation.Offering()
}

// FindBySlug resolves an offering by slug for the reservation workflow.
func (service *Service) FindBySlug(ctx context.Context, slug string) (booking.Offering, error) {
	prestation, err := service.GetBySlug(ctx, slug)
	if err != nil {
		return booking.Offering{}, err
	}
	return prestation.Offering()
}

// Offering projects the prestation onto the reservation workflow view.
func (prestation Prestation) Offering() (booking.Offering, error) {
	id, err := booking.NewPrestationID(prestation.ID)
	if err != nil {
		return booking.Offering{}, err
	}
	return booking.Offering{
		ID:          id,
		Name:        prestation.Name,
		Description: prestation.Description,
		Price:       prestation.Price,
		Slug:        prestation.Slug,
	}, nil
}

func (service *Service) invalidate(ctx context.Context) {
	if service.cache == nil {
		return
	}
	if err := service.cache.InvalidatePrestations(ctx); err != nil {
		service.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func buildPrestation(input Input) (Prestation, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Prestation{}, fmt.Errorf("%w: empty name", ErrInvalidPrestation)
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return Prestation{}, fmt.Errorf("%w: empty description", ErrInvalidPrestation)
	}
	if !input.Price.IsPositive() {
		return Prestation{}, fmt.Errorf("%w: price must be positive", ErrInvalidPrestation)
	}
	slug := Slugify(name)
	if slug == "" {
		return Prestation{}, fmt.Errorf("%w: name %q yields an empty slug", ErrInvalidPrestation, name)
	}
	days, err := normalizeWeekdays(input.AvailableDays)
	if err != nil {
		return Prestation{}, err
	}
	return Prestation{
		Name:          name,
		Description:   description,
		Price:         input.Price,
		AvailableDays: days,
		Slug:          slug,
	}, nil
}

// IsDuplicate reports whether err is a slug collision.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateSlug)
}
