package gormstore

import (
	"context"
	"errors"

	"github.com/MarkoPoloResearchLab/prestations/pkg/catalog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ListPrestations returns every prestation ordered by name.
func (store *Store) ListPrestations(ctx context.Context) ([]catalog.Prestation, error) {
	var rows []Prestation
	if err := store.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectPrestation, errorCodeList, err)
	}
	prestations := make([]catalog.Prestation, 0, len(rows))
	for _, row := range rows {
		prestations = append(prestations, mapPrestation(row))
	}
	return prestations, nil
}

// GetPrestation loads a prestation by id.
func (store *Store) GetPrestation(ctx context.Context, id string) (catalog.Prestation, error) {
	if !isUUID(id) {
		return catalog.Prestation{}, wrapStoreError(errorSubjectPrestation, errorCodeGet, catalog.ErrPrestationNotFound)
	}
	return store.takePrestation(ctx, "id = ?", id)
}

// GetPrestationBySlug loads a prestation by slug.
func (store *Store) GetPrestationBySlug(ctx context.Context, slug string) (catalog.Prestation, error) {
	return store.takePrestation(ctx, "slug = ?", slug)
}

// CreatePrestation inserts a prestation and returns it with its generated id.
func (store *Store) CreatePrestation(ctx context.Context, prestation catalog.Prestation) (catalog.Prestation, error) {
	model := Prestation{
		Name:          prestation.Name,
		Description:   prestation.Description,
		Price:         prestation.Price,
		AvailableDays: datatypes.NewJSONSlice(nonNilDays(prestation.AvailableDays)),
		Slug:          prestation.Slug,
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return catalog.Prestation{}, wrapStoreError(errorSubjectPrestation, errorCodeDuplicate, catalog.ErrDuplicateSlug)
	}
	if err != nil {
		return catalog.Prestation{}, wrapStoreError(errorSubjectPrestation, errorCodeCreate, err)
	}
	return mapPrestation(model), nil
}

// UpdatePrestation overwrites the editable columns of an existing prestation.
func (store *Store) UpdatePrestation(ctx context.Context, prestation catalog.Prestation) (catalog.Prestation, error) {
	if !isUUID(prestation.ID) {
		return catalog.Prestation{}, wrapStoreError(errorSubjectPrestation, errorCodeUpdate, catalog.ErrPrestationNotFound)
	}
	result := store.db.WithContext(ctx).
		Model(&Prestation{}).
		Where("id = ?", prestation.ID).
		Updates(map[string]any{
			"name":           prestation.Name,
			"description":    prestation.Description,
			"price":          prestation.Price,
			"available_days": datatypes.NewJSONSlice(nonNilDays(prestation.AvailableDays)),
			"slug":           prestation.Slug,
		})
	if isUniqueViolation(result.Error) {
		return catalog.Prestation{}, wrapStoreError(errorSubjectPrestation, errorCodeDuplicate, catalog.ErrDuplicateSlug)
	}
	if result.Error != nil {
		return catalog.Prestation{}, wrapStoreError(errorSubjectPrestation, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return catalog.Prestation{}, wrapStoreError(errorSubjectPrestation, errorCodeUpdate, catalog.ErrPrestationNotFound)
	}
	return store.takePrestation(ctx, "id = ?", prestation.ID)
}

// DeletePrestation removes a prestation by id.
func (store *Store) DeletePrestation(ctx context.Context, id string) error {
	if !isUUID(id) {
		return wrapStoreError(errorSubjectPrestation, errorCodeDelete, catalog.ErrPrestationNotFound)
	}
	result := store.db.WithContext(ctx).Where("id = ?", id).Delete(&Prestation{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectPrestation, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectPrestation, errorCodeDelete, catalog.ErrPrestationNotFound)
	}
	return nil
}

func (store *Store) takePrestation(ctx context.Context, condition string, value string) (catalog.Prestation, error) {
	var row Prestation
	err := store.db.WithContext(ctx).Where(condition, value).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return catalog.Prestation{}, wrapStoreError(errorSubjectPrestation, errorCodeGet, catalog.ErrPrestationNotFound)
	}
	if err != nil {
		return catalog.Prestation{}, wrapStoreError(errorSubjectPrestation, errorCodeGet, err)
	}
	return mapPrestation(row), nil
}

func mapPrestation(row Prestation) catalog.Prestation {
	return catalog.Prestation{
		ID:            row.ID,
		Name:          row.Name,
		Description:   row.Description,
		Price:         row.Price,
		AvailableDays: nonNilDays(row.AvailableDays),
		Slug:          row.Slug,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

func nonNilDays(days []string) []string {
	if days == nil {
		return []string{}
	}
	return days
}
