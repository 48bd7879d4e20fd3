package gormstore

import (
	"context"
	"errors"

	"github.com/MarkoPoloResearchLab/prestations/internal/accounts"
	"gorm.io/gorm"
)

// CreateUser inserts a user and returns it with its generated id.
func (store *Store) CreateUser(ctx context.Context, user accounts.User) (accounts.User, error) {
	model := User{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return accounts.User{}, wrapStoreError(errorSubjectUser, errorCodeDuplicate, accounts.ErrDuplicateUser)
	}
	if err != nil {
		return accounts.User{}, wrapStoreError(errorSubjectUser, errorCodeCreate, err)
	}
	return mapUser(model), nil
}

// GetUser loads a user by id.
func (store *Store) GetUser(ctx context.Context, id string) (accounts.User, error) {
	if !isUUID(id) {
		return accounts.User{}, wrapStoreError(errorSubjectUser, errorCodeGet, accounts.ErrUserNotFound)
	}
	var row User
	err := store.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return accounts.User{}, wrapStoreError(errorSubjectUser, errorCodeGet, accounts.ErrUserNotFound)
	}
	if err != nil {
		return accounts.User{}, wrapStoreError(errorSubjectUser, errorCodeGet, err)
	}
	return mapUser(row), nil
}

// ListUsers returns every user, oldest first.
func (store *Store) ListUsers(ctx context.Context) ([]accounts.User, error) {
	var rows []User
	if err := store.db.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectUser, errorCodeList, err)
	}
	users := make([]accounts.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, mapUser(row))
	}
	return users, nil
}

func mapUser(row User) accounts.User {
	return accounts.User{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
	}
}
