package gormstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Reservation mirrors the reservations table.
type Reservation struct {
	ID               string             `gorm:"type:uuid;primaryKey"`
	UserID           string             `gorm:"not null;index:idx_reservations_user_created,priority:1"`
	Status           string             `gorm:"type:varchar(16);not null;index"`
	PaymentSessionID *string            `gorm:"index"`
	PaidAt           *time.Time         `gorm:""`
	CreatedAt        time.Time          `gorm:"not null;index:idx_reservations_user_created,priority:2"`
	UpdatedAt        time.Time          `gorm:"not null"`
	Entries          []ReservationEntry `gorm:"foreignKey:ReservationID;constraint:OnDelete:CASCADE"`
}

func (Reservation) TableName() string { return "reservations" }

func (reservation *Reservation) BeforeCreate(tx *gorm.DB) error {
	if reservation.ID == "" {
		reservation.ID = uuid.NewString()
	}
	return nil
}

// ReservationEntry mirrors the reservation_entries table.
type ReservationEntry struct {
	ID            uint            `gorm:"primaryKey"`
	ReservationID string          `gorm:"type:uuid;not null;index:idx_entries_reservation_position,priority:1"`
	Position      int             `gorm:"not null;index:idx_entries_reservation_position,priority:2"`
	PrestationID  string          `gorm:"not null"`
	Name          string          `gorm:"not null"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Date          time.Time       `gorm:"not null"`
}

func (ReservationEntry) TableName() string { return "reservation_entries" }

// Prestation mirrors the prestations table.
type Prestation struct {
	ID            string                      `gorm:"type:uuid;primaryKey"`
	Name          string                      `gorm:"not null"`
	Description   string                      `gorm:"not null"`
	Price         decimal.Decimal             `gorm:"type:numeric(12,2);not null"`
	AvailableDays datatypes.JSONSlice[string] `gorm:"not null"`
	Slug          string                      `gorm:"not null;uniqueIndex:idx_prestations_slug"`
	CreatedAt     time.Time                   `gorm:"not null"`
	UpdatedAt     time.Time                   `gorm:"not null"`
}

func (Prestation) TableName() string { return "prestations" }

func (prestation *Prestation) BeforeCreate(tx *gorm.DB) error {
	if prestation.ID == "" {
		prestation.ID = uuid.NewString()
	}
	return nil
}

// User mirrors the users table.
type User struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"not null;uniqueIndex:idx_users_username"`
	Email        string    `gorm:"not null;uniqueIndex:idx_users_email"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (User) TableName() string { return "users" }

func (user *User) BeforeCreate(tx *gorm.DB) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	return nil
}

// Models lists every table managed by AutoMigrate.
func Models() []any {
	return []any{&Reservation{}, &ReservationEntry{}, &Prestation{}, &User{}}
}
