package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PropertyStatus string

const (
	PropertyActive   PropertyStatus = "ACTIVE"
	PropertyInactive PropertyStatus = "INACTIVE"
)

func IsValidPropertyStatus(s PropertyStatus) bool {
	return s == PropertyActive || s == PropertyInactive
}

// Property is a bookable unit of inventory owned by a single principal.
type Property struct {
	ID            string          `json:"id"`
	OwnerSub      string          `json:"owner_sub"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	City          string          `json:"city"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	Status        PropertyStatus  `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsBookable reports whether new reservations may be created for the property.
func (p Property) IsBookable() bool {
	return p.Status == PropertyActive
}

func (p Property) IsOwnedBy(userSub string) bool {
	return p.OwnerSub != "" && p.OwnerSub == userSub
}
