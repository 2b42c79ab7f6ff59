package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationCompleted ReservationStatus = "COMPLETED"
)

type PricingType string

const (
	PricingNormal   PricingType = "NORMAL"
	PricingDiscount PricingType = "DISCOUNT"
	PricingFree     PricingType = "FREE"
)

// Reservation ties a tenant to a property for a date range, with a snapshot
// of the pricing that was applied.
type Reservation struct {
	ID               string            `json:"id"`
	PropertyID       string            `json:"property_id"`
	TenantSub        string            `json:"tenant_sub"`
	StartDate        Date              `json:"start_date"`
	EndDate          Date              `json:"end_date"`
	Status           ReservationStatus `json:"status"`
	UnitPriceApplied decimal.Decimal   `json:"unit_price_applied"`
	TotalPrice       decimal.Decimal   `json:"total_price"`
	PricingType      PricingType       `json:"pricing_type"`
	PricingReason    *string           `json:"pricing_reason,omitempty"`
	PricedBySub      *string           `json:"priced_by_sub,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Nights returns the stay length in nights.
func (r Reservation) Nights() int64 {
	return r.StartDate.DaysUntil(r.EndDate)
}

// IsActive reports whether the reservation occupies calendar space.
// CANCELLED and COMPLETED reservations never block availability.
func (r Reservation) IsActive() bool {
	return r.Status == ReservationPending || r.Status == ReservationConfirmed
}

func (r Reservation) IsTenant(userSub string) bool {
	return r.TenantSub != "" && r.TenantSub == userSub
}

// Overlaps applies the inclusive-endpoint overlap rule: the checkout day of
// one stay collides with the check-in day of the next.
func (r Reservation) Overlaps(start, end Date) bool {
	return !r.EndDate.Before(start.Time) && !r.StartDate.After(end.Time)
}
