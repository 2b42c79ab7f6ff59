package service

import (
	"strings"

	"github.com/lodgehub/lodgehub-api/internal/apperr"
	"github.com/lodgehub/lodgehub-api/internal/models"
	"github.com/lodgehub/lodgehub-api/internal/repository"
	"github.com/shopspring/decimal"
)

// ReservationService enforces the reservation lifecycle:
//
//	(none) -> PENDING -> CONFIRMED -> COMPLETED
//	            |            |
//	            +-> CANCELLED <-+
//
// CANCELLED and COMPLETED are terminal. Pricing overrides are only permitted
// while a reservation is PENDING.
type ReservationService struct {
	reservationRepo repository.ReservationRepository
	propertyRepo    repository.PropertyRepository
}

func NewReservationService(reservationRepo repository.ReservationRepository, propertyRepo repository.PropertyRepository) *ReservationService {
	return &ReservationService{
		reservationRepo: reservationRepo,
		propertyRepo:    propertyRepo,
	}
}

func (s *ReservationService) GetByID(reservationID string) (models.Reservation, error) {
	return s.reservationRepo.GetReservationByID(reservationID)
}

func (s *ReservationService) ListByTenant(tenantSub string, limit, offset int) ([]models.Reservation, error) {
	return s.reservationRepo.ListReservationsByTenant(tenantSub, limit, offset)
}

func (s *ReservationService) ListByProperty(propertyID string) ([]models.Reservation, error) {
	return s.reservationRepo.ListReservationsByProperty(propertyID)
}

func (s *ReservationService) ListByPropertyOwner(ownerSub string, limit, offset int) ([]models.Reservation, error) {
	return s.reservationRepo.ListReservationsByPropertyOwner(ownerSub, "", limit, offset)
}

func (s *ReservationService) ListPendingByPropertyOwner(ownerSub string, limit, offset int) ([]models.Reservation, error) {
	return s.reservationRepo.ListReservationsByPropertyOwner(ownerSub, models.ReservationPending, limit, offset)
}

// HasOverlap reports whether any active reservation on the property
// intersects the candidate range under the inclusive-endpoint rule.
func (s *ReservationService) HasOverlap(propertyID string, start, end models.Date) (bool, error) {
	return s.reservationRepo.HasOverlappingReservation(propertyID, start, end)
}

// Create books the property for [start, end]. The repository re-runs the
// availability check inside the same transaction as the insert, so the
// pre-checks here only produce friendlier errors on the common paths.
func (s *ReservationService) Create(propertyID, tenantSub string, start, end models.Date) (models.Reservation, error) {
	if !end.After(start.Time) {
		return models.Reservation{}, apperr.InvalidInput("end date must be after start date")
	}

	property, err := s.propertyRepo.GetPropertyByID(propertyID)
	if err != nil {
		return models.Reservation{}, err
	}
	if !property.IsBookable() {
		return models.Reservation{}, apperr.InvalidState("property is not available for booking")
	}

	nights := start.DaysUntil(end)
	totalPrice := property.PricePerNight.Mul(decimal.NewFromInt(nights))

	return s.reservationRepo.CreateReservation(models.Reservation{
		PropertyID:       propertyID,
		TenantSub:        tenantSub,
		StartDate:        start,
		EndDate:          end,
		Status:           models.ReservationPending,
		UnitPriceApplied: property.PricePerNight,
		TotalPrice:       totalPrice,
		PricingType:      models.PricingNormal,
	})
}

func (s *ReservationService) Confirm(reservationID string) (models.Reservation, error) {
	reservation, err := s.reservationRepo.GetReservationByID(reservationID)
	if err != nil {
		return models.Reservation{}, err
	}
	if reservation.Status != models.ReservationPending {
		return models.Reservation{}, apperr.InvalidState("only a pending reservation can be confirmed")
	}
	return s.reservationRepo.UpdateReservationStatus(reservationID,
		[]models.ReservationStatus{models.ReservationPending},
		models.ReservationConfirmed)
}

func (s *ReservationService) Cancel(reservationID string) (models.Reservation, error) {
	reservation, err := s.reservationRepo.GetReservationByID(reservationID)
	if err != nil {
		return models.Reservation{}, err
	}
	switch reservation.Status {
	case models.ReservationCancelled:
		return models.Reservation{}, apperr.InvalidState("reservation is already cancelled")
	case models.ReservationCompleted:
		return models.Reservation{}, apperr.InvalidState("a completed reservation cannot be cancelled")
	}
	return s.reservationRepo.UpdateReservationStatus(reservationID,
		[]models.ReservationStatus{models.ReservationPending, models.ReservationConfirmed},
		models.ReservationCancelled)
}

func (s *ReservationService) Complete(reservationID string) (models.Reservation, error) {
	reservation, err := s.reservationRepo.GetReservationByID(reservationID)
	if err != nil {
		return models.Reservation{}, err
	}
	if reservation.Status != models.ReservationConfirmed {
		return models.Reservation{}, apperr.InvalidState("only a confirmed reservation can be completed")
	}
	return s.reservationRepo.UpdateReservationStatus(reservationID,
		[]models.ReservationStatus{models.ReservationConfirmed},
		models.ReservationCompleted)
}

// ApplyDiscount replaces the unit price on a PENDING reservation. A discount
// must not increase the price.
func (s *ReservationService) ApplyDiscount(reservationID string, discountedUnitPrice decimal.Decimal, reason, pricedBySub string) (models.Reservation, error) {
	reservation, err := s.reservationRepo.GetReservationByID(reservationID)
	if err != nil {
		return models.Reservation{}, err
	}
	if reservation.Status != models.ReservationPending {
		return models.Reservation{}, apperr.InvalidState("pricing can only be changed on a pending reservation")
	}
	if discountedUnitPrice.IsNegative() {
		return models.Reservation{}, apperr.InvalidInput("discounted unit price cannot be negative")
	}
	if discountedUnitPrice.GreaterThan(reservation.UnitPriceApplied) {
		return models.Reservation{}, apperr.InvalidInput("discounted unit price cannot exceed the current unit price")
	}

	reason = strings.TrimSpace(reason)
	totalPrice := discountedUnitPrice.Mul(decimal.NewFromInt(reservation.Nights()))

	return s.reservationRepo.UpdateReservationPricing(reservationID, models.Reservation{
		UnitPriceApplied: discountedUnitPrice,
		TotalPrice:       totalPrice,
		PricingType:      models.PricingDiscount,
		PricingReason:    &reason,
		PricedBySub:      &pricedBySub,
	})
}

func (s *ReservationService) ApplyFreeStay(reservationID, reason, pricedBySub string) (models.Reservation, error) {
	reservation, err := s.reservationRepo.GetReservationByID(reservationID)
	if err != nil {
		return models.Reservation{}, err
	}
	if reservation.Status != models.ReservationPending {
		return models.Reservation{}, apperr.InvalidState("pricing can only be changed on a pending reservation")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.Reservation{}, apperr.InvalidInput("a reason is required for a free stay")
	}

	return s.reservationRepo.UpdateReservationPricing(reservationID, models.Reservation{
		UnitPriceApplied: decimal.Zero,
		TotalPrice:       decimal.Zero,
		PricingType:      models.PricingFree,
		PricingReason:    &reason,
		PricedBySub:      &pricedBySub,
	})
}
