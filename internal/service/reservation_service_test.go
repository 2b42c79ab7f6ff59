package service

import (
	"testing"
	"time"

	"github.com/lodgehub/lodgehub-api/internal/apperr"
	"github.com/lodgehub/lodgehub-api/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) models.Date {
	return models.NewDate(year, month, day)
}

func seedProperty(t *testing.T, repo fakePropertyRepo, ownerSub, price string) models.Property {
	t.Helper()
	property, err := repo.CreateProperty(models.Property{
		OwnerSub:      ownerSub,
		Title:         "Flat A",
		Description:   "Two rooms near the river",
		City:          "Porto",
		PricePerNight: decimal.RequireFromString(price),
		Status:        models.PropertyActive,
	})
	require.NoError(t, err)
	return property
}

func TestCreateReservationComputesTotal(t *testing.T) {
	propertyRepo, reservationRepo, _ := newFakeRepos()
	svc := NewReservationService(reservationRepo, propertyRepo)
	property := seedProperty(t, propertyRepo, "owner-1", "100.00")

	reservation, err := svc.Create(property.ID, "tenant-1", date(2026, 3, 1), date(2026, 3, 10))
	require.NoError(t, err)

	assert.Equal(t, models.ReservationPending, reservation.Status)
	assert.Equal(t, models.PricingNormal, reservation.PricingType)
	assert.EqualValues(t, 9, reservation.Nights())
	assert.True(t, reservation.UnitPriceApplied.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, reservation.TotalPrice.Equal(decimal.RequireFromString("900.00")))
}

func TestCreateReservationRejectsBadRanges(t *testing.T) {
	propertyRepo, reservationRepo, _ := newFakeRepos()
	svc := NewReservationService(reservationRepo, propertyRepo)
	property := seedProperty(t, propertyRepo, "owner-1", "100.00")

	tests := []struct {
		name       string
		start, end models.Date
	}{
		{"end equals start", date(2026, 3, 1), date(2026, 3, 1)},
		{"end before start", date(2026, 3, 10), date(2026, 3, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(property.ID, "tenant-1", tt.start, tt.end)
			assert.True(t, apperr.IsInvalidInput(err))
			assert.EqualError(t, err, "end date must be after start date")
		})
	}
}

func TestCreateReservationUnknownProperty(t *testing.T) {
	propertyRepo, reservationRepo, _ := newFakeRepos()
	svc := NewReservationService(reservationRepo, propertyRepo)

	_, err := svc.Create("00000000-0000-0000-0000-000000000000", "tenant-1", date(2026, 3, 1), date(2026, 3, 2))
	assert.True(t, apperr.IsNotFound(err))
}

func TestCreateReservationInactiveProperty(t *testing.T) {
	propertyRepo, reservationRepo, _ := newFakeRepos()
	svc := NewReservationService(reservationRepo, propertyRepo)
	property := seedProperty(t, propertyRepo, "owner-1", "100.00")
	_, err := propertyRepo.SetPropertyStatus(property.ID, models.PropertyInactive)
	require.NoError(t, err)

	_, err = svc.Create(property.ID, "tenant-1", date(2026, 3, 1), date(2026, 3, 2))
	assert.True(t, apperr.IsInvalidState(err))
	assert.EqualError(t, err, "property is not available for booking")
}

func TestCreateReservationOverlap(t *testing.T) {
	propertyRepo, reservationRepo, _ := newFakeRepos()
	svc := NewReservationService(reservationRepo, propertyRepo)
	property := seedProperty(t, propertyRepo, "owner-1", "100.00")

	_, err := svc.Create(property.ID, "tenant-1", date(2026, 3, 10), date(2026, 3, 15))
	require.NoError(t, err)

	tests := []struct {
		name       string
		start, end models.Date
		overlaps   bool
	}{
		{"fully inside", date(2026, 3, 11), date(2026, 3, 14), true},
		{"straddles start", date(2026, 3, 8), date(2026, 3, 11), true},
		{"straddles end", date(2026, 3, 14), date(2026, 3, 18), true},
		{"shares checkout day", date(2026, 3, 15), date(2026, 3, 20), true},
		{"shares checkin day", date(2026, 3, 5), date(2026, 3, 10), true},
		{"starts the day after checkout", date(2026, 3, 16), date(2026, 3, 20), false},
		{"ends the day before checkin", date(2026, 3, 5), date(2026, 3, 9), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.HasOverlap(property.ID, tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.overlaps, got)

			_, err = svc.Create(property.ID, "tenant-2", tt.start, tt.end)
			if tt.overlaps {
				assert.True(t, apperr.IsConflict(err))
				assert.EqualError(t, err, "requested dates overlap an existing reservation")
			} else {
				require.NoError(t, err)
				// Cancel so the cases stay independent of each other.
				reservations, listErr := reservationRepo.ListReservationsByTenant("tenant-2", 10, 0)
				require.NoError(t, listErr)
				for _, r := range reservations {
					if r.IsActive() {
						_, cancelErr := svc.Cancel(r.ID)
						require.NoError(t, cancelErr)
					}
				}
			}
		})
	}
}

func TestCancelledReservationFreesDates(t *testing.T) {
	propertyRepo, reservationRepo, _ := newFakeRepos()
	svc := NewReservationService(reservationRepo, propertyRepo)
	property := seedProperty(t, propertyRepo, "owner-1", "100.00")

	first, err := svc.Create(property.ID, "tenant-1", date(2026, 3, 1), date(2026, 3, 5))
	require.NoError(t, err)
	_, err = svc.Cancel(first.ID)
	require.NoError(t, err)

	_, err = svc.Create(property.ID, "tenant-2", date(2026, 3, 1), date(2026, 3, 5))
	assert.NoError(t, err)
}

func TestReservationTransitions(t *testing.T) {
	propertyRepo, reservationRepo, _ := newFakeRepos()
	svc := NewReservationService(reservationRepo, propertyRepo)
	property := seedProperty(t, propertyRepo, "owner-1", "100.00")

	newReservation := func(t *testing.T, start, end models.Date) models.Reservation {
		t.Helper()
		reservation, err := svc.Create(property.ID, "tenant-1", start, end)
		require.NoError(t, err)
		return reservation
	}

	t.Run("confirm pending", func(t *testing.T) {
		r := newReservation(t, date(2026, 4, 1), date(2026, 4, 3))
		confirmed, err := svc.Confirm(r.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ReservationConfirmed, confirmed.Status)

		_, err = svc.Confirm(r.ID)
		assert.True(t, apperr.IsInvalidState(err))
		assert.EqualError(t, err, "only a pending reservation can be confirmed")
	})

	t.Run("complete confirmed", func(t *testing.T) {
		r := newReservation(t, date(2026, 4, 5), date(2026, 4, 7))
		_, err := svc.Complete(r.ID)
		assert.True(t, apperr.IsInvalidState(err))
		assert.EqualError(t, err, "only a confirmed reservation can be completed")

		_, err = svc.Confirm(r.ID)
		require.NoError(t, err)
		completed, err := svc.Complete(r.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ReservationCompleted, completed.Status)
	})

	t.Run("cancel pending and confirmed", func(t *testing.T) {
		pending := newReservation(t, date(2026, 4, 9), date(2026, 4, 11))
		cancelled, err := svc.Cancel(pending.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ReservationCancelled, cancelled.Status)

		confirmed := newReservation(t, date(2026, 4, 13), date(2026, 4, 15))
		_, err = svc.Confirm(confirmed.ID)
		require.NoError(t, err)
		cancelled, err = svc.Cancel(confirmed.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ReservationCancelled, cancelled.Status)
	})

	t.Run("terminal states stay terminal", func(t *testing.T) {
		r := newReservation(t, date(2026, 4, 17), date(2026, 4, 19))
		_, err := svc.Cancel(r.ID)
		require.NoError(t, err)

		_, err = svc.Cancel(r.ID)
		assert.True(t, apperr.IsInvalidState(err))
		assert.EqualError(t, err, "reservation is already cancelled")
		_, err = svc.Confirm(r.ID)
		assert.True(t, apperr.IsInvalidState(err))

		done := newReservation(t, date(2026, 4, 21), date(2026, 4, 23))
		_, err = svc.Confirm(done.ID)
		require.NoError(t, err)
		_, err = svc.Complete(done.ID)
		require.NoError(t, err)

		_, err = svc.Cancel(done.ID)
		assert.True(t, apperr.IsInvalidState(err))
		assert.EqualError(t, err, "a completed reservation cannot be cancelled")
	})
}

func TestApplyDiscount(t *testing.T) {
	propertyRepo, reservationRepo, _ := newFakeRepos()
	svc := NewReservationService(reservationRepo, propertyRepo)
	property := seedProperty(t, propertyRepo, "owner-1", "100.00")

	reservation, err := svc.Create(property.ID, "tenant-1", date(2026, 5, 1), date(2026, 5, 5))
	require.NoError(t, err)

	t.Run("rewrites the pricing snapshot", func(t *testing.T) {
		discounted, err := svc.ApplyDiscount(reservation.ID, decimal.RequireFromString("80.00"), "returning guest", "owner-1")
		require.NoError(t, err)
		assert.Equal(t, models.PricingDiscount, discounted.PricingType)
		assert.True(t, discounted.UnitPriceApplied.Equal(decimal.RequireFromString("80.00")))
		assert.True(t, discounted.TotalPrice.Equal(decimal.RequireFromString("320.00")))
		require.NotNil(t, discounted.PricingReason)
		assert.Equal(t, "returning guest", *discounted.PricingReason)
		require.NotNil(t, discounted.PricedBySub)
		assert.Equal(t, "owner-1", *discounted.PricedBySub)
	})

	t.Run("rejects a negative price", func(t *testing.T) {
		_, err := svc.ApplyDiscount(reservation.ID, decimal.RequireFromString("-1"), "", "owner-1")
		assert.True(t, apperr.IsInvalidInput(err))
		assert.EqualError(t, err, "discounted unit price cannot be negative")
	})

	t.Run("rejects a price above the current one", func(t *testing.T) {
		_, err := svc.ApplyDiscount(reservation.ID, decimal.RequireFromString("90.00"), "", "owner-1")
		assert.True(t, apperr.IsInvalidInput(err))
		assert.EqualError(t, err, "discounted unit price cannot exceed the current unit price")
	})

	t.Run("rejects a non-pending reservation", func(t *testing.T) {
		_, err := svc.Confirm(reservation.ID)
		require.NoError(t, err)
		_, err = svc.ApplyDiscount(reservation.ID, decimal.RequireFromString("70.00"), "", "owner-1")
		assert.True(t, apperr.IsInvalidState(err))
		assert.EqualError(t, err, "pricing can only be changed on a pending reservation")
	})
}

func TestApplyFreeStay(t *testing.T) {
	propertyRepo, reservationRepo, _ := newFakeRepos()
	svc := NewReservationService(reservationRepo, propertyRepo)
	property := seedProperty(t, propertyRepo, "owner-1", "100.00")

	reservation, err := svc.Create(property.ID, "tenant-1", date(2026, 6, 1), date(2026, 6, 4))
	require.NoError(t, err)

	_, err = svc.ApplyFreeStay(reservation.ID, "   ", "owner-1")
	assert.True(t, apperr.IsInvalidInput(err))
	assert.EqualError(t, err, "a reason is required for a free stay")

	free, err := svc.ApplyFreeStay(reservation.ID, "compensation for outage", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, models.PricingFree, free.PricingType)
	assert.True(t, free.UnitPriceApplied.IsZero())
	assert.True(t, free.TotalPrice.IsZero())
}

// TestBookingLifecycle walks one reservation through the whole flow the way
// an owner and a tenant would: book, discount, collide with a second booking,
// confirm, complete.
func TestBookingLifecycle(t *testing.T) {
	propertyRepo, reservationRepo, _ := newFakeRepos()
	svc := NewReservationService(reservationRepo, propertyRepo)
	property := seedProperty(t, propertyRepo, "owner-1", "100.00")

	reservation, err := svc.Create(property.ID, "tenant-1", date(2026, 3, 1), date(2026, 3, 10))
	require.NoError(t, err)
	require.True(t, reservation.TotalPrice.Equal(decimal.RequireFromString("900.00")))

	reservation, err = svc.ApplyDiscount(reservation.ID, decimal.RequireFromString("80.00"), "long stay", "owner-1")
	require.NoError(t, err)
	require.True(t, reservation.TotalPrice.Equal(decimal.RequireFromString("720.00")))

	_, err = svc.Create(property.ID, "tenant-2", date(2026, 3, 5), date(2026, 3, 8))
	require.True(t, apperr.IsConflict(err))

	reservation, err = svc.Confirm(reservation.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReservationConfirmed, reservation.Status)

	reservation, err = svc.Complete(reservation.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReservationCompleted, reservation.Status)

	_, err = svc.Cancel(reservation.ID)
	require.True(t, apperr.IsInvalidState(err))
}
