package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lodgehub/lodgehub-api/internal/apperr"
	"github.com/lodgehub/lodgehub-api/internal/models"
)

// fakeStore is an in-memory stand-in for the three repositories. It reproduces
// the same guards the SQL layer enforces, including the overlap check on
// booking and the status-guarded updates, so the services can be exercised
// without a database.
type fakeStore struct {
	properties   map[string]models.Property
	reservations map[string]models.Reservation
	accessCodes  map[string]models.PropertyAccessCode
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		properties:   make(map[string]models.Property),
		reservations: make(map[string]models.Reservation),
		accessCodes:  make(map[string]models.PropertyAccessCode),
	}
}

// The three repository interfaces each declare ExistsByID, so the store is
// wrapped per repository to give each its own implementation.
type fakePropertyRepo struct{ *fakeStore }
type fakeReservationRepo struct{ *fakeStore }
type fakeAccessCodeRepo struct{ *fakeStore }

func newFakeRepos() (fakePropertyRepo, fakeReservationRepo, fakeAccessCodeRepo) {
	store := newFakeStore()
	return fakePropertyRepo{store}, fakeReservationRepo{store}, fakeAccessCodeRepo{store}
}

func (f fakePropertyRepo) ExistsByID(propertyID string) (bool, error) {
	_, ok := f.properties[propertyID]
	return ok, nil
}

func (f fakeReservationRepo) ExistsByID(reservationID string) (bool, error) {
	_, ok := f.reservations[reservationID]
	return ok, nil
}

func (f fakeAccessCodeRepo) ExistsByID(codeID string) (bool, error) {
	_, ok := f.accessCodes[codeID]
	return ok, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// PropertyRepository

func (f *fakeStore) CreateProperty(property models.Property) (models.Property, error) {
	property.ID = uuid.NewString()
	property.CreatedAt = time.Now()
	property.UpdatedAt = property.CreatedAt
	f.properties[property.ID] = property
	return property, nil
}

func (f *fakeStore) GetPropertyByID(propertyID string) (models.Property, error) {
	property, ok := f.properties[propertyID]
	if !ok {
		return models.Property{}, apperr.NotFound("property not found: %s", propertyID)
	}
	return property, nil
}

func (f *fakeStore) ListPropertiesByOwner(ownerSub string, limit, offset int) ([]models.Property, error) {
	var out []models.Property
	for _, p := range f.properties {
		if p.OwnerSub == ownerSub {
			out = append(out, p)
		}
	}
	return paginate(out, limit, offset), nil
}

func (f *fakeStore) ListActiveProperties(city string, limit, offset int) ([]models.Property, error) {
	var out []models.Property
	for _, p := range f.properties {
		if p.Status != models.PropertyActive {
			continue
		}
		if city != "" && !strings.EqualFold(p.City, city) {
			continue
		}
		out = append(out, p)
	}
	return paginate(out, limit, offset), nil
}

func (f *fakeStore) UpdateProperty(property models.Property) (models.Property, error) {
	existing, ok := f.properties[property.ID]
	if !ok {
		return models.Property{}, apperr.NotFound("property not found: %s", property.ID)
	}
	existing.Title = property.Title
	existing.Description = property.Description
	existing.City = property.City
	existing.PricePerNight = property.PricePerNight
	existing.UpdatedAt = time.Now()
	f.properties[existing.ID] = existing
	return existing, nil
}

func (f *fakeStore) SetPropertyStatus(propertyID string, status models.PropertyStatus) (models.Property, error) {
	property, ok := f.properties[propertyID]
	if !ok || property.Status == status {
		return models.Property{}, apperr.Conflict("property status changed concurrently")
	}
	property.Status = status
	property.UpdatedAt = time.Now()
	f.properties[propertyID] = property
	return property, nil
}

func (f *fakeStore) DeleteProperty(propertyID string) error {
	if _, ok := f.properties[propertyID]; !ok {
		return apperr.NotFound("property not found: %s", propertyID)
	}
	for _, r := range f.reservations {
		if r.PropertyID == propertyID && r.IsActive() {
			return apperr.Conflict("property has active reservations and cannot be deleted")
		}
	}
	delete(f.properties, propertyID)
	for id, r := range f.reservations {
		if r.PropertyID == propertyID {
			delete(f.reservations, id)
		}
	}
	for id, c := range f.accessCodes {
		if c.PropertyID == propertyID {
			delete(f.accessCodes, id)
		}
	}
	return nil
}

func (f *fakeStore) ExistsByIDAndOwner(propertyID, ownerSub string) (bool, error) {
	property, ok := f.properties[propertyID]
	return ok && property.OwnerSub == ownerSub, nil
}

func (f *fakeStore) ExistsByID(propertyID string) (bool, error) {
	_, ok := f.properties[propertyID]
	return ok, nil
}

// ReservationRepository

func (f *fakeStore) CreateReservation(reservation models.Reservation) (models.Reservation, error) {
	property, ok := f.properties[reservation.PropertyID]
	if !ok {
		return models.Reservation{}, apperr.NotFound("property not found: %s", reservation.PropertyID)
	}
	if property.Status != models.PropertyActive {
		return models.Reservation{}, apperr.InvalidState("property is not available for booking")
	}
	for _, existing := range f.reservations {
		if existing.PropertyID == reservation.PropertyID && existing.IsActive() &&
			existing.Overlaps(reservation.StartDate, reservation.EndDate) {
			return models.Reservation{}, apperr.Conflict("requested dates overlap an existing reservation")
		}
	}
	reservation.ID = uuid.NewString()
	reservation.CreatedAt = time.Now()
	reservation.UpdatedAt = reservation.CreatedAt
	f.reservations[reservation.ID] = reservation
	return reservation, nil
}

func (f *fakeStore) GetReservationByID(reservationID string) (models.Reservation, error) {
	reservation, ok := f.reservations[reservationID]
	if !ok {
		return models.Reservation{}, apperr.NotFound("reservation not found: %s", reservationID)
	}
	return reservation, nil
}

func (f *fakeStore) ListReservationsByTenant(tenantSub string, limit, offset int) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, r := range f.reservations {
		if r.TenantSub == tenantSub {
			out = append(out, r)
		}
	}
	return paginate(out, limit, offset), nil
}

func (f *fakeStore) ListReservationsByProperty(propertyID string) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, r := range f.reservations {
		if r.PropertyID == propertyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListReservationsByPropertyOwner(ownerSub string, status models.ReservationStatus, limit, offset int) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, r := range f.reservations {
		property, ok := f.properties[r.PropertyID]
		if !ok || property.OwnerSub != ownerSub {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r)
	}
	return paginate(out, limit, offset), nil
}

func (f *fakeStore) UpdateReservationStatus(reservationID string, expected []models.ReservationStatus, next models.ReservationStatus) (models.Reservation, error) {
	reservation, ok := f.reservations[reservationID]
	if !ok {
		return models.Reservation{}, apperr.Conflict("reservation was modified concurrently, retry the operation")
	}
	matched := false
	for _, status := range expected {
		if reservation.Status == status {
			matched = true
			break
		}
	}
	if !matched {
		return models.Reservation{}, apperr.Conflict("reservation was modified concurrently, retry the operation")
	}
	reservation.Status = next
	reservation.UpdatedAt = time.Now()
	f.reservations[reservationID] = reservation
	return reservation, nil
}

func (f *fakeStore) UpdateReservationPricing(reservationID string, pricing models.Reservation) (models.Reservation, error) {
	reservation, ok := f.reservations[reservationID]
	if !ok || reservation.Status != models.ReservationPending {
		return models.Reservation{}, apperr.Conflict("reservation was modified concurrently, retry the operation")
	}
	reservation.UnitPriceApplied = pricing.UnitPriceApplied
	reservation.TotalPrice = pricing.TotalPrice
	reservation.PricingType = pricing.PricingType
	reservation.PricingReason = pricing.PricingReason
	reservation.PricedBySub = pricing.PricedBySub
	reservation.UpdatedAt = time.Now()
	f.reservations[reservationID] = reservation
	return reservation, nil
}

func (f *fakeStore) HasOverlappingReservation(propertyID string, start, end models.Date) (bool, error) {
	for _, r := range f.reservations {
		if r.PropertyID == propertyID && r.IsActive() && r.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ExistsByIDAndTenant(reservationID, tenantSub string) (bool, error) {
	reservation, ok := f.reservations[reservationID]
	return ok && reservation.TenantSub == tenantSub, nil
}

func (f *fakeStore) ExistsByIDAndPropertyOwner(reservationID, ownerSub string) (bool, error) {
	reservation, ok := f.reservations[reservationID]
	if !ok {
		return false, nil
	}
	property, ok := f.properties[reservation.PropertyID]
	return ok && property.OwnerSub == ownerSub, nil
}

// AccessCodeRepository

func (f *fakeStore) CreateAccessCode(code models.PropertyAccessCode) (models.PropertyAccessCode, error) {
	for _, existing := range f.accessCodes {
		if existing.CodeLookup == code.CodeLookup {
			return models.PropertyAccessCode{}, apperr.Conflict("access code collision, retry")
		}
	}
	code.ID = uuid.NewString()
	code.CreatedAt = time.Now()
	f.accessCodes[code.ID] = code
	return code, nil
}

func (f *fakeStore) GetAccessCodeByID(codeID string) (models.PropertyAccessCode, error) {
	code, ok := f.accessCodes[codeID]
	if !ok {
		return models.PropertyAccessCode{}, apperr.NotFound("access code not found: %s", codeID)
	}
	return code, nil
}

func (f *fakeStore) GetAccessCodeByLookup(codeLookup string) (models.PropertyAccessCode, error) {
	for _, code := range f.accessCodes {
		if code.CodeLookup == codeLookup {
			return code, nil
		}
	}
	return models.PropertyAccessCode{}, apperr.NotFound("invalid access code")
}

func (f *fakeStore) ListAccessCodesByProperty(propertyID string) ([]models.PropertyAccessCode, error) {
	var out []models.PropertyAccessCode
	for _, code := range f.accessCodes {
		if code.PropertyID == propertyID {
			out = append(out, code)
		}
	}
	return out, nil
}

func (f *fakeStore) ListActiveAccessCodesByEmail(email string, limit, offset int) ([]models.PropertyAccessCode, error) {
	now := time.Now()
	var out []models.PropertyAccessCode
	for _, code := range f.accessCodes {
		if strings.EqualFold(code.IssuedToEmail, email) && code.IsActive(now) {
			out = append(out, code)
		}
	}
	return paginate(out, limit, offset), nil
}

func (f *fakeStore) MarkAccessCodeRedeemed(codeID, redeemedBySub string) (models.PropertyAccessCode, error) {
	code, ok := f.accessCodes[codeID]
	if !ok || !code.IsActive(time.Now()) {
		return models.PropertyAccessCode{}, apperr.Conflict("this code is no longer active")
	}
	now := time.Now().UTC()
	code.RedeemedAt = &now
	code.RedeemedBySub = &redeemedBySub
	f.accessCodes[codeID] = code
	return code, nil
}

func (f *fakeStore) MarkAccessCodeRevoked(codeID, revokedBySub string) (models.PropertyAccessCode, error) {
	code, ok := f.accessCodes[codeID]
	if !ok || code.IsRevoked() {
		return models.PropertyAccessCode{}, apperr.Conflict("this code is already revoked")
	}
	now := time.Now().UTC()
	code.RevokedAt = &now
	code.RevokedBySub = &revokedBySub
	f.accessCodes[codeID] = code
	return code, nil
}

func (f *fakeStore) ExistsByIDAndCreator(codeID, createdBySub string) (bool, error) {
	code, ok := f.accessCodes[codeID]
	return ok && code.CreatedBySub == createdBySub, nil
}
