package service

import (
	"github.com/lodgehub/lodgehub-api/internal/apperr"
	"github.com/lodgehub/lodgehub-api/internal/repository"
)

// AuthorizationService answers pure permission predicates for the HTTP
// authorization gate. Every predicate fails with NotFound when the referenced
// entity is missing and otherwise returns a boolean; "no permission" is never
// an error.
type AuthorizationService struct {
	propertyRepo    repository.PropertyRepository
	reservationRepo repository.ReservationRepository
	accessCodeRepo  repository.AccessCodeRepository
}

func NewAuthorizationService(
	propertyRepo repository.PropertyRepository,
	reservationRepo repository.ReservationRepository,
	accessCodeRepo repository.AccessCodeRepository,
) *AuthorizationService {
	return &AuthorizationService{
		propertyRepo:    propertyRepo,
		reservationRepo: reservationRepo,
		accessCodeRepo:  accessCodeRepo,
	}
}

func (s *AuthorizationService) IsPropertyOwner(propertyID, userSub string) (bool, error) {
	if err := s.requirePropertyExists(propertyID); err != nil {
		return false, err
	}
	return s.propertyRepo.ExistsByIDAndOwner(propertyID, userSub)
}

func (s *AuthorizationService) IsReservationTenant(reservationID, userSub string) (bool, error) {
	if err := s.requireReservationExists(reservationID); err != nil {
		return false, err
	}
	return s.reservationRepo.ExistsByIDAndTenant(reservationID, userSub)
}

func (s *AuthorizationService) IsReservationPropertyOwner(reservationID, userSub string) (bool, error) {
	if err := s.requireReservationExists(reservationID); err != nil {
		return false, err
	}
	return s.reservationRepo.ExistsByIDAndPropertyOwner(reservationID, userSub)
}

// CanAccessReservation is satisfied by the tenant or the property owner.
func (s *AuthorizationService) CanAccessReservation(reservationID, userSub string) (bool, error) {
	isTenant, err := s.IsReservationTenant(reservationID, userSub)
	if err != nil {
		return false, err
	}
	if isTenant {
		return true, nil
	}
	return s.reservationRepo.ExistsByIDAndPropertyOwner(reservationID, userSub)
}

func (s *AuthorizationService) IsAccessCodeCreator(codeID, userSub string) (bool, error) {
	exists, err := s.accessCodeRepo.ExistsByID(codeID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, apperr.NotFound("access code not found: %s", codeID)
	}
	return s.accessCodeRepo.ExistsByIDAndCreator(codeID, userSub)
}

func (s *AuthorizationService) requirePropertyExists(propertyID string) error {
	exists, err := s.propertyRepo.ExistsByID(propertyID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("property not found: %s", propertyID)
	}
	return nil
}

func (s *AuthorizationService) requireReservationExists(reservationID string) error {
	exists, err := s.reservationRepo.ExistsByID(reservationID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("reservation not found: %s", reservationID)
	}
	return nil
}
