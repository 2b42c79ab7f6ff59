package service

import (
	"strings"

	"github.com/lodgehub/lodgehub-api/internal/apperr"
	"github.com/lodgehub/lodgehub-api/internal/models"
	"github.com/lodgehub/lodgehub-api/internal/repository"
	"github.com/shopspring/decimal"
)

// PropertyUpdate carries optional field edits; nil fields are left untouched.
type PropertyUpdate struct {
	Title         *string
	Description   *string
	City          *string
	PricePerNight *decimal.Decimal
}

type PropertyService struct {
	propertyRepo repository.PropertyRepository
}

func NewPropertyService(propertyRepo repository.PropertyRepository) *PropertyService {
	return &PropertyService{propertyRepo: propertyRepo}
}

func (s *PropertyService) Create(ownerSub, title, description, city string, pricePerNight decimal.Decimal) (models.Property, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	city = strings.TrimSpace(city)

	if title == "" {
		return models.Property{}, apperr.InvalidInput("title is required")
	}
	if description == "" {
		return models.Property{}, apperr.InvalidInput("description is required")
	}
	if city == "" {
		return models.Property{}, apperr.InvalidInput("city is required")
	}
	if !pricePerNight.IsPositive() {
		return models.Property{}, apperr.InvalidInput("price per night must be positive")
	}

	return s.propertyRepo.CreateProperty(models.Property{
		OwnerSub:      ownerSub,
		Title:         title,
		Description:   description,
		City:          city,
		PricePerNight: pricePerNight,
		Status:        models.PropertyActive,
	})
}

func (s *PropertyService) GetByID(propertyID string) (models.Property, error) {
	return s.propertyRepo.GetPropertyByID(propertyID)
}

func (s *PropertyService) ListByOwner(ownerSub string, limit, offset int) ([]models.Property, error) {
	return s.propertyRepo.ListPropertiesByOwner(ownerSub, limit, offset)
}

func (s *PropertyService) ListActive(city string, limit, offset int) ([]models.Property, error) {
	return s.propertyRepo.ListActiveProperties(city, limit, offset)
}

func (s *PropertyService) Update(propertyID string, update PropertyUpdate) (models.Property, error) {
	property, err := s.propertyRepo.GetPropertyByID(propertyID)
	if err != nil {
		return models.Property{}, err
	}

	if update.Title != nil {
		property.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		property.Description = strings.TrimSpace(*update.Description)
	}
	if update.City != nil {
		property.City = strings.TrimSpace(*update.City)
	}
	if update.PricePerNight != nil {
		property.PricePerNight = *update.PricePerNight
	}

	if property.Title == "" || property.Description == "" || property.City == "" {
		return models.Property{}, apperr.InvalidInput("title, description and city cannot be blank")
	}
	if !property.PricePerNight.IsPositive() {
		return models.Property{}, apperr.InvalidInput("price per night must be positive")
	}

	return s.propertyRepo.UpdateProperty(property)
}

// Activate turns an INACTIVE property ACTIVE; activating an already-active
// property is an error, not a no-op.
func (s *PropertyService) Activate(propertyID string) (models.Property, error) {
	property, err := s.propertyRepo.GetPropertyByID(propertyID)
	if err != nil {
		return models.Property{}, err
	}
	if property.Status == models.PropertyActive {
		return models.Property{}, apperr.InvalidState("property is already active")
	}
	return s.propertyRepo.SetPropertyStatus(propertyID, models.PropertyActive)
}

func (s *PropertyService) Deactivate(propertyID string) (models.Property, error) {
	property, err := s.propertyRepo.GetPropertyByID(propertyID)
	if err != nil {
		return models.Property{}, err
	}
	if property.Status == models.PropertyInactive {
		return models.Property{}, apperr.InvalidState("property is already inactive")
	}
	return s.propertyRepo.SetPropertyStatus(propertyID, models.PropertyInactive)
}

// Delete removes the property; it fails with Conflict while any active
// reservation references it.
func (s *PropertyService) Delete(propertyID string) error {
	return s.propertyRepo.DeleteProperty(propertyID)
}
