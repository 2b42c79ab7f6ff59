package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/lodgehub/lodgehub-api/internal/authz"
	"github.com/lodgehub/lodgehub-api/internal/service"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type PropertyHandler struct {
	properties   *service.PropertyService
	reservations *service.ReservationService
	logger       zerolog.Logger
}

type createPropertyRequest struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	City          string          `json:"city"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
}

type updatePropertyRequest struct {
	Title         *string          `json:"title"`
	Description   *string          `json:"description"`
	City          *string          `json:"city"`
	PricePerNight *decimal.Decimal `json:"price_per_night"`
}

func NewPropertyHandler(properties *service.PropertyService, reservations *service.ReservationService, logger zerolog.Logger) *PropertyHandler {
	return &PropertyHandler{
		properties:   properties,
		reservations: reservations,
		logger:       logger,
	}
}

// ListActive returns active properties, optionally filtered by city.
func (h *PropertyHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	city := r.URL.Query().Get("city")

	properties, err := h.properties.ListActive(city, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list properties")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, properties)
}

func (h *PropertyHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userSub, ok := authz.UserSubFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	limit, offset := pageParams(r)

	properties, err := h.properties.ListByOwner(userSub, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list owner properties")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, properties)
}

func (h *PropertyHandler) Get(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	property, err := h.properties.GetByID(propertyID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, property)
}

func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userSub, ok := authz.UserSubFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req createPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	property, err := h.properties.Create(userSub, req.Title, req.Description, req.City, req.PricePerNight)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, property)
}

func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req updatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	property, err := h.properties.Update(propertyID, service.PropertyUpdate{
		Title:         req.Title,
		Description:   req.Description,
		City:          req.City,
		PricePerNight: req.PricePerNight,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, property)
}

func (h *PropertyHandler) Activate(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	property, err := h.properties.Activate(propertyID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, property)
}

func (h *PropertyHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	property, err := h.properties.Deactivate(propertyID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, property)
}

func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.properties.Delete(propertyID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListReservations returns every reservation on the property, for its owner.
func (h *PropertyHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	reservations, err := h.reservations.ListByProperty(propertyID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reservations)
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	raw := mux.Vars(r)[name]
	parsed, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, name+" must be a valid UUID", http.StatusBadRequest)
		return "", false
	}
	return parsed.String(), true
}
