package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lodgehub/lodgehub-api/internal/authz"
	"github.com/lodgehub/lodgehub-api/internal/models"
	"github.com/lodgehub/lodgehub-api/internal/service"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ReservationHandler struct {
	reservations *service.ReservationService
	logger       zerolog.Logger
}

type createReservationRequest struct {
	PropertyID string      `json:"property_id"`
	StartDate  models.Date `json:"start_date"`
	EndDate    models.Date `json:"end_date"`
}

type discountRequest struct {
	DiscountedUnitPrice decimal.Decimal `json:"discounted_unit_price"`
	Reason              string          `json:"reason"`
}

type freeStayRequest struct {
	Reason string `json:"reason"`
}

func NewReservationHandler(reservations *service.ReservationService, logger zerolog.Logger) *ReservationHandler {
	return &ReservationHandler{reservations: reservations, logger: logger}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userSub, ok := authz.UserSubFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PropertyID == "" {
		http.Error(w, "property_id is required", http.StatusBadRequest)
		return
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		http.Error(w, "start_date and end_date are required", http.StatusBadRequest)
		return
	}

	reservation, err := h.reservations.Create(req.PropertyID, userSub, req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reservation)
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	reservationID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	reservation, err := h.reservations.GetByID(reservationID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reservation)
}

// ListMine returns the principal's reservations as a tenant.
func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userSub, ok := authz.UserSubFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	limit, offset := pageParams(r)

	reservations, err := h.reservations.ListByTenant(userSub, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list tenant reservations")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reservations)
}

// ListForOwner returns reservations on the principal's properties.
func (h *ReservationHandler) ListForOwner(w http.ResponseWriter, r *http.Request) {
	userSub, ok := authz.UserSubFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	limit, offset := pageParams(r)

	reservations, err := h.reservations.ListByPropertyOwner(userSub, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list owner reservations")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reservations)
}

func (h *ReservationHandler) ListPendingForOwner(w http.ResponseWriter, r *http.Request) {
	userSub, ok := authz.UserSubFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	limit, offset := pageParams(r)

	reservations, err := h.reservations.ListPendingByPropertyOwner(userSub, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list pending reservations")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reservations)
}

func (h *ReservationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	reservationID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	reservation, err := h.reservations.Confirm(reservationID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reservation)
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	reservationID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	reservation, err := h.reservations.Cancel(reservationID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reservation)
}

func (h *ReservationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	reservationID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	reservation, err := h.reservations.Complete(reservationID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reservation)
}

func (h *ReservationHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	userSub, ok := authz.UserSubFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	reservationID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req discountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reservation, err := h.reservations.ApplyDiscount(reservationID, req.DiscountedUnitPrice, req.Reason, userSub)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reservation)
}

func (h *ReservationHandler) ApplyFreeStay(w http.ResponseWriter, r *http.Request) {
	userSub, ok := authz.UserSubFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	reservationID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req freeStayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reservation, err := h.reservations.ApplyFreeStay(reservationID, req.Reason, userSub)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reservation)
}
