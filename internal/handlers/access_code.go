package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lodgehub/lodgehub-api/internal/apperr"
	"github.com/lodgehub/lodgehub-api/internal/authz"
	"github.com/lodgehub/lodgehub-api/internal/models"
	"github.com/lodgehub/lodgehub-api/internal/service"
	"github.com/rs/zerolog"
)

type AccessCodeHandler struct {
	accessCodes     *service.AccessCodeService
	isPropertyOwner authz.Predicate
	defaultTTL      time.Duration
	logger          zerolog.Logger
}

type createAccessCodeRequest struct {
	PropertyID     string `json:"property_id"`
	Email          string `json:"email"`
	ExpiresInHours *int   `json:"expires_in_hours"`
}

type redeemAccessCodeRequest struct {
	Code string `json:"code"`
}

// createAccessCodeResponse carries the raw code exactly once; it is not
// retrievable afterwards.
type createAccessCodeResponse struct {
	AccessCode models.PropertyAccessCode `json:"access_code"`
	Code       string                    `json:"code"`
}

func NewAccessCodeHandler(accessCodes *service.AccessCodeService, isPropertyOwner authz.Predicate, defaultTTL time.Duration, logger zerolog.Logger) *AccessCodeHandler {
	return &AccessCodeHandler{
		accessCodes:     accessCodes,
		isPropertyOwner: isPropertyOwner,
		defaultTTL:      defaultTTL,
		logger:          logger,
	}
}

// codeExpiry resolves the requested code lifetime. An omitted field applies
// the configured default TTL; an explicit zero means the code never expires.
func codeExpiry(expiresInHours *int, defaultTTL time.Duration, now time.Time) (*time.Time, error) {
	ttl := defaultTTL
	if expiresInHours != nil {
		hours := *expiresInHours
		if hours < 0 || hours > 24*30 {
			return nil, apperr.InvalidInput("expires_in_hours must be between 0 and 720")
		}
		if hours == 0 {
			return nil, nil
		}
		ttl = time.Duration(hours) * time.Hour
	}
	if ttl <= 0 {
		return nil, nil
	}
	expiresAt := now.Add(ttl)
	return &expiresAt, nil
}

func (h *AccessCodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userSub, ok := authz.UserSubFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req createAccessCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PropertyID == "" {
		http.Error(w, "property_id is required", http.StatusBadRequest)
		return
	}

	// Only the property owner may mint codes. The property arrives in the
	// body rather than the path, so the route-level gate cannot cover this
	// endpoint and the check happens here.
	allowed, err := h.isPropertyOwner(req.PropertyID, userSub)
	if err != nil {
		if apperr.IsNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "authorization check failed", http.StatusInternalServerError)
		return
	}
	if !allowed {
		http.Error(w, "insufficient permissions", http.StatusForbidden)
		return
	}

	expiresAt, err := codeExpiry(req.ExpiresInHours, h.defaultTTL, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}

	code, rawCode, err := h.accessCodes.Create(req.PropertyID, req.Email, userSub, expiresAt)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createAccessCodeResponse{
		AccessCode: code,
		Code:       rawCode,
	})
}

// Redeem consumes a code on behalf of the principal. The email used for the
// match is the verified claim from the token, never a request field.
func (h *AccessCodeHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	userSub, ok := authz.UserSubFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	email, _ := authz.EmailFromRequest(r)

	var req redeemAccessCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}

	code, err := h.accessCodes.Redeem(req.Code, userSub, email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, code)
}

func (h *AccessCodeHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userSub, ok := authz.UserSubFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	codeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	code, err := h.accessCodes.Revoke(codeID, userSub)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, code)
}

func (h *AccessCodeHandler) ListByProperty(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := pathUUID(w, r, "propertyID")
	if !ok {
		return
	}

	codes, err := h.accessCodes.ListByProperty(propertyID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list access codes")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, codes)
}

// ListMine returns the active codes issued to the principal's verified email.
func (h *AccessCodeHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	email, ok := authz.EmailFromRequest(r)
	if !ok {
		http.Error(w, "email claim is missing", http.StatusUnauthorized)
		return
	}
	limit, offset := pageParams(r)

	codes, err := h.accessCodes.ListActiveByEmail(email, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list active access codes")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, codes)
}
