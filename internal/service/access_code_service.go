package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	"github.com/lodgehub/lodgehub-api/internal/apperr"
	"github.com/lodgehub/lodgehub-api/internal/models"
	"github.com/lodgehub/lodgehub-api/internal/repository"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// AccessCodeService issues and redeems single-use property access codes.
//
// Two hashes are derived from every raw code: a deterministic SHA-256 lookup
// used only as an index, and a salted bcrypt hash that is the actual security
// boundary. The raw code is returned to the caller exactly once, at creation;
// only the hashes are persisted.
type AccessCodeService struct {
	accessCodeRepo repository.AccessCodeRepository
	propertyRepo   repository.PropertyRepository
	bcryptCost     int
}

func NewAccessCodeService(accessCodeRepo repository.AccessCodeRepository, propertyRepo repository.PropertyRepository, bcryptCost int) *AccessCodeService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AccessCodeService{
		accessCodeRepo: accessCodeRepo,
		propertyRepo:   propertyRepo,
		bcryptCost:     bcryptCost,
	}
}

func (s *AccessCodeService) GetByID(codeID string) (models.PropertyAccessCode, error) {
	return s.accessCodeRepo.GetAccessCodeByID(codeID)
}

func (s *AccessCodeService) ListByProperty(propertyID string) ([]models.PropertyAccessCode, error) {
	return s.accessCodeRepo.ListAccessCodesByProperty(propertyID)
}

func (s *AccessCodeService) ListActiveByEmail(email string, limit, offset int) ([]models.PropertyAccessCode, error) {
	return s.accessCodeRepo.ListActiveAccessCodesByEmail(email, limit, offset)
}

// Create issues a new code for the property, addressed to an email. The raw
// code in the return value is not retrievable again.
func (s *AccessCodeService) Create(propertyID, issuedToEmail, createdBySub string, expiresAt *time.Time) (models.PropertyAccessCode, string, error) {
	issuedToEmail = strings.ToLower(strings.TrimSpace(issuedToEmail))
	if issuedToEmail == "" {
		return models.PropertyAccessCode{}, "", apperr.InvalidInput("email is required")
	}

	if _, err := s.propertyRepo.GetPropertyByID(propertyID); err != nil {
		return models.PropertyAccessCode{}, "", err
	}

	// A lookup-hash collision surfaces as a Conflict from the unique index;
	// regenerate and try again rather than bouncing the caller.
	for attempt := 0; ; attempt++ {
		rawCode, err := generateAccessCode()
		if err != nil {
			return models.PropertyAccessCode{}, "", errors.Wrap(err, "generate access code")
		}

		codeHash, err := bcrypt.GenerateFromPassword([]byte(rawCode), s.bcryptCost)
		if err != nil {
			return models.PropertyAccessCode{}, "", errors.Wrap(err, "hash access code")
		}

		code, err := s.accessCodeRepo.CreateAccessCode(models.PropertyAccessCode{
			PropertyID:    propertyID,
			IssuedToEmail: issuedToEmail,
			CodeLookup:    lookupHash(rawCode),
			CodeHash:      string(codeHash),
			CreatedBySub:  createdBySub,
			ExpiresAt:     expiresAt,
		})
		if err != nil {
			if apperr.IsConflict(err) && attempt < 2 {
				continue
			}
			return models.PropertyAccessCode{}, "", err
		}

		return code, rawCode, nil
	}
}

// Redeem consumes a code on behalf of a principal whose verified email claim
// must match the issued-to email. An unknown lookup and an email mismatch
// return the identical NotFound message so a requester cannot probe which
// codes exist.
func (s *AccessCodeService) Redeem(rawCode, userSub, email string) (models.PropertyAccessCode, error) {
	if strings.TrimSpace(email) == "" {
		return models.PropertyAccessCode{}, apperr.InvalidInput("email claim is missing")
	}

	code, err := s.accessCodeRepo.GetAccessCodeByLookup(lookupHash(rawCode))
	if err != nil {
		return models.PropertyAccessCode{}, err
	}

	// The email check comes before any state disclosure: an unauthorized
	// requester must not learn whether the code is expired or revoked.
	if !code.IsIssuedTo(email) {
		return models.PropertyAccessCode{}, apperr.NotFound("invalid access code")
	}

	if !code.IsActive(time.Now()) {
		return models.PropertyAccessCode{}, apperr.Conflict("this code is no longer active")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(code.CodeHash), []byte(rawCode)); err != nil {
		return models.PropertyAccessCode{}, apperr.Conflict("invalid access code")
	}

	return s.accessCodeRepo.MarkAccessCodeRedeemed(code.ID, userSub)
}

func (s *AccessCodeService) Revoke(codeID, revokedBySub string) (models.PropertyAccessCode, error) {
	code, err := s.accessCodeRepo.GetAccessCodeByID(codeID)
	if err != nil {
		return models.PropertyAccessCode{}, err
	}
	if code.IsRevoked() {
		return models.PropertyAccessCode{}, apperr.Conflict("this code is already revoked")
	}
	return s.accessCodeRepo.MarkAccessCodeRevoked(codeID, revokedBySub)
}

// Validate reports whether the raw code currently authenticates, without
// consuming it.
func (s *AccessCodeService) Validate(rawCode string) (bool, error) {
	code, err := s.accessCodeRepo.GetAccessCodeByLookup(lookupHash(rawCode))
	if err != nil {
		if apperr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if !code.IsActive(time.Now()) {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(code.CodeHash), []byte(rawCode)) == nil, nil
}

// generateAccessCode returns 256 bits of entropy, URL-safe.
func generateAccessCode() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func lookupHash(rawCode string) string {
	sum := sha256.Sum256([]byte(rawCode))
	return hex.EncodeToString(sum[:])
}
