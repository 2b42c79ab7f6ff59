package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/lodgehub/lodgehub-api/internal/apperr"
	"github.com/lodgehub/lodgehub-api/internal/models"
	"github.com/pkg/errors"
)

type AccessCodeRepository interface {
	CreateAccessCode(code models.PropertyAccessCode) (models.PropertyAccessCode, error)
	GetAccessCodeByID(codeID string) (models.PropertyAccessCode, error)
	// GetAccessCodeByLookup fetches by the deterministic lookup hash; the
	// unique index on code_lookup makes this an indexed point query.
	GetAccessCodeByLookup(codeLookup string) (models.PropertyAccessCode, error)
	ListAccessCodesByProperty(propertyID string) ([]models.PropertyAccessCode, error)
	ListActiveAccessCodesByEmail(email string, limit, offset int) ([]models.PropertyAccessCode, error)
	// MarkAccessCodeRedeemed records redemption only while the code is still
	// active (not redeemed, revoked, or expired); a guard miss means a
	// concurrent writer won or the code lapsed.
	MarkAccessCodeRedeemed(codeID, redeemedBySub string) (models.PropertyAccessCode, error)
	// MarkAccessCodeRevoked records revocation only while the code has not
	// been revoked.
	MarkAccessCodeRevoked(codeID, revokedBySub string) (models.PropertyAccessCode, error)
	ExistsByIDAndCreator(codeID, createdBySub string) (bool, error)
	ExistsByID(codeID string) (bool, error)
}

type accessCodeRepository struct {
	db *sql.DB
}

func NewAccessCodeRepository(db *sql.DB) AccessCodeRepository {
	return &accessCodeRepository{db: db}
}

const accessCodeColumns = `id, property_id, issued_to_email, code_lookup, code_hash, created_by_sub,
		created_at, expires_at, redeemed_at, redeemed_by_sub, revoked_at, revoked_by_sub`

func scanAccessCode(row interface{ Scan(...interface{}) error }, code *models.PropertyAccessCode) error {
	var (
		expiresAt  sql.NullTime
		redeemedAt sql.NullTime
		redeemedBy sql.NullString
		revokedAt  sql.NullTime
		revokedBy  sql.NullString
	)
	err := row.Scan(
		&code.ID,
		&code.PropertyID,
		&code.IssuedToEmail,
		&code.CodeLookup,
		&code.CodeHash,
		&code.CreatedBySub,
		&code.CreatedAt,
		&expiresAt,
		&redeemedAt,
		&redeemedBy,
		&revokedAt,
		&revokedBy,
	)
	if err != nil {
		return err
	}
	if expiresAt.Valid {
		code.ExpiresAt = &expiresAt.Time
	}
	if redeemedAt.Valid {
		code.RedeemedAt = &redeemedAt.Time
	}
	if redeemedBy.Valid {
		code.RedeemedBySub = &redeemedBy.String
	}
	if revokedAt.Valid {
		code.RevokedAt = &revokedAt.Time
	}
	if revokedBy.Valid {
		code.RevokedBySub = &revokedBy.String
	}
	return nil
}

func (r *accessCodeRepository) CreateAccessCode(code models.PropertyAccessCode) (models.PropertyAccessCode, error) {
	const query = `
		INSERT INTO lodgehub.property_access_codes
			(property_id, issued_to_email, code_lookup, code_hash, created_by_sub, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + accessCodeColumns + `;
	`

	var expiresAt interface{}
	if code.ExpiresAt != nil {
		expiresAt = *code.ExpiresAt
	}

	err := scanAccessCode(r.db.QueryRow(query,
		code.PropertyID,
		code.IssuedToEmail,
		code.CodeLookup,
		code.CodeHash,
		code.CreatedBySub,
		expiresAt,
	), &code)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			// Collision on the lookup hash; the caller regenerates the code.
			return models.PropertyAccessCode{}, apperr.Conflict("access code collision, retry")
		}
		return models.PropertyAccessCode{}, errors.Wrap(err, "insert access code")
	}

	return code, nil
}

func (r *accessCodeRepository) GetAccessCodeByID(codeID string) (models.PropertyAccessCode, error) {
	const query = `
		SELECT ` + accessCodeColumns + `
		FROM lodgehub.property_access_codes
		WHERE id = $1;
	`

	var code models.PropertyAccessCode
	if err := scanAccessCode(r.db.QueryRow(query, codeID), &code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PropertyAccessCode{}, apperr.NotFound("access code not found: %s", codeID)
		}
		return models.PropertyAccessCode{}, errors.Wrap(err, "get access code")
	}

	return code, nil
}

func (r *accessCodeRepository) GetAccessCodeByLookup(codeLookup string) (models.PropertyAccessCode, error) {
	const query = `
		SELECT ` + accessCodeColumns + `
		FROM lodgehub.property_access_codes
		WHERE code_lookup = $1;
	`

	var code models.PropertyAccessCode
	if err := scanAccessCode(r.db.QueryRow(query, codeLookup), &code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PropertyAccessCode{}, apperr.NotFound("invalid access code")
		}
		return models.PropertyAccessCode{}, errors.Wrap(err, "get access code by lookup")
	}

	return code, nil
}

func (r *accessCodeRepository) ListAccessCodesByProperty(propertyID string) ([]models.PropertyAccessCode, error) {
	const query = `
		SELECT ` + accessCodeColumns + `
		FROM lodgehub.property_access_codes
		WHERE property_id = $1
		ORDER BY created_at DESC;
	`

	rows, err := r.db.Query(query, propertyID)
	if err != nil {
		return nil, errors.Wrap(err, "list access codes by property")
	}
	defer rows.Close()

	return collectAccessCodes(rows)
}

func (r *accessCodeRepository) ListActiveAccessCodesByEmail(email string, limit, offset int) ([]models.PropertyAccessCode, error) {
	const query = `
		SELECT ` + accessCodeColumns + `
		FROM lodgehub.property_access_codes
		WHERE LOWER(issued_to_email) = LOWER($1)
		  AND revoked_at IS NULL
		  AND redeemed_at IS NULL
		  AND (expires_at IS NULL OR expires_at > now())
		ORDER BY created_at DESC
		LIMIT $2
		OFFSET $3;
	`

	rows, err := r.db.Query(query, email, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list active access codes by email")
	}
	defer rows.Close()

	return collectAccessCodes(rows)
}

func (r *accessCodeRepository) MarkAccessCodeRedeemed(codeID, redeemedBySub string) (models.PropertyAccessCode, error) {
	// The guard mirrors the activity invariant, expiry included, so a code
	// expiring between the caller's read and this update cannot redeem.
	const query = `
		UPDATE lodgehub.property_access_codes
		SET redeemed_at = $3, redeemed_by_sub = $2
		WHERE id = $1 AND redeemed_at IS NULL AND revoked_at IS NULL
		  AND (expires_at IS NULL OR expires_at > now())
		RETURNING ` + accessCodeColumns + `;
	`

	var code models.PropertyAccessCode
	if err := scanAccessCode(r.db.QueryRow(query, codeID, redeemedBySub, time.Now().UTC()), &code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PropertyAccessCode{}, apperr.Conflict("this code is no longer active")
		}
		return models.PropertyAccessCode{}, errors.Wrap(err, "mark access code redeemed")
	}

	return code, nil
}

func (r *accessCodeRepository) MarkAccessCodeRevoked(codeID, revokedBySub string) (models.PropertyAccessCode, error) {
	const query = `
		UPDATE lodgehub.property_access_codes
		SET revoked_at = $3, revoked_by_sub = $2
		WHERE id = $1 AND revoked_at IS NULL
		RETURNING ` + accessCodeColumns + `;
	`

	var code models.PropertyAccessCode
	if err := scanAccessCode(r.db.QueryRow(query, codeID, revokedBySub, time.Now().UTC()), &code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PropertyAccessCode{}, apperr.Conflict("this code is already revoked")
		}
		return models.PropertyAccessCode{}, errors.Wrap(err, "mark access code revoked")
	}

	return code, nil
}

func (r *accessCodeRepository) ExistsByIDAndCreator(codeID, createdBySub string) (bool, error) {
	const query = `
		SELECT COUNT(*) > 0
		FROM lodgehub.property_access_codes
		WHERE id = $1 AND created_by_sub = $2;
	`

	var exists bool
	if err := r.db.QueryRow(query, codeID, createdBySub).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "check access code creator")
	}
	return exists, nil
}

func (r *accessCodeRepository) ExistsByID(codeID string) (bool, error) {
	const query = `
		SELECT COUNT(*) > 0
		FROM lodgehub.property_access_codes
		WHERE id = $1;
	`

	var exists bool
	if err := r.db.QueryRow(query, codeID).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "check access code exists")
	}
	return exists, nil
}

func collectAccessCodes(rows *sql.Rows) ([]models.PropertyAccessCode, error) {
	var codes []models.PropertyAccessCode
	for rows.Next() {
		var code models.PropertyAccessCode
		if err := scanAccessCode(rows, &code); err != nil {
			return nil, errors.Wrap(err, "scan access code")
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate access codes")
	}
	return codes, nil
}
