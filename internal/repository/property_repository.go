package repository

import (
	"database/sql"

	"github.com/lodgehub/lodgehub-api/internal/apperr"
	"github.com/lodgehub/lodgehub-api/internal/models"
	"github.com/pkg/errors"
)

type PropertyRepository interface {
	CreateProperty(property models.Property) (models.Property, error)
	GetPropertyByID(propertyID string) (models.Property, error)
	ListPropertiesByOwner(ownerSub string, limit, offset int) ([]models.Property, error)
	ListActiveProperties(city string, limit, offset int) ([]models.Property, error)
	UpdateProperty(property models.Property) (models.Property, error)
	SetPropertyStatus(propertyID string, status models.PropertyStatus) (models.Property, error)
	DeleteProperty(propertyID string) error
	ExistsByIDAndOwner(propertyID, ownerSub string) (bool, error)
	ExistsByID(propertyID string) (bool, error)
}

type propertyRepository struct {
	db *sql.DB
}

func NewPropertyRepository(db *sql.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

const propertyColumns = `id, owner_sub, title, description, city, price_per_night, status, created_at, updated_at`

func scanProperty(row interface{ Scan(...interface{}) error }, p *models.Property) error {
	return row.Scan(
		&p.ID,
		&p.OwnerSub,
		&p.Title,
		&p.Description,
		&p.City,
		&p.PricePerNight,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (r *propertyRepository) CreateProperty(property models.Property) (models.Property, error) {
	const query = `
		INSERT INTO lodgehub.properties (owner_sub, title, description, city, price_per_night, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + propertyColumns + `;
	`

	err := scanProperty(r.db.QueryRow(query,
		property.OwnerSub,
		property.Title,
		property.Description,
		property.City,
		property.PricePerNight,
		property.Status,
	), &property)
	if err != nil {
		return models.Property{}, errors.Wrap(err, "insert property")
	}

	return property, nil
}

func (r *propertyRepository) GetPropertyByID(propertyID string) (models.Property, error) {
	const query = `
		SELECT ` + propertyColumns + `
		FROM lodgehub.properties
		WHERE id = $1;
	`

	var property models.Property
	if err := scanProperty(r.db.QueryRow(query, propertyID), &property); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Property{}, apperr.NotFound("property not found: %s", propertyID)
		}
		return models.Property{}, errors.Wrap(err, "get property")
	}

	return property, nil
}

func (r *propertyRepository) ListPropertiesByOwner(ownerSub string, limit, offset int) ([]models.Property, error) {
	const query = `
		SELECT ` + propertyColumns + `
		FROM lodgehub.properties
		WHERE owner_sub = $1
		ORDER BY created_at DESC
		LIMIT $2
		OFFSET $3;
	`

	rows, err := r.db.Query(query, ownerSub, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list properties by owner")
	}
	defer rows.Close()

	return collectProperties(rows)
}

func (r *propertyRepository) ListActiveProperties(city string, limit, offset int) ([]models.Property, error) {
	query := `
		SELECT ` + propertyColumns + `
		FROM lodgehub.properties
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2
		OFFSET $3;
	`
	args := []interface{}{models.PropertyActive, limit, offset}

	if city != "" {
		query = `
			SELECT ` + propertyColumns + `
			FROM lodgehub.properties
			WHERE status = $1 AND LOWER(city) = LOWER($2)
			ORDER BY created_at DESC
			LIMIT $3
			OFFSET $4;
		`
		args = []interface{}{models.PropertyActive, city, limit, offset}
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list active properties")
	}
	defer rows.Close()

	return collectProperties(rows)
}

func (r *propertyRepository) UpdateProperty(property models.Property) (models.Property, error) {
	const query = `
		UPDATE lodgehub.properties
		SET title = $2, description = $3, city = $4, price_per_night = $5, updated_at = now()
		WHERE id = $1
		RETURNING ` + propertyColumns + `;
	`

	err := scanProperty(r.db.QueryRow(query,
		property.ID,
		property.Title,
		property.Description,
		property.City,
		property.PricePerNight,
	), &property)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Property{}, apperr.NotFound("property not found: %s", property.ID)
		}
		return models.Property{}, errors.Wrap(err, "update property")
	}

	return property, nil
}

func (r *propertyRepository) SetPropertyStatus(propertyID string, status models.PropertyStatus) (models.Property, error) {
	// Guarded on the opposite status so a concurrent toggle loses cleanly.
	const query = `
		UPDATE lodgehub.properties
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status <> $2
		RETURNING ` + propertyColumns + `;
	`

	var property models.Property
	if err := scanProperty(r.db.QueryRow(query, propertyID, status), &property); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Property{}, apperr.Conflict("property status changed concurrently")
		}
		return models.Property{}, errors.Wrap(err, "set property status")
	}

	return property, nil
}

// DeleteProperty removes the property unless an active reservation still
// references it. Terminal reservations and access codes go with it by cascade.
func (r *propertyRepository) DeleteProperty(propertyID string) error {
	const activeQuery = `
		SELECT COUNT(*) > 0
		FROM lodgehub.reservations
		WHERE property_id = $1 AND status IN ('PENDING', 'CONFIRMED');
	`

	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin delete property")
	}
	defer tx.Rollback()

	var hasActive bool
	if err := tx.QueryRow(activeQuery, propertyID).Scan(&hasActive); err != nil {
		return errors.Wrap(err, "check active reservations")
	}
	if hasActive {
		return apperr.Conflict("property has active reservations and cannot be deleted")
	}

	result, err := tx.Exec(`DELETE FROM lodgehub.properties WHERE id = $1;`, propertyID)
	if err != nil {
		return errors.Wrap(err, "delete property")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete property rows affected")
	}
	if rowsAffected == 0 {
		return apperr.NotFound("property not found: %s", propertyID)
	}

	return tx.Commit()
}

func (r *propertyRepository) ExistsByIDAndOwner(propertyID, ownerSub string) (bool, error) {
	const query = `
		SELECT COUNT(*) > 0
		FROM lodgehub.properties
		WHERE id = $1 AND owner_sub = $2;
	`

	var exists bool
	if err := r.db.QueryRow(query, propertyID, ownerSub).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "check property owner")
	}
	return exists, nil
}

func (r *propertyRepository) ExistsByID(propertyID string) (bool, error) {
	const query = `
		SELECT COUNT(*) > 0
		FROM lodgehub.properties
		WHERE id = $1;
	`

	var exists bool
	if err := r.db.QueryRow(query, propertyID).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "check property exists")
	}
	return exists, nil
}

func collectProperties(rows *sql.Rows) ([]models.Property, error) {
	var properties []models.Property
	for rows.Next() {
		var property models.Property
		if err := scanProperty(rows, &property); err != nil {
			return nil, errors.Wrap(err, "scan property")
		}
		properties = append(properties, property)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate properties")
	}
	return properties, nil
}
