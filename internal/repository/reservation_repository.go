package repository

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/lodgehub/lodgehub-api/internal/apperr"
	"github.com/lodgehub/lodgehub-api/internal/models"
	"github.com/pkg/errors"
)

type ReservationRepository interface {
	// CreateReservation locks the property row, re-checks that the property
	// is bookable and that no active reservation overlaps, and inserts, all
	// within one transaction so two concurrent bookings cannot both pass the
	// availability check.
	CreateReservation(reservation models.Reservation) (models.Reservation, error)
	GetReservationByID(reservationID string) (models.Reservation, error)
	ListReservationsByTenant(tenantSub string, limit, offset int) ([]models.Reservation, error)
	ListReservationsByProperty(propertyID string) ([]models.Reservation, error)
	ListReservationsByPropertyOwner(ownerSub string, status models.ReservationStatus, limit, offset int) ([]models.Reservation, error)
	// UpdateReservationStatus transitions the reservation only while its
	// status is still in the expected set; a guard miss after a successful
	// read means a concurrent writer won.
	UpdateReservationStatus(reservationID string, expected []models.ReservationStatus, next models.ReservationStatus) (models.Reservation, error)
	// UpdateReservationPricing rewrites the pricing snapshot, guarded on
	// status = PENDING.
	UpdateReservationPricing(reservationID string, pricing models.Reservation) (models.Reservation, error)
	HasOverlappingReservation(propertyID string, start, end models.Date) (bool, error)
	ExistsByIDAndTenant(reservationID, tenantSub string) (bool, error)
	ExistsByIDAndPropertyOwner(reservationID, ownerSub string) (bool, error)
	ExistsByID(reservationID string) (bool, error)
}

type reservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

const reservationColumns = `id, property_id, tenant_sub, start_date, end_date, status,
		unit_price_applied, total_price, pricing_type, pricing_reason, priced_by_sub,
		created_at, updated_at`

const reservationColumnsAliased = `r.id, r.property_id, r.tenant_sub, r.start_date, r.end_date, r.status,
		r.unit_price_applied, r.total_price, r.pricing_type, r.pricing_reason, r.priced_by_sub,
		r.created_at, r.updated_at`

// Inclusive-endpoint overlap rule: a shared boundary date counts as occupied
// by both stays.
const overlapCondition = `status IN ('PENDING', 'CONFIRMED')
		  AND start_date <= $3 AND end_date >= $2`

func scanReservation(row interface{ Scan(...interface{}) error }, res *models.Reservation) error {
	var (
		reason   sql.NullString
		pricedBy sql.NullString
	)
	err := row.Scan(
		&res.ID,
		&res.PropertyID,
		&res.TenantSub,
		&res.StartDate,
		&res.EndDate,
		&res.Status,
		&res.UnitPriceApplied,
		&res.TotalPrice,
		&res.PricingType,
		&reason,
		&pricedBy,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if reason.Valid {
		res.PricingReason = &reason.String
	}
	if pricedBy.Valid {
		res.PricedBySub = &pricedBy.String
	}
	return nil
}

func (r *reservationRepository) CreateReservation(reservation models.Reservation) (models.Reservation, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return models.Reservation{}, errors.Wrap(err, "begin create reservation")
	}
	defer tx.Rollback()

	// Row lock on the property serializes the check+insert window against
	// concurrent bookings for the same property.
	const lockQuery = `
		SELECT status
		FROM lodgehub.properties
		WHERE id = $1
		FOR UPDATE;
	`
	var status models.PropertyStatus
	if err := tx.QueryRow(lockQuery, reservation.PropertyID).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Reservation{}, apperr.NotFound("property not found: %s", reservation.PropertyID)
		}
		return models.Reservation{}, errors.Wrap(err, "lock property")
	}
	if status != models.PropertyActive {
		return models.Reservation{}, apperr.InvalidState("property is not available for booking")
	}

	const overlapQuery = `
		SELECT COUNT(*) > 0
		FROM lodgehub.reservations
		WHERE property_id = $1
		  AND ` + overlapCondition + `;
	`
	var overlaps bool
	if err := tx.QueryRow(overlapQuery, reservation.PropertyID, reservation.StartDate, reservation.EndDate).Scan(&overlaps); err != nil {
		return models.Reservation{}, errors.Wrap(err, "check overlapping reservations")
	}
	if overlaps {
		return models.Reservation{}, apperr.Conflict("requested dates overlap an existing reservation")
	}

	const insertQuery = `
		INSERT INTO lodgehub.reservations
			(property_id, tenant_sub, start_date, end_date, status, unit_price_applied, total_price, pricing_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + reservationColumns + `;
	`
	err = scanReservation(tx.QueryRow(insertQuery,
		reservation.PropertyID,
		reservation.TenantSub,
		reservation.StartDate,
		reservation.EndDate,
		reservation.Status,
		reservation.UnitPriceApplied,
		reservation.TotalPrice,
		reservation.PricingType,
	), &reservation)
	if err != nil {
		return models.Reservation{}, errors.Wrap(err, "insert reservation")
	}

	if err := tx.Commit(); err != nil {
		return models.Reservation{}, errors.Wrap(err, "commit create reservation")
	}
	return reservation, nil
}

func (r *reservationRepository) GetReservationByID(reservationID string) (models.Reservation, error) {
	const query = `
		SELECT ` + reservationColumns + `
		FROM lodgehub.reservations
		WHERE id = $1;
	`

	var reservation models.Reservation
	if err := scanReservation(r.db.QueryRow(query, reservationID), &reservation); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Reservation{}, apperr.NotFound("reservation not found: %s", reservationID)
		}
		return models.Reservation{}, errors.Wrap(err, "get reservation")
	}

	return reservation, nil
}

func (r *reservationRepository) ListReservationsByTenant(tenantSub string, limit, offset int) ([]models.Reservation, error) {
	const query = `
		SELECT ` + reservationColumns + `
		FROM lodgehub.reservations
		WHERE tenant_sub = $1
		ORDER BY created_at DESC
		LIMIT $2
		OFFSET $3;
	`

	rows, err := r.db.Query(query, tenantSub, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list reservations by tenant")
	}
	defer rows.Close()

	return collectReservations(rows)
}

func (r *reservationRepository) ListReservationsByProperty(propertyID string) ([]models.Reservation, error) {
	const query = `
		SELECT ` + reservationColumns + `
		FROM lodgehub.reservations
		WHERE property_id = $1
		ORDER BY start_date;
	`

	rows, err := r.db.Query(query, propertyID)
	if err != nil {
		return nil, errors.Wrap(err, "list reservations by property")
	}
	defer rows.Close()

	return collectReservations(rows)
}

func (r *reservationRepository) ListReservationsByPropertyOwner(ownerSub string, status models.ReservationStatus, limit, offset int) ([]models.Reservation, error) {
	query := `
		SELECT ` + reservationColumnsAliased + `
		FROM lodgehub.reservations r
		JOIN lodgehub.properties p ON r.property_id = p.id
		WHERE p.owner_sub = $1
		ORDER BY r.created_at DESC
		LIMIT $2
		OFFSET $3;
	`
	args := []interface{}{ownerSub, limit, offset}

	if status != "" {
		query = `
			SELECT ` + reservationColumnsAliased + `
			FROM lodgehub.reservations r
			JOIN lodgehub.properties p ON r.property_id = p.id
			WHERE p.owner_sub = $1 AND r.status = $2
			ORDER BY r.created_at DESC
			LIMIT $3
			OFFSET $4;
		`
		args = []interface{}{ownerSub, status, limit, offset}
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list reservations by property owner")
	}
	defer rows.Close()

	return collectReservations(rows)
}

func (r *reservationRepository) UpdateReservationStatus(reservationID string, expected []models.ReservationStatus, next models.ReservationStatus) (models.Reservation, error) {
	const query = `
		UPDATE lodgehub.reservations
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = ANY($2)
		RETURNING ` + reservationColumns + `;
	`

	expectedStrs := make([]string, 0, len(expected))
	for _, s := range expected {
		expectedStrs = append(expectedStrs, string(s))
	}

	var reservation models.Reservation
	err := scanReservation(r.db.QueryRow(query, reservationID, pq.Array(expectedStrs), next), &reservation)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Reservation{}, apperr.Conflict("reservation was modified concurrently, retry the operation")
		}
		return models.Reservation{}, errors.Wrap(err, "update reservation status")
	}

	return reservation, nil
}

func (r *reservationRepository) UpdateReservationPricing(reservationID string, pricing models.Reservation) (models.Reservation, error) {
	// Pricing overrides are only permitted while the reservation is PENDING;
	// the guard doubles as the optimistic-concurrency check.
	const query = `
		UPDATE lodgehub.reservations
		SET unit_price_applied = $2,
		    total_price = $3,
		    pricing_type = $4,
		    pricing_reason = $5,
		    priced_by_sub = $6,
		    updated_at = now()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + reservationColumns + `;
	`

	var reservation models.Reservation
	err := scanReservation(r.db.QueryRow(query,
		reservationID,
		pricing.UnitPriceApplied,
		pricing.TotalPrice,
		pricing.PricingType,
		pricing.PricingReason,
		pricing.PricedBySub,
	), &reservation)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Reservation{}, apperr.Conflict("reservation was modified concurrently, retry the operation")
		}
		return models.Reservation{}, errors.Wrap(err, "update reservation pricing")
	}

	return reservation, nil
}

func (r *reservationRepository) HasOverlappingReservation(propertyID string, start, end models.Date) (bool, error) {
	const query = `
		SELECT COUNT(*) > 0
		FROM lodgehub.reservations
		WHERE property_id = $1
		  AND ` + overlapCondition + `;
	`

	var overlaps bool
	if err := r.db.QueryRow(query, propertyID, start, end).Scan(&overlaps); err != nil {
		return false, errors.Wrap(err, "check overlapping reservations")
	}
	return overlaps, nil
}

func (r *reservationRepository) ExistsByIDAndTenant(reservationID, tenantSub string) (bool, error) {
	const query = `
		SELECT COUNT(*) > 0
		FROM lodgehub.reservations
		WHERE id = $1 AND tenant_sub = $2;
	`

	var exists bool
	if err := r.db.QueryRow(query, reservationID, tenantSub).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "check reservation tenant")
	}
	return exists, nil
}

func (r *reservationRepository) ExistsByIDAndPropertyOwner(reservationID, ownerSub string) (bool, error) {
	const query = `
		SELECT COUNT(*) > 0
		FROM lodgehub.reservations r
		JOIN lodgehub.properties p ON r.property_id = p.id
		WHERE r.id = $1 AND p.owner_sub = $2;
	`

	var exists bool
	if err := r.db.QueryRow(query, reservationID, ownerSub).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "check reservation property owner")
	}
	return exists, nil
}

func (r *reservationRepository) ExistsByID(reservationID string) (bool, error) {
	const query = `
		SELECT COUNT(*) > 0
		FROM lodgehub.reservations
		WHERE id = $1;
	`

	var exists bool
	if err := r.db.QueryRow(query, reservationID).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "check reservation exists")
	}
	return exists, nil
}

func collectReservations(rows *sql.Rows) ([]models.Reservation, error) {
	var reservations []models.Reservation
	for rows.Next() {
		var reservation models.Reservation
		if err := scanReservation(rows, &reservation); err != nil {
			return nil, errors.Wrap(err, "scan reservation")
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate reservations")
	}
	return reservations, nil
}
