package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parkinglot/backend/services/parking-service/internal/models"
)

// VehicleTypeRepository stores vehicle types and their hourly rates.
type VehicleTypeRepository struct {
	db *sql.DB
}

// NewVehicleTypeRepository returns repository.
func NewVehicleTypeRepository(db *sql.DB) *VehicleTypeRepository {
	return &VehicleTypeRepository{db: db}
}

// List returns all vehicle types ordered by name, rates included.
func (r *VehicleTypeRepository) List(ctx context.Context) ([]models.VehicleType, error) {
	const query = `
		SELECT id, name, icon_url, created_at, updated_at
		FROM vehicle_types
		ORDER BY name ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []models.VehicleType
	index := make(map[string]int)
	for rows.Next() {
		var vt models.VehicleType
		if err := rows.Scan(&vt.ID, &vt.Name, &vt.IconURL, &vt.CreatedAt, &vt.UpdatedAt); err != nil {
			return nil, err
		}
		vt.Rates = []models.HourlyRate{}
		index[vt.ID] = len(types)
		types = append(types, vt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return types, nil
	}

	const ratesQuery = `
		SELECT vehicle_type_id, hour, price
		FROM hourly_rates
		ORDER BY vehicle_type_id, hour ASC
	`
	rateRows, err := r.db.QueryContext(ctx, ratesQuery)
	if err != nil {
		return nil, err
	}
	defer rateRows.Close()

	for rateRows.Next() {
		var (
			typeID string
			rate   models.HourlyRate
		)
		if err := rateRows.Scan(&typeID, &rate.Hour, &rate.Price); err != nil {
			return nil, err
		}
		if i, ok := index[typeID]; ok {
			types[i].Rates = append(types[i].Rates, rate)
		}
	}
	return types, rateRows.Err()
}

// Get returns a vehicle type with its rates.
func (r *VehicleTypeRepository) Get(ctx context.Context, id string) (*models.VehicleType, error) {
	const query = `
		SELECT id, name, icon_url, created_at, updated_at
		FROM vehicle_types
		WHERE id = $1
	`
	var vt models.VehicleType
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&vt.ID,
		&vt.Name,
		&vt.IconURL,
		&vt.CreatedAt,
		&vt.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rates, err := r.rates(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	vt.Rates = rates
	return &vt, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *VehicleTypeRepository) rates(ctx context.Context, q queryer, id string) ([]models.HourlyRate, error) {
	const query = `
		SELECT hour, price
		FROM hourly_rates
		WHERE vehicle_type_id = $1
		ORDER BY hour ASC
	`
	rows, err := q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rates := []models.HourlyRate{}
	for rows.Next() {
		var rate models.HourlyRate
		if err := rows.Scan(&rate.Hour, &rate.Price); err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}

// Create inserts a vehicle type and its initial rates in one transaction.
func (r *VehicleTypeRepository) Create(ctx context.Context, vt *models.VehicleType) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		const query = `
			INSERT INTO vehicle_types (id, name, icon_url, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			RETURNING created_at, updated_at
		`
		if err := tx.QueryRowContext(ctx, query, vt.ID, vt.Name, vt.IconURL).
			Scan(&vt.CreatedAt, &vt.UpdatedAt); err != nil {
			return err
		}
		return insertRates(ctx, tx, vt.ID, vt.Rates)
	})
}

// Update changes the name and icon of a vehicle type.
func (r *VehicleTypeRepository) Update(ctx context.Context, id, name, iconURL string) error {
	const query = `
		UPDATE vehicle_types
		SET name = $2,
		    icon_url = $3,
		    updated_at = NOW()
		WHERE id = $1
	`
	return expectOne(r.db.ExecContext(ctx, query, id, name, iconURL))
}

// ReplaceRates swaps the whole rate table of a vehicle type.
func (r *VehicleTypeRepository) ReplaceRates(ctx context.Context, id string, rates []models.HourlyRate) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		const touch = `
			UPDATE vehicle_types
			SET updated_at = NOW()
			WHERE id = $1
		`
		if err := expectOne(tx.ExecContext(ctx, touch, id)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM hourly_rates WHERE vehicle_type_id = $1`, id); err != nil {
			return err
		}
		return insertRates(ctx, tx, id, rates)
	})
}

// Delete removes a vehicle type; its rates cascade.
func (r *VehicleTypeRepository) Delete(ctx context.Context, id string) error {
	return translateDeleteErr(expectOne(r.db.ExecContext(ctx, `DELETE FROM vehicle_types WHERE id = $1`, id)))
}

// Count returns the number of vehicle types.
func (r *VehicleTypeRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicle_types`).Scan(&n)
	return n, err
}

// InUse reports whether any parking entry references the vehicle type.
func (r *VehicleTypeRepository) InUse(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM parking_entries WHERE vehicle_type_id = $1)`
	var used bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&used)
	return used, err
}

func insertRates(ctx context.Context, tx *sql.Tx, id string, rates []models.HourlyRate) error {
	const query = `
		INSERT INTO hourly_rates (vehicle_type_id, hour, price)
		VALUES ($1, $2, $3)
	`
	for _, rate := range rates {
		if _, err := tx.ExecContext(ctx, query, id, rate.Hour, rate.Price); err != nil {
			return fmt.Errorf("insert rate for hour %d: %w", rate.Hour, err)
		}
	}
	return nil
}

func (r *VehicleTypeRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func expectOne(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
