package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"parkinglot/backend/services/parking-service/internal/models"
)

const defaultListLimit = 100

// EntryStatus filters entries by whether the vehicle has left.
type EntryStatus string

const (
	EntryStatusAll    EntryStatus = "all"
	EntryStatusActive EntryStatus = "active"
	EntryStatusExited EntryStatus = "exited"
)

// EntryFilter narrows List results.
type EntryFilter struct {
	Search    string
	PickAndGo *bool
	Status    EntryStatus
	From      *time.Time
	To        *time.Time
	SortBy    string
	Desc      bool
	Limit     int
	Offset    int
}

var sortColumns = map[string]string{
	"entryTime":     "e.entry_time",
	"exitTime":      "e.exit_time",
	"vehicleNumber": "e.vehicle_number",
	"vehicleType":   "vt.name",
	"totalAmount":   "COALESCE(e.total_amount, 0)",
}

// SortFieldValid reports whether List can sort by the given field.
func SortFieldValid(field string) bool {
	_, ok := sortColumns[field]
	return ok
}

// EntryRepository persists parking entries.
type EntryRepository struct {
	db *sql.DB
}

// NewEntryRepository returns repository.
func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

const entryColumns = `
	e.id, e.vehicle_number, e.vehicle_type_id, e.receipt_id, e.entry_time, e.exit_time,
	e.is_pick_and_go, e.total_amount, e.duration_hours, e.operator_id, e.created_at, e.updated_at,
	vt.name, vt.icon_url
`

const entryFrom = `
	FROM parking_entries e
	JOIN vehicle_types vt ON vt.id = e.vehicle_type_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.ParkingEntry, error) {
	var (
		e        models.ParkingEntry
		exitTime sql.NullTime
		amount   sql.NullFloat64
		duration sql.NullInt32
		operator sql.NullInt64
		typeName string
		typeIcon string
	)
	if err := row.Scan(
		&e.ID,
		&e.VehicleNumber,
		&e.VehicleTypeID,
		&e.ReceiptID,
		&e.EntryTime,
		&exitTime,
		&e.IsPickAndGo,
		&amount,
		&duration,
		&operator,
		&e.CreatedAt,
		&e.UpdatedAt,
		&typeName,
		&typeIcon,
	); err != nil {
		return nil, err
	}
	if exitTime.Valid {
		t := exitTime.Time.UTC()
		e.ExitTime = &t
	}
	if amount.Valid {
		v := amount.Float64
		e.TotalAmount = &v
	}
	if duration.Valid {
		v := int(duration.Int32)
		e.Duration = &v
	}
	if operator.Valid {
		v := operator.Int64
		e.OperatorID = &v
	}
	e.EntryTime = e.EntryTime.UTC()
	e.VehicleType = &models.VehicleType{ID: e.VehicleTypeID, Name: typeName, IconURL: typeIcon}
	return &e, nil
}

func (r *EntryRepository) one(ctx context.Context, where string, arg any) (*models.ParkingEntry, error) {
	query := "SELECT " + entryColumns + entryFrom + "WHERE " + where + " LIMIT 1"
	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

// Create inserts a new active entry.
func (r *EntryRepository) Create(ctx context.Context, entry *models.ParkingEntry) error {
	const query = `
		INSERT INTO parking_entries (id, vehicle_number, vehicle_type_id, receipt_id, entry_time, is_pick_and_go, operator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.VehicleNumber,
		entry.VehicleTypeID,
		entry.ReceiptID,
		entry.EntryTime,
		entry.IsPickAndGo,
		entry.OperatorID,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return translateEntryWriteErr(err)
	}
	return nil
}

// GetByID returns an entry by its id.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*models.ParkingEntry, error) {
	return r.one(ctx, "e.id = $1", id)
}

// FindActiveByVehicleNumber returns the entry of a vehicle still in the lot.
func (r *EntryRepository) FindActiveByVehicleNumber(ctx context.Context, vehicleNumber string) (*models.ParkingEntry, error) {
	return r.one(ctx, "e.vehicle_number = $1 AND e.exit_time IS NULL", vehicleNumber)
}

// FindByReceiptID returns the entry a receipt was issued for.
func (r *EntryRepository) FindByReceiptID(ctx context.Context, receiptID string) (*models.ParkingEntry, error) {
	return r.one(ctx, "e.receipt_id = $1", receiptID)
}

// Complete attaches exit data to an active entry. It fails with
// ErrAlreadyClosed when the entry already has an exit time.
func (r *EntryRepository) Complete(ctx context.Context, id string, exitTime time.Time, amount float64, hours int) (*models.ParkingEntry, error) {
	const query = `
		UPDATE parking_entries
		SET exit_time = $2,
		    total_amount = $3,
		    duration_hours = $4,
		    updated_at = NOW()
		WHERE id = $1 AND exit_time IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, exitTime, amount, hours)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	entry, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return entry, ErrAlreadyClosed
	}
	return entry, nil
}

// List returns entries matching the filter.
func (r *EntryRepository) List(ctx context.Context, filter EntryFilter) ([]models.ParkingEntry, error) {
	var (
		clauses []string
		args    []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if s := strings.TrimSpace(filter.Search); s != "" {
		p := arg("%" + strings.ToLower(s) + "%")
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(e.vehicle_number) LIKE %[1]s OR LOWER(vt.name) LIKE %[1]s OR LOWER(e.receipt_id) LIKE %[1]s)", p))
	}
	if filter.PickAndGo != nil {
		clauses = append(clauses, "e.is_pick_and_go = "+arg(*filter.PickAndGo))
	}
	switch filter.Status {
	case EntryStatusActive:
		clauses = append(clauses, "e.exit_time IS NULL")
	case EntryStatusExited:
		clauses = append(clauses, "e.exit_time IS NOT NULL")
	}
	if filter.From != nil {
		clauses = append(clauses, "e.entry_time >= "+arg(*filter.From))
	}
	if filter.To != nil {
		clauses = append(clauses, "e.entry_time < "+arg(*filter.To))
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = sortColumns["entryTime"]
	}
	direction := "ASC"
	if filter.Desc {
		direction = "DESC"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(entryColumns)
	b.WriteString(entryFrom)
	if len(clauses) > 0 {
		b.WriteString("WHERE ")
		b.WriteString(strings.Join(clauses, " AND "))
	}
	fmt.Fprintf(&b, " ORDER BY %s %s NULLS LAST, e.id ASC LIMIT %s OFFSET %s",
		column, direction, arg(limit), arg(max(filter.Offset, 0)))

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.ParkingEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}
