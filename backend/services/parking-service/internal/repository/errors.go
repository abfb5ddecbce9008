package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicateActive means the vehicle already has an entry without exit time.
	ErrDuplicateActive = errors.New("repository: vehicle already has an active entry")
	// ErrDuplicateReceipt means the receipt id is taken.
	ErrDuplicateReceipt = errors.New("repository: receipt id already used")
	// ErrAlreadyClosed means the entry already has an exit time.
	ErrAlreadyClosed = errors.New("repository: entry already closed")
	// ErrReferenced means other rows still point at the row being deleted.
	ErrReferenced = errors.New("repository: row is still referenced")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"

	activeVehicleIndex = "parking_entries_active_vehicle_idx"
	receiptConstraint  = "parking_entries_receipt_key"
)

// translateEntryWriteErr maps constraint violations of parking_entries writes.
func translateEntryWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == uniqueViolation && pgErr.ConstraintName == activeVehicleIndex:
		return ErrDuplicateActive
	case pgErr.Code == uniqueViolation && pgErr.ConstraintName == receiptConstraint:
		return ErrDuplicateReceipt
	case pgErr.Code == foreignKeyViolation:
		return ErrNotFound
	}
	return err
}

// translateDeleteErr maps foreign key violations raised by deletes.
func translateDeleteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return ErrReferenced
	}
	return err
}
