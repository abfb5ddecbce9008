package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEntryNotFound is returned when a parking entry does not exist.
	ErrEntryNotFound = errors.New("parking: entry not found")
	// ErrVehicleTypeNotFound is returned for unknown vehicle type ids.
	ErrVehicleTypeNotFound = errors.New("parking: vehicle type not found")
	// ErrActiveEntryExists is returned when a vehicle is already parked.
	ErrActiveEntryExists = errors.New("parking: vehicle already has an active entry")
	// ErrAlreadyExited is returned when an exit is attempted twice.
	ErrAlreadyExited = errors.New("parking: entry already exited")
	// ErrInvalidRates is returned for malformed rate tables.
	ErrInvalidRates = errors.New("parking: invalid rate table")
	// ErrVehicleTypeInUse is returned when deleting a referenced vehicle type.
	ErrVehicleTypeInUse = errors.New("parking: vehicle type is referenced by entries")
	// ErrInvalidReceiptToken is returned for receipt tokens that fail verification.
	ErrInvalidReceiptToken = errors.New("parking: invalid receipt token")
	// ErrAlreadySeeded is returned when default vehicle types would overwrite data.
	ErrAlreadySeeded = errors.New("parking: vehicle types already configured")
	// ErrValidation wraps input validation failures.
	ErrValidation = errors.New("parking: validation failed")
)

// ActiveEntryError carries the entry that blocks a new check-in.
type ActiveEntryError struct {
	EntryID   string
	ReceiptID string
	EntryTime time.Time
}

func (e *ActiveEntryError) Error() string {
	return fmt.Sprintf("%s (receipt %s)", ErrActiveEntryExists.Error(), e.ReceiptID)
}

func (e *ActiveEntryError) Unwrap() error {
	return ErrActiveEntryExists
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
