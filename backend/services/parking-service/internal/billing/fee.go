// Package billing holds the parking fee rules. Everything here is pure:
// no I/O, no wall clock, safe for concurrent use.
package billing

import (
	"errors"
	"math"
	"time"

	"parkinglot/backend/services/parking-service/internal/models"
)

const (
	// PickAndGoGrace is the free window for Pick&Go entries (inclusive).
	PickAndGoGrace = 15 * time.Minute
	// BillingHour is the unit billed hours are counted in.
	BillingHour = time.Hour
)

var (
	// ErrUnknownVehicleType means the entry's vehicle type could not be resolved.
	ErrUnknownVehicleType = errors.New("billing: vehicle type not found")
	// ErrEmptyRateTable means the vehicle type has no rates configured.
	ErrEmptyRateTable = errors.New("billing: vehicle type has no rates")
)

// Outcome explains how a quote's amount came about.
type Outcome string

const (
	OutcomeActive        Outcome = "active"
	OutcomeCharged       Outcome = "charged"
	OutcomePickAndGo     Outcome = "pick_and_go"
	OutcomeMisconfigured Outcome = "misconfigured"
)

// Stay is the part of a parking entry the calculator looks at.
type Stay struct {
	EntryTime time.Time
	ExitTime  *time.Time
	PickAndGo bool
}

// StayOf extracts a Stay from a stored entry.
func StayOf(e *models.ParkingEntry) Stay {
	return Stay{EntryTime: e.EntryTime, ExitTime: e.ExitTime, PickAndGo: e.IsPickAndGo}
}

// At returns a copy of the stay closed at the given exit time.
func (s Stay) At(exit time.Time) Stay {
	s.ExitTime = &exit
	return s
}

// Quote is the billing result for a stay.
type Quote struct {
	BilledHours int     `json:"billedHours"`
	TotalAmount float64 `json:"totalAmount"`
	Outcome     Outcome `json:"outcome"`
}

// BilledHours converts a stay into whole billed hours.
//
// Pick&Go stays of at most PickAndGoGrace bill 0. Anything else bills
// ceil(duration / 1h) with a floor of 1. Exit before entry counts as a zero
// duration.
func BilledHours(entry, exit time.Time, pickAndGo bool) int {
	d := exit.Sub(entry)
	if d < 0 {
		d = 0
	}
	if pickAndGo && d <= PickAndGoGrace {
		return 0
	}
	hours := int(math.Ceil(float64(d) / float64(BillingHour)))
	if hours < 1 {
		hours = 1
	}
	return hours
}

// RateTable is a read-only view over a vehicle type's hourly rates.
type RateTable struct {
	byHour   map[int]float64
	fallback float64
}

// NewRateTable indexes rates by hour. The fallback price is the one of the
// highest hour in the table.
func NewRateTable(rates []models.HourlyRate) RateTable {
	t := RateTable{byHour: make(map[int]float64, len(rates))}
	highest := math.MinInt
	for _, r := range rates {
		if _, seen := t.byHour[r.Hour]; !seen {
			t.byHour[r.Hour] = r.Price
		}
		if r.Hour >= highest {
			highest = r.Hour
			t.fallback = r.Price
		}
	}
	return t
}

// Empty reports whether the table has no rates at all.
func (t RateTable) Empty() bool {
	return len(t.byHour) == 0
}

// PriceFor returns the price contributed by the given hour tier.
func (t RateTable) PriceFor(hour int) float64 {
	if t.Empty() {
		return 0
	}
	if p, ok := t.byHour[hour]; ok {
		return p
	}
	return t.fallback
}

// Charge sums the tier price of every hour from 1 to billedHours.
func Charge(billedHours int, table RateTable) float64 {
	if table.Empty() {
		return 0
	}
	total := 0.0
	for hour := 1; hour <= billedHours; hour++ {
		total += table.PriceFor(hour)
	}
	return total
}

// Calculate bills a stay against a vehicle type.
//
// The returned Quote is always usable. A non-nil error is a configuration
// warning (ErrUnknownVehicleType, ErrEmptyRateTable) that leaves the amount
// at 0; callers decide whether to proceed.
func Calculate(stay Stay, vt *models.VehicleType) (Quote, error) {
	if stay.ExitTime == nil {
		return Quote{Outcome: OutcomeActive}, nil
	}

	hours := BilledHours(stay.EntryTime, *stay.ExitTime, stay.PickAndGo)
	if hours == 0 {
		return Quote{Outcome: OutcomePickAndGo}, nil
	}
	if vt == nil {
		return Quote{BilledHours: hours, Outcome: OutcomeMisconfigured}, ErrUnknownVehicleType
	}

	table := NewRateTable(vt.Rates)
	if table.Empty() {
		return Quote{BilledHours: hours, Outcome: OutcomeMisconfigured}, ErrEmptyRateTable
	}

	return Quote{
		BilledHours: hours,
		TotalAmount: Charge(hours, table),
		Outcome:     OutcomeCharged,
	}, nil
}
