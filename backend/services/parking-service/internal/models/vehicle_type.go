package models

import (
	"sort"
	"time"
)

// HourlyRate is the price contributed by a single 1-based hour tier.
type HourlyRate struct {
	Hour  int     `db:"hour" json:"hour"`
	Price float64 `db:"price" json:"price"`
}

// VehicleType is a class of vehicle with its own rate table.
type VehicleType struct {
	ID        string       `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	IconURL   string       `db:"icon_url" json:"iconUrl,omitempty"`
	Rates     []HourlyRate `json:"rates"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time    `db:"updated_at" json:"updatedAt"`
}

// SortedRates returns a copy of the rates ordered by hour ascending.
func (v *VehicleType) SortedRates() []HourlyRate {
	if v == nil || len(v.Rates) == 0 {
		return nil
	}
	out := make([]HourlyRate, len(v.Rates))
	copy(out, v.Rates)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}
