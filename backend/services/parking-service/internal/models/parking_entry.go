package models

import "time"

// ParkingEntry is one stay of a vehicle in the lot. ExitTime is nil while
// the vehicle is still parked.
type ParkingEntry struct {
	ID            string       `db:"id" json:"id"`
	VehicleNumber string       `db:"vehicle_number" json:"vehicleNumber"`
	VehicleTypeID string       `db:"vehicle_type_id" json:"vehicleTypeId"`
	VehicleType   *VehicleType `json:"vehicleType,omitempty"`
	ReceiptID     string       `db:"receipt_id" json:"receiptId"`
	EntryTime     time.Time    `db:"entry_time" json:"entryTime"`
	ExitTime      *time.Time   `db:"exit_time" json:"exitTime,omitempty"`
	IsPickAndGo   bool         `db:"is_pick_and_go" json:"isPickAndGo"`
	TotalAmount   *float64     `db:"total_amount" json:"totalAmount,omitempty"`
	Duration      *int         `db:"duration_hours" json:"duration,omitempty"`
	OperatorID    *int64       `db:"operator_id" json:"operatorId,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updatedAt"`
}

// Active reports whether the vehicle has not exited yet.
func (e *ParkingEntry) Active() bool {
	return e.ExitTime == nil
}

// VehicleTypeName returns the embedded type name, falling back to the id.
func (e *ParkingEntry) VehicleTypeName() string {
	if e.VehicleType != nil && e.VehicleType.Name != "" {
		return e.VehicleType.Name
	}
	return e.VehicleTypeID
}
