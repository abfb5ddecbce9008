package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"parkinglot/backend/services/parking-service/internal/models"
)

// VehicleTypeRef points at a vehicle type either by id or by an inline copy.
// Entries arriving from clients carry one shape or the other.
type VehicleTypeRef struct {
	id     string
	inline *models.VehicleType
}

// RefID references a vehicle type by identifier.
func RefID(id string) VehicleTypeRef {
	return VehicleTypeRef{id: strings.TrimSpace(id)}
}

// RefInline references an embedded vehicle type.
func RefInline(vt models.VehicleType) VehicleTypeRef {
	return VehicleTypeRef{id: strings.TrimSpace(vt.ID), inline: &vt}
}

// ID returns the referenced identifier, possibly empty.
func (r VehicleTypeRef) ID() string { return r.id }

// Inline returns the embedded vehicle type, if any.
func (r VehicleTypeRef) Inline() (*models.VehicleType, bool) {
	return r.inline, r.inline != nil
}

// IsZero reports whether the ref points nowhere.
func (r VehicleTypeRef) IsZero() bool {
	return r.id == "" && r.inline == nil
}

// UnmarshalJSON accepts either "id" or {"id": ..., "rates": [...]}.
func (r *VehicleTypeRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = VehicleTypeRef{}
		return nil
	case data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = RefID(id)
		return nil
	case data[0] == '{':
		var vt models.VehicleType
		if err := json.Unmarshal(data, &vt); err != nil {
			return err
		}
		*r = RefInline(vt)
		return nil
	default:
		return errors.New("billing: vehicle type must be an id string or an object")
	}
}

// MarshalJSON writes the inline object when present, otherwise the id.
func (r VehicleTypeRef) MarshalJSON() ([]byte, error) {
	if r.inline != nil {
		return json.Marshal(r.inline)
	}
	if r.id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.id)
}

// VehicleTypeLookup fetches a vehicle type with its rates. A missing type is
// reported as (nil, nil).
type VehicleTypeLookup interface {
	FindVehicleType(ctx context.Context, id string) (*models.VehicleType, error)
}

// Resolve normalises a ref into a single vehicle type.
//
// Inline types that already carry rates are used as-is. Inline types without
// rates, and bare ids, go through the lookup. A nil result with a nil error
// means the type is unknown.
func Resolve(ctx context.Context, ref VehicleTypeRef, lookup VehicleTypeLookup) (*models.VehicleType, error) {
	if inline, ok := ref.Inline(); ok && len(inline.Rates) > 0 {
		return inline, nil
	}
	if ref.ID() == "" || lookup == nil {
		if inline, ok := ref.Inline(); ok {
			return inline, nil
		}
		return nil, nil
	}
	return lookup.FindVehicleType(ctx, ref.ID())
}
