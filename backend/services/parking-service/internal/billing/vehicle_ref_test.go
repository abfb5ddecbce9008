package billing

import (
	"context"
	"encoding/json"
	"testing"

	"parkinglot/backend/services/parking-service/internal/models"
)

type mapLookup struct {
	types map[string]*models.VehicleType
	calls int
}

func (m *mapLookup) FindVehicleType(_ context.Context, id string) (*models.VehicleType, error) {
	m.calls++
	return m.types[id], nil
}

func TestVehicleTypeRefUnmarshal(t *testing.T) {
	var payload struct {
		A VehicleTypeRef `json:"a"`
		B VehicleTypeRef `json:"b"`
		C VehicleTypeRef `json:"c"`
	}
	body := `{"a":"car-1","b":{"id":"bike-1","name":"Bike","rates":[{"hour":1,"price":20}]},"c":null}`
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if payload.A.ID() != "car-1" {
		t.Fatalf("expected id ref car-1, got %q", payload.A.ID())
	}
	if _, ok := payload.A.Inline(); ok {
		t.Fatalf("string ref must not carry inline type")
	}

	inline, ok := payload.B.Inline()
	if !ok || inline.Name != "Bike" || len(inline.Rates) != 1 {
		t.Fatalf("unexpected inline ref %+v", inline)
	}
	if payload.B.ID() != "bike-1" {
		t.Fatalf("inline ref should expose its id, got %q", payload.B.ID())
	}

	if !payload.C.IsZero() {
		t.Fatalf("null ref should be zero")
	}
}

func TestVehicleTypeRefUnmarshalRejectsNumbers(t *testing.T) {
	var ref VehicleTypeRef
	if err := json.Unmarshal([]byte(`42`), &ref); err == nil {
		t.Fatalf("expected error for numeric ref")
	}
}

func TestVehicleTypeRefMarshal(t *testing.T) {
	data, err := json.Marshal(RefID("car-1"))
	if err != nil || string(data) != `"car-1"` {
		t.Fatalf("marshal id ref = %s, %v", data, err)
	}
	data, err = json.Marshal(VehicleTypeRef{})
	if err != nil || string(data) != `null` {
		t.Fatalf("marshal zero ref = %s, %v", data, err)
	}
}

func TestResolve(t *testing.T) {
	stored := &models.VehicleType{ID: "car-1", Name: "Car", Rates: rates(1, 50)}
	lookup := &mapLookup{types: map[string]*models.VehicleType{"car-1": stored}}
	ctx := context.Background()

	got, err := Resolve(ctx, RefID("car-1"), lookup)
	if err != nil || got != stored {
		t.Fatalf("resolve by id = %+v, %v", got, err)
	}

	withRates := models.VehicleType{ID: "car-1", Name: "Inline", Rates: rates(1, 99)}
	got, err = Resolve(ctx, RefInline(withRates), lookup)
	if err != nil || got.Name != "Inline" {
		t.Fatalf("inline with rates should be used as-is, got %+v, %v", got, err)
	}
	if lookup.calls != 1 {
		t.Fatalf("inline with rates must not hit lookup, calls=%d", lookup.calls)
	}

	got, err = Resolve(ctx, RefInline(models.VehicleType{ID: "car-1", Name: "Car"}), lookup)
	if err != nil || got != stored {
		t.Fatalf("inline without rates should be refreshed, got %+v, %v", got, err)
	}

	got, err = Resolve(ctx, RefID("missing"), lookup)
	if err != nil || got != nil {
		t.Fatalf("unknown id should resolve to nil, got %+v, %v", got, err)
	}

	got, err = Resolve(ctx, VehicleTypeRef{}, lookup)
	if err != nil || got != nil {
		t.Fatalf("zero ref should resolve to nil, got %+v, %v", got, err)
	}
}
