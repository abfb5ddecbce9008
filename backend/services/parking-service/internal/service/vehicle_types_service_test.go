package service

import (
	"context"
	"errors"
	"testing"

	"parkinglot/backend/services/parking-service/internal/models"
)

func TestValidateRates(t *testing.T) {
	tests := []struct {
		name    string
		rates   []models.HourlyRate
		wantErr bool
	}{
		{name: "empty", rates: nil},
		{name: "sparse", rates: []models.HourlyRate{{Hour: 6, Price: 150}, {Hour: 1, Price: 50}, {Hour: 3, Price: 100}}},
		{name: "free hour", rates: []models.HourlyRate{{Hour: 1, Price: 0}}},
		{name: "hour zero", rates: []models.HourlyRate{{Hour: 0, Price: 10}}, wantErr: true},
		{name: "negative price", rates: []models.HourlyRate{{Hour: 1, Price: -1}}, wantErr: true},
		{name: "duplicate hour", rates: []models.HourlyRate{{Hour: 2, Price: 10}, {Hour: 2, Price: 20}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateRates(tt.rates)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRates) {
					t.Fatalf("expected ErrInvalidRates, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i := 1; i < len(got); i++ {
				if got[i-1].Hour >= got[i].Hour {
					t.Fatalf("rates not sorted: %+v", got)
				}
			}
		})
	}
}

func TestVehicleTypeLifecycle(t *testing.T) {
	repo := newFakeVehicleTypeRepo()
	svc := NewVehicleTypesService(repo, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateVehicleTypeInput{Name: "  "}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty name, got %v", err)
	}

	vt, err := svc.Create(ctx, CreateVehicleTypeInput{
		Name:  " Truck ",
		Rates: []models.HourlyRate{{Hour: 3, Price: 100}, {Hour: 1, Price: 60}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if vt.ID == "" || vt.Name != "Truck" || vt.Rates[0].Hour != 1 {
		t.Fatalf("unexpected vehicle type %+v", vt)
	}

	name := "Lorry"
	updated, err := svc.Update(ctx, vt.ID, UpdateVehicleTypeInput{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Lorry" {
		t.Fatalf("expected rename, got %q", updated.Name)
	}

	if _, err := svc.ReplaceRates(ctx, vt.ID, []models.HourlyRate{{Hour: 1, Price: 1}, {Hour: 1, Price: 2}}); !errors.Is(err, ErrInvalidRates) {
		t.Fatalf("expected ErrInvalidRates, got %v", err)
	}
	replaced, err := svc.ReplaceRates(ctx, vt.ID, []models.HourlyRate{{Hour: 1, Price: 70}})
	if err != nil {
		t.Fatalf("replace rates: %v", err)
	}
	if len(replaced.Rates) != 1 || replaced.Rates[0].Price != 70 {
		t.Fatalf("unexpected rates %+v", replaced.Rates)
	}
	if _, err := svc.ReplaceRates(ctx, "missing", nil); !errors.Is(err, ErrVehicleTypeNotFound) {
		t.Fatalf("expected ErrVehicleTypeNotFound, got %v", err)
	}

	found, err := svc.FindVehicleType(ctx, "missing")
	if err != nil || found != nil {
		t.Fatalf("expected nil lookup result, got %+v, %v", found, err)
	}

	repo.used[vt.ID] = true
	if err := svc.Delete(ctx, vt.ID); !errors.Is(err, ErrVehicleTypeInUse) {
		t.Fatalf("expected ErrVehicleTypeInUse, got %v", err)
	}
	repo.used[vt.ID] = false
	if err := svc.Delete(ctx, vt.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, vt.ID); !errors.Is(err, ErrVehicleTypeNotFound) {
		t.Fatalf("expected ErrVehicleTypeNotFound after delete, got %v", err)
	}
}

func TestSeedDefaults(t *testing.T) {
	repo := newFakeVehicleTypeRepo()
	svc := NewVehicleTypesService(repo, nil)
	ctx := context.Background()

	seeded, err := svc.SeedDefaults(ctx)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(seeded) != 3 {
		t.Fatalf("expected 3 seeded types, got %d", len(seeded))
	}

	car, err := svc.Get(ctx, "car")
	if err != nil {
		t.Fatalf("get car: %v", err)
	}
	if len(car.Rates) != 5 || car.Rates[0].Price != 50 || car.Rates[4].Hour != 24 {
		t.Fatalf("unexpected car rates %+v", car.Rates)
	}

	if _, err := svc.SeedDefaults(ctx); !errors.Is(err, ErrAlreadySeeded) {
		t.Fatalf("expected ErrAlreadySeeded, got %v", err)
	}
}
