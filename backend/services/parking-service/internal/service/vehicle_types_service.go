package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"parkinglot/backend/services/parking-service/internal/models"
	"parkinglot/backend/services/parking-service/internal/repository"
)

// VehicleTypeRepository defines storage contract used by the service.
type VehicleTypeRepository interface {
	List(ctx context.Context) ([]models.VehicleType, error)
	Get(ctx context.Context, id string) (*models.VehicleType, error)
	Create(ctx context.Context, vt *models.VehicleType) error
	Update(ctx context.Context, id, name, iconURL string) error
	ReplaceRates(ctx context.Context, id string, rates []models.HourlyRate) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	InUse(ctx context.Context, id string) (bool, error)
}

// CreateVehicleTypeInput is the payload for a new vehicle type.
type CreateVehicleTypeInput struct {
	Name    string              `json:"name"`
	IconURL string              `json:"iconUrl"`
	Rates   []models.HourlyRate `json:"rates"`
}

// UpdateVehicleTypeInput changes the fields that are set.
type UpdateVehicleTypeInput struct {
	Name    *string `json:"name"`
	IconURL *string `json:"iconUrl"`
}

// VehicleTypesService manages vehicle types and their rate tables.
type VehicleTypesService struct {
	repo   VehicleTypeRepository
	logger *zap.Logger
}

// NewVehicleTypesService builds VehicleTypesService.
func NewVehicleTypesService(repo VehicleTypeRepository, logger *zap.Logger) *VehicleTypesService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VehicleTypesService{repo: repo, logger: logger}
}

// List returns every vehicle type with its rates.
func (s *VehicleTypesService) List(ctx context.Context) ([]models.VehicleType, error) {
	return s.repo.List(ctx)
}

// Get returns a vehicle type or ErrVehicleTypeNotFound.
func (s *VehicleTypesService) Get(ctx context.Context, id string) (*models.VehicleType, error) {
	vt, err := s.repo.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleTypeNotFound
		}
		return nil, err
	}
	return vt, nil
}

// FindVehicleType satisfies billing.VehicleTypeLookup: a missing type is
// reported as nil without error.
func (s *VehicleTypesService) FindVehicleType(ctx context.Context, id string) (*models.VehicleType, error) {
	vt, err := s.Get(ctx, id)
	if errors.Is(err, ErrVehicleTypeNotFound) {
		return nil, nil
	}
	return vt, err
}

// Create adds a vehicle type with an optional initial rate table.
func (s *VehicleTypesService) Create(ctx context.Context, input CreateVehicleTypeInput) (*models.VehicleType, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	rates, err := ValidateRates(input.Rates)
	if err != nil {
		return nil, err
	}

	vt := &models.VehicleType{
		ID:      uuid.NewString(),
		Name:    name,
		IconURL: strings.TrimSpace(input.IconURL),
		Rates:   rates,
	}
	if err := s.repo.Create(ctx, vt); err != nil {
		return nil, err
	}

	s.logger.Info("vehicle type created", zap.String("vehicle_type_id", vt.ID), zap.String("name", vt.Name), zap.Int("rates", len(rates)))
	return vt, nil
}

// Update renames a vehicle type or changes its icon.
func (s *VehicleTypesService) Update(ctx context.Context, id string, input UpdateVehicleTypeInput) (*models.VehicleType, error) {
	vt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, validationError("name must not be empty")
		}
		vt.Name = name
	}
	if input.IconURL != nil {
		vt.IconURL = strings.TrimSpace(*input.IconURL)
	}

	if err := s.repo.Update(ctx, vt.ID, vt.Name, vt.IconURL); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleTypeNotFound
		}
		return nil, err
	}
	return s.Get(ctx, vt.ID)
}

// ReplaceRates swaps the whole rate table of a vehicle type.
func (s *VehicleTypesService) ReplaceRates(ctx context.Context, id string, rates []models.HourlyRate) (*models.VehicleType, error) {
	valid, err := ValidateRates(rates)
	if err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if err := s.repo.ReplaceRates(ctx, id, valid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleTypeNotFound
		}
		return nil, err
	}

	s.logger.Info("vehicle type rates replaced", zap.String("vehicle_type_id", id), zap.Int("rates", len(valid)))
	return s.Get(ctx, id)
}

// Delete removes a vehicle type that no entry refers to.
func (s *VehicleTypesService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	used, err := s.repo.InUse(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return ErrVehicleTypeInUse
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrVehicleTypeNotFound
		case errors.Is(err, repository.ErrReferenced):
			return ErrVehicleTypeInUse
		}
		return err
	}
	s.logger.Info("vehicle type deleted", zap.String("vehicle_type_id", id))
	return nil
}

// SeedDefaults installs the default Car, Bike and Van tables into an empty
// catalogue.
func (s *VehicleTypesService) SeedDefaults(ctx context.Context) ([]models.VehicleType, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadySeeded
	}

	seeded := make([]models.VehicleType, 0, len(defaultVehicleTypes))
	for _, def := range defaultVehicleTypes {
		vt := def
		vt.Rates = append([]models.HourlyRate(nil), def.Rates...)
		if err := s.repo.Create(ctx, &vt); err != nil {
			return seeded, err
		}
		seeded = append(seeded, vt)
	}

	s.logger.Info("default vehicle types seeded", zap.Int("count", len(seeded)))
	return seeded, nil
}

var defaultVehicleTypes = []models.VehicleType{
	{
		ID:   "car",
		Name: "Car",
		Rates: []models.HourlyRate{
			{Hour: 1, Price: 50}, {Hour: 3, Price: 100}, {Hour: 6, Price: 150}, {Hour: 12, Price: 250}, {Hour: 24, Price: 400},
		},
	},
	{
		ID:   "bike",
		Name: "Bike",
		Rates: []models.HourlyRate{
			{Hour: 1, Price: 20}, {Hour: 3, Price: 40}, {Hour: 6, Price: 80}, {Hour: 12, Price: 120}, {Hour: 24, Price: 200},
		},
	},
	{
		ID:   "van",
		Name: "Van",
		Rates: []models.HourlyRate{
			{Hour: 1, Price: 80}, {Hour: 3, Price: 150}, {Hour: 6, Price: 250}, {Hour: 12, Price: 400}, {Hour: 24, Price: 600},
		},
	},
}

// ValidateRates checks a rate table and returns it sorted by hour. Hours
// start at 1 and appear at most once; prices are non-negative.
func ValidateRates(rates []models.HourlyRate) ([]models.HourlyRate, error) {
	out := make([]models.HourlyRate, len(rates))
	copy(out, rates)

	seen := make(map[int]struct{}, len(out))
	for _, r := range out {
		if r.Hour < 1 {
			return nil, fmt.Errorf("%w: hour %d must be at least 1", ErrInvalidRates, r.Hour)
		}
		if r.Price < 0 {
			return nil, fmt.Errorf("%w: price for hour %d must not be negative", ErrInvalidRates, r.Hour)
		}
		if _, dup := seen[r.Hour]; dup {
			return nil, fmt.Errorf("%w: hour %d appears more than once", ErrInvalidRates, r.Hour)
		}
		seen[r.Hour] = struct{}{}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out, nil
}
