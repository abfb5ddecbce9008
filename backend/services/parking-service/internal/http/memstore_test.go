package httpserver

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"parkinglot/backend/services/parking-service/internal/models"
	"parkinglot/backend/services/parking-service/internal/repository"
)

// memStore backs both repositories for router tests.
type memStore struct {
	mu      sync.Mutex
	types   map[string]models.VehicleType
	entries map[string]models.ParkingEntry
}

func newMemStore() *memStore {
	return &memStore{
		types:   make(map[string]models.VehicleType),
		entries: make(map[string]models.ParkingEntry),
	}
}

type memTypes struct{ *memStore }

type memEntries struct{ *memStore }

func (s memTypes) List(context.Context) ([]models.VehicleType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.VehicleType, 0, len(s.types))
	for _, vt := range s.types {
		out = append(out, vt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s memTypes) Get(_ context.Context, id string) (*models.VehicleType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vt, ok := s.types[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &vt, nil
}

func (s memTypes) Create(_ context.Context, vt *models.VehicleType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[vt.ID] = *vt
	return nil
}

func (s memTypes) Update(_ context.Context, id, name, iconURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vt, ok := s.types[id]
	if !ok {
		return repository.ErrNotFound
	}
	vt.Name, vt.IconURL = name, iconURL
	s.types[id] = vt
	return nil
}

func (s memTypes) ReplaceRates(_ context.Context, id string, rates []models.HourlyRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vt, ok := s.types[id]
	if !ok {
		return repository.ErrNotFound
	}
	vt.Rates = rates
	s.types[id] = vt
	return nil
}

func (s memTypes) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.types[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.types, id)
	return nil
}

func (s memTypes) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.types), nil
}

func (s memTypes) InUse(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.VehicleTypeID == id {
			return true, nil
		}
	}
	return false, nil
}

func (s memEntries) Create(_ context.Context, entry *models.ParkingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ReceiptID == entry.ReceiptID {
			return repository.ErrDuplicateReceipt
		}
		if e.VehicleNumber == entry.VehicleNumber && e.ExitTime == nil {
			return repository.ErrDuplicateActive
		}
	}
	s.entries[entry.ID] = *entry
	return nil
}

func (s memEntries) get(id string) (*models.ParkingEntry, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if vt, ok := s.types[e.VehicleTypeID]; ok {
		e.VehicleType = &models.VehicleType{ID: vt.ID, Name: vt.Name}
	}
	return &e, nil
}

func (s memEntries) GetByID(_ context.Context, id string) (*models.ParkingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s memEntries) FindActiveByVehicleNumber(_ context.Context, vehicleNumber string) (*models.ParkingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if e.VehicleNumber == vehicleNumber && e.ExitTime == nil {
			return s.get(id)
		}
	}
	return nil, repository.ErrNotFound
}

func (s memEntries) FindByReceiptID(_ context.Context, receiptID string) (*models.ParkingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if e.ReceiptID == receiptID {
			return s.get(id)
		}
	}
	return nil, repository.ErrNotFound
}

func (s memEntries) Complete(_ context.Context, id string, exitTime time.Time, amount float64, hours int) (*models.ParkingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if e.ExitTime != nil {
		entry, _ := s.get(id)
		return entry, repository.ErrAlreadyClosed
	}
	e.ExitTime, e.TotalAmount, e.Duration = &exitTime, &amount, &hours
	s.entries[id] = e
	return s.get(id)
}

func (s memEntries) List(_ context.Context, filter repository.EntryFilter) ([]models.ParkingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ParkingEntry
	for id, e := range s.entries {
		if filter.Search != "" && !strings.Contains(strings.ToLower(e.VehicleNumber), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.PickAndGo != nil && e.IsPickAndGo != *filter.PickAndGo {
			continue
		}
		entry, _ := s.get(id)
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceiptID < out[j].ReceiptID })
	return out, nil
}
