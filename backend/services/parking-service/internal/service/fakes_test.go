package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"parkinglot/backend/services/parking-service/internal/models"
	"parkinglot/backend/services/parking-service/internal/redis"
	"parkinglot/backend/services/parking-service/internal/repository"
)

type fakeEntryRepo struct {
	mu      sync.Mutex
	entries map[string]models.ParkingEntry
	types   map[string]*models.VehicleType
	creates int
	// failReceipts makes the first n creates collide on the receipt id.
	failReceipts int
}

func newFakeEntryRepo(types ...*models.VehicleType) *fakeEntryRepo {
	r := &fakeEntryRepo{
		entries: make(map[string]models.ParkingEntry),
		types:   make(map[string]*models.VehicleType),
	}
	for _, vt := range types {
		r.types[vt.ID] = vt
	}
	return r
}

func (r *fakeEntryRepo) withType(e models.ParkingEntry) *models.ParkingEntry {
	if vt, ok := r.types[e.VehicleTypeID]; ok {
		e.VehicleType = &models.VehicleType{ID: vt.ID, Name: vt.Name}
	}
	return &e
}

func (r *fakeEntryRepo) Create(_ context.Context, entry *models.ParkingEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.failReceipts > 0 {
		r.failReceipts--
		return repository.ErrDuplicateReceipt
	}
	for _, e := range r.entries {
		if e.ReceiptID == entry.ReceiptID {
			return repository.ErrDuplicateReceipt
		}
		if e.VehicleNumber == entry.VehicleNumber && e.ExitTime == nil {
			return repository.ErrDuplicateActive
		}
	}
	entry.CreatedAt = entry.EntryTime
	entry.UpdatedAt = entry.EntryTime
	r.entries[entry.ID] = *entry
	return nil
}

func (r *fakeEntryRepo) GetByID(_ context.Context, id string) (*models.ParkingEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withType(e), nil
}

func (r *fakeEntryRepo) FindActiveByVehicleNumber(_ context.Context, vehicleNumber string) (*models.ParkingEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.VehicleNumber == vehicleNumber && e.ExitTime == nil {
			return r.withType(e), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeEntryRepo) FindByReceiptID(_ context.Context, receiptID string) (*models.ParkingEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ReceiptID == receiptID {
			return r.withType(e), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeEntryRepo) Complete(_ context.Context, id string, exitTime time.Time, amount float64, hours int) (*models.ParkingEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if e.ExitTime != nil {
		return r.withType(e), repository.ErrAlreadyClosed
	}
	e.ExitTime = &exitTime
	e.TotalAmount = &amount
	e.Duration = &hours
	r.entries[id] = e
	return r.withType(e), nil
}

func (r *fakeEntryRepo) List(_ context.Context, filter repository.EntryFilter) ([]models.ParkingEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ParkingEntry
	for _, e := range r.entries {
		if filter.PickAndGo != nil && e.IsPickAndGo != *filter.PickAndGo {
			continue
		}
		if filter.Status == repository.EntryStatusActive && e.ExitTime != nil {
			continue
		}
		if filter.Status == repository.EntryStatusExited && e.ExitTime == nil {
			continue
		}
		out = append(out, *r.withType(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryTime.Before(out[j].EntryTime) })
	return out, nil
}

type fakeTypes map[string]*models.VehicleType

func (f fakeTypes) FindVehicleType(_ context.Context, id string) (*models.VehicleType, error) {
	vt, ok := f[id]
	if !ok {
		return nil, nil
	}
	return vt, nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]redisstore.ActiveEntry
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]redisstore.ActiveEntry)}
}

func (c *fakeCache) Save(_ context.Context, entry redisstore.ActiveEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.VehicleNumber] = entry
	return nil
}

func (c *fakeCache) Get(_ context.Context, vehicleNumber string) (*redisstore.ActiveEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[vehicleNumber]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (c *fakeCache) Delete(_ context.Context, vehicleNumber string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, vehicleNumber)
	return nil
}

type publishedEvent struct {
	name    string
	payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{name: event, payload: payload})
}

func (p *fakePublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.name
	}
	return out
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeVehicleTypeRepo struct {
	mu    sync.Mutex
	types map[string]models.VehicleType
	used  map[string]bool
}

func newFakeVehicleTypeRepo() *fakeVehicleTypeRepo {
	return &fakeVehicleTypeRepo{types: make(map[string]models.VehicleType), used: make(map[string]bool)}
}

func (r *fakeVehicleTypeRepo) List(_ context.Context) ([]models.VehicleType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.VehicleType, 0, len(r.types))
	for _, vt := range r.types {
		out = append(out, vt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeVehicleTypeRepo) Get(_ context.Context, id string) (*models.VehicleType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	vt, ok := r.types[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	vt.Rates = append([]models.HourlyRate(nil), vt.Rates...)
	return &vt, nil
}

func (r *fakeVehicleTypeRepo) Create(_ context.Context, vt *models.VehicleType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[vt.ID] = *vt
	return nil
}

func (r *fakeVehicleTypeRepo) Update(_ context.Context, id, name, iconURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	vt, ok := r.types[id]
	if !ok {
		return repository.ErrNotFound
	}
	vt.Name = name
	vt.IconURL = iconURL
	r.types[id] = vt
	return nil
}

func (r *fakeVehicleTypeRepo) ReplaceRates(_ context.Context, id string, rates []models.HourlyRate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	vt, ok := r.types[id]
	if !ok {
		return repository.ErrNotFound
	}
	vt.Rates = rates
	r.types[id] = vt
	return nil
}

func (r *fakeVehicleTypeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.types, id)
	return nil
}

func (r *fakeVehicleTypeRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.types), nil
}

func (r *fakeVehicleTypeRepo) InUse(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.used[id], nil
}
