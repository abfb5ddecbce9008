package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"parkinglot/backend/services/parking-service/internal/billing"
	"parkinglot/backend/services/parking-service/internal/metrics"
	"parkinglot/backend/services/parking-service/internal/models"
	"parkinglot/backend/services/parking-service/internal/receipt"
	"parkinglot/backend/services/parking-service/internal/redis"
	"parkinglot/backend/services/parking-service/internal/repository"
	"parkinglot/backend/services/parking-service/internal/ws"
)

const (
	maxReceiptAttempts = 5
	maxListLimit       = 1000
)

// Clock returns the current time.
type Clock func() time.Time

// EntryRepository defines storage contract used by the service.
type EntryRepository interface {
	Create(ctx context.Context, entry *models.ParkingEntry) error
	GetByID(ctx context.Context, id string) (*models.ParkingEntry, error)
	FindActiveByVehicleNumber(ctx context.Context, vehicleNumber string) (*models.ParkingEntry, error)
	FindByReceiptID(ctx context.Context, receiptID string) (*models.ParkingEntry, error)
	Complete(ctx context.Context, id string, exitTime time.Time, amount float64, hours int) (*models.ParkingEntry, error)
	List(ctx context.Context, filter repository.EntryFilter) ([]models.ParkingEntry, error)
}

// ActiveEntryCache maps a vehicle number to its open entry.
type ActiveEntryCache interface {
	Save(ctx context.Context, entry redisstore.ActiveEntry) error
	Get(ctx context.Context, vehicleNumber string) (*redisstore.ActiveEntry, error)
	Delete(ctx context.Context, vehicleNumber string) error
}

// EventPublisher receives entry lifecycle events.
type EventPublisher interface {
	Publish(event string, payload any)
}

// CreateEntryInput is a vehicle check-in.
type CreateEntryInput struct {
	VehicleNumber string `json:"vehicleNumber"`
	VehicleTypeID string `json:"vehicleTypeId"`
	IsPickAndGo   bool   `json:"isPickAndGo"`
	OperatorID    *int64 `json:"-"`
}

// ExitRequest identifies the entry to check out. Exactly one field is used,
// in the order ID, ReceiptToken, ReceiptID.
type ExitRequest struct {
	ID           string `json:"id"`
	ReceiptID    string `json:"receiptId"`
	ReceiptToken string `json:"receiptToken"`
}

// Bill is a priced stay.
type Bill struct {
	Entry    *models.ParkingEntry `json:"entry,omitempty"`
	ExitTime *time.Time           `json:"exitTime,omitempty"`
	Quote    billing.Quote        `json:"quote"`
	Warning  string               `json:"warning,omitempty"`
	// Drift is set by Recalculate when the stored amount differs from the
	// current rate table.
	Drift bool `json:"drift,omitempty"`
}

// EntriesOption configures optional collaborators of EntriesService.
type EntriesOption func(*EntriesService)

// WithClock replaces time.Now.
func WithClock(clock Clock) EntriesOption {
	return func(s *EntriesService) { s.clock = clock }
}

// WithActiveCache enables the redis lookup path for active entries.
func WithActiveCache(cache ActiveEntryCache) EntriesOption {
	return func(s *EntriesService) { s.cache = cache }
}

// WithPublisher sends created and exited events to p.
func WithPublisher(p EventPublisher) EntriesOption {
	return func(s *EntriesService) { s.events = p }
}

// WithSigner enables signed receipt tokens.
func WithSigner(signer *receipt.Signer) EntriesOption {
	return func(s *EntriesService) { s.signer = signer }
}

// WithMetrics records counters on m.
func WithMetrics(m *metrics.Metrics) EntriesOption {
	return func(s *EntriesService) { s.metrics = m }
}

// EntriesService runs check-in, check-out and history.
type EntriesService struct {
	entries EntryRepository
	types   billing.VehicleTypeLookup
	cache   ActiveEntryCache
	events  EventPublisher
	signer  *receipt.Signer
	metrics *metrics.Metrics
	clock   Clock
	logger  *zap.Logger

	newReceiptID func() (string, error)
}

// NewEntriesService builds EntriesService.
func NewEntriesService(entries EntryRepository, types billing.VehicleTypeLookup, logger *zap.Logger, opts ...EntriesOption) *EntriesService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &EntriesService{
		entries:      entries,
		types:        types,
		clock:        time.Now,
		logger:       logger,
		newReceiptID: receipt.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeVehicleNumber trims, upper-cases and collapses inner whitespace.
func NormalizeVehicleNumber(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), " "))
}

// Create checks a vehicle in.
func (s *EntriesService) Create(ctx context.Context, input CreateEntryInput) (*models.ParkingEntry, error) {
	vehicleNumber := NormalizeVehicleNumber(input.VehicleNumber)
	if vehicleNumber == "" {
		return nil, validationError("vehicle number is required")
	}
	typeID := strings.TrimSpace(input.VehicleTypeID)
	if typeID == "" {
		return nil, validationError("vehicle type is required")
	}

	vt, err := s.types.FindVehicleType(ctx, typeID)
	if err != nil {
		return nil, err
	}
	if vt == nil {
		return nil, ErrVehicleTypeNotFound
	}

	if existing, err := s.findActive(ctx, vehicleNumber); err == nil {
		return nil, s.duplicate(existing)
	} else if !errors.Is(err, ErrEntryNotFound) {
		return nil, err
	}

	entry := &models.ParkingEntry{
		ID:            uuid.NewString(),
		VehicleNumber: vehicleNumber,
		VehicleTypeID: vt.ID,
		EntryTime:     s.clock().UTC(),
		IsPickAndGo:   input.IsPickAndGo,
		OperatorID:    input.OperatorID,
	}

	for attempt := 1; ; attempt++ {
		entry.ReceiptID, err = s.newReceiptID()
		if err != nil {
			return nil, err
		}
		err = s.entries.Create(ctx, entry)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, repository.ErrDuplicateReceipt) && attempt < maxReceiptAttempts:
			s.logger.Debug("receipt id collision, retrying", zap.String("receipt_id", entry.ReceiptID), zap.Int("attempt", attempt))
			continue
		case errors.Is(err, repository.ErrDuplicateActive):
			existing, findErr := s.entries.FindActiveByVehicleNumber(ctx, vehicleNumber)
			if findErr != nil {
				s.metrics.DuplicateEntry()
				return nil, ErrActiveEntryExists
			}
			return nil, s.duplicate(existing)
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrVehicleTypeNotFound
		}
		return nil, err
	}
	entry.VehicleType = &models.VehicleType{ID: vt.ID, Name: vt.Name, IconURL: vt.IconURL}

	s.cacheActive(ctx, entry)
	s.metrics.EntryCreated()
	s.publish(ws.EventEntryCreated, entry)
	s.logger.Info("vehicle checked in",
		zap.String("entry_id", entry.ID),
		zap.String("receipt_id", entry.ReceiptID),
		zap.String("vehicle_number", entry.VehicleNumber),
		zap.String("vehicle_type_id", entry.VehicleTypeID),
		zap.Bool("pick_and_go", entry.IsPickAndGo),
	)
	return entry, nil
}

func (s *EntriesService) duplicate(existing *models.ParkingEntry) error {
	s.metrics.DuplicateEntry()
	return &ActiveEntryError{
		EntryID:   existing.ID,
		ReceiptID: existing.ReceiptID,
		EntryTime: existing.EntryTime,
	}
}

// Get returns an entry by id.
func (s *EntriesService) Get(ctx context.Context, id string) (*models.ParkingEntry, error) {
	entry, err := s.entries.GetByID(ctx, strings.TrimSpace(id))
	return entry, entryErr(err)
}

// FindActive returns the open entry of a vehicle.
func (s *EntriesService) FindActive(ctx context.Context, vehicleNumber string) (*models.ParkingEntry, error) {
	vehicleNumber = NormalizeVehicleNumber(vehicleNumber)
	if vehicleNumber == "" {
		return nil, validationError("vehicle number is required")
	}
	return s.findActive(ctx, vehicleNumber)
}

// FindByReceipt returns the entry a receipt was issued for.
func (s *EntriesService) FindByReceipt(ctx context.Context, receiptID string) (*models.ParkingEntry, error) {
	receiptID = receipt.NormalizeID(receiptID)
	if receiptID == "" {
		return nil, validationError("receipt id is required")
	}
	entry, err := s.entries.FindByReceiptID(ctx, receiptID)
	return entry, entryErr(err)
}

// findActive consults the cache first and verifies the hit against storage.
func (s *EntriesService) findActive(ctx context.Context, vehicleNumber string) (*models.ParkingEntry, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, vehicleNumber)
		if err != nil {
			s.logger.Warn("active entry cache read failed", zap.String("vehicle_number", vehicleNumber), zap.Error(err))
		}
		if cached != nil {
			entry, err := s.entries.GetByID(ctx, cached.EntryID)
			if err == nil && entry.Active() && entry.VehicleNumber == vehicleNumber {
				return entry, nil
			}
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			s.uncacheActive(ctx, vehicleNumber)
		}
	}

	entry, err := s.entries.FindActiveByVehicleNumber(ctx, vehicleNumber)
	if err != nil {
		return nil, entryErr(err)
	}
	s.cacheActive(ctx, entry)
	return entry, nil
}

// Quote prices an active entry as if it left now.
func (s *EntriesService) Quote(ctx context.Context, id string) (*Bill, error) {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entry.Active() {
		return nil, ErrAlreadyExited
	}

	exit := s.clock().UTC()
	bill, err := s.price(ctx, entry, exit)
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// QuoteStay prices an arbitrary stay against a vehicle type given by id or
// inline. Stays without exit time quote as active.
func (s *EntriesService) QuoteStay(ctx context.Context, stay billing.Stay, ref billing.VehicleTypeRef) (*Bill, error) {
	vt, err := billing.Resolve(ctx, ref, s.types)
	if err != nil {
		return nil, err
	}
	quote, warn := billing.Calculate(stay, vt)
	bill := &Bill{ExitTime: stay.ExitTime, Quote: quote}
	if warn != nil {
		bill.Warning = warn.Error()
	}
	return bill, nil
}

// Exit checks a vehicle out at the current time.
func (s *EntriesService) Exit(ctx context.Context, req ExitRequest) (*Bill, error) {
	entry, err := s.locate(ctx, req)
	if err != nil {
		return nil, err
	}
	if !entry.Active() {
		return nil, ErrAlreadyExited
	}

	exit := s.clock().UTC()
	bill, err := s.price(ctx, entry, exit)
	if err != nil {
		return nil, err
	}

	updated, err := s.entries.Complete(ctx, entry.ID, exit, bill.Quote.TotalAmount, bill.Quote.BilledHours)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyClosed):
			return nil, ErrAlreadyExited
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	bill.Entry = updated

	s.uncacheActive(ctx, updated.VehicleNumber)
	s.metrics.Exit(string(bill.Quote.Outcome), bill.Quote.BilledHours, bill.Quote.TotalAmount)
	s.publish(ws.EventEntryExited, bill)
	s.logger.Info("vehicle checked out",
		zap.String("entry_id", updated.ID),
		zap.String("receipt_id", updated.ReceiptID),
		zap.Int("billed_hours", bill.Quote.BilledHours),
		zap.Float64("amount", bill.Quote.TotalAmount),
		zap.String("outcome", string(bill.Quote.Outcome)),
	)
	return bill, nil
}

// Recalculate prices an exited entry again at its stored exit time without
// changing it.
func (s *EntriesService) Recalculate(ctx context.Context, id string) (*Bill, error) {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Active() {
		return nil, validationError("entry %s has not exited", entry.ReceiptID)
	}

	bill, err := s.price(ctx, entry, *entry.ExitTime)
	if err != nil {
		return nil, err
	}
	stored := 0.0
	if entry.TotalAmount != nil {
		stored = *entry.TotalAmount
	}
	bill.Drift = stored != bill.Quote.TotalAmount
	return bill, nil
}

// List returns history matching the filter.
func (s *EntriesService) List(ctx context.Context, filter repository.EntryFilter) ([]models.ParkingEntry, error) {
	if filter.SortBy != "" && !repository.SortFieldValid(filter.SortBy) {
		return nil, validationError("cannot sort by %q", filter.SortBy)
	}
	switch filter.Status {
	case "", repository.EntryStatusAll, repository.EntryStatusActive, repository.EntryStatusExited:
	default:
		return nil, validationError("unknown status %q", filter.Status)
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, validationError("from must be before to")
	}
	return s.entries.List(ctx, filter)
}

// ReceiptToken returns the signed token printed on an entry's receipt.
func (s *EntriesService) ReceiptToken(ctx context.Context, id string) (string, error) {
	if s.signer == nil {
		return "", errors.New("parking: receipt signing is not configured")
	}
	entry, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.signer.Sign(entry)
}

func (s *EntriesService) locate(ctx context.Context, req ExitRequest) (*models.ParkingEntry, error) {
	switch {
	case strings.TrimSpace(req.ID) != "":
		return s.Get(ctx, req.ID)
	case strings.TrimSpace(req.ReceiptToken) != "":
		if s.signer == nil {
			return nil, ErrInvalidReceiptToken
		}
		claims, err := s.signer.Verify(strings.TrimSpace(req.ReceiptToken))
		if err != nil {
			return nil, ErrInvalidReceiptToken
		}
		entry, err := s.Get(ctx, claims.Subject)
		if err != nil {
			return nil, err
		}
		if entry.ReceiptID != claims.ReceiptID {
			return nil, ErrInvalidReceiptToken
		}
		return entry, nil
	case strings.TrimSpace(req.ReceiptID) != "":
		return s.FindByReceipt(ctx, req.ReceiptID)
	}
	return nil, validationError("one of id, receiptId or receiptToken is required")
}

// price runs the calculator for entry closed at exit. Misconfiguration is
// logged and reported on the bill, never returned as an error.
func (s *EntriesService) price(ctx context.Context, entry *models.ParkingEntry, exit time.Time) (*Bill, error) {
	vt, err := s.types.FindVehicleType(ctx, entry.VehicleTypeID)
	if err != nil {
		return nil, err
	}

	quote, warn := billing.Calculate(billing.StayOf(entry).At(exit), vt)
	bill := &Bill{Entry: entry, ExitTime: &exit, Quote: quote}
	if warn != nil {
		bill.Warning = warn.Error()
		s.metrics.Misconfigured(misconfigReason(warn))
		s.logger.Warn("billing misconfigured, charging zero",
			zap.String("entry_id", entry.ID),
			zap.String("vehicle_type_id", entry.VehicleTypeID),
			zap.Error(warn),
		)
	}
	return bill, nil
}

func misconfigReason(err error) string {
	switch {
	case errors.Is(err, billing.ErrUnknownVehicleType):
		return "unknown_vehicle_type"
	case errors.Is(err, billing.ErrEmptyRateTable):
		return "empty_rate_table"
	}
	return "other"
}

func (s *EntriesService) cacheActive(ctx context.Context, entry *models.ParkingEntry) {
	if s.cache == nil {
		return
	}
	err := s.cache.Save(ctx, redisstore.ActiveEntry{
		EntryID:       entry.ID,
		ReceiptID:     entry.ReceiptID,
		VehicleNumber: entry.VehicleNumber,
		EntryTime:     entry.EntryTime,
	})
	if err != nil {
		s.logger.Warn("failed to cache active entry", zap.String("entry_id", entry.ID), zap.Error(err))
	}
}

func (s *EntriesService) uncacheActive(ctx context.Context, vehicleNumber string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, vehicleNumber); err != nil {
		s.logger.Warn("failed to delete active entry cache", zap.String("vehicle_number", vehicleNumber), zap.Error(err))
	}
}

func (s *EntriesService) publish(event string, payload any) {
	if s.events == nil {
		return
	}
	s.events.Publish(event, payload)
}

func entryErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEntryNotFound
	}
	return err
}
