package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActiveEntry is the cached pointer from a plate to its open entry.
type ActiveEntry struct {
	EntryID       string    `json:"entry_id"`
	ReceiptID     string    `json:"receipt_id"`
	VehicleNumber string    `json:"vehicle_number"`
	EntryTime     time.Time `json:"entry_time"`
}

// Store caches active entries keyed by vehicle number.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(vehicleNumber string) string {
	return fmt.Sprintf("parking:active:%s", vehicleNumber)
}

// Save caches the entry.
func (s *Store) Save(ctx context.Context, entry ActiveEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(entry.VehicleNumber), data, s.ttl).Err()
}

// Get returns the cached entry, or nil when the plate has none.
func (s *Store) Get(ctx context.Context, vehicleNumber string) (*ActiveEntry, error) {
	result, err := s.client.Get(ctx, s.key(vehicleNumber)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var entry ActiveEntry
	if err := json.Unmarshal([]byte(result), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Delete removes the cached entry.
func (s *Store) Delete(ctx context.Context, vehicleNumber string) error {
	err := s.client.Del(ctx, s.key(vehicleNumber)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
