// Package hotstore keeps a queryable, time-ranged, append-only buffer of
// recent events per room. It backs historical and latest-event queries for
// rooms that have no durable event sink configured.
package hotstore

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hirelight/room-events-service/internal/domain/room"
)

// Interface guard
var _ room.EventQuerier = (*Store)(nil)

// Store holds per-room logs inside an LRU cache so abandoned rooms age out
// and memory stays bounded without an explicit janitor.
type Store struct {
	rooms *lru.Cache[uuid.UUID, *roomLog]
}

type roomLog struct {
	mu      sync.RWMutex
	records []room.Record
}

// New creates a store keeping buffers for at most roomCapacity rooms.
func New(roomCapacity int) (*Store, error) {
	rooms, err := lru.New[uuid.UUID, *roomLog](roomCapacity)
	if err != nil {
		return nil, fmt.Errorf("hotstore: %w", err)
	}
	return &Store{rooms: rooms}, nil
}

// Append adds one record to its room's log. Records are never mutated after
// this point.
func (s *Store) Append(_ context.Context, rec room.Record) error {
	fresh := &roomLog{}
	log, ok, _ := s.rooms.PeekOrAdd(rec.RoomID, fresh)
	if !ok {
		log = fresh
	}

	log.mu.Lock()
	log.records = append(log.records, rec)
	log.mu.Unlock()
	return nil
}

// GetEvents returns the room's records of the given type inside the window,
// in append order. A nil bound leaves that side open.
func (s *Store) GetEvents(_ context.Context, eventType string, roomID uuid.UUID, from, to *time.Time) ([]room.Record, error) {
	log, ok := s.rooms.Get(roomID)
	if !ok {
		return nil, nil
	}

	log.mu.RLock()
	defer log.mu.RUnlock()

	var out []room.Record
	for _, rec := range log.records {
		if rec.Type == eventType && inWindow(rec.CreatedAt, from, to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// GetLatest returns the in-window record with the maximum created-at, or nil
// when none match. Ties are broken by record id, since producers give no
// ordering guarantee.
func (s *Store) GetLatest(ctx context.Context, eventType string, roomID uuid.UUID, from, to *time.Time) (*room.Record, error) {
	recs, err := s.GetEvents(ctx, eventType, roomID, from, to)
	if err != nil || len(recs) == 0 {
		return nil, err
	}

	latest := recs[0]
	for _, rec := range recs[1:] {
		if newerThan(rec, latest) {
			latest = rec
		}
	}
	return &latest, nil
}

func inWindow(at time.Time, from, to *time.Time) bool {
	if from != nil && at.Before(*from) {
		return false
	}
	if to != nil && at.After(*to) {
		return false
	}
	return true
}

func newerThan(a, b room.Record) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) > 0
}
