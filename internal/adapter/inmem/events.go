package inmem

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hirelight/room-events-service/internal/domain/room"
)

// Interface guards
var (
	_ room.DurableEvents = (*DurableLog)(nil)
	_ room.QueueMarkers  = (*DurableLog)(nil)
)

// DurableLog stands in for the persistence-backed event log. It also owns
// the per-room durable-queue markers, since a room only counts as durable
// when a marker says its events land here.
type DurableLog struct {
	mu      sync.RWMutex
	rooms   map[uuid.UUID][]room.Record
	markers map[uuid.UUID]struct{}
}

func NewDurableLog() *DurableLog {
	return &DurableLog{
		rooms:   make(map[uuid.UUID][]room.Record),
		markers: make(map[uuid.UUID]struct{}),
	}
}

// MarkDurable flags a room as having a durable event sink.
func (l *DurableLog) MarkDurable(roomID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.markers[roomID] = struct{}{}
}

func (l *DurableLog) HasDurableQueue(_ context.Context, roomID uuid.UUID) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.markers[roomID]
	return ok, nil
}

func (l *DurableLog) Append(_ context.Context, rec room.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rooms[rec.RoomID] = append(l.rooms[rec.RoomID], rec)
	return nil
}

func (l *DurableLog) GetEvents(_ context.Context, eventType string, roomID uuid.UUID, from, to *time.Time) ([]room.Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []room.Record
	for _, rec := range l.rooms[roomID] {
		if rec.Type == eventType && inWindow(rec.CreatedAt, from, to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (l *DurableLog) GetLatest(ctx context.Context, eventType string, roomID uuid.UUID, from, to *time.Time) (*room.Record, error) {
	recs, err := l.GetEvents(ctx, eventType, roomID, from, to)
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
