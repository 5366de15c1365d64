package inmem

import (
	"strings"
	"sync"

	"github.com/hirelight/room-events-service/internal/domain/event"
	"github.com/hirelight/room-events-service/internal/domain/room"
)

// Interface guard
var _ room.EventTypes = (*TypeRegistry)(nil)

// TypeRegistry is the side-loaded catalogue of application event types the
// generic chain handler accepts. Lookups are case-insensitive, matching the
// chain's own type comparison.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]room.KnownEventType
}

func NewTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{types: make(map[string]room.KnownEventType)}
	for _, kt := range defaultTypes() {
		r.Register(kt)
	}
	return r
}

func defaultTypes() []room.KnownEventType {
	return []room.KnownEventType{
		{Name: event.TypeQuestionActive, Stateful: true, MinRole: room.RoleExpert},
		{Name: event.TypeQuestionInactive, Stateful: true, MinRole: room.RoleExpert},
	}
}

func (r *TypeRegistry) Register(kt room.KnownEventType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[strings.ToLower(kt.Name)] = kt
}

func (r *TypeRegistry) Lookup(name string) (room.KnownEventType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kt, ok := r.types[strings.ToLower(name)]
	return kt, ok
}
