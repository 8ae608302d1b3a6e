package delegate

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Receiver is a mutable record of named fields. Any field may serve as a
// target slot: a field holding a target reference that installed
// trampolines resolve against. The receiver owns its delegation wiring;
// it never owns the targets its slots point at.
type Receiver struct {
	ID string

	mu          sync.RWMutex
	fields      map[string]Value
	trampolines map[string]string // selector -> target slot name
}

// NewReceiver creates a receiver with the given ID. Most callers should
// go through Space.NewReceiver, which generates the ID.
func NewReceiver(id string) *Receiver {
	return &Receiver{
		ID:          id,
		fields:      make(map[string]Value),
		trampolines: make(map[string]string),
	}
}

// Get returns a field value, or nil value if the field is unset.
func (r *Receiver) Get(name string) Value {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.fields[name]; ok {
		return v
	}
	return NilValue()
}

// Set assigns a field value. Assigning into a target slot is an atomic
// publish: the next trampoline call resolves against the new value.
func (r *Receiver) Set(name string, v Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields[name] = v
}

// SetMany assigns several fields in one atomic publish: a reader
// holding the lock sees all of the assignments or none of them. Use it
// when a slot and a related field must never be observed half-updated.
func (r *Receiver) SetMany(fields map[string]Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, v := range fields {
		r.fields[name] = v
	}
}

// Unset removes a field entirely.
func (r *Receiver) Unset(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.fields, name)
}

// SetTarget assigns a target into a slot.
func (r *Receiver) SetTarget(slot string, t Target) {
	r.Set(slot, TargetValue(t))
}

// Target returns the target currently occupying a slot, if any.
func (r *Receiver) Target(slot string) (Target, bool) {
	v := r.Get(slot)
	if !v.IsTarget() {
		return nil, false
	}
	return v.TargetVal, true
}

// GetString returns a field value as a string.
func (r *Receiver) GetString(name string) string {
	return r.Get(name).AsString()
}

// SetString assigns a string field value.
func (r *Receiver) SetString(name, s string) {
	r.Set(name, StringValue(s))
}

// FieldNames returns all field names in sorted order.
func (r *Receiver) FieldNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Selectors returns the receiver's Method Name Set: every selector a
// trampoline is installed for, in sorted order. The set only changes
// through installation, never through slot reassignment.
func (r *Receiver) Selectors() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.trampolines))
	for name := range r.trampolines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Delegates reports which slot a selector's trampoline is bound to.
func (r *Receiver) Delegates(selector string) (slot string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slot, ok = r.trampolines[selector]
	return slot, ok
}

// Wiring returns a copy of the full selector -> slot trampoline map.
func (r *Receiver) Wiring() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wiring := make(map[string]string, len(r.trampolines))
	for sel, slot := range r.trampolines {
		wiring[sel] = slot
	}
	return wiring
}

// Fields returns a copy of the receiver's fields.
func (r *Receiver) Fields() map[string]Value {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fields := make(map[string]Value, len(r.fields))
	for name, v := range r.fields {
		fields[name] = v
	}
	return fields
}

// Space manages live receivers by ID.
type Space struct {
	mu        sync.RWMutex
	receivers map[string]*Receiver
}

// NewSpace creates a new empty space.
func NewSpace() *Space {
	return &Space{
		receivers: make(map[string]*Receiver),
	}
}

// GenerateID creates a unique receiver ID with the given label prefix.
func (s *Space) GenerateID(label string) string {
	prefix := strings.ToLower(strings.TrimSpace(label))
	if prefix == "" {
		prefix = "receiver"
	}
	return prefix + "_" + uuid.New().String()
}

// NewReceiver creates a receiver with a generated ID and registers it.
func (s *Space) NewReceiver(label string) *Receiver {
	r := NewReceiver(s.GenerateID(label))
	s.Register(r)
	return r
}

// Register adds a receiver to the space.
func (s *Space) Register(r *Receiver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receivers[r.ID] = r
}

// Get retrieves a receiver by ID, or nil.
func (s *Space) Get(id string) *Receiver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.receivers[id]
}

// Remove removes a receiver from the space.
func (s *Space) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.receivers, id)
}

// IDs returns all registered receiver IDs in sorted order.
func (s *Space) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.receivers))
	for id := range s.receivers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of receivers in the space.
func (s *Space) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.receivers)
}
