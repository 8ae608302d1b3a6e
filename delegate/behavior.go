package delegate

import (
	"sort"
	"sync"
)

// MethodFunc is the signature for delegated method implementations.
// The receiver is passed explicitly as self: a method that reads or
// mutates "its own" state via self is reading the receiver's fields,
// never private state of the behavior it was looked up on.
type MethodFunc func(self *Receiver, args []Value) Value

// Target is the capability contract a target slot's occupant must
// satisfy: callable members addressable by selector name, enumerable
// for installation-time method set discovery. Satisfaction is purely
// structural; no identity or type relationship with the receiver is
// required.
type Target interface {
	// Method returns the callable member for a selector, if present.
	Method(selector string) (MethodFunc, bool)

	// Selectors returns the names of all callable members.
	Selectors() []string
}

// TargetName returns a target's name if it carries one, or "<anonymous>".
func TargetName(t Target) string {
	if n, ok := t.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "<anonymous>"
}

// MethodEntry describes a single method on a behavior.
type MethodEntry struct {
	Selector string
	Impl     MethodFunc
	NumArgs  int
}

// Behavior is the standard Target implementation: a named, immutable-once
// -built table of methods. Behaviors carry code only; all state lives on
// the receiver that delegates to them, so one behavior can safely back
// any number of receivers at once.
type Behavior struct {
	name    string
	methods map[string]*MethodEntry
}

// NewBehavior creates an empty named behavior.
func NewBehavior(name string) *Behavior {
	return &Behavior{
		name:    name,
		methods: make(map[string]*MethodEntry),
	}
}

// Name returns the behavior's registered name.
func (b *Behavior) Name() string {
	return b.name
}

// AddMethod adds or replaces a method. Returns the behavior for chaining.
func (b *Behavior) AddMethod(selector string, impl MethodFunc, numArgs int) *Behavior {
	b.methods[selector] = &MethodEntry{
		Selector: selector,
		Impl:     impl,
		NumArgs:  numArgs,
	}
	return b
}

// Method returns the implementation for a selector.
func (b *Behavior) Method(selector string) (MethodFunc, bool) {
	e, ok := b.methods[selector]
	if !ok {
		return nil, false
	}
	return e.Impl, true
}

// Entry returns the full method entry for a selector, or nil.
func (b *Behavior) Entry(selector string) *MethodEntry {
	return b.methods[selector]
}

// Selectors returns all method names in sorted order.
func (b *Behavior) Selectors() []string {
	names := make([]string, 0, len(b.methods))
	for name := range b.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MethodCount returns the number of methods on the behavior.
func (b *Behavior) MethodCount() int {
	return len(b.methods)
}

// BehaviorTable manages registered behaviors by name.
// It's thread-safe for concurrent access.
type BehaviorTable struct {
	mu        sync.RWMutex
	behaviors map[string]*Behavior
}

// NewBehaviorTable creates a new empty behavior table.
func NewBehaviorTable() *BehaviorTable {
	return &BehaviorTable{
		behaviors: make(map[string]*Behavior),
	}
}

// Register adds a behavior to the table.
// Returns the previous behavior with this name, or nil.
func (bt *BehaviorTable) Register(b *Behavior) *Behavior {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	old := bt.behaviors[b.Name()]
	bt.behaviors[b.Name()] = b
	return old
}

// Lookup finds a behavior by name.
func (bt *BehaviorTable) Lookup(name string) *Behavior {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	return bt.behaviors[name]
}

// Has returns true if a behavior with this name is registered.
func (bt *BehaviorTable) Has(name string) bool {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	_, ok := bt.behaviors[name]
	return ok
}

// Names returns all registered behavior names in sorted order.
func (bt *BehaviorTable) Names() []string {
	bt.mu.RLock()
	defer bt.mu.RUnlock()

	names := make([]string, 0, len(bt.behaviors))
	for name := range bt.behaviors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered behaviors.
func (bt *BehaviorTable) Len() int {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	return len(bt.behaviors)
}
