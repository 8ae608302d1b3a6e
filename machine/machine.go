// Package machine models finite-state machines on top of delegation.
//
// A machine is a receiver whose state slot holds the current state's
// behavior. Every state-dependent operation is a trampoline bound to
// that slot, so transitioning is exactly one slot reassignment: no
// conditional branching inside methods, no rewiring.
package machine

import (
	"fmt"

	"github.com/chazu/waldo/delegate"
)

// StateSlot is the target slot machines delegate through.
const StateSlot = "state"

// stateField records the current state's name on the receiver, so that
// machines survive snapshot and restore.
const stateField = "stateName"

// Machine is a receiver-backed finite-state machine.
type Machine struct {
	recv   *delegate.Receiver
	states *delegate.BehaviorTable
}

// New creates a machine in the given initial state. The Method Name Set
// is enumerated from the initial state's behavior, so every state in the
// table should implement the same selectors.
func New(space *delegate.Space, label string, states *delegate.BehaviorTable, initial string) (*Machine, error) {
	return build(space, label, states, initial, nil)
}

// NewWithSelectors creates a machine with an explicit Method Name Set,
// for state tables where the initial state does not implement every
// selector the machine should expose.
func NewWithSelectors(space *delegate.Space, label string, states *delegate.BehaviorTable, initial string, selectors []string) (*Machine, error) {
	if len(selectors) == 0 {
		return nil, fmt.Errorf("machine: empty selector list")
	}
	return build(space, label, states, initial, selectors)
}

func build(space *delegate.Space, label string, states *delegate.BehaviorTable, initial string, selectors []string) (*Machine, error) {
	state := states.Lookup(initial)
	if state == nil {
		return nil, fmt.Errorf("machine: unknown initial state %q", initial)
	}

	recv := space.NewReceiver(label)
	recv.SetMany(map[string]delegate.Value{
		StateSlot:  delegate.TargetValue(state),
		stateField: delegate.StringValue(initial),
	})

	if _, err := delegate.Install(recv, StateSlot, selectors...); err != nil {
		space.Remove(recv.ID)
		return nil, err
	}

	return &Machine{recv: recv, states: states}, nil
}

// Attach wraps an existing receiver (typically restored from a snapshot)
// as a machine over the given state table. The receiver's recorded state
// name must resolve in the table.
func Attach(recv *delegate.Receiver, states *delegate.BehaviorTable) (*Machine, error) {
	name := recv.GetString(stateField)
	if name == "" {
		return nil, fmt.Errorf("machine: receiver %s carries no state name", recv.ID)
	}
	if states.Lookup(name) == nil {
		return nil, fmt.Errorf("machine: receiver %s is in unknown state %q", recv.ID, name)
	}
	return &Machine{recv: recv, states: states}, nil
}

// Transition moves the machine to another state: one atomic publish of
// the target slot and the recorded state name. Every trampoline
// dispatches against the new state from the next call on, and no
// snapshot of the receiver ever pairs one state's behavior with
// another's name.
func (m *Machine) Transition(name string) error {
	state := m.states.Lookup(name)
	if state == nil {
		return fmt.Errorf("machine: unknown state %q", name)
	}
	m.recv.SetMany(map[string]delegate.Value{
		StateSlot:  delegate.TargetValue(state),
		stateField: delegate.StringValue(name),
	})
	return nil
}

// State returns the current state's name.
func (m *Machine) State() string {
	return m.recv.GetString(stateField)
}

// Send dispatches a selector through the machine's trampolines.
func (m *Machine) Send(selector string, args ...delegate.Value) (delegate.Value, error) {
	return m.recv.Call(selector, args...)
}

// Receiver exposes the underlying receiver, for field access and
// snapshotting.
func (m *Machine) Receiver() *delegate.Receiver {
	return m.recv
}
