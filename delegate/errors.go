package delegate

import (
	"errors"
	"fmt"
)

// ErrUnknownSelector indicates a call on a receiver for a selector no
// trampoline was ever installed for. To the caller this looks exactly
// like calling a missing method on an ordinary object.
var ErrUnknownSelector = errors.New("unknown selector")

// ErrReceiverNotFound indicates a space lookup for an unregistered ID.
var ErrReceiverNotFound = errors.New("receiver not found")

// InvalidTargetError is returned when installation is attempted without
// an explicit selector list and the target slot holds no target to
// enumerate.
type InvalidTargetError struct {
	Receiver string // receiver ID
	Slot     string // target slot name
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("delegate: cannot enumerate selectors: slot %q on receiver %s holds no target", e.Slot, e.Receiver)
}

// MissingTargetError is returned when a trampoline fires while its
// target slot is empty or holds a non-target value.
type MissingTargetError struct {
	Receiver string
	Slot     string
	Selector string
}

func (e *MissingTargetError) Error() string {
	return fmt.Sprintf("delegate: %s delegates %q to slot %q, which holds no target", e.Receiver, e.Selector, e.Slot)
}

// MissingMethodError is returned when the slot's current target lacks
// the named member at call time.
type MissingMethodError struct {
	Receiver string
	Slot     string
	Selector string
	Target   string // target name, for diagnostics
}

func (e *MissingMethodError) Error() string {
	return fmt.Sprintf("delegate: target %s in slot %q of %s does not respond to %q", e.Target, e.Slot, e.Receiver, e.Selector)
}

// NameCollisionError is returned at installation time, under
// CollisionReject, when a selector is already installed on the receiver.
type NameCollisionError struct {
	Receiver string
	Selector string
	Slot     string // slot the existing trampoline is bound to
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("delegate: selector %q already installed on %s (bound to slot %q)", e.Selector, e.Receiver, e.Slot)
}
