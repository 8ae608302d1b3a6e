package delegate

import "fmt"

// Call invokes an installed trampoline. The dispatch sequence, run fresh
// on every call:
//
//  1. find the trampoline's slot binding
//  2. read the slot once (atomic under the receiver lock)
//  3. resolve the selector on the slot's current occupant
//  4. invoke with the receiver as explicit self, args forwarded unmodified
//
// Neither the target nor the resolved method body is ever cached, so
// reassigning the slot between calls redirects every subsequent call.
// The result is returned raw: delegation passes context through, it does
// not translate self-references the way forwarding would.
//
// Two consecutive calls may observe different targets under concurrent
// reassignment; a single call resolves and runs entirely against the one
// target it read.
func (r *Receiver) Call(selector string, args ...Value) (Value, error) {
	r.mu.RLock()
	slot, installed := r.trampolines[selector]
	var occupant Value
	if installed {
		occupant = r.fields[slot]
	}
	r.mu.RUnlock()

	if !installed {
		return NilValue(), fmt.Errorf("%w: %q on receiver %s", ErrUnknownSelector, selector, r.ID)
	}

	if !occupant.IsTarget() {
		return NilValue(), &MissingTargetError{Receiver: r.ID, Slot: slot, Selector: selector}
	}
	target := occupant.TargetVal

	method, ok := target.Method(selector)
	if !ok {
		return NilValue(), &MissingMethodError{
			Receiver: r.ID,
			Slot:     slot,
			Selector: selector,
			Target:   TargetName(target),
		}
	}

	return method(r, args), nil
}

// MustCall is Call for selectors known to be installed and targeted.
// It panics on any dispatch error; use it in tests and demos only.
func (r *Receiver) MustCall(selector string, args ...Value) Value {
	v, err := r.Call(selector, args...)
	if err != nil {
		panic(err)
	}
	return v
}

// Responds reports whether a Call for the selector would currently reach
// a method: a trampoline is installed, its slot holds a target, and the
// target implements the selector. The answer is only advisory under
// concurrent reassignment.
func (r *Receiver) Responds(selector string) bool {
	r.mu.RLock()
	slot, installed := r.trampolines[selector]
	var occupant Value
	if installed {
		occupant = r.fields[slot]
	}
	r.mu.RUnlock()

	if !installed || !occupant.IsTarget() {
		return false
	}
	_, ok := occupant.TargetVal.Method(selector)
	return ok
}
