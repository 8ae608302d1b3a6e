package delegate

// CollisionPolicy decides what installation does when a selector is
// already installed on the receiver.
type CollisionPolicy int

const (
	// CollisionOverwrite silently rebinds the selector to the new slot.
	// This is the default.
	CollisionOverwrite CollisionPolicy = iota

	// CollisionReject fails installation with NameCollisionError. No
	// trampolines are installed when any selector collides.
	CollisionReject
)

// InstallOptions configures an installation.
type InstallOptions struct {
	Collision CollisionPolicy
}

// Install installs one trampoline per selector on the receiver, each
// bound to the named target slot. With no selectors given, the Method
// Name Set is enumerated from the target currently occupying the slot;
// the slot must hold a target at that moment or installation fails with
// InvalidTargetError.
//
// The enumeration happens exactly once: the installed set is fixed for
// the receiver's lifetime, even though each call resolves against the
// slot's occupant at call time.
//
// Collisions with already-installed selectors are silently overwritten;
// use InstallWithOptions for CollisionReject. Returns the receiver for
// chaining.
func Install(r *Receiver, slot string, selectors ...string) (*Receiver, error) {
	return InstallWithOptions(r, slot, selectors, InstallOptions{})
}

// InstallWithOptions is Install with an explicit collision policy.
func InstallWithOptions(r *Receiver, slot string, selectors []string, opts InstallOptions) (*Receiver, error) {
	if len(selectors) == 0 {
		target, ok := r.Target(slot)
		if !ok {
			return nil, &InvalidTargetError{Receiver: r.ID, Slot: slot}
		}
		selectors = target.Selectors()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if opts.Collision == CollisionReject {
		for _, sel := range selectors {
			if existing, ok := r.trampolines[sel]; ok {
				return nil, &NameCollisionError{Receiver: r.ID, Selector: sel, Slot: existing}
			}
		}
	}

	for _, sel := range selectors {
		r.trampolines[sel] = slot
	}
	return r, nil
}
