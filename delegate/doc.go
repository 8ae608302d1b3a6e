// Package delegate implements late-bound method delegation: trampoline
// methods installed on a receiver that re-resolve against whatever target
// object currently occupies one of the receiver's slots, at every call.
//
// Reassigning a target slot instantly changes the behavior of every
// trampoline bound to it, with no reinstallation. This is the primitive
// underneath the machine package's finite-state machines.
package delegate
