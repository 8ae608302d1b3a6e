// Package snapshot captures receivers to a canonical wire form and
// persists them. Behaviors are code, so target slots serialize by
// behavior name and resolve against a BehaviorTable on restore; receiver
// references likewise serialize by ID and resolve against a Space.
package snapshot

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/waldo/delegate"
)

// Wire field kinds. These mirror delegate.ValueType but are pinned
// independently: the wire format must not shift if the in-memory enum
// is ever reordered.
const (
	FieldNil uint8 = iota
	FieldBool
	FieldInt
	FieldFloat
	FieldString
	FieldArray
	FieldReceiver
	FieldTarget
)

// FieldSnapshot is the wire form of one field value.
type FieldSnapshot struct {
	Kind     uint8           `cbor:"1,keyasint"`
	Bool     bool            `cbor:"2,keyasint,omitempty"`
	Int      int64           `cbor:"3,keyasint,omitempty"`
	Float    float64         `cbor:"4,keyasint,omitempty"`
	Str      string          `cbor:"5,keyasint,omitempty"`
	Elems    []FieldSnapshot `cbor:"6,keyasint,omitempty"`
	Receiver string          `cbor:"7,keyasint,omitempty"` // receiver ID
	Behavior string          `cbor:"8,keyasint,omitempty"` // registered behavior name
}

// ReceiverSnapshot is the wire form of a receiver: its fields plus its
// delegation wiring (selector -> slot). Targets travel by name only.
type ReceiverSnapshot struct {
	ID      string                   `cbor:"1,keyasint"`
	Fields  map[string]FieldSnapshot `cbor:"2,keyasint,omitempty"`
	Wiring  map[string]string        `cbor:"3,keyasint,omitempty"`
	Version byte                     `cbor:"4,keyasint"`
}

// SnapshotVersion is the current wire version.
const SnapshotVersion byte = 1

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a ReceiverSnapshot to canonical CBOR bytes.
func Marshal(s *ReceiverSnapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// Unmarshal deserializes a ReceiverSnapshot from CBOR bytes.
func Unmarshal(data []byte) (*ReceiverSnapshot, error) {
	var s ReceiverSnapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal receiver: %w", err)
	}
	return &s, nil
}

// Capture builds a snapshot of a receiver. Target fields backed by
// anonymous (unregistered, unnamed) targets cannot be captured.
func Capture(r *delegate.Receiver) (*ReceiverSnapshot, error) {
	snap := &ReceiverSnapshot{
		ID:      r.ID,
		Fields:  make(map[string]FieldSnapshot),
		Wiring:  r.Wiring(),
		Version: SnapshotVersion,
	}

	for name, v := range r.Fields() {
		fs, err := captureValue(v)
		if err != nil {
			return nil, fmt.Errorf("snapshot: field %q of %s: %w", name, r.ID, err)
		}
		snap.Fields[name] = fs
	}
	return snap, nil
}

func captureValue(v delegate.Value) (FieldSnapshot, error) {
	switch v.Type {
	case delegate.TypeNil:
		return FieldSnapshot{Kind: FieldNil}, nil
	case delegate.TypeBool:
		return FieldSnapshot{Kind: FieldBool, Bool: v.AsBool()}, nil
	case delegate.TypeInt:
		return FieldSnapshot{Kind: FieldInt, Int: v.IntVal}, nil
	case delegate.TypeFloat:
		return FieldSnapshot{Kind: FieldFloat, Float: v.FloatVal}, nil
	case delegate.TypeString:
		return FieldSnapshot{Kind: FieldString, Str: v.StringVal}, nil
	case delegate.TypeArray:
		elems := make([]FieldSnapshot, len(v.ArrayVal))
		for i, e := range v.ArrayVal {
			fs, err := captureValue(e)
			if err != nil {
				return FieldSnapshot{}, err
			}
			elems[i] = fs
		}
		return FieldSnapshot{Kind: FieldArray, Elems: elems}, nil
	case delegate.TypeReceiver:
		if v.ReceiverVal == nil {
			return FieldSnapshot{Kind: FieldNil}, nil
		}
		return FieldSnapshot{Kind: FieldReceiver, Receiver: v.ReceiverVal.ID}, nil
	case delegate.TypeTarget:
		if v.TargetVal == nil {
			return FieldSnapshot{Kind: FieldNil}, nil
		}
		name := delegate.TargetName(v.TargetVal)
		if name == "<anonymous>" {
			return FieldSnapshot{}, fmt.Errorf("anonymous target cannot be captured")
		}
		return FieldSnapshot{Kind: FieldTarget, Behavior: name}, nil
	default:
		return FieldSnapshot{}, fmt.Errorf("unknown value type %d", v.Type)
	}
}

// Restore rebuilds a receiver from a snapshot, registering it in the
// space. Target fields resolve by name against the behavior table;
// unresolvable behaviors are an error. Receiver-reference fields resolve
// against the space and fail if the referenced receiver isn't present,
// so restore order matters for cross-referencing receivers.
func Restore(snap *ReceiverSnapshot, space *delegate.Space, behaviors *delegate.BehaviorTable) (*delegate.Receiver, error) {
	r := delegate.NewReceiver(snap.ID)

	for name, fs := range snap.Fields {
		v, err := restoreValue(fs, space, behaviors)
		if err != nil {
			return nil, fmt.Errorf("snapshot: field %q of %s: %w", name, snap.ID, err)
		}
		r.Set(name, v)
	}

	// Reinstall the recorded wiring slot by slot. Selectors were valid
	// at capture time, so explicit lists always succeed here.
	bySlot := make(map[string][]string)
	for sel, slot := range snap.Wiring {
		bySlot[slot] = append(bySlot[slot], sel)
	}
	for slot, selectors := range bySlot {
		if _, err := delegate.Install(r, slot, selectors...); err != nil {
			return nil, fmt.Errorf("snapshot: rewire %s: %w", snap.ID, err)
		}
	}

	space.Register(r)
	return r, nil
}

func restoreValue(fs FieldSnapshot, space *delegate.Space, behaviors *delegate.BehaviorTable) (delegate.Value, error) {
	switch fs.Kind {
	case FieldNil:
		return delegate.NilValue(), nil
	case FieldBool:
		return delegate.BoolValue(fs.Bool), nil
	case FieldInt:
		return delegate.IntValue(fs.Int), nil
	case FieldFloat:
		return delegate.FloatValue(fs.Float), nil
	case FieldString:
		return delegate.StringValue(fs.Str), nil
	case FieldArray:
		elems := make([]delegate.Value, len(fs.Elems))
		for i, e := range fs.Elems {
			v, err := restoreValue(e, space, behaviors)
			if err != nil {
				return delegate.NilValue(), err
			}
			elems[i] = v
		}
		return delegate.ArrayValue(elems...), nil
	case FieldReceiver:
		ref := space.Get(fs.Receiver)
		if ref == nil {
			return delegate.NilValue(), fmt.Errorf("%w: %s", delegate.ErrReceiverNotFound, fs.Receiver)
		}
		return delegate.ReceiverValue(ref), nil
	case FieldTarget:
		b := behaviors.Lookup(fs.Behavior)
		if b == nil {
			return delegate.NilValue(), fmt.Errorf("unregistered behavior %q", fs.Behavior)
		}
		return delegate.TargetValue(b), nil
	default:
		return delegate.NilValue(), fmt.Errorf("unknown field kind %d", fs.Kind)
	}
}
