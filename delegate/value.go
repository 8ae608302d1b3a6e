package delegate

import (
	"strconv"
	"strings"
)

// ValueType represents the type of a field or argument value.
type ValueType int

const (
	TypeNil ValueType = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeArray
	TypeReceiver
	TypeTarget
)

// Value is the tagged union carried in receiver fields and passed to
// delegated methods. Targets and receivers are held by reference; a
// target-typed value in a slot is what trampolines resolve against.
type Value struct {
	Type        ValueType
	IntVal      int64
	FloatVal    float64
	StringVal   string
	ArrayVal    []Value
	ReceiverVal *Receiver
	TargetVal   Target
}

// NilValue returns the nil value.
func NilValue() Value {
	return Value{Type: TypeNil}
}

// BoolValue creates a boolean value.
func BoolValue(b bool) Value {
	if b {
		return Value{Type: TypeBool, IntVal: 1}
	}
	return Value{Type: TypeBool, IntVal: 0}
}

// IntValue creates an integer value.
func IntValue(n int64) Value {
	return Value{Type: TypeInt, IntVal: n}
}

// FloatValue creates a float value.
func FloatValue(f float64) Value {
	return Value{Type: TypeFloat, FloatVal: f}
}

// StringValue creates a string value.
func StringValue(s string) Value {
	return Value{Type: TypeString, StringVal: s}
}

// ArrayValue creates an array value.
func ArrayValue(elems ...Value) Value {
	return Value{Type: TypeArray, ArrayVal: elems}
}

// ReceiverValue creates a receiver reference value.
func ReceiverValue(r *Receiver) Value {
	return Value{Type: TypeReceiver, ReceiverVal: r}
}

// TargetValue creates a target reference value. Assigning one of these
// into a slot is how a receiver is (re)pointed at a target.
func TargetValue(t Target) Value {
	return Value{Type: TypeTarget, TargetVal: t}
}

// IsNil returns true if the value is nil.
func (v Value) IsNil() bool {
	return v.Type == TypeNil
}

// IsTarget returns true if the value references a non-nil target.
func (v Value) IsTarget() bool {
	return v.Type == TypeTarget && v.TargetVal != nil
}

// AsBool converts the value to a boolean.
func (v Value) AsBool() bool {
	switch v.Type {
	case TypeBool, TypeInt:
		return v.IntVal != 0
	case TypeFloat:
		return v.FloatVal != 0
	case TypeString:
		return v.StringVal != "" && v.StringVal != "false"
	default:
		return false
	}
}

// AsInt converts the value to an integer.
func (v Value) AsInt() int64 {
	switch v.Type {
	case TypeInt, TypeBool:
		return v.IntVal
	case TypeFloat:
		return int64(v.FloatVal)
	case TypeString:
		n, _ := strconv.ParseInt(v.StringVal, 10, 64)
		return n
	default:
		return 0
	}
}

// AsFloat converts the value to a float.
func (v Value) AsFloat() float64 {
	switch v.Type {
	case TypeFloat:
		return v.FloatVal
	case TypeInt, TypeBool:
		return float64(v.IntVal)
	case TypeString:
		f, _ := strconv.ParseFloat(v.StringVal, 64)
		return f
	default:
		return 0
	}
}

// AsString converts the value to a string representation.
func (v Value) AsString() string {
	switch v.Type {
	case TypeNil:
		return ""
	case TypeBool:
		if v.IntVal != 0 {
			return "true"
		}
		return "false"
	case TypeInt:
		return strconv.FormatInt(v.IntVal, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.FloatVal, 'f', -1, 64)
	case TypeString:
		return v.StringVal
	case TypeArray:
		parts := make([]string, len(v.ArrayVal))
		for i, e := range v.ArrayVal {
			parts[i] = e.AsString()
		}
		return "[" + strings.Join(parts, " ") + "]"
	case TypeReceiver:
		if v.ReceiverVal != nil {
			return v.ReceiverVal.ID
		}
		return ""
	case TypeTarget:
		if v.TargetVal != nil {
			return "<target " + TargetName(v.TargetVal) + ">"
		}
		return ""
	default:
		return ""
	}
}
