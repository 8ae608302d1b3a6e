package delegate

import (
	"errors"
	"sync"
	"testing"
)

// aliveDead builds a minimal two-state pair: both states
// implement isLive with state-specific bodies.
func aliveDead() (*Behavior, *Behavior) {
	alive := NewBehavior("Alive")
	alive.AddMethod("isLive", func(self *Receiver, args []Value) Value {
		return BoolValue(true)
	}, 0)

	dead := NewBehavior("Dead")
	dead.AddMethod("isLive", func(self *Receiver, args []Value) Value {
		return BoolValue(false)
	}, 0)

	return alive, dead
}

func TestLateBoundRetargeting(t *testing.T) {
	alive, dead := aliveDead()

	r := NewReceiver("cell_1")
	r.SetTarget("state", alive)
	if _, err := Install(r, "state", "isLive"); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	v, err := r.Call("isLive")
	if err != nil {
		t.Fatalf("isLive failed: %v", err)
	}
	if !v.AsBool() {
		t.Errorf("Expected isLive=true while state=Alive")
	}

	// Transition is exactly one slot reassignment; no reinstallation.
	r.SetTarget("state", dead)

	v, err = r.Call("isLive")
	if err != nil {
		t.Fatalf("isLive after retarget failed: %v", err)
	}
	if v.AsBool() {
		t.Errorf("Expected isLive=false after state=Dead")
	}
}

func TestRetargetingKeepsMethodSet(t *testing.T) {
	alive, _ := aliveDead()

	bigger := NewBehavior("Bigger")
	bigger.AddMethod("isLive", func(self *Receiver, args []Value) Value {
		return BoolValue(true)
	}, 0)
	bigger.AddMethod("extra", func(self *Receiver, args []Value) Value {
		return NilValue()
	}, 0)

	r := NewReceiver("cell_2")
	r.SetTarget("state", alive)
	if _, err := Install(r, "state"); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	before := r.Selectors()
	r.SetTarget("state", bigger)
	after := r.Selectors()

	if len(before) != len(after) {
		t.Fatalf("Method set changed on retarget: %v -> %v", before, after)
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("Method set changed on retarget: %v -> %v", before, after)
		}
	}

	// The extra method never got a trampoline.
	if _, err := r.Call("extra"); !errors.Is(err, ErrUnknownSelector) {
		t.Errorf("Expected ErrUnknownSelector for extra, got %v", err)
	}
}

func TestExecutionContextIsReceiver(t *testing.T) {
	counter := NewBehavior("Counter")
	counter.AddMethod("increment", func(self *Receiver, args []Value) Value {
		n := self.Get("count").AsInt()
		self.Set("count", IntValue(n+1))
		return self.Get("count")
	}, 0)

	r := NewReceiver("tally_1")
	r.Set("count", IntValue(10))
	r.SetTarget("impl", counter)
	if _, err := Install(r, "impl"); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	v, err := r.Call("increment")
	if err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if v.AsInt() != 11 {
		t.Errorf("Expected 11, got %d", v.AsInt())
	}
	if r.Get("count").AsInt() != 11 {
		t.Errorf("Receiver field not mutated: count=%d", r.Get("count").AsInt())
	}
}

func TestSharedBehaviorAcrossReceivers(t *testing.T) {
	counter := NewBehavior("Counter")
	counter.AddMethod("increment", func(self *Receiver, args []Value) Value {
		self.Set("count", IntValue(self.Get("count").AsInt()+1))
		return self.Get("count")
	}, 0)

	a := NewReceiver("tally_a")
	a.Set("count", IntValue(0))
	a.SetTarget("impl", counter)
	b := NewReceiver("tally_b")
	b.Set("count", IntValue(100))
	b.SetTarget("impl", counter)

	for _, r := range []*Receiver{a, b} {
		if _, err := Install(r, "impl"); err != nil {
			t.Fatalf("Install failed: %v", err)
		}
	}

	a.MustCall("increment")
	a.MustCall("increment")
	b.MustCall("increment")

	if got := a.Get("count").AsInt(); got != 2 {
		t.Errorf("a.count = %d, want 2", got)
	}
	if got := b.Get("count").AsInt(); got != 101 {
		t.Errorf("b.count = %d, want 101", got)
	}
}

func TestMissingTarget(t *testing.T) {
	r := NewReceiver("cell_3")
	if _, err := Install(r, "state", "isLive"); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	_, err := r.Call("isLive")
	var mte *MissingTargetError
	if !errors.As(err, &mte) {
		t.Fatalf("Expected MissingTargetError, got %v", err)
	}
	if mte.Slot != "state" || mte.Selector != "isLive" {
		t.Errorf("Error fields wrong: %+v", mte)
	}

	// A non-target occupant is the same failure.
	r.Set("state", StringValue("alive"))
	if _, err := r.Call("isLive"); !errors.As(err, &mte) {
		t.Errorf("Expected MissingTargetError for non-target occupant, got %v", err)
	}
}

func TestMissingMethod(t *testing.T) {
	alive, _ := aliveDead()

	r := NewReceiver("cell_4")
	r.SetTarget("state", alive)
	if _, err := Install(r, "state", "isLive", "describe"); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	_, err := r.Call("describe")
	var mme *MissingMethodError
	if !errors.As(err, &mme) {
		t.Fatalf("Expected MissingMethodError, got %v", err)
	}
	if mme.Target != "Alive" || mme.Selector != "describe" {
		t.Errorf("Error fields wrong: %+v", mme)
	}
}

func TestUnknownSelector(t *testing.T) {
	r := NewReceiver("cell_5")
	_, err := r.Call("anything")
	if !errors.Is(err, ErrUnknownSelector) {
		t.Errorf("Expected ErrUnknownSelector, got %v", err)
	}
}

func TestArgumentsForwardedUnmodified(t *testing.T) {
	echo := NewBehavior("Echo")
	echo.AddMethod("join:", func(self *Receiver, args []Value) Value {
		return ArrayValue(args...)
	}, 1)

	r := NewReceiver("echo_1")
	r.SetTarget("impl", echo)
	if _, err := Install(r, "impl"); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	v, err := r.Call("join:", IntValue(1), StringValue("two"), BoolValue(true))
	if err != nil {
		t.Fatalf("join: failed: %v", err)
	}
	if len(v.ArrayVal) != 3 {
		t.Fatalf("Expected 3 args forwarded, got %d", len(v.ArrayVal))
	}
	if v.ArrayVal[0].AsInt() != 1 || v.ArrayVal[1].AsString() != "two" || !v.ArrayVal[2].AsBool() {
		t.Errorf("Args not forwarded positionally: %v", v.AsString())
	}
}

func TestMultipleSlots(t *testing.T) {
	greeter := NewBehavior("Greeter")
	greeter.AddMethod("greet", func(self *Receiver, args []Value) Value {
		return StringValue("hello")
	}, 0)

	parter := NewBehavior("Parter")
	parter.AddMethod("part", func(self *Receiver, args []Value) Value {
		return StringValue("goodbye")
	}, 0)

	r := NewReceiver("host_1")
	r.SetTarget("greeting", greeter)
	r.SetTarget("parting", parter)

	if _, err := Install(r, "greeting"); err != nil {
		t.Fatalf("Install greeting failed: %v", err)
	}
	if _, err := Install(r, "parting"); err != nil {
		t.Fatalf("Install parting failed: %v", err)
	}

	if got := r.MustCall("greet").AsString(); got != "hello" {
		t.Errorf("greet = %q, want hello", got)
	}
	if got := r.MustCall("part").AsString(); got != "goodbye" {
		t.Errorf("part = %q, want goodbye", got)
	}

	if slot, _ := r.Delegates("greet"); slot != "greeting" {
		t.Errorf("greet bound to %q, want greeting", slot)
	}
	if slot, _ := r.Delegates("part"); slot != "parting" {
		t.Errorf("part bound to %q, want parting", slot)
	}
}

func TestResponds(t *testing.T) {
	alive, _ := aliveDead()

	r := NewReceiver("cell_6")
	if r.Responds("isLive") {
		t.Errorf("Responds true before install")
	}
	if _, err := Install(r, "state", "isLive"); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if r.Responds("isLive") {
		t.Errorf("Responds true with empty slot")
	}
	r.SetTarget("state", alive)
	if !r.Responds("isLive") {
		t.Errorf("Responds false with live target")
	}
}

// TestConcurrentRetargeting exercises the atomic-publish contract: calls
// racing slot reassignment always land on one coherent target, never
// half of each.
func TestConcurrentRetargeting(t *testing.T) {
	alive, dead := aliveDead()

	r := NewReceiver("cell_7")
	r.SetTarget("state", alive)
	if _, err := Install(r, "state"); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	flipped := make(chan struct{})

	go func() {
		defer close(flipped)
		flip := false
		for {
			select {
			case <-stop:
				return
			default:
			}
			if flip {
				r.SetTarget("state", alive)
			} else {
				r.SetTarget("state", dead)
			}
			flip = !flip
		}
	}()

	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if _, err := r.Call("isLive"); err != nil {
					t.Errorf("Dispatch failed under contention: %v", err)
					return
				}
			}
		}()
	}

	wg.Wait()
	close(stop)
	<-flipped
}
