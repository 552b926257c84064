package logic

import (
	"math/rand"
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestCoolingFirstSwitchImmediate(t *testing.T) {
	h := NewHysteresis(time.Second, 9*time.Second)

	if d := h.Cooling(8, 7, 4, t0); d != TurnOn {
		t.Fatalf("expected TurnOn on first evaluation, got %s", d)
	}
	if !h.On() {
		t.Error("controller should be ON")
	}
	if !h.ChangedAt().Equal(t0) {
		t.Errorf("expected changedAt %v, got %v", t0, h.ChangedAt())
	}
}

func TestCoolingThresholds(t *testing.T) {
	h := NewHysteresis(time.Second, 9*time.Second)

	// Exactly at startOn is not above it.
	if d := h.Cooling(7, 7, 4, t0); d != NoDecision {
		t.Errorf("temp == startOn: expected NoDecision, got %s", d)
	}
	// Inside the band while OFF.
	if d := h.Cooling(5, 7, 4, t0); d != NoDecision {
		t.Errorf("inside band: expected NoDecision, got %s", d)
	}

	h.Cooling(7.5, 7, 4, t0)
	now := t0.Add(2 * time.Second)
	// Inside the band while ON stays ON.
	if d := h.Cooling(5, 7, 4, now); d != NoDecision {
		t.Errorf("inside band while ON: expected NoDecision, got %s", d)
	}
	// Exactly at stopOff is not below it.
	if d := h.Cooling(4, 7, 4, now); d != NoDecision {
		t.Errorf("temp == stopOff: expected NoDecision, got %s", d)
	}
	if d := h.Cooling(3.9, 7, 4, now); d != TurnOff {
		t.Errorf("below stopOff: expected TurnOff, got %s", d)
	}
}

func TestCoolingMinOnDwell(t *testing.T) {
	h := NewHysteresis(time.Second, 9*time.Second)
	h.Cooling(10, 7, 4, t0)

	if d := h.Cooling(-20, 7, 4, t0.Add(999*time.Millisecond)); d != NoDecision {
		t.Errorf("before min-on: expected NoDecision, got %s", d)
	}
	if d := h.Cooling(-20, 7, 4, t0.Add(time.Second)); d != TurnOff {
		t.Errorf("at min-on: expected TurnOff, got %s", d)
	}
}

func TestCoolingMinOffDwell(t *testing.T) {
	h := NewHysteresis(time.Second, 9*time.Second)
	h.Cooling(10, 7, 4, t0)
	off := t0.Add(2 * time.Second)
	h.Cooling(0, 7, 4, off)

	if d := h.Cooling(50, 7, 4, off.Add(8*time.Second)); d != NoDecision {
		t.Errorf("before min-off: expected NoDecision, got %s", d)
	}
	if d := h.Cooling(50, 7, 4, off.Add(9*time.Second)); d != TurnOn {
		t.Errorf("at min-off: expected TurnOn, got %s", d)
	}
}

func TestDefrostThresholds(t *testing.T) {
	h := NewHysteresis(time.Second, 9*time.Second)

	if d := h.Defrost(-10, -10, -8, t0); d != NoDecision {
		t.Errorf("evap == startOn: expected NoDecision, got %s", d)
	}
	if d := h.Defrost(-11, -10, -8, t0); d != TurnOn {
		t.Fatalf("below startOn: expected TurnOn, got %s", d)
	}
	// While active, further cold readings do not re-fire.
	if d := h.Defrost(-15, -10, -8, t0.Add(5*time.Second)); d != NoDecision {
		t.Errorf("already active: expected NoDecision, got %s", d)
	}
	if d := h.Defrost(-8, -10, -8, t0.Add(5*time.Second)); d != NoDecision {
		t.Errorf("evap == stopOff: expected NoDecision, got %s", d)
	}
	if d := h.Defrost(-7, -10, -8, t0.Add(5*time.Second)); d != TurnOff {
		t.Errorf("above stopOff: expected TurnOff, got %s", d)
	}
	// Idle and warm: nothing to stop.
	if d := h.Defrost(5, -10, -8, t0.Add(30*time.Second)); d != NoDecision {
		t.Errorf("idle above stopOff: expected NoDecision, got %s", d)
	}
}

func TestDefrostDwell(t *testing.T) {
	h := NewHysteresis(time.Second, 9*time.Second)
	h.Defrost(-20, -10, -8, t0)

	if d := h.Defrost(0, -10, -8, t0.Add(500*time.Millisecond)); d != NoDecision {
		t.Errorf("stop before min-on: expected NoDecision, got %s", d)
	}
	stop := t0.Add(time.Second)
	if d := h.Defrost(0, -10, -8, stop); d != TurnOff {
		t.Fatalf("stop at min-on: expected TurnOff, got %s", d)
	}
	if d := h.Defrost(-20, -10, -8, stop.Add(8*time.Second)); d != NoDecision {
		t.Errorf("start before min-off: expected NoDecision, got %s", d)
	}
	if d := h.Defrost(-20, -10, -8, stop.Add(9*time.Second)); d != TurnOn {
		t.Errorf("start at min-off: expected TurnOn, got %s", d)
	}
}

func TestForceRestartsDwell(t *testing.T) {
	h := NewHysteresis(time.Second, 9*time.Second)
	h.Cooling(10, 7, 4, t0)

	forced := t0.Add(3 * time.Second)
	h.Force(false, forced)
	if h.On() {
		t.Fatal("Force(false) should switch OFF")
	}
	if d := h.Cooling(10, 7, 4, forced.Add(5*time.Second)); d != NoDecision {
		t.Errorf("min-off must count from forced change, got %s", d)
	}
	if d := h.Cooling(10, 7, 4, forced.Add(9*time.Second)); d != TurnOn {
		t.Errorf("expected TurnOn after min-off from forced change, got %s", d)
	}
}

func TestForceUnchangedKeepsTimestamp(t *testing.T) {
	h := NewHysteresis(time.Second, 9*time.Second)
	h.Force(false, t0.Add(time.Hour))
	if !h.ChangedAt().IsZero() {
		t.Errorf("Force with same value must not record a transition, got %v", h.ChangedAt())
	}
}

// Random input sequences must never produce a controller transition inside
// the dwell, counted from the previous transition whether decided or forced.
func TestCoolingDwellProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	minOn, minOff := time.Second, 9*time.Second

	for run := 0; run < 50; run++ {
		h := NewHysteresis(minOn, minOff)
		now := t0
		var last time.Time

		for i := 0; i < 500; i++ {
			now = now.Add(time.Duration(rng.Intn(1500)) * time.Millisecond)
			if rng.Intn(20) == 0 {
				before := h.On()
				h.Force(rng.Intn(2) == 0, now)
				if h.On() != before {
					last = now
				}
				continue
			}

			wasOn := h.On()
			d := h.Cooling(rng.Float64()*20-5, 7, 4, now)
			if d == NoDecision {
				continue
			}
			if !last.IsZero() {
				gap := now.Sub(last)
				if wasOn && gap < minOn {
					t.Fatalf("run %d: ON->OFF after %v", run, gap)
				}
				if !wasOn && gap < minOff {
					t.Fatalf("run %d: OFF->ON after %v", run, gap)
				}
			}
			last = now
		}
	}
}
