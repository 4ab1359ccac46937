package prediction

import (
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/arena-sync/internal/core"
	"github.com/vovakirdan/arena-sync/internal/state"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestPredictAndConfirm(t *testing.T) {
	c := New()
	b := &state.Building{RenderID: 7, Kind: 2, Pos: core.V(10, 10)}

	if err := c.Predict(b, t0); err != nil {
		t.Fatalf("Predict() failed: %v", err)
	}
	if c.Pending() != b {
		t.Error("Pending() should return the predicted building")
	}

	if _, ok := c.Confirm(3, t0.Add(100*time.Millisecond)); ok {
		t.Error("Confirm() with a different kind should not match")
	}
	got, ok := c.Confirm(2, t0.Add(100*time.Millisecond))
	if !ok || got != b {
		t.Fatal("Confirm() should return the cached building")
	}
	if c.Pending() != nil {
		t.Error("Pending() should be nil once confirmed")
	}
	if _, ok := c.Confirm(2, t0.Add(101*time.Millisecond)); ok {
		t.Error("a prediction can only be confirmed once")
	}

	if out := c.Expire(t0.Add(110 * time.Millisecond)); out != Waiting {
		t.Errorf("Expire() = %v before ClearDelay, expected waiting", out)
	}
	if out := c.Expire(t0.Add(120 * time.Millisecond)); out != Cleared {
		t.Errorf("Expire() = %v after ClearDelay, expected cleared", out)
	}
	if out := c.Expire(t0.Add(time.Second)); out != Idle {
		t.Errorf("Expire() = %v on empty slot, expected idle", out)
	}
}

func TestUnconfirmedExpiresAfterGrace(t *testing.T) {
	c := New()
	if err := c.Predict(&state.Building{Kind: 1}, t0); err != nil {
		t.Fatalf("Predict() failed: %v", err)
	}

	if out := c.Expire(t0.Add(499 * time.Millisecond)); out != Waiting {
		t.Errorf("Expire() = %v inside grace, expected waiting", out)
	}
	if out := c.Expire(t0.Add(Grace)); out != Expired {
		t.Errorf("Expire() = %v at grace, expected expired", out)
	}
	if c.Pending() != nil {
		t.Error("expired prediction should not be pending")
	}
}

func TestSecondPredictionRejectedWhilePending(t *testing.T) {
	c := New()
	first := &state.Building{Kind: 1}
	if err := c.Predict(first, t0); err != nil {
		t.Fatalf("Predict() failed: %v", err)
	}
	if err := c.Predict(&state.Building{Kind: 2}, t0.Add(time.Millisecond)); !errors.Is(err, ErrPending) {
		t.Errorf("Predict() = %v, expected ErrPending", err)
	}
	if c.Pending() != first {
		t.Error("the first prediction should be kept")
	}

	// Once confirmed, a new prediction may take the slot before it clears.
	c.Confirm(1, t0.Add(5*time.Millisecond))
	second := &state.Building{Kind: 2}
	if err := c.Predict(second, t0.Add(6*time.Millisecond)); err != nil {
		t.Fatalf("Predict() after confirm failed: %v", err)
	}
	if c.Pending() != second {
		t.Error("Pending() should return the new prediction")
	}
}

func TestReject(t *testing.T) {
	c := New()
	b := &state.Building{Kind: 4}
	c.Predict(b, t0)

	got, ok := c.Reject()
	if !ok || got != b {
		t.Fatal("Reject() should return the pending building")
	}
	if _, ok := c.Reject(); ok {
		t.Error("Reject() on an empty slot should report false")
	}
	if err := c.Predict(&state.Building{Kind: 4}, t0); err != nil {
		t.Errorf("Predict() after reject failed: %v", err)
	}

	c.Reset()
	if c.Pending() != nil {
		t.Error("Reset() should empty the slot")
	}
}
