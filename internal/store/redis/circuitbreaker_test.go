package redis

import (
	"errors"
	"testing"
	"time"
)

var errProbe = errors.New("redis down")

func failN(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		cb.Execute(func() error { return errProbe })
	}
}

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb := NewCircuitBreaker(3, 100*time.Millisecond)
	if cb.CurrentState() != StateClosed {
		t.Errorf("state = %v, want closed", cb.CurrentState())
	}
}

func TestCircuitBreaker_TripsAndRejects(t *testing.T) {
	cb := NewCircuitBreaker(3, 100*time.Millisecond)

	failN(cb, 3)
	if cb.CurrentState() != StateOpen {
		t.Fatalf("state = %v, want open after 3 failures", cb.CurrentState())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if err != ErrCircuitOpen {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("fn must not run while the breaker is open")
	}
}

func TestCircuitBreaker_ProbeCloses(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond)
	failN(cb, 2)

	time.Sleep(60 * time.Millisecond)

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if cb.CurrentState() != StateClosed {
		t.Errorf("state = %v, want closed after successful probe", cb.CurrentState())
	}
}

func TestCircuitBreaker_ProbeFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond)
	failN(cb, 2)

	time.Sleep(60 * time.Millisecond)
	failN(cb, 1)

	if cb.CurrentState() != StateOpen {
		t.Errorf("state = %v, want open after failed probe", cb.CurrentState())
	}
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker(3, 100*time.Millisecond)

	failN(cb, 2)
	cb.Execute(func() error { return nil })
	failN(cb, 2)

	if cb.CurrentState() != StateClosed {
		t.Errorf("state = %v, want closed (failure count should reset on success)", cb.CurrentState())
	}
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var transitions []State
	cb := NewCircuitBreaker(1, 50*time.Millisecond)
	cb.OnStateChange = func(from, to State) {
		transitions = append(transitions, to)
	}

	failN(cb, 1)
	if len(transitions) != 1 || transitions[0] != StateOpen {
		t.Fatalf("transitions = %v, want [open]", transitions)
	}

	time.Sleep(60 * time.Millisecond)
	cb.Execute(func() error { return nil })

	if len(transitions) != 3 || transitions[1] != StateHalfOpen || transitions[2] != StateClosed {
		t.Fatalf("transitions = %v, want [open half-open closed]", transitions)
	}
}
