package window

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestEvaluateBoundaries(t *testing.T) {
	start := t0.Add(-15 * time.Minute)
	end := t0.Add(30 * time.Minute)

	tests := []struct {
		name     string
		now      time.Time
		allowed  bool
		reason   Reason
		boundary time.Time
	}{
		{name: "exactly at window start", now: start, allowed: true, reason: ReasonOpen},
		{name: "exactly at window end", now: end, allowed: true, reason: ReasonOpen},
		{name: "at scheduled time", now: t0, allowed: true, reason: ReasonOpen},
		{name: "1ms before start", now: start.Add(-time.Millisecond), reason: ReasonNotYetOpen, boundary: start},
		{name: "1ms after end", now: end.Add(time.Millisecond), reason: ReasonWindowClosed, boundary: end},
		{name: "a day early", now: t0.Add(-24 * time.Hour), reason: ReasonNotYetOpen, boundary: start},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.now, t0, 15, 30)
			if d.Allowed != tt.allowed || d.Reason != tt.reason {
				t.Fatalf("Evaluate = %+v, want allowed=%v reason=%s", d, tt.allowed, tt.reason)
			}
			if !d.Boundary.Equal(tt.boundary) {
				t.Fatalf("Boundary = %v, want %v", d.Boundary, tt.boundary)
			}
		})
	}
}

func TestDecisionErr(t *testing.T) {
	if err := Evaluate(t0, t0, 0, 0).Err(); err != nil {
		t.Fatalf("allowed decision returned error %v", err)
	}

	err := Evaluate(t0.Add(-time.Hour), t0, 10, 10).Err()
	if !errors.Is(err, ErrNotYetOpen) {
		t.Fatalf("err = %v, want ErrNotYetOpen", err)
	}
	var v *Violation
	if !errors.As(err, &v) || !v.Boundary.Equal(t0.Add(-10*time.Minute)) {
		t.Fatalf("violation = %+v", v)
	}

	err = Evaluate(t0.Add(time.Hour), t0, 10, 10).Err()
	if !errors.Is(err, ErrWindowClosed) {
		t.Fatalf("err = %v, want ErrWindowClosed", err)
	}
	if err.Error() != "the login window has closed, entry was allowed until 2026-03-10T09:10:00Z" {
		t.Fatalf("message = %q", err.Error())
	}
}

// Widening either window parameter never shrinks the allowed interval.
func TestEvaluateMonotonic(t *testing.T) {
	sizes := []int{0, 1, 5, 15, 60}
	offsets := []time.Duration{
		-2 * time.Hour, -61 * time.Minute, -15 * time.Minute, -time.Minute, -time.Millisecond,
		0, time.Millisecond, time.Minute, 15 * time.Minute, 61 * time.Minute, 2 * time.Hour,
	}

	for _, login := range sizes {
		for _, late := range sizes {
			for _, off := range offsets {
				now := t0.Add(off)
				if !Evaluate(now, t0, login, late).Allowed {
					continue
				}
				for _, wider := range sizes {
					if wider >= login && !Evaluate(now, t0, wider, late).Allowed {
						t.Fatalf("widening login %d->%d rejected now=%v", login, wider, off)
					}
					if wider >= late && !Evaluate(now, t0, login, wider).Allowed {
						t.Fatalf("widening late %d->%d rejected now=%v", late, wider, off)
					}
				}
			}
		}
	}
}

func TestNegativeMinutesCountAsZero(t *testing.T) {
	start, end := Bounds(t0, -5, -5)
	if !start.Equal(t0) || !end.Equal(t0) {
		t.Fatalf("Bounds = %v..%v, want %v..%v", start, end, t0, t0)
	}
}

func TestIsListable(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "long before start", now: t0.Add(-72 * time.Hour), want: true},
		{name: "29 minutes late", now: t0.Add(29 * time.Minute), want: true},
		{name: "exactly at deadline", now: t0.Add(30 * time.Minute), want: false},
		{name: "31 minutes late", now: t0.Add(31 * time.Minute), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsListable(tt.now, t0, 30); got != tt.want {
				t.Fatalf("IsListable = %v, want %v", got, tt.want)
			}
		})
	}
}
