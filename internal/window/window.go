// Package window decides, from wall-clock time alone, whether a student may
// enter an exam. Every function is pure: callers read the clock once and pass
// the same instant to every check made for a request.
package window

import (
	"errors"
	"fmt"
	"time"
)

// Reason explains a Decision.
type Reason string

const (
	ReasonOpen         Reason = "OPEN"
	ReasonNotYetOpen   Reason = "NOT_YET_OPEN"
	ReasonWindowClosed Reason = "WINDOW_CLOSED"
)

var (
	ErrNotYetOpen   = errors.New("entry window has not opened yet")
	ErrWindowClosed = errors.New("entry window has closed")
)

// Decision is the outcome of Evaluate. Boundary is the window start when the
// window is not open yet and the window end when it has closed.
type Decision struct {
	Allowed  bool
	Reason   Reason
	Boundary time.Time
}

// Violation is the error form of a rejected Decision.
type Violation struct {
	Reason   Reason
	Boundary time.Time
}

func (v *Violation) Error() string {
	switch v.Reason {
	case ReasonNotYetOpen:
		return fmt.Sprintf("the login window has not opened yet, try again after %s", v.Boundary.UTC().Format(time.RFC3339))
	case ReasonWindowClosed:
		return fmt.Sprintf("the login window has closed, entry was allowed until %s", v.Boundary.UTC().Format(time.RFC3339))
	default:
		return "entry window violation"
	}
}

func (v *Violation) Unwrap() error {
	switch v.Reason {
	case ReasonNotYetOpen:
		return ErrNotYetOpen
	case ReasonWindowClosed:
		return ErrWindowClosed
	default:
		return nil
	}
}

// Err returns nil for an allowed decision and a *Violation otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &Violation{Reason: d.Reason, Boundary: d.Boundary}
}

// Bounds returns the inclusive entry window
// [scheduledAt - loginWindowStart, scheduledAt + lateEntryWindowEnd].
// Negative minute values count as zero.
func Bounds(scheduledAt time.Time, loginWindowStart, lateEntryWindowEnd int) (start, end time.Time) {
	start = scheduledAt.Add(-minutes(loginWindowStart))
	end = scheduledAt.Add(minutes(lateEntryWindowEnd))
	return start, end
}

// Evaluate reports whether now falls inside the entry window.
func Evaluate(now, scheduledAt time.Time, loginWindowStart, lateEntryWindowEnd int) Decision {
	start, end := Bounds(scheduledAt, loginWindowStart, lateEntryWindowEnd)

	switch {
	case now.Before(start):
		return Decision{Reason: ReasonNotYetOpen, Boundary: start}
	case now.After(end):
		return Decision{Reason: ReasonWindowClosed, Boundary: end}
	default:
		return Decision{Allowed: true, Reason: ReasonOpen}
	}
}

// IsListable reports whether an exam still belongs in a student's available
// list. There is no lower bound: exams that have not opened yet are listed.
func IsListable(now, scheduledAt time.Time, lateEntryWindowEnd int) bool {
	_, end := Bounds(scheduledAt, 0, lateEntryWindowEnd)
	return now.Before(end)
}

func minutes(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	return time.Duration(n) * time.Minute
}
