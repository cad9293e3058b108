// Package guard bounds the number of costed operations per run. Scoring and
// model invocations pass through a counter check so an anomalous run
// escalates to a human instead of looping silently.
package guard

import "fmt"

// Counter names used in limit-exceeded messages and route labels.
const (
	CounterToolCalls  = "tool_call"
	CounterModelCalls = "model_call"
)

// LimitExceededError reports a breached call ceiling. The caller must treat
// it as an abort: mark the run ESCALATE and stop pipeline progression. The
// operation that would have exceeded the ceiling is never performed.
type LimitExceededError struct {
	Counter string
	Limit   int
	Current int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("limit of %d %s invocations exceeded (current: %d); run aborted",
		e.Limit, e.Counter, e.Current)
}

// RouteLabel returns the route label recorded when this counter aborts a run.
func (e *LimitExceededError) RouteLabel() string {
	return e.Counter + "_limit_exceeded"
}

// CheckAndIncrement increments *counter, then fails if it exceeds the
// ceiling. Calls 1..ceiling succeed; call ceiling+1 always fails. The counter
// is never decremented, so the overage stays visible in the audit record.
func CheckAndIncrement(name string, counter *int, ceiling int) error {
	*counter++
	if *counter > ceiling {
		return &LimitExceededError{Counter: name, Limit: ceiling, Current: *counter}
	}
	return nil
}
