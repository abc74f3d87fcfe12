package gateway

import (
	"fmt"
	"strings"
)

// Phase is a step in the life of one request.
type Phase string

const (
	PhaseReceived  Phase = "RECEIVED"
	PhaseParsed    Phase = "PARSED"
	PhaseValidated Phase = "VALIDATED"
	PhaseRejected  Phase = "REJECTED"
	PhaseExecuting Phase = "EXECUTING"
	PhaseSucceeded Phase = "SUCCEEDED"
	PhaseFailed    Phase = "FAILED"
	PhaseResponded Phase = "RESPONDED"
)

// transitions lists the phases reachable from each phase. RESPONDED is
// terminal and nothing leads back to EXECUTING.
var transitions = map[Phase][]Phase{
	PhaseReceived:  {PhaseParsed},
	PhaseParsed:    {PhaseValidated, PhaseRejected},
	PhaseValidated: {PhaseExecuting},
	PhaseRejected:  {PhaseResponded},
	PhaseExecuting: {PhaseSucceeded, PhaseFailed},
	PhaseSucceeded: {PhaseResponded},
	PhaseFailed:    {PhaseResponded},
	PhaseResponded: nil,
}

// CanTransition reports whether to may follow from.
func CanTransition(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether p has no successors.
func (p Phase) IsTerminal() bool {
	next, ok := transitions[p]
	return ok && len(next) == 0
}

// trace records the phases one request passed through.
type trace struct {
	phases []Phase
}

func newTrace() *trace {
	return &trace{phases: []Phase{PhaseReceived}}
}

func (t *trace) current() Phase {
	return t.phases[len(t.phases)-1]
}

// advance moves to the next phase. An illegal move is a programming error
// in the handler and panics.
func (t *trace) advance(to Phase) {
	if !CanTransition(t.current(), to) {
		panic(fmt.Sprintf("gateway: illegal phase transition %s -> %s", t.current(), to))
	}
	t.phases = append(t.phases, to)
}

// outcome returns the phase that decided the response.
func (t *trace) outcome() Phase {
	for i := len(t.phases) - 1; i >= 0; i-- {
		switch t.phases[i] {
		case PhaseRejected, PhaseSucceeded, PhaseFailed:
			return t.phases[i]
		}
	}
	return t.current()
}

func (t *trace) String() string {
	parts := make([]string, len(t.phases))
	for i, p := range t.phases {
		parts[i] = string(p)
	}
	return strings.Join(parts, ">")
}
