package coordinator

import (
	"fmt"
	"strings"
)

// AgentFailure records one agent's failure inside an aggregate error.
type AgentFailure struct {
	Agent string
	Err   error
}

// InitializationError aggregates per-agent failures from Initialize or
// Shutdown. The healthy agents stay running; callers inspect Failures to
// learn which subset is degraded.
type InitializationError struct {
	Op       string
	Failures []AgentFailure
}

func (e *InitializationError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.Agent, f.Err)
	}
	return fmt.Sprintf("%s failed for %d agent(s): %s", e.Op, len(e.Failures), strings.Join(parts, "; "))
}

// Unwrap exposes the per-agent causes to errors.Is/As chains.
func (e *InitializationError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// AnalysisError aggregates the domain failures that aborted an
// analyze-entity call, naming each failing domain.
type AnalysisError struct {
	EntityID string
	Phase    string
	Failures []AgentFailure
}

func (e *AnalysisError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.Agent, f.Err)
	}
	return fmt.Sprintf("analysis of %s failed during %s: %s", e.EntityID, e.Phase, strings.Join(parts, "; "))
}

// Unwrap exposes the per-domain causes to errors.Is/As chains.
func (e *AnalysisError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Domains lists the failing domains in enumeration order.
func (e *AnalysisError) Domains() []string {
	out := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Agent
	}
	return out
}
