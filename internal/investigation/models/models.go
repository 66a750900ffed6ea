// Package models holds the investigation record, its lifecycle machine, and
// the patch semantics used by the optimistic-concurrency update path.
package models

import (
	"fmt"
	"time"

	dErrors "fraudlens/pkg/domain-errors"
	pstrings "fraudlens/pkg/platform/strings"
)

// Stage is the investigation lifecycle stage.
type Stage string

const (
	StageCreated    Stage = "CREATED"
	StageSettings   Stage = "SETTINGS"
	StageInProgress Stage = "IN_PROGRESS"
	StageCompleted  Stage = "COMPLETED"
	StageError      Stage = "ERROR"
	StageCancelled  Stage = "CANCELLED"
)

// Terminal reports whether no further transitions are accepted.
func (s Stage) Terminal() bool {
	switch s {
	case StageCompleted, StageError, StageCancelled:
		return true
	}
	return false
}

// CanTransition reports whether moving to the target stage is legal:
// CREATED → SETTINGS → IN_PROGRESS → {COMPLETED | ERROR | CANCELLED}.
func (s Stage) CanTransition(to Stage) bool {
	switch s {
	case StageCreated:
		return to == StageSettings
	case StageSettings:
		return to == StageInProgress
	case StageInProgress:
		return to == StageCompleted || to == StageError || to == StageCancelled
	}
	return false
}

// ToolStatus is the execution state of one tool run.
type ToolStatus string

const (
	ToolQueued    ToolStatus = "queued"
	ToolRunning   ToolStatus = "running"
	ToolCompleted ToolStatus = "completed"
	ToolFailed    ToolStatus = "failed"
	ToolSkipped   ToolStatus = "skipped"
)

// Terminal reports whether the status admits no further updates.
func (s ToolStatus) Terminal() bool {
	switch s {
	case ToolCompleted, ToolFailed, ToolSkipped:
		return true
	}
	return false
}

// ToolExecution is one ledger entry. Entries are created when an agent is
// dispatched, mutated only by that agent's worker, and never deleted.
type ToolExecution struct {
	ID          string      `json:"id"`
	ToolName    string      `json:"tool_name"`
	Domain      string      `json:"domain"`
	Status      ToolStatus  `json:"status"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Result      *ToolResult `json:"result,omitempty"`
}

// ToolResult is the structured outcome of a completed tool run.
type ToolResult struct {
	Findings  []string       `json:"findings,omitempty"`
	RiskScore float64        `json:"risk_score"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Settings captures what the investigation covers.
type Settings struct {
	Entities        []string `json:"entities"`
	TimeRangeDays   int      `json:"time_range_days"`
	Tools           []string `json:"tools,omitempty"`
	CorrelationMode string   `json:"correlation_mode,omitempty"`
}

// Normalize trims and deduplicates the list fields. Tool names are
// case-insensitive, entity IDs are not.
func (s *Settings) Normalize() {
	s.Entities = pstrings.DedupeAndTrim(s.Entities)
	s.Tools = pstrings.DedupeAndTrimLower(s.Tools)
}

// Validate rejects settings that cannot produce a meaningful investigation.
func (s Settings) Validate() error {
	if len(s.Entities) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one entity is required")
	}
	if s.TimeRangeDays <= 0 {
		return dErrors.New(dErrors.CodeValidation, "time_range_days must be positive")
	}
	return nil
}

// Progress tracks partial completion across phases and tools.
type Progress struct {
	PercentComplete float64             `json:"percent_complete"`
	CurrentPhase    string              `json:"current_phase,omitempty"`
	ToolExecutions  []ToolExecution     `json:"tool_executions,omitempty"`
	PhaseProgress   map[string]float64  `json:"phase_progress,omitempty"`
	DomainFindings  map[string][]string `json:"domain_findings,omitempty"`
}

// Results holds the final verdict once the investigation completes.
type Results struct {
	RiskScore      float64             `json:"risk_score"`
	Findings       []string            `json:"findings,omitempty"`
	DomainFindings map[string][]string `json:"domain_findings,omitempty"`
}

// Investigation is the root record. Version increases by exactly one per
// accepted mutation; a stale version observed by a reader is evidence of a
// lost update and must trigger a re-read, never an overwrite.
type Investigation struct {
	ID        string    `json:"investigation_id"`
	OwnerID   string    `json:"owner_id"`
	Stage     Stage     `json:"lifecycle_stage"`
	Status    string    `json:"status"`
	Settings  Settings  `json:"settings"`
	Progress  Progress  `json:"progress"`
	Results   *Results  `json:"results,omitempty"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Patch is one requested mutation. Nil fields are left untouched; maps merge
// key-wise; tool executions upsert by id.
type Patch struct {
	Stage           *Stage              `json:"lifecycle_stage,omitempty"`
	Settings        *Settings           `json:"settings,omitempty"`
	Status          *string             `json:"status,omitempty"`
	CurrentPhase    *string             `json:"current_phase,omitempty"`
	PercentComplete *float64            `json:"percent_complete,omitempty"`
	PhaseProgress   map[string]float64  `json:"phase_progress,omitempty"`
	ToolExecutions  []ToolExecution     `json:"tool_executions,omitempty"`
	DomainFindings  map[string][]string `json:"domain_findings,omitempty"`
	Results         *Results            `json:"results,omitempty"`
}

// Apply merges the patch into the investigation in place. The caller owns
// version arithmetic and concurrency control; Apply only enforces lifecycle
// legality and recomputes derived progress.
func (inv *Investigation) Apply(patch Patch, now time.Time) error {
	if inv.Stage.Terminal() {
		return dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("stage %s is terminal", inv.Stage))
	}

	if patch.Stage != nil && *patch.Stage != inv.Stage {
		if !inv.Stage.CanTransition(*patch.Stage) {
			return dErrors.New(dErrors.CodeInvariantViolation,
				fmt.Sprintf("illegal stage transition %s -> %s", inv.Stage, *patch.Stage))
		}
		inv.Stage = *patch.Stage
	}

	if patch.Settings != nil {
		patch.Settings.Normalize()
		if err := patch.Settings.Validate(); err != nil {
			return err
		}
		inv.Settings = *patch.Settings
	}

	if patch.Status != nil {
		inv.Status = *patch.Status
	}
	if patch.CurrentPhase != nil {
		inv.Progress.CurrentPhase = *patch.CurrentPhase
	}

	for phase, pct := range patch.PhaseProgress {
		if inv.Progress.PhaseProgress == nil {
			inv.Progress.PhaseProgress = make(map[string]float64)
		}
		inv.Progress.PhaseProgress[phase] = pct
	}

	for domain, findings := range patch.DomainFindings {
		if inv.Progress.DomainFindings == nil {
			inv.Progress.DomainFindings = make(map[string][]string)
		}
		inv.Progress.DomainFindings[domain] = append(inv.Progress.DomainFindings[domain], findings...)
	}

	for _, exec := range patch.ToolExecutions {
		if err := inv.upsertToolExecution(exec); err != nil {
			return err
		}
	}

	if patch.PercentComplete != nil {
		inv.Progress.PercentComplete = *patch.PercentComplete
	} else {
		inv.Progress.PercentComplete = inv.Progress.completionRatio() * 100
	}

	if patch.Results != nil {
		results := *patch.Results
		inv.Results = &results
	}

	inv.UpdatedAt = now
	return nil
}

func (inv *Investigation) upsertToolExecution(exec ToolExecution) error {
	if exec.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "tool execution id is required")
	}
	for i, existing := range inv.Progress.ToolExecutions {
		if existing.ID == exec.ID {
			if existing.Status.Terminal() && exec.Status != existing.Status {
				return dErrors.New(dErrors.CodeInvariantViolation,
					fmt.Sprintf("tool execution %s already %s", exec.ID, existing.Status))
			}
			inv.Progress.ToolExecutions[i] = exec
			return nil
		}
	}
	inv.Progress.ToolExecutions = append(inv.Progress.ToolExecutions, exec)
	return nil
}

// completionRatio derives overall progress from the tool ledger: the fraction
// of executions in a terminal status. An empty ledger reports zero.
func (p Progress) completionRatio() float64 {
	if len(p.ToolExecutions) == 0 {
		return 0
	}
	done := 0
	for _, exec := range p.ToolExecutions {
		if exec.Status.Terminal() {
			done++
		}
	}
	return float64(done) / float64(len(p.ToolExecutions))
}

// Clone deep-copies the investigation so stores never hand out aliased state.
func (inv *Investigation) Clone() *Investigation {
	out := *inv

	out.Settings.Entities = append([]string(nil), inv.Settings.Entities...)
	out.Settings.Tools = append([]string(nil), inv.Settings.Tools...)

	out.Progress.ToolExecutions = make([]ToolExecution, len(inv.Progress.ToolExecutions))
	for i, exec := range inv.Progress.ToolExecutions {
		out.Progress.ToolExecutions[i] = exec.clone()
	}
	out.Progress.PhaseProgress = cloneFloatMap(inv.Progress.PhaseProgress)
	out.Progress.DomainFindings = cloneFindings(inv.Progress.DomainFindings)

	if inv.Results != nil {
		results := *inv.Results
		results.Findings = append([]string(nil), inv.Results.Findings...)
		results.DomainFindings = cloneFindings(inv.Results.DomainFindings)
		out.Results = &results
	}
	return &out
}

func (e ToolExecution) clone() ToolExecution {
	out := e
	if e.StartedAt != nil {
		t := *e.StartedAt
		out.StartedAt = &t
	}
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		out.CompletedAt = &t
	}
	if e.Result != nil {
		result := *e.Result
		result.Findings = append([]string(nil), e.Result.Findings...)
		if e.Result.Metadata != nil {
			result.Metadata = make(map[string]any, len(e.Result.Metadata))
			for k, v := range e.Result.Metadata {
				result.Metadata[k] = v
			}
		}
		out.Result = &result
	}
	return out
}

func cloneFloatMap(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneFindings(in map[string][]string) map[string][]string {
	if in == nil {
		return nil
	}
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}
