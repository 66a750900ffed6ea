// Package audit captures structured events from the analysis pipeline and
// fans them out to persistence and external sinks.
package audit

import "time"

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance, such
	// as human review decisions on fraud cases. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring,
	// such as escalations and failed reviewer authentication.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine pipeline activity useful for
	// debugging. Can be sampled, short retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    Action        `json:"action"`
	CaseID    string        `json:"case_id,omitempty"`
	EntityID  string        `json:"entity_id,omitempty"`
	ActorID   string        `json:"actor_id,omitempty"`
	Decision  string        `json:"decision,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
}

// Action names what happened.
type Action string

const (
	// Analysis pipeline events
	ActionAnalysisStarted   Action = "analysis_started"
	ActionAnalysisCompleted Action = "analysis_completed"
	ActionAnalysisFailed    Action = "analysis_failed"

	// Investigation events
	ActionInvestigationCreated Action = "investigation_created"
	ActionInvestigationUpdated Action = "investigation_updated"

	// Review events
	ActionCaseEscalated      Action = "case_escalated"
	ActionReviewCompleted    Action = "review_completed"
	ActionReviewerAuthFailed Action = "reviewer_auth_failed"

	// Pool events
	ActionAgentRegistered   Action = "agent_registered"
	ActionAgentUnregistered Action = "agent_unregistered"
)

// actionCategories maps each action to its category. Unknown actions
// default to operations.
var actionCategories = map[Action]EventCategory{
	ActionAnalysisStarted:   CategoryOperations,
	ActionAnalysisCompleted: CategoryOperations,
	ActionAnalysisFailed:    CategoryOperations,

	ActionInvestigationCreated: CategoryOperations,
	ActionInvestigationUpdated: CategoryOperations,

	ActionCaseEscalated:      CategorySecurity,
	ActionReviewCompleted:    CategoryCompliance,
	ActionReviewerAuthFailed: CategorySecurity,

	ActionAgentRegistered:   CategoryOperations,
	ActionAgentUnregistered: CategoryOperations,
}

// Category returns the EventCategory for this action.
func (a Action) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}
