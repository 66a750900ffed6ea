package agentpool

import (
	dErrors "fraudlens/pkg/domain-errors"
)

// Task is a unit of coordinated work dispatched across the pool.
type Task struct {
	ID                   string         `json:"task_id"`
	Type                 string         `json:"task_type"`
	Complexity           float64        `json:"complexity"`
	RequiredCapabilities []string       `json:"required_capabilities"`
	Input                map[string]any `json:"input"`
}

// Validate rejects tasks the pool cannot route.
func (t Task) Validate() error {
	if t.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "task_id is required")
	}
	if t.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "task_type is required")
	}
	if t.Complexity < 0 || t.Complexity > 1 {
		return dErrors.New(dErrors.CodeValidation, "complexity must be within [0,1]")
	}
	if len(t.RequiredCapabilities) == 0 {
		return dErrors.New(dErrors.CodeValidation, "required_capabilities must not be empty")
	}
	return nil
}

// Matches reports whether the agent is eligible for this task: the agent's
// specializations must intersect the required capabilities. Partial coverage
// is enough; an agent need not satisfy every requirement.
func (t Task) Matches(c Capabilities) bool {
	for _, required := range t.RequiredCapabilities {
		if c.Specializes(required) {
			return true
		}
	}
	return false
}
