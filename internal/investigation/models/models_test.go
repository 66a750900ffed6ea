package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInvestigation() *Investigation {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	return &Investigation{
		ID:      "inv-1",
		OwnerID: "analyst-7",
		Stage:   StageInProgress,
		Status:  "analyzing",
		Settings: Settings{
			Entities:      []string{"acct-42"},
			TimeRangeDays: 30,
		},
		Version:   3,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStageTransitions(t *testing.T) {
	assert.True(t, StageCreated.CanTransition(StageSettings))
	assert.True(t, StageSettings.CanTransition(StageInProgress))
	assert.True(t, StageInProgress.CanTransition(StageCompleted))
	assert.True(t, StageInProgress.CanTransition(StageError))
	assert.True(t, StageInProgress.CanTransition(StageCancelled))

	assert.False(t, StageCreated.CanTransition(StageInProgress), "stages may not be skipped")
	assert.False(t, StageCreated.CanTransition(StageCompleted))

	for _, terminal := range []Stage{StageCompleted, StageError, StageCancelled} {
		assert.True(t, terminal.Terminal())
		for _, to := range []Stage{StageCreated, StageSettings, StageInProgress, StageCompleted} {
			assert.False(t, terminal.CanTransition(to), "%s is terminal", terminal)
		}
	}
}

func TestSettingsNormalize(t *testing.T) {
	s := Settings{
		Entities: []string{"  acct-1 ", "acct-2", "acct-1", ""},
		Tools:    []string{"Location", "NETWORK", "location"},
	}
	s.Normalize()
	assert.Equal(t, []string{"acct-1", "acct-2"}, s.Entities)
	assert.Equal(t, []string{"location", "network"}, s.Tools)
}

func TestApply(t *testing.T) {
	now := time.Now()

	t.Run("merges progress fields", func(t *testing.T) {
		inv := newInvestigation()
		phase := "anomaly_detection"
		patch := Patch{
			CurrentPhase:   &phase,
			PhaseProgress:  map[string]float64{"data_retrieval": 100},
			DomainFindings: map[string][]string{"network": {"tor_exit_node"}},
		}
		require.NoError(t, inv.Apply(patch, now))
		assert.Equal(t, "anomaly_detection", inv.Progress.CurrentPhase)
		assert.Equal(t, 100.0, inv.Progress.PhaseProgress["data_retrieval"])
		assert.Equal(t, []string{"tor_exit_node"}, inv.Progress.DomainFindings["network"])
		assert.Equal(t, now, inv.UpdatedAt)
	})

	t.Run("appends domain findings instead of replacing", func(t *testing.T) {
		inv := newInvestigation()
		require.NoError(t, inv.Apply(Patch{DomainFindings: map[string][]string{"device": {"new_fingerprint"}}}, now))
		require.NoError(t, inv.Apply(Patch{DomainFindings: map[string][]string{"device": {"emulator_detected"}}}, now))
		assert.Equal(t, []string{"new_fingerprint", "emulator_detected"}, inv.Progress.DomainFindings["device"])
	})

	t.Run("upserts tool executions by id", func(t *testing.T) {
		inv := newInvestigation()
		require.NoError(t, inv.Apply(Patch{ToolExecutions: []ToolExecution{
			{ID: "te-1", ToolName: "geo_lookup", Domain: "location", Status: ToolQueued},
			{ID: "te-2", ToolName: "device_scan", Domain: "device", Status: ToolQueued},
		}}, now))
		require.NoError(t, inv.Apply(Patch{ToolExecutions: []ToolExecution{
			{ID: "te-1", ToolName: "geo_lookup", Domain: "location", Status: ToolCompleted},
		}}, now))

		require.Len(t, inv.Progress.ToolExecutions, 2)
		assert.Equal(t, ToolCompleted, inv.Progress.ToolExecutions[0].Status)
		assert.Equal(t, ToolQueued, inv.Progress.ToolExecutions[1].Status)
	})

	t.Run("recomputes percent complete from the ledger", func(t *testing.T) {
		inv := newInvestigation()
		require.NoError(t, inv.Apply(Patch{ToolExecutions: []ToolExecution{
			{ID: "te-1", Status: ToolCompleted},
			{ID: "te-2", Status: ToolRunning},
			{ID: "te-3", Status: ToolFailed},
			{ID: "te-4", Status: ToolQueued},
		}}, now))
		assert.Equal(t, 50.0, inv.Progress.PercentComplete)
	})

	t.Run("explicit percent complete wins", func(t *testing.T) {
		inv := newInvestigation()
		pct := 33.0
		require.NoError(t, inv.Apply(Patch{PercentComplete: &pct}, now))
		assert.Equal(t, 33.0, inv.Progress.PercentComplete)
	})

	t.Run("terminal tool execution cannot change status", func(t *testing.T) {
		inv := newInvestigation()
		require.NoError(t, inv.Apply(Patch{ToolExecutions: []ToolExecution{{ID: "te-1", Status: ToolCompleted}}}, now))
		err := inv.Apply(Patch{ToolExecutions: []ToolExecution{{ID: "te-1", Status: ToolRunning}}}, now)
		require.Error(t, err)
	})

	t.Run("rejects illegal stage transition", func(t *testing.T) {
		inv := newInvestigation()
		stage := StageSettings
		require.Error(t, inv.Apply(Patch{Stage: &stage}, now))
	})

	t.Run("rejects mutation of terminal stage", func(t *testing.T) {
		inv := newInvestigation()
		inv.Stage = StageCompleted
		stage := StageInProgress
		require.Error(t, inv.Apply(Patch{Stage: &stage}, now))
	})

	t.Run("legal stage transition applies", func(t *testing.T) {
		inv := newInvestigation()
		stage := StageCompleted
		require.NoError(t, inv.Apply(Patch{Stage: &stage, Results: &Results{RiskScore: 87}}, now))
		assert.Equal(t, StageCompleted, inv.Stage)
		assert.Equal(t, 87.0, inv.Results.RiskScore)
	})
}

func TestClone(t *testing.T) {
	inv := newInvestigation()
	started := time.Now()
	inv.Progress.ToolExecutions = []ToolExecution{{
		ID:        "te-1",
		Status:    ToolRunning,
		StartedAt: &started,
		Result:    &ToolResult{Findings: []string{"a"}, Metadata: map[string]any{"k": "v"}},
	}}
	inv.Progress.DomainFindings = map[string][]string{"network": {"x"}}

	clone := inv.Clone()
	clone.Progress.ToolExecutions[0].Status = ToolCompleted
	clone.Progress.ToolExecutions[0].Result.Findings[0] = "mutated"
	clone.Progress.DomainFindings["network"][0] = "mutated"
	clone.Settings.Entities[0] = "mutated"

	assert.Equal(t, ToolRunning, inv.Progress.ToolExecutions[0].Status)
	assert.Equal(t, "a", inv.Progress.ToolExecutions[0].Result.Findings[0])
	assert.Equal(t, "x", inv.Progress.DomainFindings["network"][0])
	assert.Equal(t, "acct-42", inv.Settings.Entities[0])
}

func TestComputeETag(t *testing.T) {
	t.Run("deterministic for identical progress and version", func(t *testing.T) {
		a := newInvestigation()
		b := newInvestigation()
		a.Progress.PhaseProgress = map[string]float64{"p1": 10, "p2": 20}
		b.Progress.PhaseProgress = map[string]float64{"p2": 20, "p1": 10}

		assert.Equal(t, ComputeETag(a), ComputeETag(b))
		assert.Equal(t, ComputeETag(a), ComputeETag(a))
	})

	t.Run("changes with version", func(t *testing.T) {
		a := newInvestigation()
		b := newInvestigation()
		b.Version++
		assert.NotEqual(t, ComputeETag(a), ComputeETag(b))
	})

	t.Run("changes with progress", func(t *testing.T) {
		a := newInvestigation()
		b := newInvestigation()
		b.Progress.CurrentPhase = "baseline"
		assert.NotEqual(t, ComputeETag(a), ComputeETag(b))
	})

	t.Run("ignores fields outside progress and version", func(t *testing.T) {
		a := newInvestigation()
		b := newInvestigation()
		b.Status = "different"
		b.OwnerID = "someone-else"
		assert.Equal(t, ComputeETag(a), ComputeETag(b))
	})
}
