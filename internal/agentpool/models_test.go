package agentpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const baseline = 2 * time.Second

func TestAvailabilityScore(t *testing.T) {
	t.Run("idle reliable agent scores highest", func(t *testing.T) {
		caps := Capabilities{MaxConcurrentTasks: 4, CurrentLoad: 0, SuccessRate: 1.0}
		assert.Equal(t, 1.0, caps.AvailabilityScore(baseline))
	})

	t.Run("score decreases with load", func(t *testing.T) {
		caps := Capabilities{MaxConcurrentTasks: 4, SuccessRate: 0.9, AvgResponseTime: time.Second}

		var prev = 2.0
		for load := 0; load <= 4; load++ {
			caps.CurrentLoad = load
			score := caps.AvailabilityScore(baseline)
			assert.Less(t, score, prev, "load %d should score below load %d", load, load-1)
			prev = score
		}
	})

	t.Run("score increases with success rate", func(t *testing.T) {
		low := Capabilities{MaxConcurrentTasks: 4, CurrentLoad: 1, SuccessRate: 0.5}
		high := Capabilities{MaxConcurrentTasks: 4, CurrentLoad: 1, SuccessRate: 0.95}
		assert.Greater(t, high.AvailabilityScore(baseline), low.AvailabilityScore(baseline))
	})

	t.Run("slow agent penalized", func(t *testing.T) {
		fast := Capabilities{MaxConcurrentTasks: 4, SuccessRate: 0.9, AvgResponseTime: 100 * time.Millisecond}
		slow := Capabilities{MaxConcurrentTasks: 4, SuccessRate: 0.9, AvgResponseTime: 8 * time.Second}
		assert.Greater(t, fast.AvailabilityScore(baseline), slow.AvailabilityScore(baseline))
	})

	t.Run("saturated agent scores zero", func(t *testing.T) {
		caps := Capabilities{MaxConcurrentTasks: 2, CurrentLoad: 2, SuccessRate: 1.0}
		assert.Equal(t, 0.0, caps.AvailabilityScore(baseline))
	})

	t.Run("score stays in range", func(t *testing.T) {
		caps := Capabilities{MaxConcurrentTasks: 1, CurrentLoad: 0, SuccessRate: 1.0}
		score := caps.AvailabilityScore(0)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	})
}

func TestTaskMatches(t *testing.T) {
	t.Run("intersection matches", func(t *testing.T) {
		task := Task{RequiredCapabilities: []string{"network_analysis", "geolocation"}}
		caps := Capabilities{Specializations: []string{"network_analysis"}}
		assert.True(t, task.Matches(caps), "partial capability coverage is still a match")
	})

	t.Run("disjoint sets do not match", func(t *testing.T) {
		task := Task{RequiredCapabilities: []string{"network_analysis"}}
		caps := Capabilities{Specializations: []string{"fraud_detection", "risk_scoring"}}
		assert.False(t, task.Matches(caps))
	})

	t.Run("no specializations never match", func(t *testing.T) {
		task := Task{RequiredCapabilities: []string{"network_analysis"}}
		assert.False(t, task.Matches(Capabilities{}))
	})
}

func TestTaskValidate(t *testing.T) {
	valid := Task{ID: "t-1", Type: "analysis", Complexity: 0.5, RequiredCapabilities: []string{"x"}}
	assert.NoError(t, valid.Validate())

	for name, task := range map[string]Task{
		"missing id":           {Type: "analysis", RequiredCapabilities: []string{"x"}},
		"missing type":         {ID: "t-1", RequiredCapabilities: []string{"x"}},
		"complexity too high":  {ID: "t-1", Type: "analysis", Complexity: 1.5, RequiredCapabilities: []string{"x"}},
		"no required caps":     {ID: "t-1", Type: "analysis"},
		"negative complexity":  {ID: "t-1", Type: "analysis", Complexity: -0.1, RequiredCapabilities: []string{"x"}},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, task.Validate())
		})
	}
}

func TestVoteTallyDecide(t *testing.T) {
	tests := []struct {
		name  string
		tally VoteTally
		want  Vote
	}{
		{"approve majority", VoteTally{Approve: 3, Reject: 1, Abstain: 1}, VoteApprove},
		{"reject majority", VoteTally{Approve: 1, Reject: 2}, VoteReject},
		{"tie abstains", VoteTally{Approve: 2, Reject: 2, Abstain: 1}, VoteAbstain},
		{"all abstain", VoteTally{Abstain: 5}, VoteAbstain},
		{"empty committee", VoteTally{}, VoteAbstain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tally.Decide())
		})
	}
}
