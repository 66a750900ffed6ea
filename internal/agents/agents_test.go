package agents_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudlens/internal/agentpool"
	"fraudlens/internal/agents"
	"fraudlens/internal/coordinator"
	"fraudlens/internal/platform/config"
	"fraudlens/internal/risk"
)

const (
	chromeUA    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	firefoxUA   = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	googlebotUA = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func testLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func initialized[T interface {
	Initialize(context.Context) error
}](t *testing.T, agent T) T {
	t.Helper()
	require.NoError(t, agent.Initialize(context.Background()))
	return agent
}

func TestLocationAgent(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects calls before initialization", func(t *testing.T) {
		agent := agents.NewLocation(testLogger())
		_, err := agent.GetLocationData(ctx, "entity-1", 30)
		require.Error(t, err)
	})

	t.Run("flags impossible travel", func(t *testing.T) {
		agent := initialized(t, agents.NewLocation(testLogger()))
		now := time.Now()

		// Berlin, then Sydney one hour later.
		agent.Record("entity-1", agents.LocationEvent{
			Country: "DE", Latitude: 52.52, Longitude: 13.40, Timestamp: now.Add(-2 * time.Hour),
		})
		agent.Record("entity-1", agents.LocationEvent{
			Country: "AU", Latitude: -33.87, Longitude: 151.21, Timestamp: now.Add(-1 * time.Hour),
		})

		data, err := agent.GetLocationData(ctx, "entity-1", 30)
		require.NoError(t, err)

		found, err := agent.DetectLocationAnomalies(ctx, "entity-1", data)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, 0.9, found[0].RiskLevel)
		assert.Contains(t, found[0].Factors[0], "impossible-travel")
	})

	t.Run("plausible travel is clean", func(t *testing.T) {
		agent := initialized(t, agents.NewLocation(testLogger()))
		now := time.Now()

		agent.Record("entity-1", agents.LocationEvent{
			Country: "DE", Latitude: 52.52, Longitude: 13.40, Timestamp: now.Add(-48 * time.Hour),
		})
		agent.Record("entity-1", agents.LocationEvent{
			Country: "FR", Latitude: 48.85, Longitude: 2.35, Timestamp: now.Add(-24 * time.Hour),
		})

		data, err := agent.GetLocationData(ctx, "entity-1", 30)
		require.NoError(t, err)

		found, err := agent.DetectLocationAnomalies(ctx, "entity-1", data)
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestNetworkAgent(t *testing.T) {
	ctx := context.Background()
	agent := initialized(t, agents.NewNetwork(testLogger()))
	now := time.Now()

	require.Error(t, agent.Record("entity-1", agents.NetworkEvent{IP: "not-an-ip", Timestamp: now}))

	require.NoError(t, agent.Record("entity-1", agents.NetworkEvent{IP: "10.0.0.1", IsProxy: true, Timestamp: now.Add(-time.Hour)}))
	require.NoError(t, agent.Record("entity-1", agents.NetworkEvent{IP: "10.0.0.2", IsProxy: true, Timestamp: now.Add(-30 * time.Minute)}))
	require.NoError(t, agent.Record("entity-1", agents.NetworkEvent{IP: "10.0.0.3", IsProxy: false, Timestamp: now.Add(-10 * time.Minute)}))

	data, err := agent.GetNetworkData(ctx, "entity-1", 30)
	require.NoError(t, err)
	assert.Equal(t, 3, data["distinct_ips"])

	found, err := agent.DetectNetworkAnomalies(ctx, "entity-1", data)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Contains(t, found[0].Factors[0], "proxy-dominant-traffic")
}

func TestDeviceAgent(t *testing.T) {
	ctx := context.Background()
	agent := initialized(t, agents.NewDevice(testLogger()))
	now := time.Now()

	agent.Record("entity-1", agents.DeviceEvent{UserAgent: chromeUA, Timestamp: now.Add(-time.Hour)})
	agent.Record("entity-1", agents.DeviceEvent{UserAgent: firefoxUA, Timestamp: now.Add(-40 * time.Minute)})
	agent.Record("entity-1", agents.DeviceEvent{UserAgent: googlebotUA, Timestamp: now.Add(-5 * time.Minute)})

	data, err := agent.GetDeviceData(ctx, "entity-1", 30)
	require.NoError(t, err)
	assert.Equal(t, 3, data["sessions"])
	assert.Equal(t, 1, data["bot_sessions"])

	found, err := agent.DetectDeviceAnomalies(ctx, "entity-1", data)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 0.8, found[0].RiskLevel)
	assert.Contains(t, found[0].Factors[0], "bot-traffic")
}

func TestBehaviorAgent(t *testing.T) {
	ctx := context.Background()
	agent := initialized(t, agents.NewBehavior(testLogger()))
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 25; i++ {
		agent.Record("entity-1", agents.BehaviorEvent{
			Action:    "transfer",
			Amount:    100,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}

	data, err := agent.GetBehaviorData(ctx, "entity-1", 30)
	require.NoError(t, err)

	found, err := agent.DetectBehaviorAnomalies(ctx, "entity-1", data)
	require.NoError(t, err)
	require.NotEmpty(t, found)
	assert.Contains(t, found[0].Factors[0], "velocity-spike")
}

func TestAnomalyAgent(t *testing.T) {
	ctx := context.Background()
	agent := initialized(t, agents.NewAnomaly(testLogger()))

	for i := 0; i < 60; i++ {
		agent.Observe("entity-1", "daily_logins", float64(4+i%3))
	}

	t.Run("baseline averages observed metrics", func(t *testing.T) {
		baseline, err := agent.EstablishBaseline(ctx, "entity-1", 30)
		require.NoError(t, err)
		assert.Equal(t, 60, baseline.SampleSize)
		assert.InDelta(t, 5.0, baseline.Metrics["daily_logins"], 0.01)
	})

	t.Run("deep history raises confidence", func(t *testing.T) {
		final, err := agent.CalculateRiskScore(ctx, "entity-1", 0.9, []string{"impossible-travel"})
		require.NoError(t, err)
		assert.Equal(t, 0.9, final.Confidence)
		assert.Contains(t, final.Factors, "impossible-travel")
		assert.Greater(t, final.RiskLevel, 0.5)
	})

	t.Run("filter drops weak low-confidence signals", func(t *testing.T) {
		weak, err := risk.NewAssessment(0.1, 0.5, []string{"noise"}, "test")
		require.NoError(t, err)
		weakButSure, err := risk.NewAssessment(0.1, 0.95, []string{"subtle"}, "test")
		require.NoError(t, err)
		strong, err := risk.NewAssessment(0.8, 0.6, []string{"strong"}, "test")
		require.NoError(t, err)

		filtered, err := agent.FilterFalsePositives(ctx, []risk.Assessment{weak, weakButSure, strong})
		require.NoError(t, err)
		require.Len(t, filtered, 2)
		assert.Equal(t, []string{"subtle"}, filtered[0].Factors)
		assert.Equal(t, []string{"strong"}, filtered[1].Factors)
	})

	t.Run("registered scenario explains moderate risk but never high", func(t *testing.T) {
		agent.RegisterScenario("entity-1", "declared-travel")

		moderate, err := risk.NewAssessment(0.5, 0.7, []string{"x"}, "test")
		require.NoError(t, err)
		legit, err := agent.DetectLegitimateScenarios(ctx, "entity-1", moderate)
		require.NoError(t, err)
		assert.True(t, legit)

		high, err := risk.NewAssessment(0.9, 0.7, []string{"x"}, "test")
		require.NoError(t, err)
		legit, err = agent.DetectLegitimateScenarios(ctx, "entity-1", high)
		require.NoError(t, err)
		assert.False(t, legit)
	})
}

func TestBuiltinsVoteInCommittee(t *testing.T) {
	pool := agentpool.New(agentpool.Config{}, testLogger(), nil)
	logger := testLogger()

	for _, agent := range []agentpool.Agent{
		initialized(t, agents.NewLocation(logger)),
		initialized(t, agents.NewNetwork(logger)),
		initialized(t, agents.NewDevice(logger)),
		initialized(t, agents.NewBehavior(logger)),
		initialized(t, agents.NewAnomaly(logger)),
	} {
		require.NoError(t, pool.Register(agent))
	}

	result, err := pool.Coordinate(context.Background(), "committee", agentpool.Task{
		ID:                   "task-1",
		Type:                 "escalation-review",
		Complexity:           0.5,
		RequiredCapabilities: []string{"fraud_detection", "decision"},
		Input:                map[string]any{"risk_score": 0.95},
	})
	require.NoError(t, err)

	assert.Equal(t, "completed", result.Status)
	assert.Equal(t, agentpool.VoteReject, result.Decision)
	assert.Equal(t, 5, result.Tally.Reject)
}

func TestFullPipelineWithBuiltins(t *testing.T) {
	logger := testLogger()
	now := time.Now()

	location := agents.NewLocation(logger)
	network := agents.NewNetwork(logger)
	device := agents.NewDevice(logger)
	behavior := agents.NewBehavior(logger)
	anomaly := agents.NewAnomaly(logger)

	location.Record("entity-1", agents.LocationEvent{
		Country: "DE", Latitude: 52.52, Longitude: 13.40, Timestamp: now.Add(-2 * time.Hour),
	})
	location.Record("entity-1", agents.LocationEvent{
		Country: "AU", Latitude: -33.87, Longitude: 151.21, Timestamp: now.Add(-1 * time.Hour),
	})
	require.NoError(t, network.Record("entity-1", agents.NetworkEvent{IP: "10.0.0.1", Timestamp: now.Add(-time.Hour)}))
	device.Record("entity-1", agents.DeviceEvent{UserAgent: chromeUA, Timestamp: now.Add(-time.Hour)})
	behavior.Record("entity-1", agents.BehaviorEvent{Action: "login", Timestamp: now.Add(-time.Hour)})
	anomaly.Observe("entity-1", "daily_logins", 5)

	svc := coordinator.New(coordinator.Agents{
		Location: location,
		Network:  network,
		Device:   device,
		Behavior: behavior,
		Anomaly:  anomaly,
	}, config.CoordinationConfig{AgentDeadline: time.Second}, logger)

	require.NoError(t, svc.Initialize(context.Background()))
	defer func() { require.NoError(t, svc.Shutdown(context.Background())) }()

	result, err := svc.AnalyzeEntity(context.Background(), "analyst-1", "entity-1", 30)
	require.NoError(t, err)

	assert.Equal(t, "entity-1", result.EntityID)
	assert.NotNil(t, result.Baseline)
	require.NotEmpty(t, result.RiskFactors)
	assert.Contains(t, result.RiskFactors[0], "impossible-travel")
	assert.Contains(t, result.Assessment.Factors, "cross-domain-aggregate")
	assert.GreaterOrEqual(t, result.Assessment.RiskLevel, 0.5)
}
