package coordinator_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudlens/internal/audit"
	"fraudlens/internal/coordinator"
	invservice "fraudlens/internal/investigation/service"
	invstore "fraudlens/internal/investigation/store/investigation"
	"fraudlens/internal/platform/config"
	reviewservice "fraudlens/internal/review/service"
	reviewstore "fraudlens/internal/review/store/review"
	"fraudlens/internal/risk"
	dErrors "fraudlens/pkg/domain-errors"
)

// stubAgent records lifecycle and operation calls so tests can assert that
// sibling agents keep running when one fails.
type stubAgent struct {
	name    string
	initErr error
	stopErr error

	mu    sync.Mutex
	calls []string
}

func (a *stubAgent) record(op string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, op)
}

func (a *stubAgent) count(op string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (a *stubAgent) called(op string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range a.calls {
		if c == op {
			return true
		}
	}
	return false
}

func (a *stubAgent) Name() string { return a.name }

func (a *stubAgent) Initialize(context.Context) error {
	a.record("initialize")
	return a.initErr
}

func (a *stubAgent) Shutdown(context.Context) error {
	a.record("shutdown")
	return a.stopErr
}

type stubDataAgent struct {
	stubAgent
	data        map[string]any
	dataErr     error
	assessments []risk.Assessment
	detectErr   error
	blockOnGet  bool
}

func (a *stubDataAgent) get(ctx context.Context) (map[string]any, error) {
	a.record("get")
	if a.blockOnGet {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return a.data, a.dataErr
}

func (a *stubDataAgent) detect(ctx context.Context, data map[string]any) ([]risk.Assessment, error) {
	a.record("detect")
	return a.assessments, a.detectErr
}

type stubLocationAgent struct{ stubDataAgent }

func (a *stubLocationAgent) GetLocationData(ctx context.Context, entityID string, days int) (map[string]any, error) {
	return a.get(ctx)
}

func (a *stubLocationAgent) DetectLocationAnomalies(ctx context.Context, entityID string, data map[string]any) ([]risk.Assessment, error) {
	return a.detect(ctx, data)
}

type stubNetworkAgent struct{ stubDataAgent }

func (a *stubNetworkAgent) GetNetworkData(ctx context.Context, entityID string, days int) (map[string]any, error) {
	return a.get(ctx)
}

func (a *stubNetworkAgent) DetectNetworkAnomalies(ctx context.Context, entityID string, data map[string]any) ([]risk.Assessment, error) {
	return a.detect(ctx, data)
}

type stubDeviceAgent struct{ stubDataAgent }

func (a *stubDeviceAgent) GetDeviceData(ctx context.Context, entityID string, days int) (map[string]any, error) {
	return a.get(ctx)
}

func (a *stubDeviceAgent) DetectDeviceAnomalies(ctx context.Context, entityID string, data map[string]any) ([]risk.Assessment, error) {
	return a.detect(ctx, data)
}

type stubBehaviorAgent struct{ stubDataAgent }

func (a *stubBehaviorAgent) GetBehaviorData(ctx context.Context, entityID string, days int) (map[string]any, error) {
	return a.get(ctx)
}

func (a *stubBehaviorAgent) DetectBehaviorAnomalies(ctx context.Context, entityID string, data map[string]any) ([]risk.Assessment, error) {
	return a.detect(ctx, data)
}

type stubAnomalyAgent struct {
	stubAgent
	baseline    *coordinator.Baseline
	baselineErr error
	legitimate  bool

	mu2             sync.Mutex
	gotLocationRisk float64
	gotFactors      []string
	finalRisk       float64
	finalConfidence float64
}

func (a *stubAnomalyAgent) EstablishBaseline(ctx context.Context, entityID string, days int) (*coordinator.Baseline, error) {
	a.record("baseline")
	return a.baseline, a.baselineErr
}

func (a *stubAnomalyAgent) CalculateRiskScore(ctx context.Context, entityID string, locationRisk float64, locationFactors []string) (risk.Assessment, error) {
	a.record("calculate")
	a.mu2.Lock()
	a.gotLocationRisk = locationRisk
	a.gotFactors = locationFactors
	a.mu2.Unlock()
	return risk.NewAssessment(a.finalRisk, a.finalConfidence, []string{"aggregated"}, "anomaly-agent")
}

func (a *stubAnomalyAgent) FilterFalsePositives(ctx context.Context, assessments []risk.Assessment) ([]risk.Assessment, error) {
	a.record("filter")
	var out []risk.Assessment
	for _, as := range assessments {
		if as.RiskLevel >= 0.2 {
			out = append(out, as)
		}
	}
	return out, nil
}

func (a *stubAnomalyAgent) DetectLegitimateScenarios(ctx context.Context, entityID string, final risk.Assessment) (bool, error) {
	a.record("legitimacy")
	return a.legitimate, nil
}

type fixture struct {
	location *stubLocationAgent
	network  *stubNetworkAgent
	device   *stubDeviceAgent
	behavior *stubBehaviorAgent
	anomaly  *stubAnomalyAgent
}

func mustAssess(t *testing.T, level float64, factors []string, source string) risk.Assessment {
	t.Helper()
	a, err := risk.NewAssessment(level, 0.8, factors, source)
	require.NoError(t, err)
	return a
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		location: &stubLocationAgent{stubDataAgent{
			stubAgent: stubAgent{name: "location-agent"},
			data:      map[string]any{"countries": []string{"DE", "NG"}},
		}},
		network: &stubNetworkAgent{stubDataAgent{
			stubAgent: stubAgent{name: "network-agent"},
			data:      map[string]any{"ips": 12},
		}},
		device: &stubDeviceAgent{stubDataAgent{
			stubAgent: stubAgent{name: "device-agent"},
			data:      map[string]any{"devices": 3},
		}},
		behavior: &stubBehaviorAgent{stubDataAgent{
			stubAgent: stubAgent{name: "behavior-agent"},
			data:      map[string]any{"logins": 44},
		}},
		anomaly: &stubAnomalyAgent{
			stubAgent: stubAgent{name: "anomaly-agent"},
			baseline: &coordinator.Baseline{
				EntityID:      "entity-1",
				TimeframeDays: 30,
				SampleSize:    250,
				EstablishedAt: time.Now(),
			},
			finalRisk:       0.4,
			finalConfidence: 0.9,
		},
	}
	f.location.assessments = []risk.Assessment{
		mustAssess(t, 0.3, []string{"new-country"}, "location-agent"),
		mustAssess(t, 0.9, []string{"impossible-travel"}, "location-agent"),
		mustAssess(t, 0.5, []string{"vpn-exit"}, "location-agent"),
	}
	f.network.assessments = []risk.Assessment{
		mustAssess(t, 0.1, []string{"port-scan"}, "network-agent"),
	}
	f.device.assessments = []risk.Assessment{
		mustAssess(t, 0.6, []string{"new-device"}, "device-agent"),
	}
	return f
}

func (f *fixture) agents() coordinator.Agents {
	return coordinator.Agents{
		Location: f.location,
		Network:  f.network,
		Device:   f.device,
		Behavior: f.behavior,
		Anomaly:  f.anomaly,
	}
}

func newService(f *fixture, opts ...coordinator.Option) *coordinator.Service {
	cfg := config.CoordinationConfig{
		AgentDeadline:   time.Second,
		AnalysisTimeout: 5 * time.Second,
	}
	return coordinator.New(f.agents(), cfg, slog.New(slog.DiscardHandler), opts...)
}

func TestInitialize(t *testing.T) {
	t.Run("starts every agent", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, newService(f).Initialize(context.Background()))

		for _, a := range []*stubAgent{
			&f.location.stubAgent, &f.network.stubAgent, &f.device.stubAgent,
			&f.behavior.stubAgent, &f.anomaly.stubAgent,
		} {
			assert.True(t, a.called("initialize"), a.name)
		}
	})

	t.Run("a failing agent does not stop the others", func(t *testing.T) {
		f := newFixture(t)
		f.network.initErr = errors.New("broker unreachable")

		err := newService(f).Initialize(context.Background())
		require.Error(t, err)

		var initErr *coordinator.InitializationError
		require.ErrorAs(t, err, &initErr)
		require.Len(t, initErr.Failures, 1)
		assert.Equal(t, "network-agent", initErr.Failures[0].Agent)

		assert.True(t, f.device.called("initialize"))
		assert.True(t, f.anomaly.called("initialize"))
	})
}

func TestShutdownAggregatesFailures(t *testing.T) {
	f := newFixture(t)
	f.location.stopErr = errors.New("flush failed")
	f.behavior.stopErr = errors.New("flush failed")

	err := newService(f).Shutdown(context.Background())
	require.Error(t, err)

	var initErr *coordinator.InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Len(t, initErr.Failures, 2)
	assert.True(t, f.anomaly.called("shutdown"))
}

func TestAnalyzeEntity(t *testing.T) {
	t.Run("runs the full pipeline", func(t *testing.T) {
		f := newFixture(t)
		svc := newService(f)

		result, err := svc.AnalyzeEntity(context.Background(), "analyst-1", "entity-1", 30)
		require.NoError(t, err)

		assert.Equal(t, "entity-1", result.EntityID)
		assert.Equal(t, 0.4, result.Assessment.RiskLevel)
		assert.False(t, result.IsLegitimate)
		assert.Equal(t, f.anomaly.baseline, result.Baseline)

		// Raw data bundle carries all four domains.
		require.Len(t, result.DomainData, 4)
		assert.Equal(t, f.network.data, result.DomainData["network"])

		// The 0.1 network signal was filtered out as a false positive.
		assert.Contains(t, result.RiskFactors, "impossible-travel")
		assert.Contains(t, result.RiskFactors, "new-device")
		assert.NotContains(t, result.RiskFactors, "port-scan")
	})

	t.Run("dominant location signal is the maximum risk level", func(t *testing.T) {
		f := newFixture(t)
		svc := newService(f)

		_, err := svc.AnalyzeEntity(context.Background(), "analyst-1", "entity-1", 30)
		require.NoError(t, err)

		assert.Equal(t, 0.9, f.anomaly.gotLocationRisk)
		assert.Equal(t, []string{"impossible-travel"}, f.anomaly.gotFactors)
	})

	t.Run("baseline failure aborts before any fan-out", func(t *testing.T) {
		f := newFixture(t)
		f.anomaly.baselineErr = errors.New("no history")
		svc := newService(f)

		_, err := svc.AnalyzeEntity(context.Background(), "analyst-1", "entity-1", 30)
		require.Error(t, err)

		var analysisErr *coordinator.AnalysisError
		require.ErrorAs(t, err, &analysisErr)
		assert.Equal(t, "baseline", analysisErr.Phase)
		assert.Equal(t, []string{"anomaly"}, analysisErr.Domains())

		assert.False(t, f.location.called("get"))
		assert.False(t, f.network.called("get"))
	})

	t.Run("a failing retrieval domain aborts with an aggregate naming it", func(t *testing.T) {
		f := newFixture(t)
		f.device.dataErr = errors.New("fingerprint store down")
		svc := newService(f)

		_, err := svc.AnalyzeEntity(context.Background(), "analyst-1", "entity-1", 30)
		require.Error(t, err)

		var analysisErr *coordinator.AnalysisError
		require.ErrorAs(t, err, &analysisErr)
		assert.Equal(t, "data_retrieval", analysisErr.Phase)
		assert.Equal(t, []string{"device"}, analysisErr.Domains())

		// Sibling retrievals still ran to completion.
		assert.True(t, f.location.called("get"))
		assert.True(t, f.network.called("get"))
		assert.True(t, f.behavior.called("get"))
		// Detection never started.
		assert.False(t, f.location.called("detect"))
	})

	t.Run("a persistently failing domain is skipped once its circuit opens", func(t *testing.T) {
		f := newFixture(t)
		f.device.dataErr = errors.New("fingerprint store down")
		svc := newService(f)

		for i := 0; i < 5; i++ {
			_, err := svc.AnalyzeEntity(context.Background(), "analyst-1", "entity-1", 30)
			require.Error(t, err)
		}
		callsWhenOpened := f.device.count("get")

		_, err := svc.AnalyzeEntity(context.Background(), "analyst-1", "entity-1", 30)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
		assert.Equal(t, callsWhenOpened, f.device.count("get"), "open circuit must not reach the agent")

		// Healthy siblings keep serving.
		assert.Greater(t, f.location.count("get"), callsWhenOpened)
	})

	t.Run("rejects an empty entity id", func(t *testing.T) {
		f := newFixture(t)
		_, err := newService(f).AnalyzeEntity(context.Background(), "analyst-1", "", 30)
		require.Error(t, err)
	})

	t.Run("caller cancellation stops outstanding agent calls", func(t *testing.T) {
		f := newFixture(t)
		f.behavior.blockOnGet = true
		svc := newService(f)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		done := make(chan error, 1)
		go func() {
			_, err := svc.AnalyzeEntity(ctx, "analyst-1", "entity-1", 30)
			done <- err
		}()

		select {
		case err := <-done:
			require.Error(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("analysis did not return after cancellation")
		}
	})
}

func TestAnalyzeEntityRecordsProgress(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	store := invstore.NewInMemoryStore()
	investigations := invservice.New(store, logger)

	f := newFixture(t)
	svc := newService(f, coordinator.WithInvestigations(investigations))

	result, err := svc.AnalyzeEntity(context.Background(), "analyst-1", "entity-1", 30)
	require.NoError(t, err)
	require.NotEmpty(t, result.InvestigationID)

	inv, _, err := investigations.Get(context.Background(), result.InvestigationID)
	require.NoError(t, err)

	assert.Equal(t, "analyst-1", inv.OwnerID)
	assert.Equal(t, "COMPLETED", string(inv.Stage))
	assert.Equal(t, 100.0, inv.Progress.PercentComplete)
	assert.Greater(t, inv.Version, int64(3))

	var toolIDs []string
	for _, te := range inv.Progress.ToolExecutions {
		toolIDs = append(toolIDs, te.ID)
	}
	assert.Contains(t, toolIDs, "baseline")
	assert.Contains(t, toolIDs, "retrieve-location")
	assert.Contains(t, toolIDs, "detect-network")

	require.NotNil(t, inv.Results)
	assert.InDelta(t, 40.0, inv.Results.RiskScore, 0.0001)
	assert.Contains(t, inv.Results.Findings, "impossible-travel")
}

func TestAnalyzeEntityFailureMarksInvestigation(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	investigations := invservice.New(invstore.NewInMemoryStore(), logger)

	f := newFixture(t)
	f.network.dataErr = errors.New("collector offline")
	svc := newService(f, coordinator.WithInvestigations(investigations))

	_, err := svc.AnalyzeEntity(context.Background(), "analyst-1", "entity-1", 30)
	require.Error(t, err)

	invs, err := investigations.List(context.Background(), "analyst-1")
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, "ERROR", string(invs[0].Stage))
}

func TestAnalyzeEntityEscalates(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	reviews := reviewservice.New(reviewstore.NewInMemoryStore(), config.EscalationConfig{
		HighRiskThreshold:      0.8,
		LowConfidenceThreshold: 0.3,
	}, logger, audit.NopPublisher{})

	f := newFixture(t)
	f.anomaly.finalRisk = 0.95
	f.anomaly.finalConfidence = 0.9
	svc := newService(f, coordinator.WithEscalation(reviews))

	result, err := svc.AnalyzeEntity(context.Background(), "analyst-1", "entity-1", 30)
	require.NoError(t, err)
	require.NotEmpty(t, result.ReviewID)

	pending, err := reviews.GetPendingReviews(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, result.ReviewID, pending[0].ReviewID)
	assert.Equal(t, "entity-1", pending[0].Snapshot.CaseID)
	assert.Equal(t, 0.95, pending[0].Snapshot.RiskScore)
}

func TestDominantLocation(t *testing.T) {
	a := []risk.Assessment{
		{RiskLevel: 0.3, Factors: []string{"a"}},
		{RiskLevel: 0.9, Factors: []string{"b"}},
		{RiskLevel: 0.5, Factors: []string{"c"}},
	}
	dominant, ok := coordinator.DominantLocation(a)
	require.True(t, ok)
	assert.Equal(t, 0.9, dominant.RiskLevel)

	// First-encountered maximum wins on a tie.
	tied := []risk.Assessment{
		{RiskLevel: 0.7, Source: "first"},
		{RiskLevel: 0.7, Source: "second"},
	}
	dominant, ok = coordinator.DominantLocation(tied)
	require.True(t, ok)
	assert.Equal(t, "first", dominant.Source)

	_, ok = coordinator.DominantLocation(nil)
	assert.False(t, ok)
}
