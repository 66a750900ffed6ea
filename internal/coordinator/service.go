package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fraudlens/internal/audit"
	"fraudlens/internal/coordinator/metrics"
	invmodels "fraudlens/internal/investigation/models"
	"fraudlens/internal/platform/config"
	reviewmodels "fraudlens/internal/review/models"
	"fraudlens/internal/risk"
	dErrors "fraudlens/pkg/domain-errors"
	"fraudlens/pkg/platform/circuit"
	pstrings "fraudlens/pkg/platform/strings"
	"fraudlens/pkg/requestcontext"
)

var tracer = otel.Tracer("fraudlens/internal/coordinator")

const defaultTimeframeDays = 30

// InvestigationWriter persists analysis progress. Each phase writes a partial
// patch through the store's compare-and-increment path so concurrently
// completing phases never overwrite each other.
type InvestigationWriter interface {
	Create(ctx context.Context, ownerID string, settings *invmodels.Settings) (*invmodels.Investigation, error)
	UpdateWithRetry(ctx context.Context, id string, patch invmodels.Patch) (*invmodels.Investigation, error)
}

// Escalator routes high-risk or low-confidence verdicts to human review.
type Escalator interface {
	ShouldEscalate(snap reviewmodels.InvestigationSnapshot) (bool, reviewmodels.Reason)
	RequestHumanReview(ctx context.Context, snap reviewmodels.InvestigationSnapshot, reason reviewmodels.Reason) (*reviewmodels.HumanReviewRequest, error)
}

// Service runs the analysis pipeline across the domain agents.
type Service struct {
	agents  Agents
	cfg     config.CoordinationConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor audit.Publisher

	investigations InvestigationWriter
	escalator      Escalator

	// breakers guard each domain agent: a persistently failing agent is
	// skipped outright instead of burning its deadline every call.
	breakers map[string]*circuit.Breaker
}

// Option customizes optional service collaborators.
type Option func(*Service)

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAudit attaches an audit publisher.
func WithAudit(p audit.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

// WithInvestigations attaches the investigation store so each pipeline phase
// records durable progress.
func WithInvestigations(w InvestigationWriter) Option {
	return func(s *Service) { s.investigations = w }
}

// WithEscalation attaches the human-review manager.
func WithEscalation(e Escalator) Option {
	return func(s *Service) { s.escalator = e }
}

// New constructs the coordinator. All five agents must be non-nil.
func New(agents Agents, cfg config.CoordinationConfig, logger *slog.Logger, opts ...Option) *Service {
	if cfg.AgentDeadline <= 0 {
		cfg.AgentDeadline = 10 * time.Second
	}

	breakers := make(map[string]*circuit.Breaker, len(DataDomains)+1)
	for _, domain := range append([]string{DomainAnomaly}, DataDomains...) {
		breakers[domain] = circuit.New(domain)
	}

	s := &Service{
		agents:   agents,
		cfg:      cfg,
		logger:   logger,
		auditor:  audit.NopPublisher{},
		breakers: breakers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize starts every domain agent. Each agent is attempted
// independently: one failing does not stop the others, so a healthy subset
// can still serve traffic. Failures come back aggregated per agent.
func (s *Service) Initialize(ctx context.Context) error {
	return s.lifecycle(ctx, "initialize", DomainAgent.Initialize)
}

// Shutdown stops every domain agent, independently per agent.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.lifecycle(ctx, "shutdown", DomainAgent.Shutdown)
}

func (s *Service) lifecycle(ctx context.Context, op string, fn func(DomainAgent, context.Context) error) error {
	var failures []AgentFailure
	for _, agent := range s.agents.All() {
		if agent == nil {
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, s.cfg.AgentDeadline)
		err := fn(agent, cctx)
		cancel()

		if err != nil {
			failures = append(failures, AgentFailure{Agent: agent.Name(), Err: err})
			s.logger.ErrorContext(ctx, "agent lifecycle operation failed",
				"operation", op,
				"agent", agent.Name(),
				"error", err,
			)
			continue
		}
		s.logger.InfoContext(ctx, "agent lifecycle operation completed",
			"operation", op,
			"agent", agent.Name(),
		)

		if op == "initialize" {
			event := audit.Event{Action: audit.ActionAgentRegistered, EntityID: agent.Name()}
			_ = s.auditor.Emit(ctx, event)
		}
	}
	if len(failures) > 0 {
		return &InitializationError{Op: op, Failures: failures}
	}
	return nil
}

// AnalyzeEntity runs the full pipeline for one entity: baseline, parallel
// data retrieval, parallel anomaly detection, false-positive filtering,
// dominant-location reduction, risk aggregation, and legitimate-scenario
// detection. Any domain failure during the first three steps aborts the call
// with an aggregate error naming each failing domain; committed progress
// records are kept, never rolled back.
func (s *Service) AnalyzeEntity(ctx context.Context, ownerID, entityID string, timeframeDays int) (*AnalysisResult, error) {
	if entityID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "entity id is required")
	}
	if timeframeDays <= 0 {
		timeframeDays = defaultTimeframeDays
	}
	if s.cfg.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.AnalysisTimeout)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "coordinator.analyze_entity")
	span.SetAttributes(
		attribute.String("entity_id", entityID),
		attribute.Int("timeframe_days", timeframeDays),
	)
	defer span.End()

	started := time.Now()
	invID := s.openInvestigation(ctx, ownerID, entityID, timeframeDays)

	_ = s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionAnalysisStarted,
		CaseID:    invID,
		EntityID:  entityID,
		ActorID:   ownerID,
		RequestID: requestcontext.RequestID(ctx),
	})

	baseline, err := s.establishBaseline(ctx, invID, entityID, timeframeDays)
	if err != nil {
		return nil, s.fail(ctx, span, invID, entityID, started, err)
	}

	domainData, err := s.retrieveDomainData(ctx, invID, entityID, timeframeDays)
	if err != nil {
		return nil, s.fail(ctx, span, invID, entityID, started, err)
	}

	detections, err := s.detectAnomalies(ctx, invID, entityID, domainData)
	if err != nil {
		return nil, s.fail(ctx, span, invID, entityID, started, err)
	}

	verdict, err := s.aggregate(ctx, invID, entityID, detections)
	if err != nil {
		return nil, s.fail(ctx, span, invID, entityID, started, err)
	}

	result := &AnalysisResult{
		Timestamp:       requestcontext.Now(ctx),
		EntityID:        entityID,
		InvestigationID: invID,
		Assessment:      verdict.final,
		IsLegitimate:    verdict.isLegitimate,
		RiskFactors:     verdict.factors,
		DomainData:      domainData,
		Baseline:        baseline,
	}

	s.finish(ctx, invID, verdict)

	_ = s.auditor.Emit(ctx, audit.Event{
		Action:   audit.ActionAnalysisCompleted,
		CaseID:   invID,
		EntityID: entityID,
		ActorID:  ownerID,
		Decision: verdictLabel(verdict),
		Tags:     []string{fmt.Sprintf("risk_score=%.2f", verdict.final.RiskLevel)},
	})

	result.ReviewID = s.escalate(ctx, invID, entityID, verdict.final)

	s.metrics.IncrementAnalysis("completed")
	s.metrics.ObserveAnalysisLatency(time.Since(started))
	span.SetAttributes(
		attribute.Float64("risk_level", verdict.final.RiskLevel),
		attribute.Bool("is_legitimate", verdict.isLegitimate),
	)
	return result, nil
}

// openInvestigation creates the durable progress record and moves it into
// IN_PROGRESS. A store failure degrades to an unrecorded analysis rather
// than blocking the caller.
func (s *Service) openInvestigation(ctx context.Context, ownerID, entityID string, timeframeDays int) string {
	if s.investigations == nil {
		return ""
	}

	inv, err := s.investigations.Create(ctx, ownerID, &invmodels.Settings{
		Entities:        []string{entityID},
		TimeRangeDays:   timeframeDays,
		Tools:           append([]string(nil), DataDomains...),
		CorrelationMode: "cross_domain",
	})
	if err != nil {
		s.logger.WarnContext(ctx, "could not create investigation record",
			"entity_id", entityID,
			"error", err,
		)
		return ""
	}

	stage := invmodels.StageInProgress
	status := "analyzing"
	phase := "baseline"
	s.writeProgress(ctx, inv.ID, invmodels.Patch{
		Stage:        &stage,
		Status:       &status,
		CurrentPhase: &phase,
	})
	return inv.ID
}

func (s *Service) establishBaseline(ctx context.Context, invID, entityID string, timeframeDays int) (*Baseline, error) {
	ctx, end := s.startPhase(ctx, "baseline")

	started := requestcontext.Now(ctx)
	baseline, err := callAgent(ctx, s, DomainAnomaly, "establish_baseline",
		func(ctx context.Context) (*Baseline, error) {
			return s.agents.Anomaly.EstablishBaseline(ctx, entityID, timeframeDays)
		})
	end(err)
	if err != nil {
		return nil, &AnalysisError{
			EntityID: entityID,
			Phase:    "baseline",
			Failures: []AgentFailure{{Agent: DomainAnomaly, Err: err}},
		}
	}

	s.writeProgress(ctx, invID, invmodels.Patch{
		CurrentPhase:   ptr("data_retrieval"),
		PhaseProgress:  map[string]float64{"baseline": 100},
		ToolExecutions: []invmodels.ToolExecution{toolEntry("baseline", "establish_baseline", DomainAnomaly, started, nil, err)},
	})
	return baseline, nil
}

// retrieveDomainData fans the four data-retrieval calls out in parallel.
// Each branch fails independently; the barrier joins on all of them and only
// then reports the aggregate, so one slow or failing domain never cancels
// its siblings mid-flight.
func (s *Service) retrieveDomainData(ctx context.Context, invID, entityID string, timeframeDays int) (map[string]map[string]any, error) {
	ctx, end := s.startPhase(ctx, "data_retrieval")

	calls := []struct {
		domain string
		fn     func(context.Context) (map[string]any, error)
	}{
		{DomainLocation, func(ctx context.Context) (map[string]any, error) {
			return s.agents.Location.GetLocationData(ctx, entityID, timeframeDays)
		}},
		{DomainNetwork, func(ctx context.Context) (map[string]any, error) {
			return s.agents.Network.GetNetworkData(ctx, entityID, timeframeDays)
		}},
		{DomainDevice, func(ctx context.Context) (map[string]any, error) {
			return s.agents.Device.GetDeviceData(ctx, entityID, timeframeDays)
		}},
		{DomainBehavior, func(ctx context.Context) (map[string]any, error) {
			return s.agents.Behavior.GetBehaviorData(ctx, entityID, timeframeDays)
		}},
	}

	started := requestcontext.Now(ctx)
	data := make([]map[string]any, len(calls))
	errs := make([]error, len(calls))
	barrier(len(calls), func(i int) {
		data[i], errs[i] = callAgent(ctx, s, calls[i].domain, "retrieve", calls[i].fn)
	})

	out := make(map[string]map[string]any, len(calls))
	var failures []AgentFailure
	var tools []invmodels.ToolExecution
	for i, c := range calls {
		tools = append(tools, toolEntry("retrieve-"+c.domain, "get_"+c.domain+"_data", c.domain, started, nil, errs[i]))
		if errs[i] != nil {
			failures = append(failures, AgentFailure{Agent: c.domain, Err: errs[i]})
			continue
		}
		out[c.domain] = data[i]
	}

	patch := invmodels.Patch{ToolExecutions: tools}
	if len(failures) == 0 {
		patch.CurrentPhase = ptr("anomaly_detection")
		patch.PhaseProgress = map[string]float64{"data_retrieval": 100}
	}
	s.writeProgress(ctx, invID, patch)

	aggErr := analysisFailure(entityID, "data_retrieval", failures)
	end(aggErr)
	if aggErr != nil {
		return nil, aggErr
	}
	return out, nil
}

// detectAnomalies fans the four detection calls out in parallel against the
// retrieved domain data, joining before any result is consumed.
func (s *Service) detectAnomalies(ctx context.Context, invID, entityID string, domainData map[string]map[string]any) (map[string][]risk.Assessment, error) {
	ctx, end := s.startPhase(ctx, "anomaly_detection")

	calls := []struct {
		domain string
		fn     func(context.Context, map[string]any) ([]risk.Assessment, error)
	}{
		{DomainLocation, func(ctx context.Context, data map[string]any) ([]risk.Assessment, error) {
			return s.agents.Location.DetectLocationAnomalies(ctx, entityID, data)
		}},
		{DomainNetwork, func(ctx context.Context, data map[string]any) ([]risk.Assessment, error) {
			return s.agents.Network.DetectNetworkAnomalies(ctx, entityID, data)
		}},
		{DomainDevice, func(ctx context.Context, data map[string]any) ([]risk.Assessment, error) {
			return s.agents.Device.DetectDeviceAnomalies(ctx, entityID, data)
		}},
		{DomainBehavior, func(ctx context.Context, data map[string]any) ([]risk.Assessment, error) {
			return s.agents.Behavior.DetectBehaviorAnomalies(ctx, entityID, data)
		}},
	}

	started := requestcontext.Now(ctx)
	results := make([][]risk.Assessment, len(calls))
	errs := make([]error, len(calls))
	barrier(len(calls), func(i int) {
		results[i], errs[i] = callAgent(ctx, s, calls[i].domain, "detect",
			func(ctx context.Context) ([]risk.Assessment, error) {
				return calls[i].fn(ctx, domainData[calls[i].domain])
			})
	})

	out := make(map[string][]risk.Assessment, len(calls))
	findings := make(map[string][]string, len(calls))
	var failures []AgentFailure
	var tools []invmodels.ToolExecution
	for i, c := range calls {
		var res *invmodels.ToolResult
		if errs[i] == nil {
			out[c.domain] = results[i]
			findings[c.domain] = assessmentFactors(results[i])
			res = &invmodels.ToolResult{
				Findings:  findings[c.domain],
				RiskScore: maxRiskLevel(results[i]),
			}
		} else {
			failures = append(failures, AgentFailure{Agent: c.domain, Err: errs[i]})
		}
		tools = append(tools, toolEntry("detect-"+c.domain, "detect_"+c.domain+"_anomalies", c.domain, started, res, errs[i]))
	}

	patch := invmodels.Patch{ToolExecutions: tools, DomainFindings: findings}
	if len(failures) == 0 {
		patch.CurrentPhase = ptr("aggregation")
		patch.PhaseProgress = map[string]float64{"anomaly_detection": 100}
	}
	s.writeProgress(ctx, invID, patch)

	aggErr := analysisFailure(entityID, "anomaly_detection", failures)
	end(aggErr)
	if aggErr != nil {
		return nil, aggErr
	}
	return out, nil
}

// verdict is the aggregation outcome handed to result assembly and the
// progress finisher.
type verdict struct {
	final        risk.Assessment
	isLegitimate bool
	factors      []string
	findings     map[string][]string
}

// aggregate merges the per-domain detections into the final assessment:
// concatenate in domain enumeration order, filter false positives, reduce
// the location signals to the dominant one, hand the location component to
// the anomaly agent's aggregation, then run legitimate-scenario detection.
func (s *Service) aggregate(ctx context.Context, invID, entityID string, detections map[string][]risk.Assessment) (*verdict, error) {
	ctx, end := s.startPhase(ctx, "aggregation")

	var all []risk.Assessment
	findings := make(map[string][]string, len(detections))
	for _, domain := range DataDomains {
		all = append(all, detections[domain]...)
		if factors := assessmentFactors(detections[domain]); len(factors) > 0 {
			findings[domain] = factors
		}
	}

	filtered, err := callAgent(ctx, s, DomainAnomaly, "filter_false_positives",
		func(ctx context.Context) ([]risk.Assessment, error) {
			return s.agents.Anomaly.FilterFalsePositives(ctx, all)
		})
	if err != nil {
		return nil, s.aggregationFailure(end, entityID, "false_positive_filter", err)
	}

	var locationRisk float64
	var locationFactors []string
	if dominant, ok := DominantLocation(detections[DomainLocation]); ok {
		locationRisk = dominant.RiskLevel
		locationFactors = dominant.Factors
	}

	final, err := callAgent(ctx, s, DomainAnomaly, "calculate_risk_score",
		func(ctx context.Context) (risk.Assessment, error) {
			return s.agents.Anomaly.CalculateRiskScore(ctx, entityID, locationRisk, locationFactors)
		})
	if err != nil {
		return nil, s.aggregationFailure(end, entityID, "risk_aggregation", err)
	}

	isLegitimate, err := callAgent(ctx, s, DomainAnomaly, "detect_legitimate_scenarios",
		func(ctx context.Context) (bool, error) {
			return s.agents.Anomaly.DetectLegitimateScenarios(ctx, entityID, final)
		})
	if err != nil {
		return nil, s.aggregationFailure(end, entityID, "legitimacy_detection", err)
	}

	end(nil)
	return &verdict{
		final:        final,
		isLegitimate: isLegitimate,
		factors:      assessmentFactors(filtered),
		findings:     findings,
	}, nil
}

func (s *Service) aggregationFailure(end func(error), entityID, phase string, err error) error {
	aggErr := &AnalysisError{
		EntityID: entityID,
		Phase:    phase,
		Failures: []AgentFailure{{Agent: DomainAnomaly, Err: err}},
	}
	end(aggErr)
	return aggErr
}

// finish writes the terminal progress record for a completed analysis.
func (s *Service) finish(ctx context.Context, invID string, v *verdict) {
	stage := invmodels.StageCompleted
	status := "completed"
	phase := "completed"
	percent := 100.0
	s.writeProgress(ctx, invID, invmodels.Patch{
		Stage:           &stage,
		Status:          &status,
		CurrentPhase:    &phase,
		PercentComplete: &percent,
		PhaseProgress:   map[string]float64{"aggregation": 100},
		Results: &invmodels.Results{
			RiskScore:      v.final.RiskLevel * 100,
			Findings:       v.factors,
			DomainFindings: v.findings,
		},
	})
}

// escalate routes the verdict through the human-review rules. A review
// failure downgrades to a log line; the analysis result stands either way.
func (s *Service) escalate(ctx context.Context, invID, entityID string, final risk.Assessment) string {
	if s.escalator == nil {
		return ""
	}

	caseID := invID
	if caseID == "" {
		caseID = entityID
	}
	snap := reviewmodels.InvestigationSnapshot{
		CaseID:     caseID,
		RiskScore:  final.RiskLevel,
		Confidence: final.Confidence,
	}

	should, reason := s.escalator.ShouldEscalate(snap)
	if !should {
		return ""
	}

	review, err := s.escalator.RequestHumanReview(ctx, snap, reason)
	if err != nil {
		s.logger.WarnContext(ctx, "could not escalate to human review",
			"case_id", caseID,
			"reason", reason,
			"error", err,
		)
		return ""
	}

	s.metrics.IncrementEscalation(string(reason))
	s.logger.InfoContext(ctx, "analysis escalated to human review",
		"case_id", caseID,
		"review_id", review.ReviewID,
		"reason", reason,
	)
	return review.ReviewID
}

// fail records the terminal failure: audit event, ERROR stage on the record,
// metrics, and the span status. The failure write uses a detached context so
// a caller cancellation still leaves a durable ERROR record.
func (s *Service) fail(ctx context.Context, span trace.Span, invID, entityID string, started time.Time, err error) error {
	detached := context.WithoutCancel(ctx)

	stage := invmodels.StageError
	status := "error"
	s.writeProgress(detached, invID, invmodels.Patch{Stage: &stage, Status: &status})

	_ = s.auditor.Emit(detached, audit.Event{
		Action:   audit.ActionAnalysisFailed,
		CaseID:   invID,
		EntityID: entityID,
		Reason:   err.Error(),
	})

	s.metrics.IncrementAnalysis("error")
	s.metrics.ObserveAnalysisLatency(time.Since(started))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	s.logger.ErrorContext(ctx, "entity analysis failed",
		"entity_id", entityID,
		"investigation_id", invID,
		"error", err,
	)
	return err
}

func ptr[T any](v T) *T { return &v }

// analysisFailure builds the aggregate error, or nil when nothing failed.
func analysisFailure(entityID, phase string, failures []AgentFailure) error {
	if len(failures) == 0 {
		return nil
	}
	return &AnalysisError{EntityID: entityID, Phase: phase, Failures: failures}
}

// barrier runs n indexed calls concurrently and joins on all of them.
func barrier(n int, fn func(i int)) {
	done := make(chan struct{})
	for i := 0; i < n; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			fn(i)
		}(i)
	}
	for i := 0; i < n; i++ {
		<-done
	}
}

// callAgent runs one agent call under the per-agent deadline, recording its
// latency. A deadline overrun comes back as a coded timeout error. A domain
// whose breaker is open is skipped without touching the agent.
func callAgent[T any](ctx context.Context, s *Service, domain, operation string, fn func(context.Context) (T, error)) (T, error) {
	if breaker := s.breakers[domain]; breaker != nil && breaker.IsOpen() {
		var zero T
		return zero, dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("%s agent is unavailable after repeated failures", domain))
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.AgentDeadline)
	defer cancel()

	start := time.Now()
	out, err := fn(cctx)
	s.metrics.ObserveAgentCall(domain, operation, time.Since(start))

	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		err = dErrors.Wrap(dErrors.CodeTimeout,
			fmt.Sprintf("%s %s exceeded its deadline", domain, operation), err)
	}
	s.recordOutcome(ctx, domain, err)
	return out, err
}

// recordOutcome feeds the domain breaker. Caller-driven cancellation is not
// evidence against the agent, so it leaves the breaker untouched.
func (s *Service) recordOutcome(ctx context.Context, domain string, err error) {
	breaker := s.breakers[domain]
	if breaker == nil {
		return
	}
	if err == nil {
		if _, change := breaker.RecordSuccess(); change.Closed {
			s.logger.InfoContext(ctx, "agent circuit closed", "domain", domain)
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	if _, change := breaker.RecordFailure(); change.Opened {
		s.logger.WarnContext(ctx, "agent circuit opened", "domain", domain)
	}
}

// startPhase opens a child span and times the phase; the returned func closes
// both and records the error, if any.
func (s *Service) startPhase(ctx context.Context, name string) (context.Context, func(error)) {
	ctx, span := tracer.Start(ctx, "coordinator."+name)
	start := time.Now()
	return ctx, func(err error) {
		s.metrics.ObservePhaseLatency(name, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// writeProgress applies one patch through the optimistic-concurrency path.
// Progress is best-effort relative to the analysis itself: a write that
// still conflicts after retries is logged and skipped, never rolled back.
func (s *Service) writeProgress(ctx context.Context, invID string, patch invmodels.Patch) {
	if s.investigations == nil || invID == "" {
		return
	}
	if _, err := s.investigations.UpdateWithRetry(ctx, invID, patch); err != nil {
		s.logger.WarnContext(ctx, "could not record analysis progress",
			"investigation_id", invID,
			"error", err,
		)
	}
}

func toolEntry(id, toolName, domain string, started time.Time, result *invmodels.ToolResult, err error) invmodels.ToolExecution {
	status := invmodels.ToolCompleted
	if err != nil {
		status = invmodels.ToolFailed
	}
	completed := time.Now()
	return invmodels.ToolExecution{
		ID:          id,
		ToolName:    toolName,
		Domain:      domain,
		Status:      status,
		StartedAt:   &started,
		CompletedAt: &completed,
		Result:      result,
	}
}

func assessmentFactors(assessments []risk.Assessment) []string {
	var out []string
	for _, a := range assessments {
		out = append(out, a.Factors...)
	}
	return pstrings.DedupeAndTrim(out)
}

func maxRiskLevel(assessments []risk.Assessment) float64 {
	var max float64
	for _, a := range assessments {
		if a.RiskLevel > max {
			max = a.RiskLevel
		}
	}
	return max
}

func verdictLabel(v *verdict) string {
	if v.isLegitimate {
		return "legitimate"
	}
	return "suspicious"
}
