// Package coordinator orchestrates the domain agents into a single
// fraud-risk verdict for an entity: baseline first, then parallel raw-data
// retrieval, then parallel anomaly detection, then merge, filter, and
// aggregate. Agents are external collaborators; the coordinator only knows
// the interfaces below.
package coordinator

import (
	"context"

	"fraudlens/internal/risk"
)

// Domain names used for fan-out accounting, tool-execution ledger entries,
// and error reporting. DataDomains is the deterministic enumeration order
// for fan-out barriers and result merging.
const (
	DomainLocation = "location"
	DomainNetwork  = "network"
	DomainDevice   = "device"
	DomainBehavior = "behavior"
	DomainAnomaly  = "anomaly"
)

// DataDomains lists the four data-retrieval domains in enumeration order.
var DataDomains = []string{DomainLocation, DomainNetwork, DomainDevice, DomainBehavior}

// DomainAgent is the lifecycle surface every agent exposes. Initialize and
// Shutdown are attempted independently per agent; one agent failing never
// prevents the others from starting or stopping.
type DomainAgent interface {
	Name() string
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// LocationAgent retrieves geolocation history and flags location anomalies
// such as impossible travel.
type LocationAgent interface {
	DomainAgent
	GetLocationData(ctx context.Context, entityID string, timeframeDays int) (map[string]any, error)
	DetectLocationAnomalies(ctx context.Context, entityID string, data map[string]any) ([]risk.Assessment, error)
}

// NetworkAgent retrieves network activity and flags network anomalies.
type NetworkAgent interface {
	DomainAgent
	GetNetworkData(ctx context.Context, entityID string, timeframeDays int) (map[string]any, error)
	DetectNetworkAnomalies(ctx context.Context, entityID string, data map[string]any) ([]risk.Assessment, error)
}

// DeviceAgent retrieves device fingerprints and flags device anomalies.
type DeviceAgent interface {
	DomainAgent
	GetDeviceData(ctx context.Context, entityID string, timeframeDays int) (map[string]any, error)
	DetectDeviceAnomalies(ctx context.Context, entityID string, data map[string]any) ([]risk.Assessment, error)
}

// BehaviorAgent retrieves behavioral activity and flags behavioral anomalies.
type BehaviorAgent interface {
	DomainAgent
	GetBehaviorData(ctx context.Context, entityID string, timeframeDays int) (map[string]any, error)
	DetectBehaviorAnomalies(ctx context.Context, entityID string, data map[string]any) ([]risk.Assessment, error)
}

// AnomalyAgent owns the cross-domain operations: the behavioral baseline
// that anchors every analysis, the risk aggregation, the false-positive
// filter, and legitimate-scenario detection. The aggregation formula is the
// agent's concern; the coordinator only supplies the dominant location
// signal as an explicit input.
type AnomalyAgent interface {
	DomainAgent
	EstablishBaseline(ctx context.Context, entityID string, timeframeDays int) (*Baseline, error)
	CalculateRiskScore(ctx context.Context, entityID string, locationRisk float64, locationFactors []string) (risk.Assessment, error)
	FilterFalsePositives(ctx context.Context, assessments []risk.Assessment) ([]risk.Assessment, error)
	DetectLegitimateScenarios(ctx context.Context, entityID string, final risk.Assessment) (bool, error)
}

// Agents bundles the five domain agents the coordinator fans out across.
type Agents struct {
	Location LocationAgent
	Network  NetworkAgent
	Device   DeviceAgent
	Behavior BehaviorAgent
	Anomaly  AnomalyAgent
}

// All enumerates the agents in deterministic order for lifecycle operations.
func (a Agents) All() []DomainAgent {
	return []DomainAgent{a.Location, a.Network, a.Device, a.Behavior, a.Anomaly}
}
