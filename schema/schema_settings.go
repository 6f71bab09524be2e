package schema

// Defaults for the decision pipeline.
const (
	DefaultTicketsPerResource = 6.0
	DefaultBufferRatio        = 1.1
	DefaultCooldownDays       = 3
	DefaultSLAPenaltyCost     = 500.0
	DefaultIdleResourceCost   = 100.0
	DefaultMediumThreshold    = 10.0
	DefaultHighThreshold      = 25.0
	DefaultBacktestDelta      = 3
)

// DefaultBufferCandidates are the buffer ratios evaluated by the optimizer.
var DefaultBufferCandidates = []float64{1.0, 1.05, 1.1, 1.15, 1.2}

// PipelineSettings is the run-scoped configuration of the decision pipeline.
type PipelineSettings struct {
	TicketsPerResource float64 `json:"tickets_per_resource"`
	BufferRatio        float64 `json:"buffer_ratio"`
	CooldownDays       int     `json:"cooldown_days"`
	SLAPenaltyCost     float64 `json:"sla_penalty_cost"`
	IdleResourceCost   float64 `json:"idle_resource_cost"`
	MediumThreshold    float64 `json:"medium_threshold"`
	HighThreshold      float64 `json:"high_threshold"`
}

// DefaultPipelineSettings returns the settings used when nothing is configured.
func DefaultPipelineSettings() PipelineSettings {
	return PipelineSettings{
		TicketsPerResource: DefaultTicketsPerResource,
		BufferRatio:        DefaultBufferRatio,
		CooldownDays:       DefaultCooldownDays,
		SLAPenaltyCost:     DefaultSLAPenaltyCost,
		IdleResourceCost:   DefaultIdleResourceCost,
		MediumThreshold:    DefaultMediumThreshold,
		HighThreshold:      DefaultHighThreshold,
	}
}
