package schema

// Custom string types for type safety.
type (
	// Severity represents the risk class assigned to a day.
	Severity string

	// RootCause represents the dominant driver attributed to a day.
	RootCause string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and run tracking.
	DatabaseBackend string

	// Preset represents a named scenario preset.
	Preset string

	// RunKind represents the command that produced a tracked run.
	RunKind string
)

// All severities, lowest first.
const (
	LowSeverity      Severity = "LOW"
	MediumSeverity   Severity = "MEDIUM"
	HighSeverity     Severity = "HIGH"
	CriticalSeverity Severity = "CRITICAL"
)

// All root causes, in rule order.
const (
	DemandSpikeCause         RootCause = "Demand Spike"
	ResourceDropCause        RootCause = "Resource Drop"
	BacklogAccumulationCause RootCause = "Backlog Accumulation"
	MixedFactorsCause        RootCause = "Mixed Factors"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
	PromOut    OutputMode = "prom"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All scenario presets supported.
const (
	BaselinePreset     Preset = "baseline" // default
	ConservativePreset Preset = "conservative"
	AggressivePreset   Preset = "aggressive"
)

// All run kinds tracked by the run store.
const (
	PipelineRun  RunKind = "pipeline"
	ScenariosRun RunKind = "scenarios"
	BacktestRun  RunKind = "backtest"
	OptimizeRun  RunKind = "optimize"
	SummaryRun   RunKind = "summary"
)

// AllSeverities lists every severity from lowest to highest.
var AllSeverities = []Severity{LowSeverity, MediumSeverity, HighSeverity, CriticalSeverity}

// AllRootCauses lists every root cause in rule order.
var AllRootCauses = []RootCause{DemandSpikeCause, ResourceDropCause, BacklogAccumulationCause, MixedFactorsCause}

// AllPresets lists every preset in display order.
var AllPresets = []Preset{BaselinePreset, ConservativePreset, AggressivePreset}

// ValidSeverities lists all valid severities.
var ValidSeverities = map[Severity]struct{}{
	LowSeverity:      {},
	MediumSeverity:   {},
	HighSeverity:     {},
	CriticalSeverity: {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
	PromOut:    {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidPresets lists all valid scenario presets.
var ValidPresets = map[Preset]struct{}{
	BaselinePreset:     {},
	ConservativePreset: {},
	AggressivePreset:   {},
}

// Rank returns the ordinal of the severity (LOW=0 .. CRITICAL=3), or -1 when unknown.
func (s Severity) Rank() int {
	switch s {
	case LowSeverity:
		return 0
	case MediumSeverity:
		return 1
	case HighSeverity:
		return 2
	case CriticalSeverity:
		return 3
	default:
		return -1
	}
}

// IsElevated reports whether the severity can raise an alert.
func (s Severity) IsElevated() bool {
	return s.Rank() >= HighSeverity.Rank()
}
