package contract

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/capguard/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit   = 20
	MaxResultLimit       = 10000
	DefaultPrecision     = 1
	DefaultConfidence    = 0.9
	DefaultGenerateDays  = 730
	DefaultGenerateStart = "2022-01-01"
	DefaultSeed          = 42
)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// ThresholdsRawInput holds severity threshold definitions from the YAML config file.
type ThresholdsRawInput struct {
	Medium *float64 `mapstructure:"medium"`
	High   *float64 `mapstructure:"high"`
}

// Config holds the runtime configuration for a capguard run.
// This struct remains the "final, validated" config.
type Config struct {
	InputPath     string
	Settings      schema.PipelineSettings
	Confidence    float64
	NaiveForecast bool

	DemandChange     float64
	ResourceChange   int
	Preset           schema.Preset
	ScenariosFile    string
	BacktestDelta    int
	BufferCandidates []float64

	From       time.Time
	To         time.Time
	Severities []schema.Severity // nil keeps every severity

	ResultLimit int // 0 = no limit
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)

	GenerateDays  int
	GenerateStart time.Time
	Seed          uint64

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Input            string  `mapstructure:"input"`
	TicketsPerRes    float64 `mapstructure:"tickets-per-resource"`
	BufferRatio      float64 `mapstructure:"buffer-ratio"`
	CooldownDays     int     `mapstructure:"cooldown-days"`
	SLAPenaltyCost   float64 `mapstructure:"sla-penalty-cost"`
	IdleResourceCost float64 `mapstructure:"idle-resource-cost"`
	Confidence       float64 `mapstructure:"confidence"`
	NaiveForecast    bool    `mapstructure:"naive-forecast"`
	From             string  `mapstructure:"from"`
	To               string  `mapstructure:"to"`
	Severity         string  `mapstructure:"severity"`
	Limit            int     `mapstructure:"limit"`
	Precision        int     `mapstructure:"precision"`
	Output           string  `mapstructure:"output"`
	OutputFile       string  `mapstructure:"output-file"`
	Width            int     `mapstructure:"width"`
	CacheBackend     string  `mapstructure:"cache-backend"`
	CacheDBConnect   string  `mapstructure:"cache-db-connect"`
	RunsBackend      string  `mapstructure:"runs-backend"`
	RunsDBConnect    string  `mapstructure:"runs-db-connect"`
	Emoji            string  `mapstructure:"emoji"`
	Color            string  `mapstructure:"color"`

	// --- Scenario fields shared by run, summary and mcp ---
	DemandChange   float64 `mapstructure:"demand-change"`
	ResourceChange int     `mapstructure:"resource-change"`
	Preset         string  `mapstructure:"preset"`

	// --- Fields from scenariosCmd, backtestCmd and optimizeCmd ---
	ScenariosFile    string `mapstructure:"scenarios-file"`
	BacktestDelta    int    `mapstructure:"backtest-delta"`
	BufferCandidates string `mapstructure:"buffer-candidates"`

	// --- Fields from generateCmd.Flags() ---
	Days      int    `mapstructure:"days"`
	StartDate string `mapstructure:"start-date"`
	Seed      uint64 `mapstructure:"seed"`

	ThresholdsStr string `mapstructure:"thresholds-override"`

	// --- Severity thresholds from config file ---
	Thresholds ThresholdsRawInput `mapstructure:"thresholds"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Severities = slices.Clone(c.Severities)
	clone.BufferCandidates = slices.Clone(c.BufferCandidates)
	return &clone
}

// Scenario returns the scenario requested by the demand-change, resource-change and preset keys.
// Preset floors are applied by the core package.
func (c *Config) Scenario() schema.ScenarioParams {
	return schema.ScenarioParams{
		Name:           string(c.Preset),
		DemandChange:   c.DemandChange,
		ResourceChange: c.ResourceChange,
	}
}

// SettingsMap returns the run-scoped settings as a flat map for run tracking.
func (c *Config) SettingsMap() map[string]any {
	m := map[string]any{
		"input":                c.InputPath,
		"tickets_per_resource": c.Settings.TicketsPerResource,
		"buffer_ratio":         c.Settings.BufferRatio,
		"cooldown_days":        c.Settings.CooldownDays,
		"sla_penalty_cost":     c.Settings.SLAPenaltyCost,
		"idle_resource_cost":   c.Settings.IdleResourceCost,
		"medium_threshold":     c.Settings.MediumThreshold,
		"high_threshold":       c.Settings.HighThreshold,
		"confidence":           c.Confidence,
		"demand_change":        c.DemandChange,
		"resource_change":      c.ResourceChange,
		"preset":               string(c.Preset),
	}
	if !c.From.IsZero() {
		m["from"] = c.From.Format(schema.DateFormat)
	}
	if !c.To.IsZero() {
		m["to"] = c.To.Format(schema.DateFormat)
	}
	return m
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processPipelineSettings(cfg, input); err != nil {
		return err
	}
	if err := processSeverityThresholds(cfg, input); err != nil {
		return err
	}
	if err := processScenario(cfg, input); err != nil {
		return err
	}
	if err := processView(cfg, input); err != nil {
		return err
	}
	if err := processGenerate(cfg, input); err != nil {
		return err
	}
	return resolveInputPath(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' with a host:port address")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and run backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Run Backend Validation ---
	cfg.RunsBackend = schema.DatabaseBackend(strings.ToLower(input.RunsBackend))
	if cfg.RunsBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RunsBackend]; !ok {
		return fmt.Errorf("invalid runs backend '%s'. must be sqlite, mysql, postgresql, none", input.RunsBackend)
	}
	cfg.RunsDBConnect = input.RunsDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return err
	}

	// Both SQLite stores must not share a file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.RunsBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		runsDBPath := cfg.RunsDBConnect
		if runsDBPath == "" {
			runsDBPath = GetRunsDBFilePath()
		}
		if cacheDBPath == runsDBPath {
			return fmt.Errorf("cache and run storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates the output and storage fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.NaiveForecast = input.NaiveForecast
	cfg.ScenariosFile = strings.TrimSpace(input.ScenariosFile)
	cfg.BacktestDelta = input.BacktestDelta

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Limit < 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be between 0 and %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet, prom", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	if input.Confidence <= 0 || input.Confidence >= 1 {
		return fmt.Errorf("confidence must be between 0 and 1 exclusive (received %.2f)", input.Confidence)
	}
	cfg.Confidence = input.Confidence

	return validateBackendConfigs(cfg, input)
}

// processPipelineSettings copies the stage parameters into cfg.Settings.
func processPipelineSettings(cfg *Config, input *ConfigRawInput) error {
	s := schema.DefaultPipelineSettings()

	if input.TicketsPerRes <= 0 {
		return fmt.Errorf("tickets-per-resource must be greater than 0 (received %.2f)", input.TicketsPerRes)
	}
	s.TicketsPerResource = input.TicketsPerRes

	if input.BufferRatio <= 0 {
		return fmt.Errorf("buffer-ratio must be greater than 0 (received %.2f)", input.BufferRatio)
	}
	s.BufferRatio = input.BufferRatio

	if input.CooldownDays < 0 {
		return fmt.Errorf("cooldown-days cannot be negative (received %d)", input.CooldownDays)
	}
	s.CooldownDays = input.CooldownDays

	if input.SLAPenaltyCost < 0 || input.IdleResourceCost < 0 {
		return fmt.Errorf("costs cannot be negative (sla %.2f, idle %.2f)", input.SLAPenaltyCost, input.IdleResourceCost)
	}
	s.SLAPenaltyCost = input.SLAPenaltyCost
	s.IdleResourceCost = input.IdleResourceCost

	cfg.Settings = s
	return nil
}

// processSeverityThresholds resolves the MEDIUM and HIGH gap thresholds.
// Command-line --thresholds-override flag takes precedence over config file settings.
func processSeverityThresholds(cfg *Config, input *ConfigRawInput) error {
	thresholds := map[schema.Severity]float64{
		schema.MediumSeverity: schema.DefaultMediumThreshold,
		schema.HighSeverity:   schema.DefaultHighThreshold,
	}

	if input.Thresholds.Medium != nil {
		thresholds[schema.MediumSeverity] = *input.Thresholds.Medium
	}
	if input.Thresholds.High != nil {
		thresholds[schema.HighSeverity] = *input.Thresholds.High
	}

	if input.ThresholdsStr != "" {
		parsed, err := parseThresholdsString(input.ThresholdsStr)
		if err != nil {
			return fmt.Errorf("invalid --thresholds-override format: %w", err)
		}
		maps.Copy(thresholds, parsed)
	}

	medium, high := thresholds[schema.MediumSeverity], thresholds[schema.HighSeverity]
	if medium <= 0 || high <= medium {
		return fmt.Errorf("thresholds must satisfy 0 < medium < high (received medium %.2f, high %.2f)", medium, high)
	}

	cfg.Settings.MediumThreshold = medium
	cfg.Settings.HighThreshold = high
	return nil
}

// processScenario validates the scenario deltas, preset and buffer candidates.
func processScenario(cfg *Config, input *ConfigRawInput) error {
	if input.DemandChange <= -1 {
		return fmt.Errorf("demand-change must be greater than -1 (received %.2f)", input.DemandChange)
	}
	cfg.DemandChange = input.DemandChange
	cfg.ResourceChange = input.ResourceChange

	cfg.Preset = schema.BaselinePreset
	if input.Preset != "" {
		cfg.Preset = schema.Preset(strings.ToLower(input.Preset))
		if _, ok := schema.ValidPresets[cfg.Preset]; !ok {
			return fmt.Errorf("invalid preset '%s'. must be baseline, conservative, aggressive", input.Preset)
		}
	}

	cfg.BufferCandidates = slices.Clone(schema.DefaultBufferCandidates)
	if input.BufferCandidates != "" {
		candidates, err := ParseBufferCandidates(input.BufferCandidates)
		if err != nil {
			return err
		}
		cfg.BufferCandidates = candidates
	}

	return nil
}

// processView handles the date range and severity filter of the record view.
func processView(cfg *Config, input *ConfigRawInput) error {
	return RevalidateView(cfg, input.From, input.To, input.Severity)
}

// RevalidateView parses the date range and severity filter into cfg.
// Empty dates leave the range open on that side.
func RevalidateView(cfg *Config, from, to, severity string) error {
	cfg.From, cfg.To = time.Time{}, time.Time{}

	if from != "" {
		t, err := time.Parse(schema.DateFormat, from)
		if err != nil {
			return fmt.Errorf("invalid from date '%s'. Expected YYYY-MM-DD: %w", from, err)
		}
		cfg.From = t
	}
	if to != "" {
		t, err := time.Parse(schema.DateFormat, to)
		if err != nil {
			return fmt.Errorf("invalid to date '%s'. Expected YYYY-MM-DD: %w", to, err)
		}
		cfg.To = t
	}
	if !cfg.From.IsZero() && !cfg.To.IsZero() && cfg.From.After(cfg.To) {
		return fmt.Errorf("from date (%s) cannot be after to date (%s)", from, to)
	}

	severities, err := ParseSeverities(severity)
	if err != nil {
		return err
	}
	cfg.Severities = severities
	return nil
}

// RevalidateScenario checks the scenario deltas and preset in cfg, typically after
// they were overridden outside of flag parsing.
func RevalidateScenario(cfg *Config) error {
	if cfg.DemandChange <= -1 {
		return fmt.Errorf("demand-change must be greater than -1 (received %.2f)", cfg.DemandChange)
	}
	cfg.Preset = schema.Preset(strings.ToLower(string(cfg.Preset)))
	if cfg.Preset == "" {
		cfg.Preset = schema.BaselinePreset
	}
	if _, ok := schema.ValidPresets[cfg.Preset]; !ok {
		return fmt.Errorf("invalid preset '%s'. must be baseline, conservative, aggressive", cfg.Preset)
	}
	return nil
}

// processGenerate validates the synthetic data generator options.
func processGenerate(cfg *Config, input *ConfigRawInput) error {
	if input.Days <= 0 {
		return fmt.Errorf("days must be greater than 0 (received %d)", input.Days)
	}
	cfg.GenerateDays = input.Days

	start := input.StartDate
	if start == "" {
		start = DefaultGenerateStart
	}
	t, err := time.Parse(schema.DateFormat, start)
	if err != nil {
		return fmt.Errorf("invalid start-date '%s'. Expected YYYY-MM-DD: %w", start, err)
	}
	cfg.GenerateStart = t
	cfg.Seed = input.Seed
	return nil
}

// resolveInputPath prefers the positional argument over the input key.
func resolveInputPath(cfg *Config, input *ConfigRawInput) error {
	path := strings.TrimSpace(input.InputPathStr)
	if path == "" {
		path = strings.TrimSpace(input.Input)
	}
	if path == "" {
		cfg.InputPath = ""
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	cfg.InputPath = filepath.Clean(abs)
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// ParseSeverities parses a comma-separated severity list such as "HIGH,CRITICAL".
// An empty string or "all" returns nil, which keeps every severity.
func ParseSeverities(s string) ([]schema.Severity, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return nil, nil
	}

	var severities []schema.Severity
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sev := schema.Severity(strings.ToUpper(part))
		if _, ok := schema.ValidSeverities[sev]; !ok {
			return nil, fmt.Errorf("invalid severity '%s'. must be LOW, MEDIUM, HIGH, CRITICAL or all", part)
		}
		if !slices.Contains(severities, sev) {
			severities = append(severities, sev)
		}
	}
	slices.SortFunc(severities, func(a, b schema.Severity) int { return a.Rank() - b.Rank() })
	return severities, nil
}

// ParseBufferCandidates parses a string like "1.0,1.1,1.2" into positive buffer ratios.
func ParseBufferCandidates(s string) ([]float64, error) {
	var candidates []float64
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid buffer candidate '%s': %w", part, err)
		}
		if value <= 0 {
			return nil, fmt.Errorf("buffer candidate must be greater than 0 (received %s)", part)
		}
		candidates = append(candidates, value)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("buffer-candidates must list at least one ratio")
	}
	return candidates, nil
}

// parseThresholdsString parses a string like "medium:10,high:25"
// into a map of Severity to float64.
func parseThresholdsString(s string) (map[schema.Severity]float64, error) {
	thresholds := make(map[schema.Severity]float64)

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		keyValue := strings.Split(part, ":")
		if len(keyValue) != 2 {
			return nil, fmt.Errorf("invalid threshold format '%s', expected 'severity:value'", part)
		}

		keyStr := strings.TrimSpace(keyValue[0])
		valueStr := strings.TrimSpace(keyValue[1])

		var sev schema.Severity
		switch strings.ToLower(keyStr) {
		case "medium":
			sev = schema.MediumSeverity
		case "high":
			sev = schema.HighSeverity
		default:
			return nil, fmt.Errorf("invalid severity '%s', must be medium or high", keyStr)
		}

		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold value '%s' for %s: %w", valueStr, sev, err)
		}
		thresholds[sev] = value
	}

	return thresholds, nil
}
