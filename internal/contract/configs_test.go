package contract

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/capguard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validRawInput mirrors the viper defaults registered by the cmd package.
func validRawInput() *ConfigRawInput {
	return &ConfigRawInput{
		TicketsPerRes:    schema.DefaultTicketsPerResource,
		BufferRatio:      schema.DefaultBufferRatio,
		CooldownDays:     schema.DefaultCooldownDays,
		SLAPenaltyCost:   schema.DefaultSLAPenaltyCost,
		IdleResourceCost: schema.DefaultIdleResourceCost,
		Confidence:       DefaultConfidence,
		Severity:         "HIGH,CRITICAL",
		Limit:            DefaultResultLimit,
		Precision:        DefaultPrecision,
		Output:           "text",
		CacheBackend:     "sqlite",
		Emoji:            "no",
		Color:            "yes",
		BacktestDelta:    schema.DefaultBacktestDelta,
		Days:             DefaultGenerateDays,
		Seed:             DefaultSeed,
	}
}

func float(v float64) *float64 { return &v }

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validRawInput()))

	assert.Equal(t, schema.DefaultPipelineSettings(), cfg.Settings)
	assert.Equal(t, schema.BaselinePreset, cfg.Preset)
	assert.Equal(t, schema.DefaultBufferCandidates, cfg.BufferCandidates)
	assert.Equal(t, []schema.Severity{schema.HighSeverity, schema.CriticalSeverity}, cfg.Severities)
	assert.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), cfg.GenerateStart)
	assert.Equal(t, uint64(DefaultSeed), cfg.Seed)
	assert.True(t, cfg.UseColors)
	assert.False(t, cfg.UseEmojis)
	assert.Empty(t, cfg.InputPath)
	assert.True(t, cfg.From.IsZero())
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{"valid defaults", func(*ConfigRawInput) {}, false},
		{"zero limit means all", func(in *ConfigRawInput) { in.Limit = 0 }, false},
		{"negative limit", func(in *ConfigRawInput) { in.Limit = -1 }, true},
		{"limit too high", func(in *ConfigRawInput) { in.Limit = MaxResultLimit + 1 }, true},
		{"invalid precision", func(in *ConfigRawInput) { in.Precision = 3 }, true},
		{"invalid output", func(in *ConfigRawInput) { in.Output = "xml" }, true},
		{"parquet without file", func(in *ConfigRawInput) { in.Output = "parquet" }, true},
		{"parquet with file", func(in *ConfigRawInput) { in.Output = "parquet"; in.OutputFile = "out.parquet" }, false},
		{"invalid emoji", func(in *ConfigRawInput) { in.Emoji = "maybe" }, true},
		{"confidence out of range", func(in *ConfigRawInput) { in.Confidence = 1 }, true},
		{"zero tickets per resource", func(in *ConfigRawInput) { in.TicketsPerRes = 0 }, true},
		{"zero buffer ratio", func(in *ConfigRawInput) { in.BufferRatio = 0 }, true},
		{"negative cooldown", func(in *ConfigRawInput) { in.CooldownDays = -1 }, true},
		{"negative cost", func(in *ConfigRawInput) { in.SLAPenaltyCost = -5 }, true},
		{"demand change wipes demand", func(in *ConfigRawInput) { in.DemandChange = -1 }, true},
		{"invalid preset", func(in *ConfigRawInput) { in.Preset = "wild" }, true},
		{"preset is case insensitive", func(in *ConfigRawInput) { in.Preset = "Aggressive" }, false},
		{"invalid buffer candidate", func(in *ConfigRawInput) { in.BufferCandidates = "1.0,abc" }, true},
		{"non-positive buffer candidate", func(in *ConfigRawInput) { in.BufferCandidates = "0" }, true},
		{"invalid from date", func(in *ConfigRawInput) { in.From = "01/02/2023" }, true},
		{"from after to", func(in *ConfigRawInput) { in.From = "2023-02-01"; in.To = "2023-01-01" }, true},
		{"invalid severity", func(in *ConfigRawInput) { in.Severity = "HIGH,SEVERE" }, true},
		{"zero days", func(in *ConfigRawInput) { in.Days = 0 }, true},
		{"invalid start date", func(in *ConfigRawInput) { in.StartDate = "yesterday" }, true},
		{"invalid cache backend", func(in *ConfigRawInput) { in.CacheBackend = "redis" }, true},
		{"mysql without connection", func(in *ConfigRawInput) { in.CacheBackend = "mysql" }, true},
		{"invalid runs backend", func(in *ConfigRawInput) { in.RunsBackend = "oracle" }, true},
		{"same sqlite file", func(in *ConfigRawInput) {
			in.RunsBackend = "sqlite"
			in.CacheDBConnect = "/tmp/capguard.db"
			in.RunsDBConnect = "/tmp/capguard.db"
		}, true},
		{"default sqlite files differ", func(in *ConfigRawInput) { in.RunsBackend = "sqlite" }, false},
		{"medium above high", func(in *ConfigRawInput) { in.Thresholds = ThresholdsRawInput{Medium: float(30)} }, true},
		{"bad threshold override", func(in *ConfigRawInput) { in.ThresholdsStr = "low:5" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validRawInput()
			tt.mutate(input)
			err := ProcessAndValidate(&Config{}, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidateInputPath(t *testing.T) {
	input := validRawInput()
	input.Input = "from-config.csv"
	input.InputPathStr = "positional.csv"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.True(t, filepath.IsAbs(cfg.InputPath))
	assert.Equal(t, "positional.csv", filepath.Base(cfg.InputPath))

	input.InputPathStr = ""
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, "from-config.csv", filepath.Base(cfg.InputPath))
}

func TestProcessSeverityThresholds(t *testing.T) {
	t.Run("config file values", func(t *testing.T) {
		input := validRawInput()
		input.Thresholds = ThresholdsRawInput{Medium: float(5), High: float(15)}

		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(cfg, input))
		assert.Equal(t, 5.0, cfg.Settings.MediumThreshold)
		assert.Equal(t, 15.0, cfg.Settings.HighThreshold)
	})

	t.Run("override wins over config file", func(t *testing.T) {
		input := validRawInput()
		input.Thresholds = ThresholdsRawInput{Medium: float(5), High: float(15)}
		input.ThresholdsStr = "high:40"

		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(cfg, input))
		assert.Equal(t, 5.0, cfg.Settings.MediumThreshold)
		assert.Equal(t, 40.0, cfg.Settings.HighThreshold)
	})
}

func TestParseThresholdsString(t *testing.T) {
	got, err := parseThresholdsString("medium: 8, HIGH:30,")
	require.NoError(t, err)
	assert.Equal(t, map[schema.Severity]float64{schema.MediumSeverity: 8, schema.HighSeverity: 30}, got)

	_, err = parseThresholdsString("medium=8")
	assert.Error(t, err)
	_, err = parseThresholdsString("high:x")
	assert.Error(t, err)
}

func TestParseSeverities(t *testing.T) {
	tests := []struct {
		input    string
		expected []schema.Severity
	}{
		{"", nil},
		{"all", nil},
		{"ALL", nil},
		{"critical", []schema.Severity{schema.CriticalSeverity}},
		{"high, critical,high", []schema.Severity{schema.HighSeverity, schema.CriticalSeverity}},
		{"critical,low,medium", []schema.Severity{schema.LowSeverity, schema.MediumSeverity, schema.CriticalSeverity}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSeverities(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseBufferCandidates(t *testing.T) {
	got, err := ParseBufferCandidates("1.0, 1.25,,1.5")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0, 1.25, 1.5}, got)

	_, err = ParseBufferCandidates(",")
	assert.Error(t, err)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{"sqlite needs nothing", schema.SQLiteBackend, "", false},
		{"none needs nothing", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/capguard", false},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/capguard", true},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost port=5432 user=u dbname=capguard", false},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
		{"postgres missing host", schema.PostgreSQLBackend, "dbname=capguard", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validRawInput()))

	clone := cfg.Clone()
	clone.BufferCandidates[0] = 9
	clone.Severities[0] = schema.LowSeverity
	clone.Settings.BufferRatio = 2

	assert.Equal(t, schema.DefaultBufferCandidates[0], cfg.BufferCandidates[0])
	assert.Equal(t, schema.HighSeverity, cfg.Severities[0])
	assert.Equal(t, schema.DefaultBufferRatio, cfg.Settings.BufferRatio)
}

func TestConfigScenarioAndSettingsMap(t *testing.T) {
	input := validRawInput()
	input.DemandChange = 0.2
	input.ResourceChange = -2
	input.Preset = "conservative"
	input.From = "2023-01-01"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, schema.ScenarioParams{Name: "conservative", DemandChange: 0.2, ResourceChange: -2}, cfg.Scenario())

	m := cfg.SettingsMap()
	assert.Equal(t, "2023-01-01", m["from"])
	assert.NotContains(t, m, "to")
	assert.Equal(t, schema.DefaultCooldownDays, m["cooldown_days"])
}

func TestProcessProfilingConfig(t *testing.T) {
	profile := &ProfileConfig{}
	require.NoError(t, ProcessProfilingConfig(profile, ""))
	assert.False(t, profile.Enabled)

	require.NoError(t, ProcessProfilingConfig(profile, "capguard"))
	assert.True(t, profile.Enabled)
	assert.Equal(t, "capguard", profile.Prefix)
}

func TestRevalidateView(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, RevalidateView(cfg, "2024-01-01", "2024-02-01", "critical"))
	assert.Equal(t, 2024, cfg.From.Year())
	assert.Equal(t, time.February, cfg.To.Month())
	assert.Equal(t, []schema.Severity{schema.CriticalSeverity}, cfg.Severities)

	require.NoError(t, RevalidateView(cfg, "", "", ""))
	assert.True(t, cfg.From.IsZero())
	assert.Nil(t, cfg.Severities)

	assert.Error(t, RevalidateView(cfg, "2024-02-01", "2024-01-01", ""))
	assert.Error(t, RevalidateView(cfg, "yesterday", "", ""))
	assert.Error(t, RevalidateView(cfg, "", "", "SEVERE"))
}

func TestRevalidateScenario(t *testing.T) {
	cfg := &Config{Preset: "Aggressive"}
	require.NoError(t, RevalidateScenario(cfg))
	assert.Equal(t, schema.AggressivePreset, cfg.Preset)

	cfg = &Config{}
	require.NoError(t, RevalidateScenario(cfg))
	assert.Equal(t, schema.BaselinePreset, cfg.Preset)

	assert.Error(t, RevalidateScenario(&Config{Preset: "reckless"}))
	assert.Error(t, RevalidateScenario(&Config{DemandChange: -1}))
}
