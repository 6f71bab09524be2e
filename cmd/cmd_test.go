package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSeverityFilter(t *testing.T) {
	assert.Equal(t, "HIGH,CRITICAL", defaultSeverityFilter())
}

func TestSqliteFilePath(t *testing.T) {
	assert.Equal(t, "/tmp/custom.db", sqliteFilePath("/tmp/custom.db", "/home/me/.capguard_cache.db"))
	assert.Equal(t, "/home/me/.capguard_cache.db", sqliteFilePath("", "/home/me/.capguard_cache.db"))
}

func TestCommandTree(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "summary", "scenarios", "backtest", "optimize", "generate", "cache", "runs", "mcp", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}

	for _, flag := range []string{"input", "severity", "preset", "thresholds-override", "runs-backend"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), "missing flag %s", flag)
	}
	assert.NotNil(t, backtestCmd.Flags().Lookup("backtest-delta"))
	assert.NotNil(t, optimizeCmd.Flags().Lookup("buffer-candidates"))
	assert.NotNil(t, generateCmd.Flags().Lookup("seed"))
}
