package outwriter

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/huangsam/capguard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummary() schema.Summary {
	return schema.Summary{
		Records:             3,
		From:                day(0),
		To:                  day(2),
		AvgDemand:           75,
		CriticalDays:        1,
		RiskDays:            2,
		AlertsFired:         1,
		AlertsSuppressed:    1,
		TotalExpectedCost:   950,
		AvgDailyCost:        316.6666,
		CapacityUtilization: 1.3,
		CostBySeverity: map[schema.Severity]float64{
			schema.LowSeverity: 100, schema.MediumSeverity: 0, schema.HighSeverity: 350, schema.CriticalSeverity: 500,
		},
		DaysBySeverity: map[schema.Severity]int{
			schema.LowSeverity: 1, schema.MediumSeverity: 0, schema.HighSeverity: 1, schema.CriticalSeverity: 1,
		},
		DaysByRootCause: map[schema.RootCause]int{
			schema.DemandSpikeCause: 1, schema.ResourceDropCause: 0, schema.BacklogAccumulationCause: 1, schema.MixedFactorsCause: 1,
		},
	}
}

func TestSummaryRowsEmpty(t *testing.T) {
	fmtFloat, _ := createFormatters(1)
	rows := summaryRows(schema.Summary{}, fmtFloat)
	require.Len(t, rows, 11)
	assert.Equal(t, "0", rows[0].value)
	assert.Equal(t, "-", rows[1].value)
	assert.Equal(t, "-", rows[2].value)
	assert.Equal(t, "0.0", rows[3].value)
}

func TestWriteSummaryTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSummaryTable(&buf, sampleSummary(), testConfig(schema.TextOut), time.Second))
	output := buf.String()

	assert.Contains(t, output, "Total Expected Cost")
	assert.Contains(t, output, "950.0")
	assert.Contains(t, output, "316.7")
	assert.Contains(t, output, "2024-03-01")
	assert.Contains(t, output, "Resource Drop")
	assert.Contains(t, output, "Summary completed in 1s. Cache backend: none")
}

func TestWriteSummaryCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSummaryCSV(&buf, sampleSummary(), 2))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	// header + 11 KPIs + 2 per severity + 1 per root cause
	require.Len(t, rows, 1+11+8+4)

	values := make(map[string]string, len(rows))
	for _, row := range rows[1:] {
		values[row[0]] = row[1]
	}
	assert.Equal(t, "3", values["records"])
	assert.Equal(t, "2024-03-03", values["to"])
	assert.Equal(t, "316.67", values["avg_daily_cost"])
	assert.Equal(t, "1", values["days.CRITICAL"])
	assert.Equal(t, "350.00", values["cost.HIGH"])
	assert.Equal(t, "0", values["root_cause.Resource Drop"])
}

func TestWriteSummaryProm(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSummaryProm(&buf, sampleSummary()))
	output := buf.String()

	assert.Contains(t, output, "# TYPE capguard_records gauge")
	assert.Contains(t, output, "capguard_records 3\n")
	assert.Contains(t, output, "capguard_risk_days 2\n")
	assert.Contains(t, output, "capguard_expected_cost_total 950\n")
	assert.Contains(t, output, `capguard_alerts{decision="fired"} 1`)
	assert.Contains(t, output, `capguard_alerts{decision="suppressed"} 1`)
	assert.Contains(t, output, `capguard_days{severity="CRITICAL"} 1`)
	assert.Contains(t, output, `capguard_expected_cost{severity="HIGH"} 350`)
	assert.Contains(t, output, `capguard_root_cause_days{root_cause="Demand Spike"} 1`)
}

func TestPrintSummaryResultsParquetUnsupported(t *testing.T) {
	err := PrintSummaryResults(sampleSummary(), testConfig(schema.ParquetOut), time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parquet output is not supported for summaries")
}
