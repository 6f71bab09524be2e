package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/capguard/internal/contract"
	"github.com/huangsam/capguard/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// promNamespace prefixes every exported metric.
const promNamespace = "capguard"

// summaryRow is one headline KPI.
type summaryRow struct {
	key   string
	label string
	value string
}

// summaryRows flattens the headline KPIs in display order.
func summaryRows(s schema.Summary, fmtFloat func(float64) string) []summaryRow {
	dateOrDash := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format(schema.DateFormat)
	}
	return []summaryRow{
		{"records", "Records", strconv.Itoa(s.Records)},
		{"from", "From", dateOrDash(s.From)},
		{"to", "To", dateOrDash(s.To)},
		{"avg_demand", "Avg Demand", fmtFloat(s.AvgDemand)},
		{"critical_days", "Critical Days", strconv.Itoa(s.CriticalDays)},
		{"risk_days", "Risk Days", strconv.Itoa(s.RiskDays)},
		{"alerts_fired", "Alerts Fired", strconv.Itoa(s.AlertsFired)},
		{"alerts_suppressed", "Alerts Suppressed", strconv.Itoa(s.AlertsSuppressed)},
		{"total_expected_cost", "Total Expected Cost", fmtFloat(s.TotalExpectedCost)},
		{"avg_daily_cost", "Avg Daily Cost", fmtFloat(s.AvgDailyCost)},
		{"capacity_utilization", "Capacity Utilization", fmtFloat(s.CapacityUtilization)},
	}
}

// PrintSummaryResults writes the headline KPIs in the configured output format.
func PrintSummaryResults(s schema.Summary, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, s)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryCSV(w, s, cfg.Precision)
		}, "Wrote CSV")
	case schema.PromOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryProm(w, s)
		}, "Wrote metrics")
	case schema.ParquetOut:
		return unsupportedOutput(cfg.Output, "summaries")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryTable(w, s, cfg, duration)
		}, "Wrote table")
	}
}

// writeSummaryCSV writes one metric,value row per KPI, including each breakdown entry.
func writeSummaryCSV(w io.Writer, s schema.Summary, precision int) error {
	fmtFloat, _ := createFormatters(precision)
	return writeCSVWithHeader(w, []string{"metric", "value"}, func(cw *csv.Writer) error {
		for _, row := range summaryRows(s, fmtFloat) {
			if err := cw.Write([]string{row.key, row.value}); err != nil {
				return err
			}
		}
		for _, sev := range schema.AllSeverities {
			if err := cw.Write([]string{"days." + string(sev), strconv.Itoa(s.DaysBySeverity[sev])}); err != nil {
				return err
			}
			if err := cw.Write([]string{"cost." + string(sev), fmtFloat(s.CostBySeverity[sev])}); err != nil {
				return err
			}
		}
		for _, cause := range schema.AllRootCauses {
			if err := cw.Write([]string{"root_cause." + string(cause), strconv.Itoa(s.DaysByRootCause[cause])}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeSummaryTable(w io.Writer, s schema.Summary, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	kpis := tablewriter.NewWriter(w)
	kpis.Header([]string{"Metric", "Value"})
	kpis.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, row := range summaryRows(s, fmtFloat) {
		data = append(data, []string{row.label, row.value})
	}
	if err := kpis.Bulk(data); err != nil {
		return err
	}
	if err := kpis.Render(); err != nil {
		return err
	}

	breakdown := tablewriter.NewWriter(w)
	breakdown.Header([]string{"Severity", "Days", "Expected Cost"})
	breakdown.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	data = data[:0]
	for _, sev := range schema.AllSeverities {
		data = append(data, []string{
			severityLabel(sev, cfg.UseColors),
			strconv.Itoa(s.DaysBySeverity[sev]),
			fmtFloat(s.CostBySeverity[sev]),
		})
	}
	if err := breakdown.Bulk(data); err != nil {
		return err
	}
	if err := breakdown.Render(); err != nil {
		return err
	}

	causes := tablewriter.NewWriter(w)
	causes.Header([]string{"Root Cause", "Days"})
	causes.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	data = data[:0]
	for _, cause := range schema.AllRootCauses {
		data = append(data, []string{string(cause), strconv.Itoa(s.DaysByRootCause[cause])})
	}
	if err := causes.Bulk(data); err != nil {
		return err
	}
	if err := causes.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Summary completed in %v. Cache backend: %s\n", duration, cfg.CacheBackend)
	return err
}

// writeSummaryProm exposes the KPIs as gauges in the Prometheus text format.
func writeSummaryProm(w io.Writer, s schema.Summary) error {
	reg := prometheus.NewRegistry()

	gauges := []struct {
		name  string
		help  string
		value float64
	}{
		{"records", "Number of records in the view.", float64(s.Records)},
		{"avg_demand", "Average daily demand.", s.AvgDemand},
		{"critical_days", "Days classified CRITICAL.", float64(s.CriticalDays)},
		{"risk_days", "Days classified HIGH or CRITICAL.", float64(s.RiskDays)},
		{"expected_cost_total", "Sum of the total expected cost.", s.TotalExpectedCost},
		{"avg_daily_cost", "Average total expected cost per day.", s.AvgDailyCost},
		{"capacity_utilization_ratio", "Total demand over total estimated capacity.", s.CapacityUtilization},
	}
	for _, g := range gauges {
		gauge := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: promNamespace, Name: g.name, Help: g.help})
		gauge.Set(g.value)
		if err := reg.Register(gauge); err != nil {
			return fmt.Errorf("failed to register %s: %w", g.name, err)
		}
	}

	alerts := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace, Name: "alerts", Help: "Elevated days by alert decision.",
	}, []string{"decision"})
	alerts.WithLabelValues("fired").Set(float64(s.AlertsFired))
	alerts.WithLabelValues("suppressed").Set(float64(s.AlertsSuppressed))

	days := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace, Name: "days", Help: "Days by risk severity.",
	}, []string{"severity"})
	cost := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace, Name: "expected_cost", Help: "Total expected cost by risk severity.",
	}, []string{"severity"})
	for _, sev := range schema.AllSeverities {
		days.WithLabelValues(string(sev)).Set(float64(s.DaysBySeverity[sev]))
		cost.WithLabelValues(string(sev)).Set(s.CostBySeverity[sev])
	}

	causes := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace, Name: "root_cause_days", Help: "Days by attributed root cause.",
	}, []string{"root_cause"})
	for _, cause := range schema.AllRootCauses {
		causes.WithLabelValues(string(cause)).Set(float64(s.DaysByRootCause[cause]))
	}

	for _, c := range []prometheus.Collector{alerts, days, cost, causes} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("failed to register collector: %w", err)
		}
	}

	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	encoder := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
	}
	return nil
}
