package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/capguard/internal/contract"
	"github.com/huangsam/capguard/schema"
)

// writeWithFile opens the output target, hands it to writer and reports where the
// result went. An empty outputFile writes to stdout.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader writes header followed by the rows produced by writeRows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// createFormatters returns the float and optional-float formatters for a precision.
func createFormatters(precision int) (fmtFloat func(float64) string, fmtOpt func(*float64) string) {
	fmtFloat = func(v float64) string {
		return fmt.Sprintf("%.*f", precision, v)
	}
	fmtOpt = func(p *float64) string {
		if p == nil {
			return "-"
		}
		return fmtFloat(*p)
	}
	return fmtFloat, fmtOpt
}

// severityLabel renders a severity for tables, colored when colors are enabled.
func severityLabel(sev schema.Severity, useColors bool) string {
	if sev == "" {
		return "-"
	}
	if useColors {
		return contract.GetColorLabel(sev)
	}
	return string(sev)
}

// alertLabel renders the alert decision of a record.
func alertLabel(allowed *bool, useEmojis bool) string {
	switch {
	case allowed == nil:
		return "-"
	case *allowed && useEmojis:
		return "🔔 yes"
	case *allowed:
		return "yes"
	case useEmojis:
		return "🔕 no"
	default:
		return "no"
	}
}

// unsupportedOutput reports an output mode a writer cannot produce.
func unsupportedOutput(mode schema.OutputMode, what string) error {
	return fmt.Errorf("%s output is not supported for %s", mode, what)
}
