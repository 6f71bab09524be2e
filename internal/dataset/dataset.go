// Package dataset loads and writes the daily time series that feeds the decision pipeline.
package dataset

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/capguard/internal/parquet"
	"github.com/huangsam/capguard/schema"
)

var (
	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("required column missing from header")

	// ErrDuplicateDate is returned when two records share a date.
	ErrDuplicateDate = errors.New("duplicate date")

	// ErrEmptyValue is returned when a required cell is empty.
	ErrEmptyValue = errors.New("empty value")
)

// ParseError reports a cell that could not be decoded. Row counts the header as row 1.
type ParseError struct {
	Row    int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d, column %q: %v", e.Row, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Load reads a dataset from a CSV or Parquet file, chosen by extension.
// Records are returned in ascending date order.
func Load(path string) (schema.Dataset, error) {
	var (
		ds  schema.Dataset
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		if ds, err = parquet.ReadRecordsParquet(path); err == nil {
			err = checkRecords(ds)
		}
	} else {
		ds, err = loadCSVFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return normalize(ds)
}

func loadCSVFile(path string) (schema.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return ReadCSV(file)
}

// ReadCSV decodes a header-led CSV stream. Unknown columns are ignored and empty
// cells of optional columns leave the value absent. Records keep file order.
func ReadCSV(r io.Reader) (schema.Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return schema.Dataset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	type bound struct {
		col column
		idx int
	}
	var bindings []bound
	for _, col := range columns {
		idx, ok := index[col.name]
		if !ok {
			if col.required {
				return nil, &ParseError{Row: 1, Column: col.name, Err: ErrMissingColumn}
			}
			continue
		}
		bindings = append(bindings, bound{col: col, idx: idx})
	}

	ds := schema.Dataset{}
	for row := 2; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		var rec schema.TimeSeriesRecord
		for _, b := range bindings {
			value := ""
			if b.idx < len(fields) {
				value = strings.TrimSpace(fields[b.idx])
			}
			if value == "" {
				if b.col.required {
					return nil, &ParseError{Row: row, Column: b.col.name, Err: ErrEmptyValue}
				}
				continue
			}
			if err := b.col.decode(&rec, value); err != nil {
				return nil, &ParseError{Row: row, Column: b.col.name, Err: err}
			}
		}
		ds = append(ds, rec)
	}
	return ds, nil
}

// WriteCSV encodes the dataset with every column that at least one record carries.
// The output is readable by ReadCSV.
func WriteCSV(w io.Writer, ds schema.Dataset) error {
	var present []column
	for _, col := range columns {
		if col.required || carries(ds, col) {
			present = append(present, col)
		}
	}

	writer := csv.NewWriter(w)
	header := make([]string, len(present))
	for i, col := range present {
		header[i] = col.name
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	row := make([]string, len(present))
	for i := range ds {
		for j, col := range present {
			value, _ := col.encode(&ds[i])
			row[j] = value
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func carries(ds schema.Dataset, col column) bool {
	for i := range ds {
		if _, ok := col.encode(&ds[i]); ok {
			return true
		}
	}
	return false
}

// checkRecords validates decoded Parquet rows. Row numbers count from 1.
func checkRecords(ds schema.Dataset) error {
	for i := range ds {
		if name, err := checkRecord(&ds[i]); err != nil {
			return &ParseError{Row: i + 1, Column: name, Err: err}
		}
	}
	return nil
}

// normalize sorts records by date and rejects repeated dates.
func normalize(ds schema.Dataset) (schema.Dataset, error) {
	sorted := ds.Sorted()
	if sorted == nil {
		sorted = schema.Dataset{}
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date.Equal(sorted[i-1].Date) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDate, sorted[i].Date.Format(schema.DateFormat))
		}
	}
	return sorted, nil
}

// Fingerprint returns the hex SHA-256 digest of the file contents.
func Fingerprint(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
