package mutscore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrColumnNotFound reports a column name or #index missing from the header.
var ErrColumnNotFound = errors.New("column not found")

// delimiterFor picks the field separator from the file extension.
func delimiterFor(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '\t'
	}
	return ','
}

// ReadTable loads a CSV/TSV file whose first row is a header.
func ReadTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.Comma = delimiterFor(path)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return Table{}, fmt.Errorf("read %s: empty file", filepath.Base(path))
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = cleanCell(cell)
	}
	return Table{Header: header, Rows: rows[1:], Comma: reader.Comma}, nil
}

// ColumnIndex resolves a header name (case-insensitive) or a 1-based "#N"
// reference to a zero-based column index.
func (t Table) ColumnIndex(name string) (int, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return -1, fmt.Errorf("%w: empty column name", ErrColumnNotFound)
	}
	for i, col := range t.Header {
		if col == trimmed {
			return i, nil
		}
	}
	for i, col := range t.Header {
		if strings.EqualFold(col, trimmed) {
			return i, nil
		}
	}
	if strings.HasPrefix(trimmed, "#") {
		idx, err := parseColumnIndex(trimmed)
		if err != nil {
			return -1, err
		}
		if idx >= len(t.Header) {
			return -1, fmt.Errorf("%w: index %s is out of range", ErrColumnNotFound, trimmed)
		}
		return idx, nil
	}
	return -1, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// Column returns the cells of column idx. Rows too short to hold it are an error.
func (t Table) Column(idx int) ([]string, error) {
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if idx >= len(row) {
			return nil, fmt.Errorf("row %d has %d fields, column %d missing", i+1, len(row), idx+1)
		}
		out[i] = cleanCell(row[idx])
	}
	return out, nil
}

// AppendColumn adds a column, replacing an existing one with the same name.
func (t *Table) AppendColumn(name string, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("rows/values length mismatch: %d vs %d", len(t.Rows), len(values))
	}
	idx := -1
	for i, col := range t.Header {
		if col == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.Header = append(t.Header, name)
		idx = len(t.Header) - 1
	}
	for i, row := range t.Rows {
		for len(row) <= idx {
			row = append(row, "")
		}
		row[idx] = values[i]
		t.Rows[i] = row
	}
	return nil
}

// WriteTable writes the table to path, creating parent directories.
func WriteTable(path string, t Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	writer.Comma = delimiterFor(path)
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush result: %w", err)
	}
	return f.Close()
}

// FormatScore renders a score with the shortest round-trip representation.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

func parseColumnIndex(token string) (int, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(token, "#"))
	if trimmed == "" {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	idx, err := strconv.Atoi(trimmed)
	if err != nil {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	if idx <= 0 {
		return -1, fmt.Errorf("column indices are 1-based: %q", token)
	}
	return idx - 1, nil
}
