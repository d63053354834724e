package table

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// CSVTable is a Table backed by an in-memory copy of a CSV file
type CSVTable struct {
	headers []string
	index   map[string]int // column name -> position
	rows    [][]string
	mu      sync.RWMutex
}

// LoadCSV reads a CSV file into a CSVTable. The first record is the header.
// Duplicate headers are rejected because cells are addressed by column name.
func LoadCSV(path string) (*CSVTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are padded below

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty csv: %s", path)
	}

	headers := records[0]
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, dup := index[h]; dup {
			return nil, fmt.Errorf("duplicate header %q", h)
		}
		index[h] = i
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < len(headers) {
			padded := make([]string, len(headers))
			copy(padded, rec)
			rec = padded
		}
		rows = append(rows, rec)
	}

	return &CSVTable{headers: headers, index: index, rows: rows}, nil
}

// NewCSVTable creates an in-memory table from headers and rows
func NewCSVTable(headers []string, rows [][]string) (*CSVTable, error) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, dup := index[h]; dup {
			return nil, fmt.Errorf("duplicate header %q", h)
		}
		index[h] = i
	}

	copied := make([][]string, len(rows))
	for i, rec := range rows {
		row := make([]string, len(headers))
		copy(row, rec)
		copied[i] = row
	}

	return &CSVTable{headers: headers, index: index, rows: copied}, nil
}

// Headers returns the column names in order
func (t *CSVTable) Headers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.headers))
	copy(out, t.headers)
	return out
}

// Len returns the number of data rows
func (t *CSVTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Get returns the cell value and whether the column exists
func (t *CSVTable) Get(row int, column string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	col, ok := t.index[column]
	if !ok {
		return "", false
	}
	if row < 0 || row >= len(t.rows) {
		return "", false
	}
	return t.rows[row][col], true
}

// Set writes a cell value; the column must already exist
func (t *CSVTable) Set(row int, column string, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	col, ok := t.index[column]
	if !ok {
		return fmt.Errorf("unknown column %q", column)
	}
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("row %d out of range", row)
	}
	t.rows[row][col] = value
	return nil
}

// EnsureColumn adds the column with empty cells if it is missing
func (t *CSVTable) EnsureColumn(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.index[name]; ok {
		return
	}
	t.index[name] = len(t.headers)
	t.headers = append(t.headers, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], "")
	}
}

// Save writes the table to a CSV file
func (t *CSVTable) Save(path string) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.headers); err != nil {
		_ = f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.rows {
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush csv: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv: %w", err)
	}
	return nil
}

// OutputPath derives a unique sibling file name for non-in-place saves,
// e.g. data.csv -> data_verified_20240131120000.csv
func OutputPath(path, suffix string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return fmt.Sprintf("%s_%s_%s%s", base, suffix, time.Now().Format("20060102150405"), ext)
}
