// Package dataset persists collected records as CSV files under the data
// directory. Every store upserts on its natural key and writes through a
// temp file so a crash mid-write never corrupts committed output.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

// writeAtomic renders rows into a temp file next to path and renames it into
// place. Any failure surfaces as a PersistenceError and leaves the previous
// file untouched.
func writeAtomic(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &pipeline.PersistenceError{Path: path, Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".csv-*")
	if err != nil {
		return &pipeline.PersistenceError{Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return &pipeline.PersistenceError{Path: path, Err: err}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			tmp.Close()
			return &pipeline.PersistenceError{Path: path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return &pipeline.PersistenceError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &pipeline.PersistenceError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &pipeline.PersistenceError{Path: path, Err: err}
	}
	return nil
}

// readRows loads a CSV file and checks its header. A missing file is an
// empty dataset, not an error.
func readRows(path string, wantHeader []string) ([][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &pipeline.PersistenceError{Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(wantHeader)
	all, err := r.ReadAll()
	if err != nil {
		return nil, &pipeline.PersistenceError{Path: path, Err: err}
	}
	if len(all) == 0 {
		return nil, nil
	}
	for i, col := range wantHeader {
		if all[0][i] != col {
			return nil, &pipeline.PersistenceError{
				Path: path,
				Err:  fmt.Errorf("unexpected header column %d: got %q, want %q", i, all[0][i], col),
			}
		}
	}
	return all[1:], nil
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseOptFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func formatOptInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func parseOptInt(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
