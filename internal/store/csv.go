// Package store persists generated records as two-column CSV files.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goosewin/qagen/internal/qa"
)

var (
	ErrNoRecords = errors.New("no records to save")
	Header       = []string{"input", "output"}
)

// CSVStore appends records to CSV files under Dir.
type CSVStore struct {
	Dir string
}

// Append writes records to path (relative paths resolve under Dir). The
// header is written only when the file is new; rows keep insertion order.
func (s *CSVStore) Append(records []qa.Record, name string) (string, error) {
	if len(records) == 0 {
		return "", ErrNoRecords
	}
	path := s.resolve(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	info, statErr := os.Stat(path)
	isNew := statErr != nil || info.Size() == 0

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := writeRecords(file, records, isNew); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := file.Sync(); err != nil {
		return "", fmt.Errorf("sync %s: %w", path, err)
	}
	return path, nil
}

func (s *CSVStore) resolve(name string) string {
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		name += ".csv"
	}
	if filepath.IsAbs(name) || strings.TrimSpace(s.Dir) == "" {
		return name
	}
	return filepath.Join(s.Dir, name)
}

func writeRecords(w io.Writer, records []qa.Record, header bool) error {
	writer := csv.NewWriter(w)
	if header {
		if err := writer.Write(Header); err != nil {
			return err
		}
	}
	for _, record := range records {
		if err := writer.Write([]string{record.Input, record.Output}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadFile loads a CSV written by Append. Rows with fewer than two columns
// are skipped; the header row is recognised by name.
func ReadFile(path string) ([]qa.Record, []string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return []qa.Record{}, nil, nil
	}

	columns := rows[0]
	inputIdx, outputIdx := indexOf(columns, "input"), indexOf(columns, "output")
	if inputIdx < 0 || outputIdx < 0 {
		return nil, columns, fmt.Errorf("%s: missing input/output columns", path)
	}

	records := make([]qa.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) <= inputIdx || len(row) <= outputIdx {
			continue
		}
		records = append(records, qa.Record{Input: row[inputIdx], Output: row[outputIdx]})
	}
	return records, columns, nil
}

func indexOf(columns []string, name string) int {
	for i, column := range columns {
		if strings.EqualFold(strings.TrimSpace(column), name) {
			return i
		}
	}
	return -1
}
