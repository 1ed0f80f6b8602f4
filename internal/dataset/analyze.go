package dataset

import (
	"os"
	"unicode/utf8"

	"github.com/goosewin/qagen/internal/qa"
	"github.com/goosewin/qagen/internal/store"
)

const sampleSize = 3

// LengthStats are character counts, not bytes.
type LengthStats struct {
	Min  int
	Max  int
	Mean float64
}

type Report struct {
	Path    string
	Rows    int
	Columns []string
	Input   LengthStats
	Output  LengthStats
	Samples []qa.Record
	Size    int64
}

// Analyze reads a dataset file and summarises it.
func Analyze(path string) (Report, error) {
	records, columns, err := store.ReadFile(path)
	if err != nil {
		return Report{}, err
	}
	report := Report{Path: path, Rows: len(records), Columns: columns}
	if info, err := os.Stat(path); err == nil {
		report.Size = info.Size()
	}

	inputs := make([]int, 0, len(records))
	outputs := make([]int, 0, len(records))
	for _, record := range records {
		inputs = append(inputs, utf8.RuneCountInString(record.Input))
		outputs = append(outputs, utf8.RuneCountInString(record.Output))
	}
	report.Input = lengthStats(inputs)
	report.Output = lengthStats(outputs)

	n := min(sampleSize, len(records))
	report.Samples = append([]qa.Record(nil), records[:n]...)
	return report, nil
}

func lengthStats(lengths []int) LengthStats {
	if len(lengths) == 0 {
		return LengthStats{}
	}
	stats := LengthStats{Min: lengths[0], Max: lengths[0]}
	total := 0
	for _, length := range lengths {
		stats.Min = min(stats.Min, length)
		stats.Max = max(stats.Max, length)
		total += length
	}
	stats.Mean = float64(total) / float64(len(lengths))
	return stats
}

// Truncate shortens s to n characters, appending "..." when cut.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
