// Package qa turns free-form model output into input/output record pairs.
package qa

import (
	"strings"
)

const (
	BlockSeparator = "---"
	InputPrefix    = "INPUT:"
	OutputPrefix   = "OUTPUT:"
)

// Record is one generated conversation turn: what the elder says and what
// the chatbot answers.
type Record struct {
	Input  string
	Output string
}

// Stats describes how much of a response survived parsing.
type Stats struct {
	Blocks  int
	Records int
	Dropped int
}

type blockState int

const (
	awaitingOutput blockState = iota
	accumulatingOutput
)

// Parse extracts every complete INPUT/OUTPUT block from raw. Blocks missing
// either field are dropped silently. Parse never fails and keeps no state
// between calls.
func Parse(raw string) []Record {
	records, _ := ParseStats(raw)
	return records
}

// ParseStats is Parse plus a yield summary for logging.
func ParseStats(raw string) ([]Record, Stats) {
	records := []Record{}
	stats := Stats{}
	if strings.TrimSpace(raw) == "" {
		return records, stats
	}

	for _, block := range strings.Split(raw, BlockSeparator) {
		if strings.TrimSpace(block) == "" {
			continue
		}
		stats.Blocks++
		record, ok := parseBlock(block)
		if !ok {
			stats.Dropped++
			continue
		}
		records = append(records, record)
	}
	stats.Records = len(records)
	return records, stats
}

func parseBlock(block string) (Record, bool) {
	var input, output string
	state := awaitingOutput

	for _, rawLine := range strings.Split(block, "\n") {
		line := strings.TrimSpace(rawLine)
		switch {
		case strings.HasPrefix(line, InputPrefix):
			input = strings.TrimSpace(strings.TrimPrefix(line, InputPrefix))
		case strings.HasPrefix(line, OutputPrefix):
			output = strings.TrimSpace(strings.TrimPrefix(line, OutputPrefix))
			if output != "" {
				state = accumulatingOutput
			} else {
				state = awaitingOutput
			}
		case line == "":
		case state == accumulatingOutput:
			output += " " + line
		}
	}

	if input == "" || output == "" {
		return Record{}, false
	}
	return Record{Input: input, Output: output}, true
}
