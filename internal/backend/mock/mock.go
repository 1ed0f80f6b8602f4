// Package mock is an offline backend that answers every prompt with canned
// INPUT/OUTPUT blocks. Useful for dry runs without API keys.
package mock

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goosewin/qagen/internal/backend"
)

var countRe = regexp.MustCompile(`(\d+)\s+cặp`)

type Backend struct{}

var _ backend.Backend = Backend{}

func init() {
	if err := backend.Register("mock", New); err != nil {
		panic(err)
	}
}

func New(backend.Settings) (backend.Backend, error) {
	return Backend{}, nil
}

func (Backend) CheckInstalled() error { return nil }

func (Backend) GetModels() []string { return []string{"mock"} }

// Generate returns as many blocks as the prompt asks for ("N cặp"),
// defaulting to three.
func (Backend) Generate(_ context.Context, req backend.Request) (string, error) {
	count := 3
	if match := countRe.FindStringSubmatch(req.Prompt); len(match) == 2 {
		if parsed, err := strconv.Atoi(match[1]); err == nil && parsed > 0 {
			count = parsed
		}
	}

	var sb strings.Builder
	for i := 1; i <= count; i++ {
		if i > 1 {
			sb.WriteString("---\n")
		}
		fmt.Fprintf(&sb, "INPUT: Câu hỏi mẫu số %d của bác\n", i)
		fmt.Fprintf(&sb, "OUTPUT: Đây là câu trả lời mẫu số %d.\n", i)
	}
	return sb.String(), nil
}
