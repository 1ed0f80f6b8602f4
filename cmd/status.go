package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goosewin/qagen/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show status of all generation sessions",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := state.InitState(); err != nil {
		return err
	}

	_, _ = state.CleanupStale(state.CleanupMark)

	sessions, err := state.ListSessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions found")
		fmt.Println("Start a new run with: qagen marathon")
		return nil
	}

	headers := []string{"NAME", "MODE", "ROUND", "RECORDS", "STATUS", "DIR"}
	rows := make([][]string, 0, len(sessions))
	for _, session := range sessions {
		rows = append(rows, []string{
			session.Name,
			session.Mode,
			strconv.Itoa(session.Round),
			formatRecords(session),
			session.Status,
			truncateDir(session.Dir, 40),
		})
	}

	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		fmt.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
	}
	printRow(headers)
	dashes := make([]string, len(headers))
	for i := range headers {
		dashes[i] = strings.Repeat("-", widths[i])
	}
	printRow(dashes)
	for _, row := range rows {
		printRow(row)
	}

	fmt.Println("")
	fmt.Println("Commands: qagen logs <name>, qagen stop <name>")
	return nil
}

func truncateDir(dir string, max int) string {
	if max <= 0 {
		return dir
	}
	if len(dir) <= max {
		return dir
	}
	if max <= 3 {
		return dir[:max]
	}
	return "..." + dir[len(dir)-(max-3):]
}

func formatRecords(session state.Session) string {
	if session.Target > 0 {
		return fmt.Sprintf("%d/%d", session.TotalRecords, session.Target)
	}
	return strconv.Itoa(session.TotalRecords)
}
