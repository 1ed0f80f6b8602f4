package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goosewin/qagen/internal/state"
)

var (
	stopAll bool
)

var stopCmd = &cobra.Command{
	Use:   "stop <name>",
	Short: "Stop a running generation session",
	Long: `Stop a running generation session.

The session receives SIGINT, finishes its current call and writes its final
file before exiting.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStop,
}

func init() {
	stopCmd.Flags().BoolVarP(&stopAll, "all", "a", false, "Stop all running sessions")
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	if err := state.InitState(); err != nil {
		return err
	}

	if stopAll {
		return stopAllSessions()
	}

	if len(args) == 0 || args[0] == "" {
		return errors.New("session name is required (use --all to stop all sessions)")
	}

	session, err := state.RequestStop(args[0])
	if err != nil {
		return err
	}
	reportStop(session)
	return nil
}

func stopAllSessions() error {
	sessions, err := state.ListSessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions found")
		return nil
	}

	stopped := 0
	for _, session := range sessions {
		if session.Status != state.StatusRunning {
			continue
		}
		result, err := state.RequestStop(session.Name)
		if err != nil {
			return err
		}
		reportStop(result)
		stopped++
	}

	if stopped == 0 {
		fmt.Println("No running sessions to stop")
		return nil
	}

	fmt.Printf("Stopped %d session(s)\n", stopped)
	return nil
}

func reportStop(session state.Session) {
	switch session.Status {
	case state.StatusRunning:
		fmt.Printf("Stop requested for %s (pid %d); it will save and exit.\n", session.Name, session.PID)
	case state.StatusStale:
		fmt.Printf("Session %s was not running; marked stale.\n", session.Name)
	default:
		fmt.Printf("Session %s is already %s.\n", session.Name, session.Status)
	}
}
