package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goosewin/qagen/internal/state"
)

var (
	logsFollow bool
	logsLines  int
)

var logsCmd = &cobra.Command{
	Use:   "logs <name>",
	Short: "Show logs for a generation session",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 100, "Number of lines to show")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	if err := state.InitState(); err != nil {
		return err
	}

	sessionName := args[0]
	session, found, err := state.GetSession(sessionName)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("session not found: %s", sessionName)
	}

	logFile := session.LogFile
	if logFile == "" && session.Dir != "" {
		logFile = filepath.Join(session.Dir, ".qagen", sessionName+".log")
	}
	if logFile == "" {
		return errors.New("cannot determine log file path")
	}

	if _, err := os.Stat(logFile); err != nil {
		return fmt.Errorf("log file does not exist: %s", logFile)
	}

	fmt.Printf("Session: %s (status: %s)\n", sessionName, session.Status)
	fmt.Printf("Log file: %s\n\n", logFile)

	if logsFollow {
		return followLogFile(logFile, logsLines)
	}

	lines, err := tailLines(logFile, logsLines)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}

func tailLines(path string, limit int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if limit <= 0 {
		return []string{}, nil
	}

	buffer := make([]string, 0, limit)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if len(buffer) == limit {
			copy(buffer, buffer[1:])
			buffer[limit-1] = line
		} else {
			buffer = append(buffer, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return buffer, nil
}

// followLogFile prints the tail and then polls for appended lines until
// interrupted.
func followLogFile(path string, limit int) error {
	lines, err := tailLines(path, limit)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Println(line)
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	reader := bufio.NewReader(file)
	for {
		line, readErr := reader.ReadString('\n')
		if readErr == nil {
			fmt.Println(strings.TrimRight(line, "\n"))
			offset += int64(len(line))
			continue
		}
		if readErr != io.EOF {
			return readErr
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(500 * time.Millisecond):
		}
		if _, err := file.Seek(offset, io.SeekStart); err != nil {
			return err
		}
		reader.Reset(file)
	}
}
