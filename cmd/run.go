package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/goosewin/qagen/internal/backend"
	_ "github.com/goosewin/qagen/internal/backend/anthropic"
	_ "github.com/goosewin/qagen/internal/backend/cli"
	_ "github.com/goosewin/qagen/internal/backend/mock"
	_ "github.com/goosewin/qagen/internal/backend/openai"
	"github.com/goosewin/qagen/internal/config"
	"github.com/goosewin/qagen/internal/core"
	"github.com/goosewin/qagen/internal/logging"
	"github.com/goosewin/qagen/internal/notify"
	"github.com/goosewin/qagen/internal/qa"
	"github.com/goosewin/qagen/internal/state"
	"github.com/goosewin/qagen/internal/store"
	"github.com/goosewin/qagen/internal/topic"
)

// generationFlags are shared by every command that calls a backend.
type generationFlags struct {
	backend        string
	model          string
	output         string
	promptTemplate string
	execPath       string
}

func (f *generationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.backend, "backend", "b", "", "Generation backend (gemini, openai, anthropic, gemini-cli, claude-cli, mock)")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "Model override (backend-specific)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output directory for CSV files")
	cmd.Flags().StringVar(&f.promptTemplate, "prompt-template", "", "Path to a custom prompt template file")
	cmd.Flags().StringVar(&f.execPath, "exec-path", "", "Executable for gemini-cli/claude-cli")
}

// loadEnvironment reads .env from the working directory, then the layered
// YAML config.
func loadEnvironment() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	return loadConfigForCwd()
}

func stringSetting(cmd *cobra.Command, flag, value, key, fallback string) string {
	if cmd.Flags().Changed(flag) && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return config.GetString(key, fallback)
}

func intSetting(cmd *cobra.Command, flag string, value int, key string, fallback int) int {
	if cmd.Flags().Changed(flag) {
		return value
	}
	return config.GetInt(key, fallback)
}

func durationSetting(cmd *cobra.Command, flag string, value time.Duration, key string, fallback time.Duration) time.Duration {
	if cmd.Flags().Changed(flag) {
		return value
	}
	return config.GetDuration(key, fallback)
}

func boolSetting(cmd *cobra.Command, flag string, value bool, key string, fallback bool) bool {
	if cmd.Flags().Changed(flag) {
		return value
	}
	return config.GetBool(key, fallback)
}

func outputDir(cmd *cobra.Command, flags *generationFlags) (string, error) {
	dir := stringSetting(cmd, "output", flags.output, "output.dir", ".")
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return abs, nil
}

type generation struct {
	backendName string
	model       string
	backend     backend.Backend
	generator   *core.Generator
}

// resolveGeneration builds the configured backend and prompt generator.
func resolveGeneration(cmd *cobra.Command, flags *generationFlags) (*generation, error) {
	backendName := stringSetting(cmd, "backend", flags.backend, "defaults.backend", backend.DefaultName())
	model := stringSetting(cmd, "model", flags.model, "defaults.model", "")

	creds, err := config.LoadCredentials()
	if err != nil {
		return nil, err
	}
	instance, err := backend.New(backendName, backend.Settings{
		Model:    model,
		APIKey:   creds.KeyFor(backendName),
		BaseURL:  creds.BaseURLFor(backendName),
		ExecPath: stringSetting(cmd, "exec-path", flags.execPath, "defaults.exec_path", ""),
		Timeout:  config.GetDuration("defaults.timeout", 0),
	})
	if err != nil {
		return nil, err
	}
	if err := instance.CheckInstalled(); err != nil {
		if envName := config.KeyEnvFor(backendName); envName != "" {
			return nil, fmt.Errorf("%w (set %s in the environment or .env)", err, envName)
		}
		return nil, err
	}

	templateFile := stringSetting(cmd, "prompt-template", flags.promptTemplate, "generation.prompt_template_file", "")
	template, err := topic.ResolvePromptTemplate("", templateFile)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}

	return &generation{
		backendName: backendName,
		model:       model,
		backend:     instance,
		generator:   core.NewGenerator(instance, template, model),
	}, nil
}

func newArtifacts(dir string, logger *logging.Logger) (*store.Artifacts, error) {
	artifacts := &store.Artifacts{Store: &store.CSVStore{Dir: dir}}
	if logger != nil {
		artifacts.Logger = logger.Logger
	}
	if bucket := config.GetString("s3.bucket", ""); bucket != "" {
		mirror, err := store.NewS3Mirror(bucket, config.GetString("s3.prefix", ""), config.GetString("s3.region", ""))
		if err != nil {
			return nil, err
		}
		artifacts.Mirror = mirror
	}
	return artifacts, nil
}

func persistTo(artifacts *store.Artifacts, layout core.Layout) core.PersistFunc {
	return func(_ context.Context, records []qa.Record, label core.Label) (string, error) {
		return artifacts.Save(records, layout.Path(label))
	}
}

// sessionRun ties a loop invocation to the registry, its log file and the
// finish webhook.
type sessionRun struct {
	state.Session
	logger     *logging.Logger
	webhook    string
	lastStatus string
}

func openSession(name, mode, dir string, gen *generation, target int, webhook string) (*sessionRun, error) {
	if name == "" {
		name = mode
	}
	name = sanitizeSessionName(name)
	if name == "" {
		return nil, errors.New("session name is required")
	}

	if err := state.InitState(); err != nil {
		return nil, err
	}
	if err := ensureSessionAvailable(name); err != nil {
		return nil, err
	}

	logDir := filepath.Join(dir, ".qagen")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	logging.CleanupOldLogs(logDir, config.GetInt("logging.retain_days", logging.DefaultRetainDays))
	logFile := filepath.Join(logDir, name+".log")

	logger, err := logging.New(logging.Options{
		Level:   config.GetString("logging.level", "info"),
		Format:  config.GetString("logging.format", "text"),
		LogFile: logFile,
	})
	if err != nil {
		return nil, err
	}

	run := &sessionRun{
		Session: state.Session{
			Name:      name,
			ID:        uuid.NewString(),
			Mode:      mode,
			Dir:       dir,
			PID:       os.Getpid(),
			StartedAt: time.Now(),
			Round:     1,
			Target:    target,
			Status:    state.StatusRunning,
			LogFile:   logFile,
			Backend:   gen.backendName,
			Model:     gen.model,
		},
		logger:     logger,
		webhook:    webhook,
		lastStatus: state.StatusRunning,
	}
	if err := state.SaveSession(run.Session); err != nil {
		logger.Close()
		return nil, err
	}
	return run, nil
}

// shortID is the first block of the session UUID, used in directory names.
func (r *sessionRun) shortID() string {
	id, _, _ := strings.Cut(r.ID, "-")
	return id
}

func (r *sessionRun) onState(update core.StateUpdate) {
	r.lastStatus = update.Status
	err := state.UpdateSession(r.Name, func(s *state.Session) {
		s.Round = update.Round
		s.TotalRecords = update.TotalRecords
		s.Status = update.Status
	})
	if err != nil {
		r.logger.Warn("update session state failed", "error", err)
	}
}

// finish records the outcome, sends the webhook and closes the log file.
func (r *sessionRun) finish(summary core.Summary) {
	defer r.logger.Close()

	status := r.lastStatus
	if status == "" || status == state.StatusRunning {
		status = state.StatusFinished
		if summary.Cancelled {
			status = state.StatusCancelled
		}
	}
	errText := ""
	if summary.Err != nil {
		status = state.StatusFailed
		errText = summary.Err.Error()
	}

	err := state.UpdateSession(r.Name, func(s *state.Session) {
		s.Status = status
		s.TotalRecords = summary.TotalRecords
		s.FinalPath = summary.FinalPath
		s.FinishedAt = time.Now()
		s.PID = 0
		s.Error = errText
	})
	if err != nil {
		r.logger.Warn("update session state failed", "error", err)
	}

	if r.webhook == "" {
		return
	}
	notifyErr := notify.NotifyFinished(context.Background(), notify.FinishedOptions{
		SessionName: r.Name,
		Mode:        r.Mode,
		WebhookURL:  r.webhook,
		OutputDir:   r.Dir,
		Status:      status,
		Rounds:      summary.Rounds,
		Records:     summary.TotalRecords,
		FinalPath:   summary.FinalPath,
		Error:       errText,
		Duration:    summary.Duration,
	})
	if notifyErr != nil {
		r.logger.Warn("webhook notification failed", "error", notifyErr)
	}
}

// signalContext is cancelled on the first SIGINT or SIGTERM. A second
// signal is left to the default handler and kills the process.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printSummary(summary core.Summary) {
	fmt.Println("")
	fmt.Printf("Mode:          %s\n", summary.Mode)
	fmt.Printf("Rounds:        %d\n", summary.Rounds)
	fmt.Printf("Records:       %d\n", summary.TotalRecords)
	fmt.Printf("Duration:      %s\n", summary.Duration.Round(time.Second))
	if summary.PersistFailures > 0 {
		fmt.Printf("Save failures: %d\n", summary.PersistFailures)
	}
	switch {
	case summary.Err != nil:
		fmt.Printf("Final file:    not saved (%v)\n", summary.Err)
	case summary.NothingToSave:
		fmt.Println("Final file:    nothing to save")
	default:
		fmt.Printf("Final file:    %s\n", summary.FinalPath)
	}
}

func ensureSessionAvailable(name string) error {
	session, found, err := state.GetSession(name)
	if err != nil {
		return err
	}
	if !found || session.Status != state.StatusRunning {
		return nil
	}
	if session.Alive() {
		return fmt.Errorf("session %q is already running (pid: %d)", name, session.PID)
	}

	fmt.Fprintf(os.Stderr, "Warning: session %q appears stale and will be restarted.\n", name)
	return nil
}

var sessionNameRe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func sanitizeSessionName(value string) string {
	return sessionNameRe.ReplaceAllString(strings.TrimSpace(value), "-")
}

// parseTopicIDs turns "1,3,5" into topics; empty means all of them.
func parseTopicIDs(raw string) ([]topic.Topic, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return topic.Default(), nil
	}
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		item, err := topic.ParseID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, item.ID)
	}
	return topic.Select(ids)
}
