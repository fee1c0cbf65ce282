// Package cmd implements the plantrack CLI commands.
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/config"
	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/filelock"
	"github.com/twiced-technology-gmbh/plantrack/internal/output"
	"github.com/twiced-technology-gmbh/plantrack/internal/workbook"
)

// version is set at build time via ldflags.
var version = "dev"

// envLog raises the log level when set to "debug".
const envLog = "PLANTRACK_LOG"

// lockTimeout bounds how long a mutating command waits for another
// plantrack process to release the workbook.
const lockTimeout = 5 * time.Second

// Global flags.
var (
	flagJSON    bool
	flagTable   bool
	flagCompact bool
	flagDir     string
	flagNoColor bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "plantrack",
	Short: "Project tracking workbook with dependency-driven dates",
	Long: `plantrack keeps a template task table and one table per project. Each task
has a duration and an optional dependency; editing a duration, dependency or
expected date recomputes the expected dates of the whole dependency chain.

Projects are shown as Kanban boards, timelines and a milestone summary.
Email templates are rendered against project data and contacts.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagNoColor || output.ColorDisabled() {
			output.DisableColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagTable, "table", false, "output as table")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "compact", false, "compact one-line-per-record output (alias --oneline)")
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "path to workbook directory")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging on stderr")
	rootCmd.SetGlobalNormalizationFunc(normalizeFlag)
}

// normalizeFlag maps spelling variants and aliases onto canonical flag
// names, so --oneline, --no_color and --no-colour all work.
func normalizeFlag(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	name = strings.ReplaceAll(name, "_", "-")
	switch name {
	case "oneline":
		name = "compact"
	case "no-colour":
		name = "no-color"
	case "milestone":
		name = "milestones"
	}
	return pflag.NormalizedName(name)
}

// Execute runs the root command.
func Execute() {
	_, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}
	if errors.Is(err, workbook.ErrConflict) {
		err = clierr.New(clierr.Conflict, err.Error()+"; reload and retry")
	}

	// SilentError: exit with code, no output.
	var silent *clierr.SilentError
	if errors.As(err, &silent) {
		os.Exit(silent.Code)
	}

	if outputFormat() == output.FormatJSON {
		os.Exit(output.JSONError(os.Stdout, err))
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		os.Exit(cliErr.ExitCode())
	}
	os.Exit(1)
}

// newLogger builds the process logger: text on stderr, WARN unless
// --verbose or PLANTRACK_LOG=debug.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose || strings.EqualFold(os.Getenv(envLog), "debug") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolveDir returns the workbook directory: --dir, or the nearest
// plantrack/ directory walking up from the working directory.
func resolveDir() (string, error) {
	if flagDir != "" {
		return flagDir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return config.FindDir(cwd)
}

// loadConfig finds and loads the workbook config.
func loadConfig() (*config.Config, error) {
	dir, err := resolveDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if errors.Is(err, config.ErrNotFound) {
		return nil, clierr.New(clierr.WorkbookNotFound, err.Error()).
			WithDetails(map[string]any{"dir": dir})
	}
	return cfg, err
}

// openStore loads the config and opens the workbook store.
func openStore() (*workbook.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return workbook.Open(cfg, newLogger()), nil
}

// mutate runs fn on the store while holding the workbook lock.
func mutate(fn func(s *workbook.Store) error) error {
	s, err := openStore()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	unlock, err := filelock.LockDir(ctx, s.Dir())
	if err != nil {
		return clierr.New(clierr.Conflict, err.Error())
	}
	defer func() {
		if uerr := unlock(); uerr != nil {
			s.Logger().Warn("releasing workbook lock", "error", uerr)
		}
	}()

	return fn(s)
}

// outputFormat returns the detected output format from flags/env.
func outputFormat() output.Format {
	return output.Detect(flagJSON, flagTable, flagCompact)
}

// printWarnings writes file read warnings to stderr.
func printWarnings(warnings []workbook.ReadWarning) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: skipping malformed file %s: %v\n", w.File, w.Err)
	}
}

// printMessages writes one warning line per message to stderr.
func printMessages(msgs []string) {
	for _, m := range msgs {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", m)
	}
}

// parseDate parses a date flag value, reporting errors against flag.
func parseDate(flag, value string) (date.Date, error) {
	d, err := date.Parse(value)
	if err != nil {
		return date.Date{}, workbook.ValidateDate(flag, value, err)
	}
	return d, nil
}

// parseIDs splits a comma-separated ID list, trimming and deduplicating.
func parseIDs(arg string) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, part := range strings.Split(arg, ",") {
		id := strings.TrimSpace(part)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, clierr.Newf(clierr.InvalidRowID, "no task ID in %q", arg)
	}
	return ids, nil
}

// parseAssignments turns "Column=value" pairs into a map.
func parseAssignments(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, clierr.Newf(clierr.InvalidInput, "invalid assignment %q (expected Column=value)", pair)
		}
		values[strings.TrimSpace(k)] = v
	}
	return values, nil
}

// confirm asks a yes/no question on the terminal. Without a terminal it
// fails with CONFIRMATION_REQUIRED so scripts must pass --yes.
func confirm(prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, clierr.New(clierr.ConfirmationReq,
			"cannot prompt for confirmation (not a terminal); use --yes")
	}
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	if answer != "y" && answer != "yes" {
		fmt.Fprintln(os.Stderr, "Canceled.")
		return false, nil
	}
	return true, nil
}

// runBatch executes fn for each ID and collects results. Returns a SilentError
// with exit code 1 if any operation failed (after outputting results).
func runBatch(ids []string, fn func(string) error) error {
	results := make([]output.BatchResult, 0, len(ids))
	anyFailed := false

	for _, id := range ids {
		r := output.NewBatchResult(id, fn(id))
		anyFailed = anyFailed || !r.OK
		results = append(results, r)
	}

	if outputFormat() == output.FormatJSON {
		if err := output.JSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		var succeeded int
		for _, r := range results {
			if r.OK {
				succeeded++
			} else {
				fmt.Fprintf(os.Stderr, "Error: task %s: %s\n", r.ID, r.Error)
			}
		}
		output.Messagef(os.Stdout, "Completed %d/%d operations", succeeded, len(ids))
	}

	if anyFailed {
		return &clierr.SilentError{Code: 1}
	}
	return nil
}

// isCode reports whether err carries the given CLI error code.
func isCode(err error, code string) bool {
	var ce *clierr.Error
	return errors.As(err, &ce) && ce.Code == code
}
