package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/config"
	"github.com/twiced-technology-gmbh/plantrack/internal/output"
	"github.com/twiced-technology-gmbh/plantrack/internal/workbook"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new workbook",
	Long: `Creates a workbook directory with config.yml, the starter template,
an empty contacts file and the projects/ and emails/ subdirectories.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("name", "", "workbook name (defaults to current directory name)")
	initCmd.Flags().StringSlice("statuses", nil, "comma-separated list of statuses; the last one is done")
	initCmd.Flags().StringSlice("wip-limit", nil, "WIP limit per status (format: status:N, repeatable)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	dir := flagDir
	if dir == "" {
		dir = config.DefaultDir
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	if _, err := os.Stat(filepath.Join(absDir, config.ConfigFileName)); err == nil {
		return clierr.Newf(clierr.WorkbookAlreadyExists, "workbook already initialized in %s", absDir).
			WithDetails(map[string]any{"dir": absDir})
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		name = filepath.Base(cwd)
	}

	statuses, _ := cmd.Flags().GetStringSlice("statuses")
	wipLimits, _ := cmd.Flags().GetStringSlice("wip-limit")
	limits, err := parseWIPLimits(wipLimits)
	if err != nil {
		return err
	}

	s, err := workbook.Init(absDir, name, newLogger())
	if err != nil {
		return err
	}
	cfg := s.Config()

	if len(statuses) > 0 || len(limits) > 0 {
		if len(statuses) > 0 {
			sc := make([]config.StatusConfig, len(statuses))
			for i, st := range statuses {
				sc[i] = config.StatusConfig{Name: strings.TrimSpace(st)}
			}
			sc[len(sc)-1].Done = true
			cfg.Statuses = sc
		}
		cfg.WIPLimits = limits
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]string{
			"status":   "initialized",
			"dir":      absDir,
			"name":     name,
			"config":   cfg.ConfigPath(),
			"template": s.TemplatePath(),
			"projects": cfg.ProjectsPath(),
			"emails":   cfg.EmailsPath(),
			"columns":  strings.Join(cfg.StatusNames(), ","),
		})
	}

	output.Messagef(os.Stdout, "Initialized workbook %q in %s", name, absDir)
	output.Messagef(os.Stdout, "  Config:   %s", cfg.ConfigPath())
	output.Messagef(os.Stdout, "  Template: %s", s.TemplatePath())
	output.Messagef(os.Stdout, "  Projects: %s", cfg.ProjectsPath())
	output.Messagef(os.Stdout, "  Columns:  %s", strings.Join(cfg.StatusNames(), ", "))
	output.Messagef(os.Stdout, "  Next:     plantrack project new NAME --start DATE")
	return nil
}

// parseWIPLimits parses "status:N" pairs into a map.
func parseWIPLimits(pairs []string) (map[string]int, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	limits := make(map[string]int, len(pairs))
	for _, pair := range pairs {
		status, n, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, clierr.Newf(clierr.InvalidInput, "invalid WIP limit %q (expected status:N)", pair)
		}
		v, err := strconv.Atoi(n)
		if err != nil {
			return nil, clierr.Newf(clierr.InvalidInput, "invalid WIP limit value %q in %q", n, pair)
		}
		limits[strings.TrimSpace(status)] = v
	}
	return limits, nil
}
