package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/config"
	"github.com/twiced-technology-gmbh/plantrack/internal/output"
	"github.com/twiced-technology-gmbh/plantrack/internal/workbook"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify workbook configuration",
	Long:  `View the full configuration, get a specific key, or set a writable value.`,
	RunE:  runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show every configuration key",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// configAccessor describes how to get and set a config key.
type configAccessor struct {
	get      func(*config.Config) any
	set      func(*config.Config, string) error
	writable bool
}

func stringAccessor(field func(*config.Config) *string) configAccessor {
	return configAccessor{
		get:      func(c *config.Config) any { return *field(c) },
		set:      func(c *config.Config, v string) error { *field(c) = strings.TrimSpace(v); return nil },
		writable: true,
	}
}

func configAccessors() map[string]configAccessor {
	return map[string]configAccessor{
		"version": {
			get: func(c *config.Config) any { return c.Version },
		},
		"workbook.name":        stringAccessor(func(c *config.Config) *string { return &c.Workbook.Name }),
		"workbook.description": stringAccessor(func(c *config.Config) *string { return &c.Workbook.Description }),
		"projects_dir": {
			get: func(c *config.Config) any { return c.ProjectsDir },
		},
		"emails_dir": {
			get: func(c *config.Config) any { return c.EmailsDir },
		},
		"statuses": {
			get: func(c *config.Config) any { return c.StatusNames() },
		},
		"columns.status":    stringAccessor(func(c *config.Config) *string { return &c.Columns.Status }),
		"columns.phase":     stringAccessor(func(c *config.Config) *string { return &c.Columns.Phase }),
		"columns.milestone": stringAccessor(func(c *config.Config) *string { return &c.Columns.Milestone }),
		"columns.task":      stringAccessor(func(c *config.Config) *string { return &c.Columns.Task }),
		"columns.owner":     stringAccessor(func(c *config.Config) *string { return &c.Columns.Owner }),
		"wip_limits": {
			get: func(c *config.Config) any {
				if c.WIPLimits == nil {
					return map[string]int{}
				}
				return c.WIPLimits
			},
			set: func(c *config.Config, v string) error {
				limits, err := parseWIPLimits(strings.Split(v, ","))
				if err != nil {
					return err
				}
				if c.WIPLimits == nil {
					c.WIPLimits = map[string]int{}
				}
				for status, n := range limits {
					name, ok := c.NormalizeStatus(status)
					if !ok {
						return workbook.ValidateStatus(status, c.StatusNames())
					}
					if n == 0 {
						delete(c.WIPLimits, name)
						continue
					}
					c.WIPLimits[name] = n
				}
				return nil
			},
			writable: true,
		},
		"mail.from": stringAccessor(func(c *config.Config) *string { return &c.Mail.From }),
		"mail.outbox": {
			get: func(c *config.Config) any { return c.Mail.Outbox },
		},
		"tui.title_lines": {
			get: func(c *config.Config) any { return c.TitleLines() },
			set: func(c *config.Config, v string) error {
				n, err := strconv.Atoi(v)
				if err != nil {
					return clierr.Newf(clierr.InvalidInput,
						"invalid tui.title_lines %q: must be an integer", v)
				}
				c.TUI.TitleLines = n
				return nil // validation handles range check
			},
			writable: true,
		},
		"tui.due_thresholds": {
			get: func(c *config.Config) any {
				if len(c.TUI.DueThresholds) == 0 {
					return config.DefaultDueThresholds
				}
				return c.TUI.DueThresholds
			},
		},
	}
}

// allConfigKeys returns config keys in display order.
func allConfigKeys() []string {
	return []string{
		"version",
		"workbook.name",
		"workbook.description",
		"projects_dir",
		"emails_dir",
		"statuses",
		"columns.status",
		"columns.phase",
		"columns.milestone",
		"columns.task",
		"columns.owner",
		"wip_limits",
		"mail.from",
		"mail.outbox",
		"tui.title_lines",
		"tui.due_thresholds",
	}
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	accessors := configAccessors()

	if outputFormat() == output.FormatJSON {
		m := make(map[string]any, len(accessors))
		for _, key := range allConfigKeys() {
			m[key] = accessors[key].get(cfg)
		}
		return output.JSON(os.Stdout, m)
	}

	for _, key := range allConfigKeys() {
		fmt.Fprintf(os.Stdout, "%-22s %s\n", key, formatConfigValue(accessors[key].get(cfg)))
	}
	return nil
}

func runConfigGet(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	acc, ok := configAccessors()[args[0]]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", args[0])
	}

	val := acc.get(cfg)
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, val)
	}
	fmt.Fprintln(os.Stdout, formatConfigValue(val))
	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	acc, ok := configAccessors()[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key)
	}
	if !acc.writable {
		return clierr.Newf(clierr.InvalidInput, "config key %q is read-only", key)
	}

	var cfg *config.Config
	err := mutate(func(s *workbook.Store) error {
		cfg = s.Config()
		if err := acc.set(cfg, value); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"key": key, "value": acc.get(cfg)})
	}
	output.Messagef(os.Stdout, "Set %s = %s", key, formatConfigValue(acc.get(cfg)))
	return nil
}

func formatConfigValue(val any) string {
	switch v := val.(type) {
	case []string:
		return strings.Join(v, ", ")
	case map[string]int:
		if len(v) == 0 {
			return "--"
		}
		parts := make([]string, 0, len(v))
		for k, n := range v {
			parts = append(parts, fmt.Sprintf("%s=%d", k, n))
		}
		sort.Strings(parts)
		return strings.Join(parts, ", ")
	case []config.DueThreshold:
		parts := make([]string, len(v))
		for i, t := range v {
			parts[i] = fmt.Sprintf("<=%dd:%s", t.Within, t.Color)
		}
		return strings.Join(parts, ", ")
	case string:
		if v == "" {
			return "--"
		}
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
