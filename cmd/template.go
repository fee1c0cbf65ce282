package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/plantrack/internal/output"
	"github.com/twiced-technology-gmbh/plantrack/internal/schedule"
	"github.com/twiced-technology-gmbh/plantrack/internal/workbook"
)

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"tpl"},
	Short:   "View or edit the task template new projects are cloned from",
	RunE:    runTemplateShow,
}

var templateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the template table",
	Args:  cobra.NoArgs,
	RunE:  runTemplateShow,
}

var templateSetCmd = &cobra.Command{
	Use:   "set ID COLUMN VALUE",
	Short: "Edit one cell of the template",
	Args:  cobra.ExactArgs(3), //nolint:mnd // id, column, value
	RunE: func(_ *cobra.Command, args []string) error {
		return runSetCell("", args[0], args[1], args[2])
	},
}

var templateAddRowCmd = &cobra.Command{
	Use:   "add-row",
	Short: "Append a task to the template",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAddRow(cmd, "")
	},
}

var templateDeleteRowCmd = &cobra.Command{
	Use:   "delete-row ID[,ID,...]",
	Short: "Delete tasks from the template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeleteRows(cmd, "", args[0])
	},
}

var templateColumnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Show which template columns drive date resolution",
	Args:  cobra.NoArgs,
	RunE:  runTemplateColumns,
}

func init() {
	templateAddRowCmd.Flags().StringArray("set", nil, "column value as Column=value (repeatable)")
	templateDeleteRowCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	templateCmd.AddCommand(templateShowCmd, templateSetCmd, templateAddRowCmd, templateDeleteRowCmd, templateColumnsCmd)
	rootCmd.AddCommand(templateCmd)
}

func runTemplateShow(_ *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	tmpl, err := s.LoadTemplate()
	if err != nil {
		return err
	}

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, tmpl)
	case output.FormatCompact:
		output.SheetCompact(os.Stdout, tmpl)
	default:
		output.SheetTable(os.Stdout, tmpl)
	}
	return nil
}

// columnRole describes one header and the role detected for it.
type columnRole struct {
	Index  int           `json:"index"`
	Header string        `json:"header"`
	Role   schedule.Role `json:"role,omitempty"`
}

func runTemplateColumns(_ *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	tmpl, err := s.LoadTemplate()
	if err != nil {
		return err
	}
	return printColumns(s, tmpl.Header)
}

// printColumns lists header roles and any required role that is missing.
func printColumns(s *workbook.Store, header []string) error {
	roles := schedule.DetectRoles(header)
	cols := make([]columnRole, len(header))
	for i, h := range header {
		cols[i] = columnRole{Index: i, Header: h}
		if role, ok := schedule.RoleOf(h); ok && roles[role] == i {
			cols[i].Role = role
		}
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"columns": cols,
			"missing": roles.Missing(),
			"status":  s.Config().Columns.Status,
		})
	}

	for _, c := range cols {
		role := string(c.Role)
		if c.Header == s.Config().Columns.Status {
			role = "status"
		}
		output.Messagef(os.Stdout, "%2d  %-20s %s", c.Index, c.Header, orDash(role))
	}
	if missing := roles.Missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = string(m)
		}
		output.Messagef(os.Stderr, "Warning: missing column roles: %v; dates will not be resolved", names)
	}
	output.StatusLegend(os.Stdout, s.Config())
	return nil
}
