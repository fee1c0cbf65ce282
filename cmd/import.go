package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/plantrack/internal/legacy"
	"github.com/twiced-technology-gmbh/plantrack/internal/output"
	"github.com/twiced-technology-gmbh/plantrack/internal/workbook"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a dashboard export (template, projects, contacts, emails)",
	Long: `Reads the JSON export of the browser dashboard. Comments and trailing
commas are accepted. Numeric cells become text.

Projects and email templates that already exist, and the template itself,
are kept unless --overwrite is given. A contact matching an existing one by
email address, or by name when it has none, fills the existing entry's empty
fields and adds its tags.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().Bool("overwrite", false, "replace existing template, projects and email templates")
	importCmd.Flags().Bool("dry-run", false, "parse and report without writing")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	exp, err := legacy.ReadFile(args[0])
	if err != nil {
		return err
	}
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		names := make([]string, len(exp.Projects))
		for i, p := range exp.Projects {
			names[i] = p.Name
		}
		summary := map[string]any{
			"template": exp.Template != nil,
			"projects": names,
			"contacts": len(exp.Contacts),
			"emails":   len(exp.Emails),
		}
		if outputFormat() == output.FormatJSON {
			return output.JSON(os.Stdout, summary)
		}
		output.Messagef(os.Stdout, "Would import: template=%v, %d projects (%s), %d contacts, %d email templates",
			exp.Template != nil, len(names), strings.Join(names, ", "), len(exp.Contacts), len(exp.Emails))
		return nil
	}

	var rep *legacy.Report
	err = mutate(func(s *workbook.Store) error {
		var err error
		rep, err = legacy.Apply(s, exp, overwrite)
		return err
	})
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, rep)
	}
	if rep.Template {
		output.Messagef(os.Stdout, "Replaced template")
	}
	if len(rep.Projects) > 0 {
		output.Messagef(os.Stdout, "Imported projects: %s", strings.Join(rep.Projects, ", "))
	}
	if rep.Contacts > 0 {
		output.Messagef(os.Stdout, "Imported %d contacts", rep.Contacts)
	}
	if rep.Merged > 0 {
		output.Messagef(os.Stdout, "Merged %d contacts into existing entries", rep.Merged)
	}
	if len(rep.Emails) > 0 {
		output.Messagef(os.Stdout, "Imported email templates: %s", strings.Join(rep.Emails, ", "))
	}
	for _, skipped := range rep.Skipped {
		output.Messagef(os.Stderr, "Skipped: %s", skipped)
	}
	return nil
}
