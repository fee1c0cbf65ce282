package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/mail"
	"github.com/twiced-technology-gmbh/plantrack/internal/output"
	"github.com/twiced-technology-gmbh/plantrack/internal/schedule"
	"github.com/twiced-technology-gmbh/plantrack/internal/workbook"
)

var emailCmd = &cobra.Command{
	Use:     "email",
	Aliases: []string{"mail"},
	Short:   "Manage and render email templates",
	Long: `Email templates are markdown files with YAML frontmatter (name, subject,
to, cc). To and cc list contact tags. Placeholders such as {{proyecto}},
{{fecha}} or any column header of a selected task are substituted at render
time. Sending never delivers mail: messages are appended to the outbox.`,
}

var emailNewCmd = &cobra.Command{
	Use:   "new NAME",
	Short: "Create an email template",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmailNew,
}

var emailListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List email templates",
	Args:    cobra.NoArgs,
	RunE:    runEmailList,
}

var emailShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show an email template and its placeholders",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmailShow,
}

var emailPreviewCmd = &cobra.Command{
	Use:   "preview NAME PROJECT",
	Short: "Render an email template for a project",
	Args:  cobra.ExactArgs(2), //nolint:mnd // template and project
	RunE:  runEmailPreview,
}

var emailSendCmd = &cobra.Command{
	Use:   "send NAME PROJECT",
	Short: "Render an email and append it to the outbox",
	Args:  cobra.ExactArgs(2), //nolint:mnd // template and project
	RunE:  runEmailSend,
}

var emailDeleteCmd = &cobra.Command{
	Use:     "delete NAME",
	Aliases: []string{"rm"},
	Short:   "Delete an email template",
	Args:    cobra.ExactArgs(1),
	RunE:    runEmailDelete,
}

var emailOutboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "List messages recorded by send",
	Args:  cobra.NoArgs,
	RunE:  runEmailOutbox,
}

func init() {
	emailNewCmd.Flags().String("subject", "", "subject line (placeholders allowed)")
	emailNewCmd.Flags().StringSlice("to", nil, "recipient contact tags")
	emailNewCmd.Flags().StringSlice("cc", nil, "cc contact tags")
	emailNewCmd.Flags().String("body", "", "markdown body")
	emailNewCmd.Flags().String("body-file", "", "read the markdown body from a file (- for stdin)")
	emailNewCmd.Flags().Bool("force", false, "replace an existing template")
	emailNewCmd.MarkFlagsMutuallyExclusive("body", "body-file")

	for _, c := range []*cobra.Command{emailPreviewCmd, emailSendCmd} {
		c.Flags().String("row", "", "task ID whose columns become placeholders")
	}
	emailPreviewCmd.Flags().Bool("html", false, "print the HTML body")
	emailPreviewCmd.Flags().Int("width", 0, "wrap width (defaults to the terminal width)")

	emailCmd.AddCommand(emailNewCmd, emailListCmd, emailShowCmd, emailPreviewCmd,
		emailSendCmd, emailDeleteCmd, emailOutboxCmd)
	rootCmd.AddCommand(emailCmd)
}

func runEmailNew(cmd *cobra.Command, args []string) error {
	t := &mail.Template{Name: args[0]}
	t.Subject, _ = cmd.Flags().GetString("subject")
	t.To, _ = cmd.Flags().GetStringSlice("to")
	t.Cc, _ = cmd.Flags().GetStringSlice("cc")
	t.Body, _ = cmd.Flags().GetString("body")
	if path, _ := cmd.Flags().GetString("body-file"); path != "" {
		body, err := readInput(path)
		if err != nil {
			return err
		}
		t.Body = body
	}
	if strings.TrimSpace(t.Subject) == "" {
		return clierr.New(clierr.InvalidInput, "--subject is required")
	}
	force, _ := cmd.Flags().GetBool("force")

	err := mutate(func(s *workbook.Store) error {
		if _, err := s.LoadEmail(t.Name); err == nil && !force {
			return clierr.Newf(clierr.InvalidInput, "email template %q already exists (use --force)", t.Name)
		}
		return s.SaveEmail(t)
	})
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, t)
	}
	output.Messagef(os.Stdout, "Saved email template %s to %s", t.Name, t.File)
	return nil
}

func readInput(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // user-chosen input path
	}
	if err != nil {
		return "", clierr.Newf(clierr.InvalidInput, "reading %s: %v", path, err)
	}
	return string(data), nil
}

func runEmailList(_ *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	templates, warnings, err := s.ListEmails()
	if err != nil {
		return err
	}
	printWarnings(warnings)

	if outputFormat() == output.FormatJSON {
		if templates == nil {
			templates = []*mail.Template{}
		}
		return output.JSON(os.Stdout, templates)
	}
	output.EmailList(os.Stdout, templates)
	return nil
}

func runEmailShow(_ *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	t, err := s.LoadEmail(args[0])
	if err != nil {
		return err
	}
	placeholders := mail.Placeholders(t.Subject + "\n" + t.Body + "\n" + strings.Join(append(append([]string{}, t.To...), t.Cc...), "\n"))

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"template": t, "placeholders": placeholders})
	}
	data, err := t.Marshal()
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, string(data))
	if len(placeholders) > 0 {
		output.Messagef(os.Stderr, "Placeholders: %s", strings.Join(placeholders, ", "))
	}
	return nil
}

// renderEmail loads the template, project and contacts and renders the
// message for project, optionally exposing one task's columns.
func renderEmail(cmd *cobra.Command, s *workbook.Store, name, project string) (*mail.Message, error) {
	t, err := s.LoadEmail(name)
	if err != nil {
		return nil, err
	}
	sh, err := s.LoadProject(project)
	if err != nil {
		return nil, err
	}
	contacts, err := s.LoadContacts()
	if err != nil {
		return nil, err
	}

	values := mail.NewValues(sh.Name, date.Today())
	if rowID, _ := cmd.Flags().GetString("row"); rowID != "" {
		roles := schedule.DetectRoles(sh.Header)
		idCol, ok := roles[schedule.RoleID]
		row := -1
		if ok {
			row = sh.RowByID(idCol, rowID)
		}
		if row < 0 {
			return nil, workbook.RowNotFound(sh.Name, rowID)
		}
		values.AddRecord(sh.Record(row))
	}

	return mail.Render(t, values, contacts, s.Config().Mail.From)
}

func runEmailPreview(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	m, err := renderEmail(cmd, s, args[0], args[1])
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, m)
	}
	if html, _ := cmd.Flags().GetBool("html"); html {
		fmt.Fprint(os.Stdout, m.HTML)
		return nil
	}

	output.MessageSummary(os.Stderr, m)
	width, _ := cmd.Flags().GetInt("width")
	if width <= 0 {
		width = min(terminalWidth(), defaultTermWidth)
	}
	color := !flagNoColor && !output.ColorDisabled() && term.IsTerminal(int(os.Stdout.Fd()))
	out, err := mail.Preview(m, width, color)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, out)
	return nil
}

func runEmailSend(cmd *cobra.Command, args []string) error {
	var entry *mail.OutboxEntry
	err := mutate(func(s *workbook.Store) error {
		m, err := renderEmail(cmd, s, args[0], args[1])
		if err != nil {
			return err
		}
		entry, err = mail.NewOutbox(s.Config().OutboxPath(), s.Logger()).Send(m)
		if err != nil {
			return err
		}
		s.LogMutation(workbook.ActionSendEmail, m.Project, "",
			fmt.Sprintf("%s to %s", m.Template, strings.Join(m.To, ", ")))
		return nil
	})
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, entry)
	}
	output.MessageSummary(os.Stdout, &entry.Message)
	output.Messagef(os.Stdout, "Recorded in outbox as %s (not delivered)", entry.ID)
	return nil
}

func runEmailDelete(_ *cobra.Command, args []string) error {
	err := mutate(func(s *workbook.Store) error {
		return s.DeleteEmail(args[0])
	})
	if err != nil {
		return err
	}
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]string{"status": "deleted", "template": args[0]})
	}
	output.Messagef(os.Stdout, "Deleted email template %s", args[0])
	return nil
}

func runEmailOutbox(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	entries, err := mail.ReadOutbox(cfg.OutboxPath())
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		if entries == nil {
			entries = []mail.OutboxEntry{}
		}
		return output.JSON(os.Stdout, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "Outbox is empty.")
		return nil
	}
	for _, e := range entries {
		output.Messagef(os.Stdout, "%s  %s  %s: %s -> %s",
			e.Timestamp.Format("2006-01-02 15:04"), e.ID.String()[:8], e.Template, e.Subject, strings.Join(e.To, ", "))
	}
	return nil
}
