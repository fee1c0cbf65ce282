package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/contact"
	"github.com/twiced-technology-gmbh/plantrack/internal/output"
	"github.com/twiced-technology-gmbh/plantrack/internal/workbook"
)

var contactCmd = &cobra.Command{
	Use:     "contact",
	Aliases: []string{"contacts"},
	Short:   "Manage the address book used for email recipients",
}

var contactAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a contact",
	Args:  cobra.ExactArgs(1),
	RunE:  runContactAdd,
}

var contactListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List contacts",
	Args:    cobra.NoArgs,
	RunE:    runContactList,
}

var contactEditCmd = &cobra.Command{
	Use:   "edit REF",
	Short: "Edit a contact by ID, ID prefix or name",
	Args:  cobra.ExactArgs(1),
	RunE:  runContactEdit,
}

var contactRemoveCmd = &cobra.Command{
	Use:     "remove REF",
	Aliases: []string{"rm"},
	Short:   "Remove a contact by ID, ID prefix or name",
	Args:    cobra.ExactArgs(1),
	RunE:    runContactRemove,
}

func init() {
	for _, c := range []*cobra.Command{contactAddCmd, contactEditCmd} {
		c.Flags().String("email", "", "email address")
		c.Flags().String("company", "", "company")
		c.Flags().String("role", "", "role or position")
	}
	contactAddCmd.Flags().StringSlice("tag", nil, "tags (comma-separated, repeatable)")

	contactEditCmd.Flags().String("name", "", "new name")
	contactEditCmd.Flags().StringSlice("add-tag", nil, "tags to add")
	contactEditCmd.Flags().StringSlice("remove-tag", nil, "tags to remove")

	contactListCmd.Flags().StringSlice("tag", nil, "only contacts carrying any of these tags")

	contactCmd.AddCommand(contactAddCmd, contactListCmd, contactEditCmd, contactRemoveCmd)
	rootCmd.AddCommand(contactCmd)
}

func runContactAdd(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	tags, _ := cmd.Flags().GetStringSlice("tag")
	c := contact.New(args[0], email, tags...)
	c.Company, _ = cmd.Flags().GetString("company")
	c.Role, _ = cmd.Flags().GetString("role")

	err := mutate(func(s *workbook.Store) error {
		dir, err := s.LoadContacts()
		if err != nil {
			return err
		}
		if err := dir.Add(c); err != nil {
			return err
		}
		if err := s.SaveContacts(dir); err != nil {
			return err
		}
		s.LogMutation(workbook.ActionContact, "", "", "add "+c.String())
		return nil
	})
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, c)
	}
	output.Messagef(os.Stdout, "Added contact %s (%s)", c.String(), c.ID.String()[:8])
	return nil
}

func runContactList(cmd *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	dir, err := s.LoadContacts()
	if err != nil {
		return err
	}

	contacts := dir.Contacts
	if tags, _ := cmd.Flags().GetStringSlice("tag"); len(tags) > 0 {
		contacts = dir.WithAnyTag(tags...)
	}
	if contacts == nil {
		contacts = []contact.Contact{}
	}

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, contacts)
	case output.FormatCompact:
		output.ContactCompact(os.Stdout, contacts)
	default:
		output.ContactTable(os.Stdout, contacts)
	}
	return nil
}

func runContactEdit(cmd *cobra.Command, args []string) error {
	var updated contact.Contact
	err := mutate(func(s *workbook.Store) error {
		dir, err := s.LoadContacts()
		if err != nil {
			return err
		}
		c, err := dir.Find(args[0])
		if err != nil {
			return err
		}

		next := *c
		changed := applyContactFlags(cmd, &next)
		if !changed {
			return clierr.New(clierr.NoChanges, "no changes specified")
		}
		if err := next.Validate(); err != nil {
			return err
		}
		*c = next
		if err := s.SaveContacts(dir); err != nil {
			return err
		}
		updated = next
		s.LogMutation(workbook.ActionContact, "", "", "edit "+next.String())
		return nil
	})
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, updated)
	}
	output.Messagef(os.Stdout, "Updated contact %s", updated.String())
	return nil
}

// applyContactFlags copies set flags onto c and reports whether any
// field changed.
func applyContactFlags(cmd *cobra.Command, c *contact.Contact) bool {
	before := *c
	before.Tags = append([]string{}, c.Tags...)

	if cmd.Flags().Changed("name") {
		c.Name, _ = cmd.Flags().GetString("name")
		c.Name = strings.TrimSpace(c.Name)
	}
	if cmd.Flags().Changed("email") {
		c.Email, _ = cmd.Flags().GetString("email")
		c.Email = strings.TrimSpace(c.Email)
	}
	if cmd.Flags().Changed("company") {
		c.Company, _ = cmd.Flags().GetString("company")
	}
	if cmd.Flags().Changed("role") {
		c.Role, _ = cmd.Flags().GetString("role")
	}
	if add, _ := cmd.Flags().GetStringSlice("add-tag"); len(add) > 0 {
		c.Tags = contact.NormalizeTags(append(c.Tags, add...))
	}
	if remove, _ := cmd.Flags().GetStringSlice("remove-tag"); len(remove) > 0 {
		kept := c.Tags[:0:0]
		for _, t := range c.Tags {
			drop := false
			for _, r := range remove {
				if strings.EqualFold(t, strings.TrimSpace(r)) {
					drop = true
					break
				}
			}
			if !drop {
				kept = append(kept, t)
			}
		}
		c.Tags = kept
	}

	return c.Name != before.Name || c.Email != before.Email || c.Company != before.Company ||
		c.Role != before.Role || strings.Join(c.Tags, ",") != strings.Join(before.Tags, ",")
}

func runContactRemove(_ *cobra.Command, args []string) error {
	var removed contact.Contact
	err := mutate(func(s *workbook.Store) error {
		dir, err := s.LoadContacts()
		if err != nil {
			return err
		}
		removed, err = dir.Remove(args[0])
		if err != nil {
			return err
		}
		if err := s.SaveContacts(dir); err != nil {
			return err
		}
		s.LogMutation(workbook.ActionContact, "", "", "remove "+removed.String())
		return nil
	})
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"status": "removed", "contact": removed})
	}
	output.Messagef(os.Stdout, "Removed contact %s", removed.String())
	return nil
}
