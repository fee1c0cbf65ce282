package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
)

const fileMode = 0o600

// Sentinel errors.
var (
	ErrNotFound = errors.New("no workbook found (run 'plantrack init' to create one)")
	ErrInvalid  = errors.New("invalid config")
)

// Config represents the workbook configuration.
type Config struct {
	Version     int            `yaml:"version"`
	Workbook    WorkbookConfig `yaml:"workbook"`
	ProjectsDir string         `yaml:"projects_dir"`
	EmailsDir   string         `yaml:"emails_dir"`
	Statuses    []StatusConfig `yaml:"statuses"`
	Columns     ColumnsConfig  `yaml:"columns"`
	WIPLimits   map[string]int `yaml:"wip_limits,omitempty"`
	Mail        MailConfig     `yaml:"mail"`
	TUI         TUIConfig      `yaml:"tui,omitempty"`

	// dir is the absolute path to the workbook directory (not serialized).
	dir string `yaml:"-"`
}

// WorkbookConfig holds workbook metadata.
type WorkbookConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// ColumnsConfig names the sheet columns that carry Kanban and timeline
// attributes. The scheduling columns are detected from the header instead.
type ColumnsConfig struct {
	Status    string `yaml:"status" json:"status"`
	Phase     string `yaml:"phase" json:"phase"`
	Milestone string `yaml:"milestone" json:"milestone"`
	Task      string `yaml:"task" json:"task"`
	Owner     string `yaml:"owner" json:"owner"`
}

func (c ColumnsConfig) withDefaults() ColumnsConfig {
	if c.Status == "" {
		c.Status = DefaultColumns.Status
	}
	if c.Phase == "" {
		c.Phase = DefaultColumns.Phase
	}
	if c.Milestone == "" {
		c.Milestone = DefaultColumns.Milestone
	}
	if c.Task == "" {
		c.Task = DefaultColumns.Task
	}
	if c.Owner == "" {
		c.Owner = DefaultColumns.Owner
	}
	return c
}

// MailConfig holds email rendering settings.
type MailConfig struct {
	From   string `yaml:"from,omitempty"`
	Outbox string `yaml:"outbox"`
}

// DueThreshold maps "expected date within N days" to an ANSI color code.
type DueThreshold struct {
	Within int    `yaml:"within" json:"within"`
	Color  string `yaml:"color" json:"color"`
}

// TUIConfig holds TUI-specific display settings.
type TUIConfig struct {
	TitleLines    int            `yaml:"title_lines,omitempty"`
	DueThresholds []DueThreshold `yaml:"due_thresholds,omitempty"`
}

// StatusConfig defines a Kanban column.
type StatusConfig struct {
	Name string `yaml:"name" json:"name"`
	Done bool   `yaml:"done,omitempty" json:"done,omitempty"`
}

// UnmarshalYAML allows StatusConfig to be parsed from either a plain string
// ("Pendiente") or a mapping ({name: Completado, done: true}).
func (s *StatusConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		s.Name = value.Value
		return nil
	}
	type plain StatusConfig
	return value.Decode((*plain)(s))
}

// Dir returns the absolute path to the workbook directory.
func (c *Config) Dir() string {
	return c.dir
}

// ProjectsPath returns the absolute path to the projects directory.
func (c *Config) ProjectsPath() string {
	return filepath.Join(c.dir, c.ProjectsDir)
}

// EmailsPath returns the absolute path to the email templates directory.
func (c *Config) EmailsPath() string {
	return filepath.Join(c.dir, c.EmailsDir)
}

// OutboxPath returns the absolute path to the outbox log.
func (c *Config) OutboxPath() string {
	return filepath.Join(c.dir, c.Mail.Outbox)
}

// ConfigPath returns the absolute path to the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.dir, ConfigFileName)
}

// NewDefault creates a Config with default values.
func NewDefault(name string) *Config {
	return &Config{
		Version:     CurrentVersion,
		Workbook:    WorkbookConfig{Name: name},
		ProjectsDir: DefaultProjectsDir,
		EmailsDir:   DefaultEmailsDir,
		Statuses:    append([]StatusConfig{}, DefaultStatuses...),
		Columns:     DefaultColumns,
		Mail:        MailConfig{Outbox: DefaultOutbox},
		TUI: TUIConfig{
			TitleLines:    DefaultTitleLines,
			DueThresholds: append([]DueThreshold{}, DefaultDueThresholds...),
		},
	}
}

// SetDir sets the workbook directory path on the config.
func (c *Config) SetDir(dir string) {
	c.dir = dir
}

// StatusNames returns the ordered list of status name strings.
func (c *Config) StatusNames() []string {
	names := make([]string, len(c.Statuses))
	for i, s := range c.Statuses {
		names[i] = s.Name
	}
	return names
}

// DefaultStatus is the status of a row whose status cell is empty.
func (c *Config) DefaultStatus() string {
	if len(c.Statuses) == 0 {
		return ""
	}
	return c.Statuses[0].Name
}

// NormalizeStatus maps a free-typed status to its configured spelling.
// Empty input yields the default status; unknown input returns "", false.
func (c *Config) NormalizeStatus(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return c.DefaultStatus(), true
	}
	for _, st := range c.Statuses {
		if strings.EqualFold(st.Name, s) {
			return st.Name, true
		}
	}
	return "", false
}

func (c *Config) doneIndex() int {
	for i, s := range c.Statuses {
		if s.Done {
			return i
		}
	}
	return -1
}

// IsTerminalStatus reports whether rows in status s count as finished.
func (c *Config) IsTerminalStatus(s string) bool {
	for _, st := range c.Statuses {
		if st.Done && strings.EqualFold(st.Name, s) {
			return true
		}
	}
	return false
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrInvalid, c.Version, CurrentVersion)
	}
	if c.Workbook.Name == "" {
		return fmt.Errorf("%w: workbook.name is required", ErrInvalid)
	}
	if c.ProjectsDir == "" {
		return fmt.Errorf("%w: projects_dir is required", ErrInvalid)
	}
	if c.EmailsDir == "" {
		return fmt.Errorf("%w: emails_dir is required", ErrInvalid)
	}
	names := c.StatusNames()
	if len(names) < 2 { //nolint:mnd // minimum 2 statuses for a kanban board
		return fmt.Errorf("%w: at least 2 statuses are required", ErrInvalid)
	}
	if hasDuplicates(lower(names)) {
		return fmt.Errorf("%w: statuses contain duplicates", ErrInvalid)
	}
	if c.doneIndex() < 0 {
		return fmt.Errorf("%w: one status must be marked done", ErrInvalid)
	}
	if err := c.validateColumns(); err != nil {
		return err
	}
	if err := c.validateWIPLimits(); err != nil {
		return err
	}
	if c.Mail.Outbox == "" {
		return fmt.Errorf("%w: mail.outbox is required", ErrInvalid)
	}
	return c.validateTUI()
}

func (c *Config) validateColumns() error {
	cols := map[string]string{
		"status":    c.Columns.Status,
		"phase":     c.Columns.Phase,
		"milestone": c.Columns.Milestone,
		"task":      c.Columns.Task,
		"owner":     c.Columns.Owner,
	}
	for key, v := range cols {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: columns.%s is required", ErrInvalid, key)
		}
	}
	return nil
}

func (c *Config) validateWIPLimits() error {
	names := c.StatusNames()
	for status, limit := range c.WIPLimits {
		if !contains(names, status) {
			return fmt.Errorf("%w: wip_limits references unknown status %q", ErrInvalid, status)
		}
		if limit < 0 {
			return fmt.Errorf("%w: wip_limits for %q must be >= 0", ErrInvalid, status)
		}
	}
	return nil
}

func (c *Config) validateTUI() error {
	const minTitleLines, maxTitleLines = 1, 3
	if c.TUI.TitleLines < minTitleLines || c.TUI.TitleLines > maxTitleLines {
		return fmt.Errorf("%w: tui.title_lines must be between %d and %d",
			ErrInvalid, minTitleLines, maxTitleLines)
	}
	for i, dt := range c.TUI.DueThresholds {
		if dt.Color == "" {
			return fmt.Errorf("%w: tui.due_thresholds[%d].color is required", ErrInvalid, i)
		}
	}
	return nil
}

// DueColor returns the color for a card whose expected date is daysLeft
// days away, or "" when no threshold applies.
func (c *Config) DueColor(daysLeft int) string {
	thresholds := c.TUI.DueThresholds
	if len(thresholds) == 0 {
		thresholds = DefaultDueThresholds
	}
	sorted := append([]DueThreshold{}, thresholds...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Within < sorted[j].Within })
	for _, dt := range sorted {
		if daysLeft <= dt.Within {
			return dt.Color
		}
	}
	return ""
}

// WIPLimit returns the WIP limit for a status, or 0 (unlimited).
func (c *Config) WIPLimit(status string) int {
	if c.WIPLimits == nil {
		return 0
	}
	return c.WIPLimits[status]
}

// TitleLines returns the configured number of title lines for TUI cards.
func (c *Config) TitleLines() int {
	if c.TUI.TitleLines == 0 {
		return DefaultTitleLines
	}
	return c.TUI.TitleLines
}

// Init creates a new workbook in the given directory with default settings.
// It creates the workbook directory, its subdirectories and the config file.
func Init(dir, name string) (*Config, error) {
	const dirMode = 0o750

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg := NewDefault(name)
	cfg.SetDir(absDir)

	for _, sub := range []string{cfg.ProjectsPath(), cfg.EmailsPath()} {
		if err := os.MkdirAll(sub, dirMode); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Base(sub), err)
		}
	}

	if err := cfg.Save(); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to its config file.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(c.ConfigPath(), data, fileMode)
}

// Load reads and validates a config from the given workbook directory.
func Load(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	path := filepath.Join(absDir, ConfigFileName)
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted source
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.dir = absDir

	oldVersion := cfg.Version
	if err := migrate(&cfg); err != nil {
		return nil, err
	}

	// Persist migrated config so future loads skip re-migration.
	if cfg.Version != oldVersion {
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("saving migrated config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// FindDir walks upward from startDir looking for a workbook directory
// containing config.yml. Returns the absolute path to the workbook directory.
func FindDir(startDir string) (string, error) {
	absStart, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	dir := absStart
	for {
		candidate := filepath.Join(dir, DefaultDir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Join(dir, DefaultDir), nil
		}

		// Also check if we're inside the workbook directory itself.
		candidate = filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", clierr.New(clierr.WorkbookNotFound,
				"no workbook found (run 'plantrack init' to create one)")
		}
		dir = parent
	}
}

// StatusIndex returns the index of a status in the configured order, or -1.
func (c *Config) StatusIndex(status string) int {
	for i, s := range c.Statuses {
		if strings.EqualFold(s.Name, status) {
			return i
		}
	}
	return -1
}

func contains(slice []string, item string) bool {
	return IndexOf(slice, item) >= 0
}

// IndexOf returns the index of item in slice, or -1 if not found.
func IndexOf(slice []string, item string) int {
	for i, s := range slice {
		if s == item {
			return i
		}
	}
	return -1
}

func lower(slice []string) []string {
	out := make([]string, len(slice))
	for i, s := range slice {
		out[i] = strings.ToLower(s)
	}
	return out
}

func hasDuplicates(slice []string) bool {
	seen := make(map[string]bool, len(slice))
	for _, s := range slice {
		if seen[s] {
			return true
		}
		seen[s] = true
	}
	return false
}
