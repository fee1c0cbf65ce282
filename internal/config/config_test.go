package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
)

func TestInitAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), DefaultDir)

	cfg, err := Init(dir, "Obras 2025")
	require.NoError(t, err)
	assert.DirExists(t, cfg.ProjectsPath())
	assert.DirExists(t, cfg.EmailsPath())

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "Obras 2025", loaded.Workbook.Name)
	assert.Equal(t, []string{"Pendiente", "En curso", "Bloqueado", "Completado"}, loaded.StatusNames())
	assert.Equal(t, DefaultColumns, loaded.Columns)
	assert.Equal(t, filepath.Join(dir, DefaultOutbox), loaded.OutboxPath())
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"default is valid", func(*Config) {}, ""},
		{"missing name", func(c *Config) { c.Workbook.Name = "" }, "workbook.name"},
		{"one status", func(c *Config) { c.Statuses = c.Statuses[:1] }, "at least 2"},
		{"duplicate status ignoring case", func(c *Config) {
			c.Statuses = append(c.Statuses, StatusConfig{Name: "pendiente"})
		}, "duplicates"},
		{"no done status", func(c *Config) {
			c.Statuses = []StatusConfig{{Name: "a"}, {Name: "b"}}
		}, "marked done"},
		{"unknown wip status", func(c *Config) { c.WIPLimits = map[string]int{"Nope": 1} }, "unknown status"},
		{"negative wip", func(c *Config) { c.WIPLimits = map[string]int{"En curso": -1} }, ">= 0"},
		{"blank column", func(c *Config) { c.Columns.Status = " " }, "columns.status"},
		{"no outbox", func(c *Config) { c.Mail.Outbox = "" }, "mail.outbox"},
		{"title lines", func(c *Config) { c.TUI.TitleLines = 5 }, "title_lines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault("wb")
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestMigrateFromV1(t *testing.T) {
	dir := t.TempDir()
	v1 := "version: 1\nworkbook:\n  name: legacy\nprojects_dir: projects\nstatuses:\n  - Pendiente\n  - Hecho\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(v1), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, DefaultColumns, cfg.Columns)
	assert.Equal(t, DefaultEmailsDir, cfg.EmailsDir)
	assert.True(t, cfg.IsTerminalStatus("hecho"), "last status becomes done")
	assert.Equal(t, DefaultTitleLines, cfg.TUI.TitleLines)

	// Migrated config was persisted.
	again, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, again.Version)
}

func TestMigrate_NewerVersion(t *testing.T) {
	cfg := NewDefault("wb")
	cfg.Version = CurrentVersion + 1
	err := migrate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestFindDir(t *testing.T) {
	root := t.TempDir()
	_, err := Init(filepath.Join(root, DefaultDir), "wb")
	require.NoError(t, err)

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	got, err := FindDir(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, DefaultDir), got)

	got, err = FindDir(filepath.Join(root, DefaultDir))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, DefaultDir), got)
}

func TestFindDir_NotFound(t *testing.T) {
	_, err := FindDir(t.TempDir())
	var ce *clierr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, clierr.WorkbookNotFound, ce.Code)
}

func TestStatusHelpers(t *testing.T) {
	cfg := NewDefault("wb")

	got, ok := cfg.NormalizeStatus("en CURSO")
	assert.True(t, ok)
	assert.Equal(t, "En curso", got)

	got, ok = cfg.NormalizeStatus("  ")
	assert.True(t, ok)
	assert.Equal(t, "Pendiente", got)

	_, ok = cfg.NormalizeStatus("Done")
	assert.False(t, ok)

	assert.True(t, cfg.IsTerminalStatus("Completado"))
	assert.False(t, cfg.IsTerminalStatus("Bloqueado"))
	assert.Equal(t, 2, cfg.StatusIndex("bloqueado"))
}

func TestDueColor(t *testing.T) {
	cfg := NewDefault("wb")
	assert.Equal(t, "196", cfg.DueColor(-4))
	assert.Equal(t, "208", cfg.DueColor(0))
	assert.Equal(t, "226", cfg.DueColor(5))
	assert.Equal(t, "34", cfg.DueColor(30))
	assert.Equal(t, "", cfg.DueColor(90))
}
