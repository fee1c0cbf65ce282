package config

import "fmt"

// migrate upgrades a config from its current version to CurrentVersion.
// Each migration function transforms the config one version forward.
// Returns an error if the config version is newer than what this binary supports.
func migrate(cfg *Config) error {
	if cfg.Version == CurrentVersion {
		return nil
	}
	if cfg.Version > CurrentVersion {
		return fmt.Errorf(
			"%w: config version %d is newer than supported version %d (upgrade plantrack)",
			ErrInvalid, cfg.Version, CurrentVersion,
		)
	}
	if cfg.Version < 1 {
		return fmt.Errorf("%w: config version %d is invalid", ErrInvalid, cfg.Version)
	}

	for cfg.Version < CurrentVersion {
		fn, ok := migrations[cfg.Version]
		if !ok {
			return fmt.Errorf("%w: no migration path from version %d", ErrInvalid, cfg.Version)
		}
		if err := fn(cfg); err != nil {
			return fmt.Errorf("migrating config from v%d: %w", cfg.Version, err)
		}
	}

	return nil
}

// migrations maps each version to the function that migrates it to the next version.
// The migration function must increment cfg.Version after a successful migration.
var migrations = map[int]func(*Config) error{
	1: migrateV1ToV2,
	2: migrateV2ToV3,
}

// migrateV1ToV2 adds the columns mapping and the mail section. Version 1
// workbooks hard-coded the Spanish column names.
func migrateV1ToV2(cfg *Config) error { //nolint:unparam // signature must match migrations map type
	cfg.Columns = cfg.Columns.withDefaults()
	if cfg.EmailsDir == "" {
		cfg.EmailsDir = DefaultEmailsDir
	}
	if cfg.Mail.Outbox == "" {
		cfg.Mail.Outbox = DefaultOutbox
	}
	cfg.Version = 2
	return nil
}

// migrateV2ToV3 adds the tui section and marks the last status as done
// when no status carries the flag yet.
func migrateV2ToV3(cfg *Config) error { //nolint:unparam // signature must match migrations map type
	if cfg.TUI.TitleLines == 0 {
		cfg.TUI.TitleLines = DefaultTitleLines
	}
	if len(cfg.TUI.DueThresholds) == 0 {
		cfg.TUI.DueThresholds = append([]DueThreshold{}, DefaultDueThresholds...)
	}
	if len(cfg.Statuses) > 0 && cfg.doneIndex() < 0 {
		cfg.Statuses[len(cfg.Statuses)-1].Done = true
	}
	cfg.Version = 3
	return nil
}
