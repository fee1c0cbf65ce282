// Package workbook persists the template, projects, contacts and email
// templates of one workbook directory, and hosts the table editor.
package workbook

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/twiced-technology-gmbh/plantrack/internal/config"
)

const (
	fileMode = 0o600
	dirMode  = 0o750

	// TemplateFile holds the template sheet.
	TemplateFile = "template.yml"
	// ContactsFile holds the contacts directory.
	ContactsFile = "contacts.yml"
)

// Sentinel errors.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("file changed on disk since it was loaded")
)

// Digest is the BLAKE3 fingerprint of a file's contents.
type Digest [32]byte

// Fingerprint hashes data.
func Fingerprint(data []byte) Digest {
	return blake3.Sum256(data)
}

// String returns a short hex form for logs.
func (d Digest) String() string {
	return hex.EncodeToString(d[:8])
}

// Store reads and writes workbook files. It remembers the fingerprint of
// every file it loads so a later save can detect edits made by another
// process in between.
type Store struct {
	cfg *config.Config
	log *slog.Logger

	mu      sync.Mutex
	digests map[string]Digest
}

// Open returns a store for the workbook described by cfg.
func Open(cfg *config.Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{cfg: cfg, log: logger, digests: make(map[string]Digest)}
}

// Init creates a workbook in dir with the default config, the starter
// template and an empty contacts file.
func Init(dir, name string, logger *slog.Logger) (*Store, error) {
	cfg, err := config.Init(dir, name)
	if err != nil {
		return nil, err
	}
	s := Open(cfg, logger)
	if err := s.SaveTemplate(DefaultTemplate()); err != nil {
		return nil, err
	}
	if err := s.saveYAML(s.path(ContactsFile), contactsFile{}); err != nil {
		return nil, err
	}
	return s, nil
}

// Config returns the workbook config.
func (s *Store) Config() *config.Config {
	return s.cfg
}

// Dir returns the workbook directory.
func (s *Store) Dir() string {
	return s.cfg.Dir()
}

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger {
	return s.log
}

func (s *Store) path(name string) string {
	return filepath.Join(s.cfg.Dir(), name)
}

// readFile loads path and records its fingerprint. A missing file wraps
// ErrNotFound.
func (s *Store) readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path inside the workbook directory
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	s.mu.Lock()
	s.digests[path] = Fingerprint(data)
	s.mu.Unlock()
	return data, nil
}

// writeFile stores data at path. Identical content is not rewritten. When
// the file was loaded through this store and has changed on disk since,
// the write is refused with ErrConflict.
func (s *Store) writeFile(path string, data []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Fingerprint(data)
	known, loaded := s.digests[path]

	current, err := os.ReadFile(path) //nolint:gosec // path inside the workbook directory
	switch {
	case err == nil:
		onDisk := Fingerprint(current)
		if onDisk == next {
			s.digests[path] = next
			s.log.Debug("save skipped, content unchanged", "file", filepath.Base(path), "digest", next)
			return false, nil
		}
		if loaded && onDisk != known {
			return false, fmt.Errorf("%s: %w", filepath.Base(path), ErrConflict)
		}
	case !os.IsNotExist(err):
		return false, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	if err := atomicWrite(path, data); err != nil {
		return false, err
	}
	s.digests[path] = next
	s.log.Debug("saved", "file", filepath.Base(path), "digest", next)
	return true, nil
}

// forget drops the fingerprint of a removed or renamed file.
func (s *Store) forget(path string) {
	s.mu.Lock()
	delete(s.digests, path)
	s.mu.Unlock()
}

func atomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return os.Rename(tmp.Name(), path)
}
