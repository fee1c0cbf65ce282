package workbook

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	logFileName   = "activity.jsonl"
	logFileMode   = 0o600
	maxLogEntries = 10000 // truncate oldest entries when log exceeds this size
)

// Activity actions.
const (
	ActionSetCell     = "set"
	ActionResolve     = "resolve"
	ActionMove        = "move"
	ActionAddRow      = "add-row"
	ActionDeleteRow   = "delete-row"
	ActionCreate      = "create"
	ActionDelete      = "delete"
	ActionRename      = "rename"
	ActionImport      = "import"
	ActionSendEmail   = "send"
	ActionContact     = "contact"
	ActionTemplateSet = "template-set"
)

// LogEntry represents a single activity log entry.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Project   string    `json:"project,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	Detail    string    `json:"detail"`
}

// AppendLog appends a log entry to the activity log file.
// If the log exceeds maxLogEntries, the oldest entries are truncated.
func AppendLog(dir string, entry LogEntry) error {
	path := filepath.Join(dir, logFileName)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFileMode) //nolint:gosec // log path from trusted workbook dir
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling log entry: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing log entry: %w", err)
	}

	// Truncate if needed (best-effort; errors are non-fatal).
	_ = truncateLogIfNeeded(path)

	return nil
}

// ReadLog returns the most recent limit entries, newest last. A limit of
// zero returns everything.
func ReadLog(dir string, limit int) ([]LogEntry, error) {
	f, err := os.Open(filepath.Join(dir, logFileName)) //nolint:gosec // trusted path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e LogEntry
		if json.Unmarshal(scanner.Bytes(), &e) != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading log file: %w", err)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// truncateLogIfNeeded reads the log file and, if it exceeds maxLogEntries,
// rewrites it keeping only the most recent entries.
func truncateLogIfNeeded(path string) error {
	f, err := os.Open(path) //nolint:gosec // trusted path
	if err != nil {
		return err
	}

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	_ = f.Close()

	if err := scanner.Err(); err != nil {
		return err
	}

	if len(lines) <= maxLogEntries {
		return nil
	}

	lines = lines[len(lines)-maxLogEntries:]

	var buf strings.Builder
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	return os.WriteFile(path, []byte(buf.String()), logFileMode)
}

// LogMutation appends an activity log entry. A failure is reported on the
// store's logger and never fails the command.
func (s *Store) LogMutation(action, project, taskID, detail string) {
	entry := LogEntry{
		Timestamp: time.Now(),
		Action:    action,
		Project:   project,
		TaskID:    taskID,
		Detail:    detail,
	}
	if err := AppendLog(s.Dir(), entry); err != nil {
		s.log.Warn("activity log write failed", "action", action, "error", err)
	}
}
