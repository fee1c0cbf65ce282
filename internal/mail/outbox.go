package mail

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
)

const outboxFileMode = 0o600

// OutboxEntry is one line of outbox.jsonl.
type OutboxEntry struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Message
}

// Outbox records messages instead of delivering them.
type Outbox struct {
	path string
	log  *slog.Logger
	now  func() time.Time
}

// NewOutbox returns an outbox appending to path.
func NewOutbox(path string, logger *slog.Logger) *Outbox {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Outbox{path: path, log: logger, now: time.Now}
}

// Send logs m and appends it to the outbox. A message without To
// recipients is rejected.
func (o *Outbox) Send(m *Message) (*OutboxEntry, error) {
	if len(m.To) == 0 {
		return nil, clierr.Newf(clierr.NoRecipients, "template %q resolved to no recipients", m.Template).
			WithDetails(map[string]any{
				"template":       m.Template,
				"no_email":       m.NoEmail,
				"unmatched_tags": m.UnmatchedTag,
			})
	}

	entry := &OutboxEntry{ID: uuid.New(), Timestamp: o.now(), Message: *m}

	f, err := os.OpenFile(o.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, outboxFileMode) //nolint:gosec // outbox path from workbook config
	if err != nil {
		return nil, fmt.Errorf("opening outbox: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshaling outbox entry: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("writing outbox entry: %w", err)
	}

	o.log.Info("email queued to outbox (not delivered)",
		"id", entry.ID, "template", m.Template, "project", m.Project,
		"subject", m.Subject, "to", m.To, "cc", m.Cc)
	return entry, nil
}

// ReadOutbox returns every entry in the outbox, oldest first. A missing
// file is an empty outbox.
func ReadOutbox(path string) ([]OutboxEntry, error) {
	f, err := os.Open(path) //nolint:gosec // outbox path from workbook config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening outbox: %w", err)
	}
	defer f.Close()

	var entries []OutboxEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024) //nolint:mnd // rendered html can be large
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e OutboxEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("outbox line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}
