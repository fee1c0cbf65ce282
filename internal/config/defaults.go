// Package config handles workbook configuration.
package config

const (
	// DefaultDir is the default workbook directory name.
	DefaultDir = "plantrack"
	// DefaultProjectsDir is the default projects subdirectory name.
	DefaultProjectsDir = "projects"
	// DefaultEmailsDir is the default email template subdirectory name.
	DefaultEmailsDir = "emails"
	// DefaultOutbox is the default file that records "sent" emails.
	DefaultOutbox = "outbox.jsonl"
	// DefaultTitleLines is the default number of title lines in TUI cards.
	DefaultTitleLines = 2

	// ConfigFileName is the name of the config file within the workbook directory.
	ConfigFileName = "config.yml"

	// CurrentVersion is the current config schema version.
	CurrentVersion = 3
)

// Default column names used to read Kanban and timeline attributes from a
// project row.
const (
	ColumnStatus    = "Estado"
	ColumnPhase     = "Fase"
	ColumnMilestone = "Hito"
	ColumnTask      = "Tarea"
	ColumnOwner     = "Responsable"
)

// Default slice values for a new workbook (slices cannot be const).
var (
	DefaultStatuses = []StatusConfig{
		{Name: "Pendiente"},
		{Name: "En curso"},
		{Name: "Bloqueado"},
		{Name: "Completado", Done: true},
	}

	DefaultColumns = ColumnsConfig{
		Status:    ColumnStatus,
		Phase:     ColumnPhase,
		Milestone: ColumnMilestone,
		Task:      ColumnTask,
		Owner:     ColumnOwner,
	}

	// DefaultDueThresholds color a card by how many days remain until its
	// expected date. Negative means overdue.
	DefaultDueThresholds = []DueThreshold{
		{Within: -1, Color: "196"}, // red, overdue
		{Within: 3, Color: "208"},  // orange
		{Within: 7, Color: "226"},  // yellow
		{Within: 30, Color: "34"},  // green
	}
)
