package commands

// AnnotationConfigOnly marks commands that only need the config loader, so
// they keep working when the config or the history is broken.
const AnnotationConfigOnly = "benchhist/config-only"

// CLI-specific constants
const (
	// DefaultEditorCommand is the default editor command
	DefaultEditorCommand = "vi"
	// EnvGitHubEventPath is set by GitHub Actions to the webhook payload file.
	EnvGitHubEventPath = "GITHUB_EVENT_PATH"
	// StdinPath reads tool output from standard input.
	StdinPath = "-"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Error messages
const (
	ErrConfigLoaderUnavailable  = "config loader unavailable"
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrCommitRequired           = "--commit-id is required (or --event / $GITHUB_EVENT_PATH)"
	ErrTrimRuleRequired         = "--keep or --older-than is required"
)

// Success messages
const (
	MsgConfigurationValid       = "Configuration valid"
	MsgNoDifferencesFromDefault = "No differences from default configuration."
	MsgNoRunsRecorded           = "No runs recorded yet."
	MsgNoAlerts                 = "No regression over threshold."
)
