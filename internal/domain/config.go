package domain

// Config mirrors ~/.benchhist/config.yaml.
type Config struct {
	ConfigFormatVersion string          `yaml:"config_format_version"`
	Storage             StorageSettings `yaml:"storage"`
	History             HistorySettings `yaml:"history"`
	Alert               AlertSettings   `yaml:"alert"`
	Server              ServerSettings  `yaml:"server"`
	Logging             LoggingSettings `yaml:"logging"`
}

// StorageSettings selects the persistence backend.
type StorageSettings struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// HistorySettings controls grouping and retention.
type HistorySettings struct {
	DefaultGroup string `yaml:"default_group"`
	RepoURL      string `yaml:"repo_url"`
	MaxItems     int    `yaml:"max_items"`
	MaxAge       string `yaml:"max_age"`
}

// AlertSettings configures regression detection.
type AlertSettings struct {
	Threshold   float64 `yaml:"threshold"`
	FailOnAlert bool    `yaml:"fail_on_alert"`
}

// ServerSettings configures the HTTP surface.
type ServerSettings struct {
	Addr string `yaml:"addr"`
}

// LoggingSettings configures the logger backend.
type LoggingSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)
