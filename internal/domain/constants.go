package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// FilePermissions is the permission for history documents (rw-r--r--)
	FilePermissions = 0o644
	// SecureFilePermissions is the permission for config files (rw-------)
	SecureFilePermissions = 0o600
)

// Defaults
const (
	// DefaultAlertThreshold flags a sample that got twice as bad.
	DefaultAlertThreshold = 2.0
	// DefaultServerAddr is the listen address of `benchhist serve`.
	DefaultServerAddr = "127.0.0.1:8089"
	// DefaultQueryLimit is the number of runs `benchhist query` prints.
	DefaultQueryLimit = 20
	// DefaultShutdownTimeout bounds graceful HTTP shutdown.
	DefaultShutdownTimeout = 5 * time.Second
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
