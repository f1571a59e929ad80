// Package history provides the persistence backends for benchmark history.
package history

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/doeshing/benchhist/internal/domain"
	"github.com/doeshing/benchhist/internal/ports"
)

// Open returns the repository selected by settings. When the sqlite backend
// cannot be opened it falls back to a JSON file next to the database.
func Open(settings domain.StorageSettings, log ports.Logger) (ports.HistoryRepository, error) {
	path := settings.Path
	if path == "" {
		return nil, fmt.Errorf("storage.path must be set")
	}
	switch strings.ToLower(settings.Backend) {
	case "", domain.BackendFile:
		return NewFileRepository(path), nil
	case domain.BackendSQLite:
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			fallback := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
			log.Warn("sqlite unavailable, using file store", map[string]interface{}{
				"path":     path,
				"fallback": fallback,
				"error":    err.Error(),
			})
			return NewFileRepository(fallback), nil
		}
		return repo, nil
	case domain.BackendBolt:
		return NewBoltRepository(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", settings.Backend)
	}
}
