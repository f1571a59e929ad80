package history

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/doeshing/benchhist/internal/domain"
	"github.com/doeshing/benchhist/internal/infrastructure/codec"
	"github.com/doeshing/benchhist/internal/ports"
)

// FileRepository keeps the history as a single JSON document, or as data.js
// when the path ends in .js.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileRepository creates a repository backed by path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Load implements ports.HistoryRepository. A missing file is an empty history.
func (f *FileRepository) Load(ctx context.Context) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewDocument(""), nil
		}
		return domain.Document{}, err
	}
	return codec.Decode(data)
}

// Save implements ports.HistoryRepository by writing a temp file and renaming
// it over the target.
func (f *FileRepository) Save(ctx context.Context, doc domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := codec.Encode(doc, codec.IsScript(f.path))
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, domain.DirectoryPermissions); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, domain.FilePermissions); err != nil {
		return err
	}
	return os.Rename(tmpName, f.path)
}

// Path returns the backing file path.
func (f *FileRepository) Path() string {
	return f.path
}

// Close is a no-op.
func (f *FileRepository) Close() error {
	return nil
}

var _ ports.HistoryRepository = (*FileRepository)(nil)
