package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/doeshing/benchhist/internal/domain"
	"github.com/doeshing/benchhist/internal/ports"
)

// SQLiteRepository persists history in a SQLite database.
type SQLiteRepository struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteRepository creates (or opens) the database at path.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	store := &SQLiteRepository{db: db, path: path}
	if err := store.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite %s: %w", path, err)
	}
	return store, nil
}

func (s *SQLiteRepository) init() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS groups (
		name TEXT PRIMARY KEY
	);
	CREATE TABLE IF NOT EXISTS runs (
		group_name TEXT NOT NULL,
		position INTEGER NOT NULL,
		commit_id TEXT NOT NULL,
		date INTEGER NOT NULL,
		tool TEXT NOT NULL,
		commit_json TEXT NOT NULL,
		benches_json TEXT NOT NULL,
		PRIMARY KEY (group_name, position)
	);
	CREATE INDEX IF NOT EXISTS runs_by_date ON runs (group_name, date);`)
	return err
}

// Load implements ports.HistoryRepository.
func (s *SQLiteRepository) Load(ctx context.Context) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := domain.NewDocument("")
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return domain.Document{}, err
	}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return domain.Document{}, err
		}
		switch key {
		case "lastUpdate":
			doc.LastUpdate, _ = strconv.ParseInt(value, 10, 64)
		case "repoUrl":
			doc.RepoURL = value
		}
	}
	rows.Close()

	groups, err := s.db.QueryContext(ctx, "SELECT name FROM groups")
	if err != nil {
		return domain.Document{}, err
	}
	for groups.Next() {
		var name string
		if err := groups.Scan(&name); err != nil {
			groups.Close()
			return domain.Document{}, err
		}
		doc.Entries[name] = []domain.BenchmarkRun{}
	}
	groups.Close()

	runs, err := s.db.QueryContext(ctx, `SELECT group_name, date, tool, commit_json, benches_json
		FROM runs ORDER BY group_name, position`)
	if err != nil {
		return domain.Document{}, err
	}
	defer runs.Close()
	for runs.Next() {
		var (
			group              string
			run                domain.BenchmarkRun
			commitRaw, benches string
		)
		if err := runs.Scan(&group, &run.Date, &run.Tool, &commitRaw, &benches); err != nil {
			return domain.Document{}, err
		}
		if err := json.Unmarshal([]byte(commitRaw), &run.Commit); err != nil {
			return domain.Document{}, fmt.Errorf("decode commit in group %s: %w", group, err)
		}
		if err := json.Unmarshal([]byte(benches), &run.Benches); err != nil {
			return domain.Document{}, fmt.Errorf("decode benches in group %s: %w", group, err)
		}
		doc.Entries[group] = append(doc.Entries[group], run)
	}
	return doc, runs.Err()
}

// Save implements ports.HistoryRepository, replacing the content in one transaction.
func (s *SQLiteRepository) Save(ctx context.Context, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM runs", "DELETE FROM groups", "DELETE FROM meta"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?), (?, ?)",
		"lastUpdate", strconv.FormatInt(doc.LastUpdate, 10),
		"repoUrl", doc.RepoURL,
	); err != nil {
		return err
	}

	insert, err := tx.PrepareContext(ctx, `INSERT INTO runs
		(group_name, position, commit_id, date, tool, commit_json, benches_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insert.Close()

	for group, runs := range doc.Entries {
		if _, err := tx.ExecContext(ctx, "INSERT INTO groups (name) VALUES (?)", group); err != nil {
			return err
		}
		for i, run := range runs {
			commitRaw, err := json.Marshal(run.Commit)
			if err != nil {
				return err
			}
			benches, err := json.Marshal(run.Benches)
			if err != nil {
				return err
			}
			if _, err := insert.ExecContext(ctx, group, i, run.Commit.ID, run.Date, run.Tool, string(commitRaw), string(benches)); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Path returns the sqlite database path.
func (s *SQLiteRepository) Path() string {
	return s.path
}

// Close closes the database.
func (s *SQLiteRepository) Close() error {
	return s.db.Close()
}

var _ ports.HistoryRepository = (*SQLiteRepository)(nil)
