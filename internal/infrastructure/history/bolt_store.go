package history

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/doeshing/benchhist/internal/domain"
	"github.com/doeshing/benchhist/internal/ports"
)

var (
	metaBucket   = []byte("meta")
	groupsBucket = []byte("groups")
)

// BoltRepository persists history in a bbolt file: one nested bucket per
// group, keyed by big-endian insertion position.
type BoltRepository struct {
	db   *bolt.DB
	path string
}

// NewBoltRepository opens (or creates) the bbolt file at path.
func NewBoltRepository(path string) (*BoltRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, domain.SecureFilePermissions, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	return &BoltRepository{db: db, path: path}, nil
}

// Load implements ports.HistoryRepository.
func (b *BoltRepository) Load(ctx context.Context) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}
	doc := domain.NewDocument("")
	err := b.db.View(func(tx *bolt.Tx) error {
		if meta := tx.Bucket(metaBucket); meta != nil {
			if v := meta.Get([]byte("lastUpdate")); v != nil {
				doc.LastUpdate, _ = strconv.ParseInt(string(v), 10, 64)
			}
			doc.RepoURL = string(meta.Get([]byte("repoUrl")))
		}
		groups := tx.Bucket(groupsBucket)
		if groups == nil {
			return nil
		}
		return groups.ForEachBucket(func(name []byte) error {
			group := string(name)
			runs := []domain.BenchmarkRun{}
			err := groups.Bucket(name).ForEach(func(_, v []byte) error {
				var run domain.BenchmarkRun
				if err := json.Unmarshal(v, &run); err != nil {
					return fmt.Errorf("decode run in group %s: %w", group, err)
				}
				runs = append(runs, run)
				return nil
			})
			doc.Entries[group] = runs
			return err
		})
	})
	if err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// Save implements ports.HistoryRepository in a single write transaction.
func (b *BoltRepository) Save(ctx context.Context, doc domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}
		if err := meta.Put([]byte("lastUpdate"), []byte(strconv.FormatInt(doc.LastUpdate, 10))); err != nil {
			return err
		}
		if err := meta.Put([]byte("repoUrl"), []byte(doc.RepoURL)); err != nil {
			return err
		}

		if tx.Bucket(groupsBucket) != nil {
			if err := tx.DeleteBucket(groupsBucket); err != nil {
				return err
			}
		}
		groups, err := tx.CreateBucket(groupsBucket)
		if err != nil {
			return err
		}
		for name, runs := range doc.Entries {
			bucket, err := groups.CreateBucket([]byte(name))
			if err != nil {
				return fmt.Errorf("create group %s: %w", name, err)
			}
			for i, run := range runs {
				data, err := json.Marshal(run)
				if err != nil {
					return err
				}
				if err := bucket.Put(positionKey(i), data); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Path returns the bolt file path.
func (b *BoltRepository) Path() string {
	return b.path
}

// Close closes the database.
func (b *BoltRepository) Close() error {
	return b.db.Close()
}

func positionKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}

var _ ports.HistoryRepository = (*BoltRepository)(nil)
