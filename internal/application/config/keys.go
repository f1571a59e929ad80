package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/benchhist/internal/domain"
)

// Concerns group keys by what they influence.
const (
	ConcernStorage   = "storage"
	ConcernHistory   = "history"
	ConcernRetention = "retention"
	ConcernAlerting  = "alerting"
	ConcernServer    = "server"
	ConcernLogging   = "logging"
)

// Key is one addressable config setting.
type Key struct {
	Path    string
	Concern string
	Usage   string

	get func(domain.Config) interface{}
	set func(*domain.Config, string) error
}

// Get returns the key's value in cfg.
func (k Key) Get(cfg domain.Config) interface{} {
	return k.get(cfg)
}

// Set parses raw into cfg. The result is not validated as a whole.
func (k Key) Set(cfg *domain.Config, raw string) error {
	if err := k.set(cfg, strings.TrimSpace(raw)); err != nil {
		return fmt.Errorf("%s: %w", k.Path, err)
	}
	return nil
}

var keys = []Key{
	{
		Path: "storage.backend", Concern: ConcernStorage, Usage: "file|sqlite|bolt",
		get: func(c domain.Config) interface{} { return c.Storage.Backend },
		set: func(c *domain.Config, v string) error { c.Storage.Backend = strings.ToLower(v); return nil },
	},
	{
		Path: "storage.path", Concern: ConcernStorage, Usage: "history file or database path",
		get: func(c domain.Config) interface{} { return c.Storage.Path },
		set: func(c *domain.Config, v string) error { c.Storage.Path = v; return nil },
	},
	{
		Path: "history.default_group", Concern: ConcernHistory, Usage: "group used when --group is omitted",
		get: func(c domain.Config) interface{} { return c.History.DefaultGroup },
		set: func(c *domain.Config, v string) error { c.History.DefaultGroup = v; return nil },
	},
	{
		Path: "history.repo_url", Concern: ConcernHistory, Usage: "repository URL stored in the document",
		get: func(c domain.Config) interface{} { return c.History.RepoURL },
		set: func(c *domain.Config, v string) error { c.History.RepoURL = v; return nil },
	},
	{
		Path: "history.max_items", Concern: ConcernRetention, Usage: "runs kept per group after ingest, 0 keeps all",
		get: func(c domain.Config) interface{} { return c.History.MaxItems },
		set: func(c *domain.Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("want an integer, got %q", v)
			}
			c.History.MaxItems = n
			return nil
		},
	},
	{
		Path: "history.max_age", Concern: ConcernRetention, Usage: "drop runs older than this duration, e.g. 2160h",
		get: func(c domain.Config) interface{} { return c.History.MaxAge },
		set: func(c *domain.Config, v string) error {
			next := domain.HistorySettings{MaxAge: v}
			if _, err := MaxAge(next); err != nil {
				return err
			}
			c.History.MaxAge = v
			return nil
		},
	},
	{
		Path: "alert.threshold", Concern: ConcernAlerting, Usage: "ratio above which a regression alerts",
		get: func(c domain.Config) interface{} { return c.Alert.Threshold },
		set: func(c *domain.Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("want a number, got %q", v)
			}
			c.Alert.Threshold = f
			return nil
		},
	},
	{
		Path: "alert.fail_on_alert", Concern: ConcernAlerting, Usage: "exit non-zero on regressions",
		get: func(c domain.Config) interface{} { return c.Alert.FailOnAlert },
		set: func(c *domain.Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("want true or false, got %q", v)
			}
			c.Alert.FailOnAlert = b
			return nil
		},
	},
	{
		Path: "server.addr", Concern: ConcernServer, Usage: "listen address of benchhist serve",
		get: func(c domain.Config) interface{} { return c.Server.Addr },
		set: func(c *domain.Config, v string) error { c.Server.Addr = v; return nil },
	},
	{
		Path: "logging.level", Concern: ConcernLogging, Usage: "debug|info|warn|error",
		get: func(c domain.Config) interface{} { return c.Logging.Level },
		set: func(c *domain.Config, v string) error { c.Logging.Level = strings.ToLower(v); return nil },
	},
	{
		Path: "logging.format", Concern: ConcernLogging, Usage: "text|json",
		get: func(c domain.Config) interface{} { return c.Logging.Format },
		set: func(c *domain.Config, v string) error { c.Logging.Format = strings.ToLower(v); return nil },
	},
}

// Keys lists every settable key in file order.
func Keys() []Key {
	return append([]Key(nil), keys...)
}

// KeyPaths returns the sorted key paths.
func KeyPaths() []string {
	paths := make([]string, len(keys))
	for i, k := range keys {
		paths[i] = k.Path
	}
	sort.Strings(paths)
	return paths
}

// Lookup finds a key by its dotted path.
func Lookup(path string) (Key, error) {
	for _, k := range keys {
		if k.Path == path {
			return k, nil
		}
	}
	return Key{}, &domain.ValidationError{
		Field:  "key",
		Reason: fmt.Sprintf("unknown key %q, valid keys: %s", path, strings.Join(KeyPaths(), ", ")),
	}
}

// Change is a key whose value differs between two configs.
type Change struct {
	Key  Key
	From interface{}
	To   interface{}
}

// Update sets path to raw on a copy of cfg and validates the result.
func Update(cfg domain.Config, path, raw string) (domain.Config, Change, error) {
	key, err := Lookup(path)
	if err != nil {
		return cfg, Change{}, err
	}
	next := cfg
	if err := key.Set(&next, raw); err != nil {
		return cfg, Change{}, err
	}
	if err := Validate(next); err != nil {
		return cfg, Change{}, err
	}
	return next, Change{Key: key, From: key.Get(cfg), To: key.Get(next)}, nil
}

// Diff lists the keys whose values differ from base to cfg, in file order.
func Diff(base, cfg domain.Config) []Change {
	var changes []Change
	for _, k := range keys {
		from, to := k.Get(base), k.Get(cfg)
		if !cmp.Equal(from, to) {
			changes = append(changes, Change{Key: k, From: from, To: to})
		}
	}
	return changes
}
