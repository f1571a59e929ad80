package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/benchhist/internal/domain"
)

const jmhOutput = `[{
  "benchmark": "aicard.perli.ml.benchmark.UpliftBenchmark.benchmarkPredictUplift",
  "mode": "avgt", "threads": 1, "forks": 1, "measurementIterations": 1,
  "primaryMetric": {"score": %s, "scoreError": "NaN", "scoreUnit": "ms/op"}
}]`

type cliEnv struct {
	t      *testing.T
	dir    string
	config string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("GITHUB_EVENT_PATH", "")
	config := filepath.Join(dir, "config.yaml")
	content := "storage:\n  backend: file\n  path: " + filepath.Join(dir, "data.js") + "\n" +
		"history:\n  default_group: Benchmark\n  repo_url: https://github.com/perli-project/perli-ai\n" +
		"logging:\n  level: error\n"
	require.NoError(t, os.WriteFile(config, []byte(content), 0o600))
	return &cliEnv{t: t, dir: dir, config: config}
}

func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()
	root, err := NewRootCmd(context.Background(), Options{})
	require.NoError(e.t, err)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", e.config}, args...))
	err = root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliEnv) jmhFile(name, score string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(strings.Replace(jmhOutput, "%s", score, 1)), 0o644))
	return path
}

func TestCLI_AddQueryLatestExport(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("add", "--tool", "jmh", "--file", env.jmhFile("a.json", "6.32E-7"),
		"--commit-id", "daa83abe1c4609a1", "--message", "Devops: CI pipeline (#16)",
		"--timestamp", "2025-12-23T18:35:41+09:00", "--date", "1766483007875")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Recorded 1 benchmarks for daa83ab in Benchmark (1 runs)")

	out, err = env.run("add", "--tool", "jmh", "--file", env.jmhFile("b.json", "6.37E-7"),
		"--commit-id", "f79ff477799013", "--message", "asd",
		"--timestamp", "2025-12-23T18:50:41+09:00", "--date", "1766483450073")
	require.NoError(t, err, out)

	out, err = env.run("query", "-o", "json")
	require.NoError(t, err, out)
	var runs []domain.BenchmarkRun
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, "daa83abe1c4609a1", runs[0].Commit.ID)
	assert.Equal(t, "iterations: 1\nforks: 1\nthreads: 1", runs[1].Benches[0].Extra)

	out, err = env.run("latest", "aicard.perli.ml.benchmark.UpliftBenchmark.benchmarkPredictUplift", "--commit", "daa83a", "-o", "json")
	require.NoError(t, err, out)
	var sample domain.BenchmarkSample
	require.NoError(t, json.Unmarshal([]byte(out), &sample))
	assert.Equal(t, 6.32e-7, sample.Value)

	target := filepath.Join(env.dir, "site", "dev", "bench", "data.js")
	out, err = env.run("export", target)
	require.NoError(t, err, out)
	raw, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "window.BENCHMARK_DATA = "))
	assert.Contains(t, string(raw), `"repoUrl": "https://github.com/perli-project/perli-ai"`)
}

func TestCLI_CompareFailsOnAlert(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run("add", "--tool", "jmh", "--file", env.jmhFile("a.json", "1.0"), "--commit-id", "aaa", "--date", "1000")
	require.NoError(t, err)
	out, err := env.run("add", "--tool", "jmh", "--file", env.jmhFile("b.json", "3.0"), "--commit-id", "bbb", "--date", "2000")
	require.NoError(t, err, out)
	assert.Contains(t, out, "ALERT")

	out, err = env.run("compare", "--fail-on-alert")
	assert.Error(t, err)
	assert.Contains(t, out, "x3.00")

	out, err = env.run("trim", "--keep", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Removed 1 runs from Benchmark")
}

func TestCLI_Errors(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run("add", "--tool", "jmh", "--file", env.jmhFile("a.json", "1.0"))
	assert.ErrorContains(t, err, "--commit-id is required")

	_, err = env.run("latest", "nothing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.run("render", "--strict")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.run("trim")
	assert.Error(t, err)
}

func TestCLI_ConfigOnlyCommands(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("config", "path")
	require.NoError(t, err)
	assert.Equal(t, env.config+"\n", out)

	out, err = env.run("config", "get", "history.default_group")
	require.NoError(t, err)
	assert.Equal(t, "Benchmark\n", out)

	_, err = env.run("config", "get", "history.maxitems")
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "history.max_items")

	out, err = env.run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "benchhist version")
}

func TestCLI_ConfigSetValidatesAndDiffs(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("config", "set", "history.max_items", "200")
	require.NoError(t, err, out)
	assert.Contains(t, out, "history.max_items: 0 -> 200")
	assert.Contains(t, out, "Retention changes apply on the next ingest")

	out, err = env.run("config", "get", "history.max_items")
	require.NoError(t, err)
	assert.Equal(t, "200\n", out)

	backups, err := filepath.Glob(env.config + ".*.bak")
	require.NoError(t, err)
	assert.NotEmpty(t, backups)

	_, err = env.run("config", "set", "alert.threshold", "0.5")
	assert.ErrorContains(t, err, "alert.threshold must be > 1")
	_, err = env.run("config", "set", "history.max_age", "90 days")
	assert.ErrorContains(t, err, "max_age invalid")
	_, err = env.run("config", "set", "alert.ratio", "3")
	assert.ErrorContains(t, err, "unknown key")

	out, err = env.run("config", "get", "alert.threshold")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = env.run("config", "diff")
	require.NoError(t, err)
	assert.Contains(t, out, "history.max_items")
	assert.Contains(t, out, "retention")
	assert.Contains(t, out, "Retention changes apply")
	assert.NotContains(t, out, "Alerting changes")
}
