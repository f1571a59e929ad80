package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/benchhist/internal/domain"
)

func TestJMHExtract(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "jmh-result.json"))
	require.NoError(t, err)
	defer f.Close()

	samples, err := JMH{}.Extract(f)
	require.NoError(t, err)
	require.Len(t, samples, 1)

	s := samples[0]
	assert.Equal(t, "aicard.perli.ml.benchmark.UpliftBenchmark.benchmarkPredictUplift", s.Name)
	assert.Equal(t, 6.320404205219468e-7, s.Value)
	assert.Equal(t, "ms/op", s.Unit)
	assert.Equal(t, "iterations: 1\nforks: 1\nthreads: 1", s.Extra)
	assert.Empty(t, s.Range, "NaN score error has no range")
}

func TestJMHExtractParamsAndError(t *testing.T) {
	input := `[{"benchmark":"b.Bench.run","threads":2,"forks":3,"measurementIterations":5,
		"params":{"size":"100","mode":"fast"},
		"primaryMetric":{"score":12.5,"scoreError":0.25,"scoreUnit":"ops/s"}}]`
	samples, err := JMH{}.Extract(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "b.Bench.run ( {mode=fast, size=100} )", samples[0].Name)
	assert.Equal(t, "± 0.25", samples[0].Range)
	assert.Equal(t, "iterations: 5\nforks: 3\nthreads: 2", samples[0].Extra)
}

func TestJMHExtractRejectsBadInput(t *testing.T) {
	_, err := JMH{}.Extract(strings.NewReader(`{}`))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = JMH{}.Extract(strings.NewReader(`[]`))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = JMH{}.Extract(strings.NewReader(`[{"benchmark":"b","primaryMetric":{"score":-1,"scoreUnit":"ms/op"}}]`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGoBenchExtract(t *testing.T) {
	output := `
goos: linux
goarch: amd64
pkg: github.com/doeshing/benchhist/internal/application/history
cpu: Intel(R) Core(TM) i9-9900K CPU @ 3.60GHz
BenchmarkIngest-16    	100000000	        10.5 ns/op	       0 B/op	       0 allocs/op
BenchmarkQuery/limit=5-16        	 5000000	       250.0 ns/op	      10.0 MB/s	      64 B/op	       2 allocs/op
BenchmarkPlain 	 123	 99 ns/op
PASS
ok  	github.com/doeshing/benchhist/internal/application/history	1.500s
`
	samples, err := GoBench{}.Extract(strings.NewReader(output))
	require.NoError(t, err)

	names := make([]string, len(samples))
	for i, s := range samples {
		names[i] = s.Name
	}
	pkg := " (github.com/doeshing/benchhist/internal/application/history)"
	assert.Equal(t, []string{
		"BenchmarkIngest" + pkg,
		"BenchmarkIngest" + pkg + " - B/op",
		"BenchmarkIngest" + pkg + " - allocs/op",
		"BenchmarkQuery/limit=5" + pkg,
		"BenchmarkQuery/limit=5" + pkg + " - MB/s",
		"BenchmarkQuery/limit=5" + pkg + " - B/op",
		"BenchmarkQuery/limit=5" + pkg + " - allocs/op",
		"BenchmarkPlain" + pkg,
	}, names)

	assert.Equal(t, 10.5, samples[0].Value)
	assert.Equal(t, "ns/op", samples[0].Unit)
	assert.Equal(t, "100000000 times\n16 procs", samples[0].Extra)
	assert.Equal(t, float64(64), samples[5].Value)
	assert.Equal(t, "123 times", samples[7].Extra)
}

func TestGoBenchExtractEmpty(t *testing.T) {
	_, err := GoBench{}.Extract(strings.NewReader("PASS\nok\n"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFor(t *testing.T) {
	e, err := For("JMH")
	require.NoError(t, err)
	assert.Equal(t, "jmh", e.Tool())

	_, err = For("pytest")
	assert.ErrorContains(t, err, "go, jmh")
}
