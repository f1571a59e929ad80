package extract

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/doeshing/benchhist/internal/domain"
	"github.com/doeshing/benchhist/internal/ports"
)

// GoBench reads `go test -bench` text output.
type GoBench struct{}

var (
	// BenchmarkName-8   1000000   1000 ns/op   100 B/op   10 allocs/op
	benchLine = regexp.MustCompile(`^(Benchmark\S+?)(?:-(\d+))?\s+(\d+)\s+([\d\.]+)\s+ns/op(?:\s+([\d\.]+)\s+MB/s)?(?:\s+(\d+)\s+B/op)?(?:\s+(\d+)\s+allocs/op)?`)
	pkgLine   = regexp.MustCompile(`^pkg:\s+(\S+)`)
)

// Tool implements ports.Extractor.
func (GoBench) Tool() string { return "go" }

// Extract implements ports.Extractor. Memory columns become separate
// samples named "<bench> - B/op" and "<bench> - allocs/op".
func (GoBench) Extract(r io.Reader) ([]domain.BenchmarkSample, error) {
	var (
		samples []domain.BenchmarkSample
		pkg     string
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if m := pkgLine.FindStringSubmatch(line); m != nil {
			pkg = m[1]
			continue
		}
		m := benchLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := m[1]
		extra := m[3] + " times"
		if m[2] != "" {
			extra += "\n" + m[2] + " procs"
		}
		if pkg != "" {
			name += " (" + pkg + ")"
		}

		nsPerOp, err := strconv.ParseFloat(m[4], 64)
		if err != nil {
			return nil, &domain.ValidationError{Field: "go", Reason: fmt.Sprintf("%s: %v", name, err)}
		}
		s, err := domain.NewSample(name, nsPerOp, "ns/op", extra)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)

		for _, col := range []struct {
			value, unit string
		}{{m[5], "MB/s"}, {m[6], "B/op"}, {m[7], "allocs/op"}} {
			if col.value == "" {
				continue
			}
			v, err := strconv.ParseFloat(col.value, 64)
			if err != nil {
				continue
			}
			s, err := domain.NewSample(name+" - "+col.unit, v, col.unit, extra)
			if err != nil {
				return nil, err
			}
			samples = append(samples, s)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, &domain.ValidationError{Field: "go", Reason: "no benchmark lines found"}
	}
	return samples, nil
}

var _ ports.Extractor = GoBench{}
