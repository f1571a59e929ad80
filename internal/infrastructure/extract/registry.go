package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/doeshing/benchhist/internal/ports"
)

var extractors = map[string]ports.Extractor{
	"jmh": JMH{},
	"go":  GoBench{},
}

// For returns the extractor registered for tool.
func For(tool string) (ports.Extractor, error) {
	if e, ok := extractors[strings.ToLower(tool)]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("unsupported tool %q (supported: %s)", tool, strings.Join(Tools(), ", "))
}

// Tools lists the supported tool names.
func Tools() []string {
	names := make([]string, 0, len(extractors))
	for name := range extractors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
