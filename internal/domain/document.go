package domain

// Document is the wire and at-rest shape shared with the benchmark action and chart page.
type Document struct {
	LastUpdate int64                     `json:"lastUpdate"`
	RepoURL    string                    `json:"repoUrl"`
	Entries    map[string][]BenchmarkRun `json:"entries"`
}

// NewDocument returns an empty document.
func NewDocument(repoURL string) Document {
	return Document{RepoURL: repoURL, Entries: map[string][]BenchmarkRun{}}
}

// RunCount totals runs across groups.
func (d Document) RunCount() int {
	n := 0
	for _, runs := range d.Entries {
		n += len(runs)
	}
	return n
}
