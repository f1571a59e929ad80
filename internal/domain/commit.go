package domain

import (
	"strings"
	"time"
)

// Actor identifies a commit author or committer.
type Actor struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// CommitInfo is the commit metadata attached to every benchmark run.
// Timestamp is kept as the verbatim ISO-8601 string so documents round-trip unchanged.
type CommitInfo struct {
	Author    Actor  `json:"author"`
	Committer Actor  `json:"committer"`
	Distinct  *bool  `json:"distinct,omitempty"`
	ID        string `json:"id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	TreeID    string `json:"tree_id"`
	URL       string `json:"url"`
}

// timestampLayouts are the ISO-8601 forms accepted for commit timestamps.
// Timestamps without an offset are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Time parses the commit timestamp.
func (c CommitInfo) Time() (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.Parse(layout, c.Timestamp); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// ShortID returns the first seven characters of the commit id.
func (c CommitInfo) ShortID() string {
	if len(c.ID) <= 7 {
		return c.ID
	}
	return c.ID[:7]
}

// Subject returns the first line of the commit message.
func (c CommitInfo) Subject() string {
	subject, _, _ := strings.Cut(c.Message, "\n")
	return subject
}

// Validate checks the identity key and timestamp.
func (c CommitInfo) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return &ValidationError{Field: "commit.id", Reason: "must not be empty"}
	}
	if _, err := c.Time(); err != nil {
		return &ValidationError{Field: "commit.timestamp", Reason: "not an ISO-8601 timestamp: " + c.Timestamp}
	}
	return nil
}
