package helpers

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/doeshing/benchhist/internal/domain"
)

// CommitFlags are the commit fields that can be given on the command line.
// Non-empty flags override what the event payload provides.
type CommitFlags struct {
	ID             string
	Message        string
	Timestamp      string
	URL            string
	TreeID         string
	AuthorName     string
	AuthorEmail    string
	AuthorUsername string
}

// pushEvent is the part of a GitHub push webhook payload we read.
type pushEvent struct {
	HeadCommit *domain.CommitInfo `json:"head_commit"`
	Repository struct {
		HTMLURL string `json:"html_url"`
	} `json:"repository"`
}

// LoadEventCommit reads the head commit and repository URL from a GitHub
// push event payload.
func LoadEventCommit(path string) (domain.CommitInfo, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.CommitInfo{}, "", fmt.Errorf("read event %s: %w", path, err)
	}
	var event pushEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.CommitInfo{}, "", fmt.Errorf("parse event %s: %w", path, err)
	}
	if event.HeadCommit == nil {
		return domain.CommitInfo{}, "", fmt.Errorf("event %s has no head_commit", path)
	}
	return *event.HeadCommit, event.Repository.HTMLURL, nil
}

// ResolveCommit merges the event payload at eventPath (optional) with flags.
// A missing timestamp defaults to now; a missing committer copies the author.
func ResolveCommit(eventPath string, flags CommitFlags, now time.Time) (domain.CommitInfo, string, error) {
	var (
		commit  domain.CommitInfo
		repoURL string
	)
	if eventPath != "" {
		var err error
		if commit, repoURL, err = LoadEventCommit(eventPath); err != nil {
			return domain.CommitInfo{}, "", err
		}
	}

	override(&commit.ID, flags.ID)
	override(&commit.Message, flags.Message)
	override(&commit.Timestamp, flags.Timestamp)
	override(&commit.URL, flags.URL)
	override(&commit.TreeID, flags.TreeID)
	override(&commit.Author.Name, flags.AuthorName)
	override(&commit.Author.Email, flags.AuthorEmail)
	override(&commit.Author.Username, flags.AuthorUsername)

	if commit.Timestamp == "" {
		commit.Timestamp = now.Format(domain.TimestampFormat)
	}
	if commit.Committer == (domain.Actor{}) {
		commit.Committer = commit.Author
	}
	if err := commit.Validate(); err != nil {
		return domain.CommitInfo{}, "", err
	}
	return commit, repoURL, nil
}

func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
