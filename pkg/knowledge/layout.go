package knowledge

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const entryExt = ".md"

// Entries live under <storage>/<topic>/<id>.md, except recent-work entries
// which are grouped per branch: <storage>/recent-work/<sanitized-branch>/<id>.md.

var disallowedBranchChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
var collapsedDashes = regexp.MustCompile(`-{2,}`)

// SanitizeBranch maps an arbitrary branch name onto a filesystem-safe
// directory name. Disallowed characters become dashes, consecutive
// separators collapse, and an empty result falls back to "unknown".
func SanitizeBranch(name string) string {
	s := disallowedBranchChars.ReplaceAllString(name, "-")
	s = collapsedDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "unknown"
	}
	return s
}

// topicRoot is the directory that must never be pruned for a topic.
func topicRoot(storage string, topic Topic) string {
	if topic == TopicRecentWork {
		return filepath.Join(storage, string(TopicRecentWork))
	}
	return filepath.Join(storage, filepath.FromSlash(string(topic)))
}

// entryDir is the directory an entry's file belongs in.
func entryDir(storage string, topic Topic, branch string) string {
	if topic == TopicRecentWork {
		return filepath.Join(storage, string(TopicRecentWork), SanitizeBranch(branch))
	}
	return filepath.Join(storage, filepath.FromSlash(string(topic)))
}

func entryPath(storage string, e *Entry) string {
	return filepath.Join(entryDir(storage, e.Topic, e.Branch), e.ID+entryExt)
}

// pruneEmptyDirs removes now-empty directories above a deleted entry file,
// ascending from dir but stopping before the topic root. os.Remove refuses
// non-empty directories, which is exactly the stop condition we want.
func pruneEmptyDirs(dir, stop string) {
	for dir != stop && strings.HasPrefix(dir, stop+string(filepath.Separator)) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
