// Package gitinfo resolves the current branch and HEAD SHA of a repository.
// Every failure degrades to a safe default — "unknown" branch, absent SHA —
// because knowledge operations must never fail on a missing or broken git
// environment.
package gitinfo

import (
	"bytes"
	"os/exec"
	"strings"
)

// UnknownBranch is returned whenever the branch cannot be resolved.
const UnknownBranch = "unknown"

// Service exposes the two git lookups the knowledge store needs.
type Service interface {
	// CurrentBranch returns the checked-out branch name for the repository
	// at root, or UnknownBranch on any failure.
	CurrentBranch(root string) string

	// HeadSHA returns the HEAD commit SHA for the repository at root.
	// The boolean is false when the SHA cannot be resolved.
	HeadSHA(root string) (string, bool)
}

// CLI is the production Service, shelling out to the git binary.
type CLI struct{}

// NewCLI returns a Service backed by the git binary.
func NewCLI() CLI {
	return CLI{}
}

func (CLI) CurrentBranch(root string) string {
	out, err := runGit(root, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil || out == "" || out == "HEAD" {
		return UnknownBranch
	}
	return out
}

func (CLI) HeadSHA(root string) (string, bool) {
	out, err := runGit(root, "rev-parse", "HEAD")
	if err != nil || out == "" {
		return "", false
	}
	return out, true
}

func runGit(workingDir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = workingDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Static is a fixed-answer Service for tests and non-git deployments.
type Static struct {
	Branch string
	SHA    string
}

func (s Static) CurrentBranch(string) string {
	if s.Branch == "" {
		return UnknownBranch
	}
	return s.Branch
}

func (s Static) HeadSHA(string) (string, bool) {
	return s.SHA, s.SHA != ""
}
