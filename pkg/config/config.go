// Package config loads the per-repository knowledge store configuration and
// resolves it into a knowledge.Config. Malformed behavior values clamp to
// their defaults with a reported warning; only an unreadable or unparseable
// config file is an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/lore/pkg/knowledge"
)

// DefaultStorageDir is the storage subtree created under the repository
// root when no storage path is configured.
const DefaultStorageDir = ".lore"

// File is the on-disk configuration document.
type File struct {
	StoragePath string       `yaml:"storage_path"`
	BudgetBytes int64        `yaml:"budget_bytes"`
	Behavior    BehaviorFile `yaml:"behavior"`
}

// BehaviorFile holds raw behavior overrides; nil fields mean "default".
type BehaviorFile struct {
	StaleDays           *int `yaml:"stale_days"`
	PreferenceStaleDays *int `yaml:"preference_stale_days"`
	MaxStaleEntries     *int `yaml:"max_stale_entries"`
	MaxDedupSuggestions *int `yaml:"max_dedup_suggestions"`
	MaxConflictPairs    *int `yaml:"max_conflict_pairs"`
}

// Load reads a config file. A missing file is not an error: the zero File
// resolves to pure defaults.
func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return File{}, nil
	}
	if err != nil {
		return File{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return File{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return f, nil
}

// Resolve turns a File into a knowledge.Config rooted at repoRoot, plus any
// clamping warnings. Warnings are reported, never fatal.
func (f File) Resolve(repoRoot string) (knowledge.Config, []string) {
	behavior, warnings := knowledge.ResolveBehavior(knowledge.BehaviorOverrides{
		StaleDays:           f.Behavior.StaleDays,
		PreferenceStaleDays: f.Behavior.PreferenceStaleDays,
		MaxStaleEntries:     f.Behavior.MaxStaleEntries,
		MaxDedupSuggestions: f.Behavior.MaxDedupSuggestions,
		MaxConflictPairs:    f.Behavior.MaxConflictPairs,
	})

	storage := f.StoragePath
	if storage == "" {
		storage = filepath.Join(repoRoot, DefaultStorageDir)
	} else if !filepath.IsAbs(storage) {
		storage = filepath.Join(repoRoot, storage)
	}

	budget := f.BudgetBytes
	if budget <= 0 {
		if f.BudgetBytes < 0 {
			warnings = append(warnings, fmt.Sprintf(
				"budget_bytes=%d is not positive, using default %d", f.BudgetBytes, int64(knowledge.DefaultBudgetBytes)))
		}
		budget = knowledge.DefaultBudgetBytes
	}

	return knowledge.Config{
		RepoRoot:    repoRoot,
		StoragePath: storage,
		BudgetBytes: budget,
		Behavior:    behavior,
	}, warnings
}
