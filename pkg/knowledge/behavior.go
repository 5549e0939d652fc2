package knowledge

import "fmt"

// Behavior holds the per-deployment threshold knobs. Values are always in
// range: construct via DefaultBehavior or ResolveBehavior.
type Behavior struct {
	StaleDays           int // standard staleness horizon in days
	PreferenceStaleDays int // horizon for the preferences topic
	MaxStaleEntries     int // stale entries surfaced by a briefing
	MaxDedupSuggestions int // dedup candidates reported per store
	MaxConflictPairs    int // conflict pairs reported per detection pass
}

// DefaultBehavior returns the built-in thresholds.
func DefaultBehavior() Behavior {
	return Behavior{
		StaleDays:           30,
		PreferenceStaleDays: 90,
		MaxStaleEntries:     5,
		MaxDedupSuggestions: 3,
		MaxConflictPairs:    2,
	}
}

// BehaviorOverrides carries raw per-field overrides; nil means "use default".
type BehaviorOverrides struct {
	StaleDays           *int
	PreferenceStaleDays *int
	MaxStaleEntries     *int
	MaxDedupSuggestions *int
	MaxConflictPairs    *int
}

// ResolveBehavior applies overrides on top of the defaults. Each field is
// independently range-checked; an out-of-range value falls back to its
// default and produces a warning — it is never silently ignored.
func ResolveBehavior(o BehaviorOverrides) (Behavior, []string) {
	b := DefaultBehavior()
	var warnings []string

	apply := func(name string, v *int, dst *int, min, max int) {
		if v == nil {
			return
		}
		if *v < min || *v > max {
			warnings = append(warnings, fmt.Sprintf(
				"behavior %s=%d out of range [%d, %d], using default %d", name, *v, min, max, *dst))
			return
		}
		*dst = *v
	}

	apply("stale_days", o.StaleDays, &b.StaleDays, 1, 365)
	apply("preference_stale_days", o.PreferenceStaleDays, &b.PreferenceStaleDays, 1, 730)
	apply("max_stale_entries", o.MaxStaleEntries, &b.MaxStaleEntries, 1, 50)
	apply("max_dedup_suggestions", o.MaxDedupSuggestions, &b.MaxDedupSuggestions, 1, 10)
	apply("max_conflict_pairs", o.MaxConflictPairs, &b.MaxConflictPairs, 1, 10)

	return b, warnings
}
