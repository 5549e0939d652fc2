package knowledge

import "time"

// IsFresh reports whether an entry is within its topic's staleness horizon,
// measured from lastAccessed. user-topic entries are always fresh (identity
// rarely changes); preferences get the long horizon; every other topic —
// including gotchas, the most dangerous to leave stale — uses the standard
// one. Trust grants no exemption: it reflects source quality at write time,
// not temporal validity.
func IsFresh(e *Entry, b Behavior, now time.Time) bool {
	switch e.Topic {
	case TopicUser:
		return true
	case TopicPreferences:
		return withinHorizon(e.LastAccessed, b.PreferenceStaleDays, now)
	default:
		return withinHorizon(e.LastAccessed, b.StaleDays, now)
	}
}

func withinHorizon(lastAccessed time.Time, days int, now time.Time) bool {
	if lastAccessed.IsZero() {
		return false
	}
	return now.Sub(lastAccessed) <= time.Duration(days)*24*time.Hour
}
