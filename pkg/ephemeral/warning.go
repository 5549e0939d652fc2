package ephemeral

import "strings"

// FormatWarning renders a signal set as a single advisory sentence, or ""
// for an empty set. Severity escalates with the number of high-confidence
// signals; medium/low-only sets get the softest phrasing.
func FormatWarning(signals []Signal) string {
	if len(signals) == 0 {
		return ""
	}

	high := 0
	labels := make([]string, 0, len(signals))
	for _, s := range signals {
		if s.Confidence == ConfidenceHigh {
			high++
		}
		labels = append(labels, s.Detail)
	}
	what := strings.Join(labels, "; ")

	switch {
	case high >= 2:
		return "likely contains session-specific content: " + what +
			". This is almost certainly session-specific — consider deleting it or moving it to recent-work."
	case high == 1:
		return "possibly contains session-specific content: " + what +
			". Keep it if it reflects lasting insight."
	default:
		return "may contain session-specific content: " + what +
			". Use your judgment."
	}
}
