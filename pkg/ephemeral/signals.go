// Package ephemeral classifies entry text that is likely session-specific
// noise rather than durable knowledge: temporal phrasing, resolved-bug
// chatter, pasted stack traces, environment-specific values, and so on.
//
// Detection is a bank of independent regex detectors, each contributing at
// most one signal. A supplementary statistical scorer fires only when the
// regex bank stays silent, so it can never duplicate or override a regex hit.
// Classification is always advisory: callers attach the formatted warning to
// a result, they never block a write on it.
package ephemeral

import (
	"fmt"
	"regexp"
	"strings"
)

// Confidence grades how strongly a signal suggests ephemerality.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Kind identifies which detector produced a signal.
type Kind string

const (
	KindTemporal      Kind = "temporal"
	KindResolvedBug   Kind = "resolved-bug"
	KindTask          Kind = "task"
	KindStackTrace    Kind = "stack-trace"
	KindEnvironment   Kind = "environment"
	KindCodeDensity   Kind = "code-density"
	KindInvestigation Kind = "investigation"
	KindUncertainty   Kind = "uncertainty"
	KindRetraction    Kind = "retraction"
	KindMeeting       Kind = "meeting"
	KindTooShort      Kind = "too-short"
	KindStatistical   Kind = "statistical"
)

// Signal is one detector's verdict on a piece of text.
type Signal struct {
	Kind       Kind
	Confidence Confidence
	Detail     string
}

const (
	// minContentLength is the floor below which content is flagged as too
	// short to be durable knowledge.
	minContentLength = 15

	// codeDensityMinLength is the minimum content length before the
	// verbatim-code detector runs; short snippets are often legitimate.
	codeDensityMinLength = 160

	// codeDensityThreshold is the fraction of non-prose characters above
	// which content is treated as pasted code.
	codeDensityThreshold = 0.25

	// envMinDistinct is the number of distinct environment-specific values
	// required before the environment detector fires. A single localhost
	// URL or home path is too common to flag.
	envMinDistinct = 2

	// statisticalThreshold is the scorer output above which the fallback
	// statistical signal fires.
	statisticalThreshold = 0.5
)

// patternDetector is one regex-bank entry. Each yields zero or one signal.
type patternDetector struct {
	kind       Kind
	confidence Confidence
	label      string
	re         *regexp.Regexp
}

var patternBank = []patternDetector{
	{
		kind:       KindTemporal,
		confidence: ConfidenceHigh,
		label:      "temporal language",
		re:         regexp.MustCompile(`(?i)\b(currently|right now|today|for now|at the moment|wip|tbd|still pending|as of (now|today))\b`),
	},
	{
		kind:       KindResolvedBug,
		confidence: ConfidenceHigh,
		label:      "resolved-bug language",
		re:         regexp.MustCompile(`(?i)\b(bug (is )?fixed|issue (is )?resolved|no longer (fails|happens|occurs|an issue)|works now|turns out it was|false alarm|fixed (the|this|that) (bug|issue|problem)|resolved now)\b`),
	},
	{
		kind:       KindTask,
		confidence: ConfidenceMedium,
		label:      "task language",
		re:         regexp.MustCompile(`(?i)\b(need(s)? to|todo|fixme|not (yet )?implemented|doesn'?t support [\w ]{0,30}yet|remaining work)\b`),
	},
	{
		kind:       KindStackTrace,
		confidence: ConfidenceHigh,
		label:      "stack-trace content",
		re:         regexp.MustCompile(`(?m)(^\s+at .+\)$|Traceback \(most recent call last\)|goroutine \d+ \[|^panic: |Exception in thread|^\s*File "[^"]+", line \d+)`),
	},
	{
		kind:       KindInvestigation,
		confidence: ConfidenceHigh,
		label:      "investigation language",
		re:         regexp.MustCompile(`(?i)\b(investigating|can'?t reproduce|cannot reproduce|added logging|still debugging|trying to (figure out|track down)|narrowing (it )?down)\b`),
	},
	{
		kind:       KindUncertainty,
		confidence: ConfidenceMedium,
		label:      "uncertain or hedging language",
		re:         regexp.MustCompile(`(?i)\b(i think|maybe|not sure|unsure|might be|subject to change|i could be wrong|hard to say)\b`),
	},
	{
		kind:       KindRetraction,
		confidence: ConfidenceHigh,
		label:      "self-correction language",
		re:         regexp.MustCompile(`(?i)\b(actually,? wait|scratch that|i was wrong|never mind|disregard (that|the above))\b`),
	},
	{
		kind:       KindMeeting,
		confidence: ConfidenceMedium,
		label:      "conversation reference",
		re:         regexp.MustCompile(`(?i)\b(as discussed|per (our|the) (discussion|conversation|call)|in (the|our) (meeting|standup)|\w+ mentioned (that|this|it))\b`),
	},
}

var envPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://(localhost|127\.0\.0\.1)(:\d+)?[\w./-]*`),
	regexp.MustCompile(`(/home/[\w.-]+|/Users/[\w.-]+|~/)[\w./-]*`),
	regexp.MustCompile(`(?i)\b(pid|process id)[ :=]+\d+\b`),
}

var fencedBlock = regexp.MustCompile("(?s)```.+```")

// Detect runs the full signal bank over a (title, content) pair. The
// statistical scorer, when non-nil, is consulted only if no regex detector
// fired. Callers decide topic-level bypasses (recent-work entries skip
// detection entirely); the detector itself is topic-agnostic.
func Detect(title, content string, scorer Scorer) []Signal {
	text := title + "\n" + content
	var signals []Signal

	for _, d := range patternBank {
		if m := d.re.FindString(text); m != "" {
			signals = append(signals, Signal{
				Kind:       d.kind,
				Confidence: d.confidence,
				Detail:     fmt.Sprintf("%s (%q)", d.label, strings.TrimSpace(m)),
			})
		}
	}

	if s, ok := detectEnvironment(text); ok {
		signals = append(signals, s)
	}
	if s, ok := detectCodeDensity(content); ok {
		signals = append(signals, s)
	}
	if len(strings.TrimSpace(content)) < minContentLength {
		signals = append(signals, Signal{
			Kind:       KindTooShort,
			Confidence: ConfidenceMedium,
			Detail:     "content too short to be durable knowledge",
		})
	}

	if len(signals) == 0 && scorer != nil {
		if score := scorer.Score(title, content); score >= statisticalThreshold {
			signals = append(signals, Signal{
				Kind:       KindStatistical,
				Confidence: ConfidenceLow,
				Detail:     fmt.Sprintf("statistical ephemerality score %.2f", score),
			})
		}
	}
	return signals
}

// detectEnvironment fires only when two or more distinct environment-specific
// values appear, across all categories combined.
func detectEnvironment(text string) (Signal, bool) {
	distinct := make(map[string]bool)
	for _, re := range envPatterns {
		for _, m := range re.FindAllString(text, -1) {
			distinct[m] = true
		}
	}
	if len(distinct) < envMinDistinct {
		return Signal{}, false
	}
	return Signal{
		Kind:       KindEnvironment,
		Confidence: ConfidenceMedium,
		Detail:     fmt.Sprintf("%d environment-specific values (localhost URLs, home paths, or PIDs)", len(distinct)),
	}, true
}

func detectCodeDensity(content string) (Signal, bool) {
	if len(content) < codeDensityMinLength {
		return Signal{}, false
	}
	if fencedBlock.MatchString(content) {
		return Signal{
			Kind:       KindCodeDensity,
			Confidence: ConfidenceMedium,
			Detail:     "fenced code block in content",
		}, true
	}
	symbols := 0
	for _, r := range content {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == ' ', r == '\n', r == '.', r == ',':
		default:
			symbols++
		}
	}
	density := float64(symbols) / float64(len(content))
	if density <= codeDensityThreshold {
		return Signal{}, false
	}
	return Signal{
		Kind:       KindCodeDensity,
		Confidence: ConfidenceMedium,
		Detail:     fmt.Sprintf("high non-prose character density (%.0f%%)", density*100),
	}, true
}
