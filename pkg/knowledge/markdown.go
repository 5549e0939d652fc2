package knowledge

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The on-disk entry format is a human-readable markdown document:
//
//	# <title>
//
//	- **id**: arch-3f9c2a1b4c5d
//	- **topic**: architecture
//	- **confidence**: 0.85
//	- **trust**: agent-confirmed
//	- **created**: 2025-11-02T14:08:00Z
//	- **lastAccessed**: 2025-11-02T14:08:00Z
//	- **source**: internal/db/pool.go
//
//	<free-form content to end of file>
//
// Serialize and Parse must round-trip bit-compatibly, including all
// optional fields.

var metadataLine = regexp.MustCompile(`^- \*\*([a-zA-Z]+)\*\*: ?(.*)$`)

const (
	fallbackConfidence = 0.70
	timeLayout         = time.RFC3339
)

// Serialize renders an entry to its on-disk byte representation.
func Serialize(e *Entry) []byte {
	var sb strings.Builder
	sb.WriteString("# " + e.Title + "\n\n")

	writeKey := func(key, value string) {
		sb.WriteString("- **" + key + "**: " + value + "\n")
	}
	writeKey("id", e.ID)
	writeKey("topic", string(e.Topic))
	writeKey("confidence", strconv.FormatFloat(e.Confidence, 'f', 2, 64))
	writeKey("trust", string(e.Trust))
	writeKey("created", e.Created.UTC().Format(timeLayout))
	writeKey("lastAccessed", e.LastAccessed.UTC().Format(timeLayout))
	if len(e.Sources) > 0 {
		writeKey("source", strings.Join(e.Sources, ", "))
	}
	if len(e.References) > 0 {
		writeKey("references", strings.Join(e.References, ", "))
	}
	if len(e.Tags) > 0 {
		writeKey("tags", strings.Join(e.TagStrings(), ", "))
	}
	if e.GitSHA != "" {
		writeKey("gitSha", e.GitSHA)
	}
	if e.Branch != "" {
		writeKey("branch", e.Branch)
	}

	sb.WriteString("\n")
	sb.WriteString(e.Content)
	return []byte(sb.String())
}

// Parse deserializes a raw entry file. A missing title line, missing id or
// topic, or an unknown topic or trust value makes the file corrupt; callers
// count and skip corrupt files rather than failing the operation.
func Parse(raw []byte) (*Entry, error) {
	lines := strings.Split(string(raw), "\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "# ") {
		return nil, fmt.Errorf("knowledge: missing title line")
	}
	e := &Entry{
		Title:      strings.TrimSpace(lines[0][2:]),
		Confidence: fallbackConfidence,
		Trust:      TrustAgentInferred,
	}
	if e.Title == "" {
		return nil, fmt.Errorf("knowledge: empty title")
	}

	i := 1
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	for ; i < len(lines); i++ {
		m := metadataLine.FindStringSubmatch(lines[i])
		if m == nil {
			break
		}
		if err := e.applyMetadata(m[1], m[2]); err != nil {
			return nil, err
		}
	}
	if e.ID == "" {
		return nil, fmt.Errorf("knowledge: missing id in metadata")
	}
	if e.Topic == "" {
		return nil, fmt.Errorf("knowledge: missing topic in metadata")
	}

	// One blank separator line, then content runs to end of file.
	if i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	e.Content = strings.Join(lines[i:], "\n")
	return e, nil
}

func (e *Entry) applyMetadata(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "id":
		e.ID = value
	case "topic":
		topic, ok := ParseTopic(value)
		if !ok {
			return fmt.Errorf("knowledge: invalid topic %q", value)
		}
		e.Topic = topic
	case "confidence":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			e.Confidence = clamp01(f)
		}
	case "trust":
		trust, ok := ParseTrust(value)
		if !ok {
			return fmt.Errorf("knowledge: invalid trust %q", value)
		}
		e.Trust = trust
	case "created":
		e.Created = parseTime(value)
	case "lastAccessed":
		e.LastAccessed = parseTime(value)
	case "source":
		e.Sources = splitList(value)
	case "references":
		e.References = splitList(value)
	case "tags":
		e.Tags = NormalizeTags(splitList(value))
	case "gitSha":
		e.GitSHA = value
	case "branch":
		e.Branch = value
	}
	// Unknown keys are ignored: forward compatibility beats strictness here.
	return nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
