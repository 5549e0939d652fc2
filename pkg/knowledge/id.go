package knowledge

import (
	"strings"

	"github.com/google/uuid"
)

// NewEntryID generates a collision-resistant entry id: a short topic-derived
// prefix plus a random hex suffix. Random suffixes are what let independent
// processes write to the same store without contending for a file.
func NewEntryID(topic Topic) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return topic.idPrefix() + "-" + suffix
}
