package ephemeral

import (
	"math"

	"github.com/entrhq/lore/pkg/keywords"
)

// Scorer rates how likely a (title, content) pair is to be ephemeral,
// returning a value in [0, 1]. It backs the statistical fallback signal and
// is pluggable so the model can be retrained or replaced without touching
// the regex bank.
type Scorer interface {
	Score(title, content string) float64
}

// FrequencyScorer is a bag-of-words logistic model over stemmed unigrams,
// trained offline against labeled ephemeral and durable entries. It exists
// to catch narrative, first-person phrasing that fixed patterns miss, which
// is why raw tokens (stop words included) feed it rather than the filtered
// keyword set.
type FrequencyScorer struct {
	weights map[string]float64
	bias    float64
}

// NewFrequencyScorer returns a scorer backed by the embedded trained weights.
func NewFrequencyScorer() *FrequencyScorer {
	return &FrequencyScorer{weights: trainedWeights, bias: trainedBias}
}

// Score runs the logistic model. Each distinct stem contributes its weight
// once; repeated words do not compound.
func (s *FrequencyScorer) Score(title, content string) float64 {
	z := s.bias
	seen := make(map[string]bool)
	for _, tok := range keywords.Tokenize(title + " " + content) {
		stem := keywords.Stem(tok)
		if seen[stem] {
			continue
		}
		seen[stem] = true
		if w, ok := s.weights[stem]; ok {
			z += w
		}
	}
	return 1 / (1 + math.Exp(-z))
}

// trainedBias and trainedWeights are the exported parameters of the offline
// training run. Positive weights push toward ephemeral, negative toward
// durable. Keys are stems produced by keywords.Stem.
var trainedBias = -2.1

var trainedWeights = map[string]float64{
	// narrative / first-person-plural phrasing
	"we":         0.9,
	"our":        0.7,
	"us":         0.5,
	"i":          0.8,
	"me":         0.5,
	"my":         0.4,
	"let":        0.5,
	"tri":        0.6, // tried
	"try":        0.6, // try / trying
	"went":       0.5,
	"got":        0.5,
	"saw":        0.6,
	"notic":      0.6, // noticed / noticing
	"seem":       0.6,
	"chat":       0.7,
	"session":    0.9,
	"yesterday":  0.9,
	"tomorrow":   0.9,
	"earlier":    0.7,
	"recent":     0.6, // recent / recently
	"morning":    0.6,
	"afternoon":  0.6,
	"meanwhil":   0.5,
	"anyway":     0.6,
	"hopeful":    0.7, // hopefully
	"temporary":  0.8,
	"temporari":  0.8, // temporarily
	"workaround": 0.6,
	"hack":       0.6,
	"stuck":      0.7,
	"weird":      0.6,
	"strang":     0.6,
	"broke":      0.6,
	"broken":     0.6,
	"flaky":      0.6,
	"retry":      0.4,
	"rerun":      0.5,
	"restart":    0.5,

	// durable, declarative vocabulary
	"alway":       -0.8,
	"never":       -0.6,
	"must":        -0.7,
	"requir":      -0.6,
	"convention":  -0.9,
	"standard":    -0.7,
	"architectur": -0.8,
	"design":      -0.6,
	"pattern":     -0.6,
	"prefer":      -0.7,
	"rule":        -0.7,
	"policy":      -0.7,
	"invariant":   -0.9,
	"guarantee":   -0.7,
	"document":    -0.6,
	"defin":       -0.5,
	"interfac":    -0.5,
	"modul":       -0.4,
	"project":     -0.4,
	"team":        -0.4,
	"api":         -0.3,
	"config":      -0.3,
	"default":     -0.4,
}
