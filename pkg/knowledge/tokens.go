package knowledge

import "github.com/pkoukk/tiktoken-go"

// TokenEstimator estimates the token cost of a piece of text for briefing
// budgets.
type TokenEstimator interface {
	Estimate(text string) int
}

// HeuristicEstimator approximates one token per four characters. It is the
// default: the briefing budget semantics were calibrated against it, and it
// needs no model data.
type HeuristicEstimator struct{}

func (HeuristicEstimator) Estimate(text string) int {
	return (len(text) + 3) / 4
}

// TiktokenEstimator counts tokens with a real BPE encoding for callers that
// want exact budgets at the cost of loading the encoder.
type TiktokenEstimator struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenEstimator loads the cl100k_base encoding.
func NewTiktokenEstimator() (*TiktokenEstimator, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &TiktokenEstimator{enc: enc}, nil
}

func (t *TiktokenEstimator) Estimate(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}
