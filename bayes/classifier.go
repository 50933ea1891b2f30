package bayes

import (
	"math"

	"github.com/deanrtaylor1/gobayes/lexer"
	"github.com/deanrtaylor1/gobayes/stats"
)

const (
	// NeutralPrior is the wordicity of a token carrying no evidence
	NeutralPrior = 0.5
	MinWordicity = 0.01
	MaxWordicity = 0.99
)

type Status string

const (
	StatusOK         Status = "ok"
	StatusUntrained  Status = "untrained"
	StatusUnscorable Status = "unscorable"
)

// Wordicity is one diagnostic trace entry: how distinctive Token is for Label
type Wordicity struct {
	Label string  `json:"label"`
	Token string  `json:"token"`
	Value float64 `json:"value"`
}

type Winner struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
	Found bool    `json:"found"`
}

type Result struct {
	Status Status             `json:"status"`
	Tokens []string           `json:"tokens"`
	Labels []string           `json:"labels"`
	Scores map[string]float64 `json:"scores"`
	Trace  []Wordicity        `json:"trace"`
	Winner Winner             `json:"winner"`
}

// Classifier scores texts against a store without modifying it
type Classifier struct {
	store     *stats.Store
	tokenizer lexer.Tokenizer
}

func NewClassifier(store *stats.Store, tokenizer lexer.Tokenizer) *Classifier {
	return &Classifier{store: store, tokenizer: tokenizer}
}

// Scorable reports whether label has documents both in and outside of it
func (c *Classifier) Scorable(label string) bool {
	return c.store.DocCount(label) > 0 && c.store.InverseDocCount(label) > 0
}

// Wordicity returns the smoothed, clipped probability that a document containing token
// is labeled label. ok is false when the token was never trained or the label is not scorable.
func (c *Classifier) Wordicity(token, label string) (value float64, ok bool) {
	total := c.store.StemCount(token)
	if total == 0 || !c.Scorable(label) {
		return 0, false
	}

	pLabel := float64(c.store.JointCount(token, label)) / float64(c.store.DocCount(label))
	pOther := float64(c.store.InverseJointCount(token, label)) / float64(c.store.InverseDocCount(label))
	raw := pLabel / (pLabel + pOther)

	shrunk := (NeutralPrior + float64(total)*raw) / (1 + float64(total))
	return Clip(shrunk), true
}

// Clip keeps a wordicity inside [MinWordicity, MaxWordicity] so both logs stay finite
func Clip(w float64) float64 {
	return math.Min(math.Max(w, MinWordicity), MaxWordicity)
}

func (c *Classifier) Classify(text string) Result {
	tokens := c.tokenizer.Tokenize(text)
	result := Result{
		Status: StatusOK,
		Tokens: tokens,
		Labels: []string{},
		Scores: make(map[string]float64),
		Trace:  []Wordicity{},
	}

	if c.store.TotalDocs() == 0 {
		result.Status = StatusUntrained
		return result
	}

	for _, label := range c.store.Labels() {
		if !c.Scorable(label) {
			continue
		}

		logOddsAgainst := 0.0
		for _, token := range tokens {
			w, ok := c.Wordicity(token, label)
			if !ok {
				continue
			}
			logOddsAgainst += math.Log(1-w) - math.Log(w)
			result.Trace = append(result.Trace, Wordicity{Label: label, Token: token, Value: w})
		}

		result.Labels = append(result.Labels, label)
		result.Scores[label] = 1 / (1 + math.Exp(logOddsAgainst))
	}

	if len(result.Labels) == 0 {
		result.Status = StatusUnscorable
		return result
	}
	result.Winner = ExtractWinner(result.Labels, result.Scores)
	return result
}

// ExtractWinner walks labels in order and keeps the first strictly greater score.
// A label scoring exactly 0 can never win.
func ExtractWinner(labels []string, scores map[string]float64) Winner {
	best := Winner{}
	for _, label := range labels {
		if score := scores[label]; score > best.Score {
			best = Winner{Label: label, Score: score, Found: true}
		}
	}
	return best
}
