package eval

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/deanrtaylor1/gobayes/bayes"
	"github.com/deanrtaylor1/gobayes/lexer"
	"github.com/deanrtaylor1/gobayes/stats"
	"github.com/go-playground/validator/v10"
)

const (
	PositiveLabel = "positive"
	NegativeLabel = "negative"

	// defaults for sentiment evaluation
	SentimentSplitRatio = 0.85
	SentimentThreshold  = 0.75
)

var (
	ErrEmptyPools = errors.New("no document pools to evaluate")
	validate      = validator.New()
)

// Pool is every document available for one label
type Pool struct {
	Label string
	Docs  []string
}

type Options struct {
	SplitRatio float64 `validate:"gte=0,lte=1"`
	Threshold  float64 `validate:"gte=0,lte=1"`
	// Tokenizer defaults to lexer.PlainTokenizer
	Tokenizer lexer.Tokenizer
	// Rand drives the shuffle; nil means a time-seeded source
	Rand *rand.Rand
	// OnProgress is called after each interleaved training step
	OnProgress func(trained, total int)
}

type Report struct {
	Trained   int     `json:"trained"`
	HeldOut   int     `json:"held_out"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Abstained int     `json:"abstained"`
	Accuracy  float64 `json:"accuracy"`
	// Defined is false when every held-out document abstained
	Defined bool `json:"defined"`
}

func (r Report) String() string {
	if !r.Defined {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", r.Accuracy)
}

// EvaluateBinary runs Evaluate over a negative and a positive pool. The negative pool
// trains first, so "negative" is the first registered label and wins exact ties.
func EvaluateBinary(positiveDocs, negativeDocs []string, opts Options) (Report, error) {
	return Evaluate([]Pool{
		{Label: NegativeLabel, Docs: negativeDocs},
		{Label: PositiveLabel, Docs: positiveDocs},
	}, opts)
}

// Evaluate shuffles every pool, trains on the first SplitRatio of each (one document per
// pool per step) and classifies the rest. Predictions scoring under Threshold abstain.
func Evaluate(pools []Pool, opts Options) (Report, error) {
	if len(pools) == 0 {
		return Report{}, ErrEmptyPools
	}
	if err := validate.Struct(opts); err != nil {
		return Report{}, fmt.Errorf("invalid evaluation options: %w", err)
	}
	tokenizer := opts.Tokenizer
	if tokenizer == nil {
		tokenizer = lexer.PlainTokenizer{}
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	train := make([][]string, len(pools))
	test := make([][]string, len(pools))
	totalTrain, longest := 0, 0
	for i, pool := range pools {
		docs := make([]string, len(pool.Docs))
		copy(docs, pool.Docs)
		rnd.Shuffle(len(docs), func(a, b int) { docs[a], docs[b] = docs[b], docs[a] })

		split := int(math.Floor(opts.SplitRatio * float64(len(docs))))
		train[i], test[i] = docs[:split], docs[split:]
		totalTrain += split
		longest = max(longest, split)
	}

	store := stats.NewStore()
	trainer := bayes.NewTrainer(store, tokenizer)
	trained := 0
	for step := 0; step < longest; step++ {
		for i, pool := range pools {
			if step >= len(train[i]) {
				continue
			}
			trainer.TrainOne(bayes.Document{Text: train[i][step], Label: pool.Label})
			trained++
		}
		if opts.OnProgress != nil {
			opts.OnProgress(trained, totalTrain)
		}
	}

	report := Report{Trained: trained}
	classifier := bayes.NewClassifier(store, tokenizer)
	for i, pool := range pools {
		for _, text := range test[i] {
			report.HeldOut++
			winner := classifier.Classify(text).Winner
			switch {
			case winner.Score < opts.Threshold:
				report.Abstained++
			case winner.Label == pool.Label:
				report.Correct++
			default:
				report.Incorrect++
			}
		}
	}

	report.Accuracy, report.Defined = Accuracy(report.Correct, report.Incorrect)
	return report, nil
}

// Accuracy is the percentage of correct decisions with two decimals.
// It is undefined when nothing was decided.
func Accuracy(correct, incorrect int) (float64, bool) {
	decided := correct + incorrect
	if decided == 0 {
		return 0, false
	}
	return math.Round(10000*float64(correct)/float64(decided)) / 100, true
}
