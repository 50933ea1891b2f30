package bayes

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/deanrtaylor1/gobayes/lexer"
	"github.com/deanrtaylor1/gobayes/stats"
	"github.com/stretchr/testify/require"
)

func trained(docs ...Document) (*stats.Store, *Classifier) {
	store := stats.NewStore()
	NewTrainer(store, lexer.PlainTokenizer{}).Train(docs)
	return store, NewClassifier(store, lexer.PlainTokenizer{})
}

var languageDocs = []Document{
	{Text: "the cat sat", Label: "english"},
	{Text: "le chat", Label: "french"},
	{Text: "el gato", Label: "spanish"},
}

func TestClassify_LanguageScenario(t *testing.T) {
	req := require.New(t)
	_, c := trained(languageDocs...)

	result := c.Classify("the cat")

	req.Equal(StatusOK, result.Status)
	req.Equal([]string{"the", "cat"}, result.Tokens)
	req.Equal([]string{"english", "french", "spanish"}, result.Labels)
	req.True(result.Winner.Found)
	req.Equal("english", result.Winner.Label)
	req.Greater(result.Winner.Score, 0.5)
	// each token is seen once, so wordicity moves halfway from 0.5 toward 1 or 0
	req.InDelta(0.9, result.Scores["english"], 1e-9)
	req.InDelta(0.1, result.Scores["french"], 1e-9)
	req.InDelta(0.1, result.Scores["spanish"], 1e-9)

	req.Len(result.Trace, 6)
	req.Equal(Wordicity{Label: "english", Token: "the", Value: 0.75}, result.Trace[0])
	req.Equal("french", result.Trace[2].Label)
	req.InDelta(0.25, result.Trace[2].Value, 1e-9)
}

func TestClassify_TieGoesToFirstSeenLabel(t *testing.T) {
	req := require.New(t)
	_, c := trained(
		Document{Text: "x y", Label: "a"},
		Document{Text: "z", Label: "b"},
	)

	result := c.Classify("completely unknown words")

	req.Equal(StatusOK, result.Status)
	req.Equal(0.5, result.Scores["a"])
	req.Equal(0.5, result.Scores["b"])
	req.Empty(result.Trace)
	req.Equal(Winner{Label: "a", Score: 0.5, Found: true}, result.Winner)
}

func TestClassify_EmptyText(t *testing.T) {
	req := require.New(t)
	_, c := trained(languageDocs...)

	for _, text := range []string{"", "  ...!?  "} {
		result := c.Classify(text)
		req.Empty(result.Tokens)
		for _, label := range result.Labels {
			req.Equal(0.5, result.Scores[label])
		}
		req.Equal("english", result.Winner.Label)
	}
}

func TestClassify_Untrained(t *testing.T) {
	req := require.New(t)
	_, c := trained()

	result := c.Classify("the cat")

	req.Equal(StatusUntrained, result.Status)
	req.False(result.Winner.Found)
	req.Empty(result.Scores)
}

func TestClassify_SingleLabelIsUnscorable(t *testing.T) {
	req := require.New(t)
	_, c := trained(
		Document{Text: "the cat", Label: "english"},
		Document{Text: "the dog", Label: "english"},
	)

	result := c.Classify("the cat")

	req.Equal(StatusUnscorable, result.Status)
	req.False(result.Winner.Found)
	req.Zero(result.Winner.Score)
	req.Empty(result.Scores)
}

func TestClassify_Deterministic(t *testing.T) {
	req := require.New(t)
	_, c := trained(languageDocs...)

	first := c.Classify("le cat el chat")
	for i := 0; i < 5; i++ {
		req.Equal(first, c.Classify("le cat el chat"))
	}
}

func TestClassify_DoesNotMutateStore(t *testing.T) {
	req := require.New(t)
	store, c := trained(languageDocs...)
	before := store.Snapshot("before")

	c.Classify("the cat and a new word")

	req.Equal(before, store.Snapshot("before"))
}

func TestClassify_DuplicateTokensCountOnce(t *testing.T) {
	req := require.New(t)
	_, c := trained(languageDocs...)

	req.Equal(c.Classify("the cat").Scores, c.Classify("the the cat cat the").Scores)
}

func TestWordicity_MonotonicConfidence(t *testing.T) {
	req := require.New(t)
	previous := NeutralPrior

	for n := 1; n <= 5; n++ {
		docs := []Document{{Text: "unrelated", Label: "other"}}
		for i := 0; i < n; i++ {
			docs = append(docs, Document{Text: fmt.Sprintf("signal filler%d", i), Label: "target"})
		}
		store, c := trained(docs...)
		req.Equal(n, store.StemCount("signal"))

		w, ok := c.Wordicity("signal", "target")
		req.True(ok)
		req.InDelta((0.5+float64(n))/(1+float64(n)), w, 1e-12)
		req.Greater(w, previous)
		previous = w
	}
}

func TestWordicity_Clipped(t *testing.T) {
	req := require.New(t)
	docs := []Document{{Text: "unrelated", Label: "other"}}
	for i := 0; i < 200; i++ {
		docs = append(docs, Document{Text: "signal", Label: "target"})
	}
	_, c := trained(docs...)

	w, ok := c.Wordicity("signal", "target")
	req.True(ok)
	req.Equal(MaxWordicity, w)

	w, ok = c.Wordicity("signal", "other")
	req.True(ok)
	req.Equal(MinWordicity, w)

	_, ok = c.Wordicity("never-seen", "target")
	req.False(ok)
}

func TestClassify_ScoresStayFinite(t *testing.T) {
	req := require.New(t)
	docs := []Document{}
	for i := 0; i < 50; i++ {
		docs = append(docs, Document{Text: "alpha beta gamma delta", Label: "greek"})
		docs = append(docs, Document{Text: "one two three four", Label: "numbers"})
	}
	_, c := trained(docs...)

	result := c.Classify("alpha beta gamma delta")
	for _, label := range result.Labels {
		score := result.Scores[label]
		req.False(math.IsNaN(score) || math.IsInf(score, 0))
		req.GreaterOrEqual(score, 0.0)
		req.LessOrEqual(score, 1.0)
	}
	req.Equal("greek", result.Winner.Label)
}

func TestClassify_NegationTokenizer(t *testing.T) {
	req := require.New(t)
	tokenizer := lexer.NegationTokenizer{}
	store := stats.NewStore()
	NewTrainer(store, tokenizer).Train([]Document{
		{Text: "a good movie", Label: "positive"},
		{Text: "not good at all", Label: "negative"},
	})
	c := NewClassifier(store, tokenizer)

	req.Equal("negative", c.Classify("Not good.").Winner.Label)
	req.Equal("positive", c.Classify("good movie").Winner.Label)
}

func TestExtractWinner(t *testing.T) {
	cases := []struct {
		name   string
		labels []string
		scores map[string]float64
		want   Winner
	}{
		{"empty", nil, nil, Winner{}},
		{"strictly greater wins", []string{"a", "b"}, map[string]float64{"a": 0.4, "b": 0.6}, Winner{"b", 0.6, true}},
		{"tie keeps first", []string{"a", "b"}, map[string]float64{"a": 0.5, "b": 0.5}, Winner{"a", 0.5, true}},
		{"zero never wins", []string{"a"}, map[string]float64{"a": 0}, Winner{}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, ExtractWinner(c.labels, c.scores))
		})
	}
}

func TestTrain_CounterInvariant(t *testing.T) {
	req := require.New(t)
	store, _ := trained(
		Document{Text: "the cat sat on the mat", Label: "english"},
		Document{Text: "le chat est sur le tapis", Label: "french"},
		Document{Text: "the chat", Label: "english"},
		Document{Text: "el gato", Label: "spanish"},
	)

	req.NoError(store.CheckInvariants())
	for _, token := range store.Tokens() {
		sum := 0
		for _, label := range store.Labels() {
			sum += store.JointCount(token, label)
		}
		req.Equal(store.StemCount(token), sum, token)
	}
	req.Equal(4, store.TotalDocs())
}

func TestTrain_LabelOrderFollowsDocuments(t *testing.T) {
	req := require.New(t)
	store, _ := trained(
		Document{Text: "z", Label: "second"},
		Document{Text: "y", Label: "first"},
		Document{Text: "x", Label: "second"},
	)
	req.Equal([]string{"second", "first"}, store.Labels())
}

func TestTrainConcurrent_MatchesSequential(t *testing.T) {
	req := require.New(t)
	docs := []Document{}
	for i := 0; i < 40; i++ {
		docs = append(docs, Document{Text: fmt.Sprintf("word%d shared", i%7), Label: fmt.Sprintf("label%d", i%3)})
	}

	sequential := stats.NewStore()
	NewTrainer(sequential, lexer.PlainTokenizer{}).Train(docs)

	concurrent := stats.NewStore()
	req.NoError(NewTrainer(concurrent, lexer.PlainTokenizer{}).TrainConcurrent(context.Background(), docs, 4))

	req.Equal(sequential.Snapshot("s"), concurrent.Snapshot("s"))
	req.NoError(concurrent.CheckInvariants())
}

func TestTrainConcurrent_Cancelled(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := stats.NewStore()
	err := NewTrainer(store, lexer.PlainTokenizer{}).TrainConcurrent(ctx, languageDocs, 2)
	req.ErrorIs(err, context.Canceled)
	req.Zero(store.TotalDocs())
	req.Empty(store.Labels())
}
