package bayes

import (
	"context"

	"github.com/deanrtaylor1/gobayes/lexer"
	"github.com/deanrtaylor1/gobayes/stats"
	"golang.org/x/sync/errgroup"
)

// Document is one labeled training text
type Document struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Trainer feeds documents through a tokenizer into a store
type Trainer struct {
	store     *stats.Store
	tokenizer lexer.Tokenizer
}

// NewTrainer records the tokenizer name on store so snapshots can rebuild it
func NewTrainer(store *stats.Store, tokenizer lexer.Tokenizer) *Trainer {
	store.SetTokenizer(tokenizer.Name())
	return &Trainer{store: store, tokenizer: tokenizer}
}

func (t *Trainer) Train(docs []Document) {
	for _, doc := range docs {
		t.TrainOne(doc)
	}
}

// TrainOne counts every distinct token of the document once and the document once for its label
func (t *Trainer) TrainOne(doc Document) {
	trainTokens(t.store, doc.Label, t.tokenizer.Tokenize(doc.Text))
}

func trainTokens(store *stats.Store, label string, tokens []string) {
	store.RegisterLabel(label)
	for _, token := range tokens {
		store.IncrementStem(token)
		store.IncrementJoint(token, label)
	}
	store.IncrementDoc(label)
}

// TrainConcurrent tokenizes and counts chunks of docs on separate goroutines, then merges
// the partial stores. Labels are registered in document order before merging so that
// tie-breaks match a sequential Train. The tokenizer must be safe for concurrent use.
func (t *Trainer) TrainConcurrent(ctx context.Context, docs []Document, workers int) error {
	if workers < 1 {
		workers = 1
	}
	if len(docs) == 0 {
		return nil
	}

	chunk := (len(docs) + workers - 1) / workers
	partials := make([]*stats.Store, 0, workers)
	g, ctx := errgroup.WithContext(ctx)

	for start := 0; start < len(docs); start += chunk {
		end := min(start+chunk, len(docs))
		partial := stats.NewStore()
		partials = append(partials, partial)

		part := docs[start:end]
		g.Go(func() error {
			for _, doc := range part {
				if err := ctx.Err(); err != nil {
					return err
				}
				trainTokens(partial, doc.Label, t.tokenizer.Tokenize(doc.Text))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	for _, doc := range docs {
		t.store.RegisterLabel(doc.Label)
	}
	for _, partial := range partials {
		t.store.Merge(partial)
	}
	return nil
}
