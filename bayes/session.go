package bayes

import (
	"context"
	"fmt"
	"sync"

	"github.com/deanrtaylor1/gobayes/lexer"
	"github.com/deanrtaylor1/gobayes/stats"
)

// Session owns one store and serialises reset/train against classify:
// writers take the lock exclusively, any number of classifications may run together.
type Session struct {
	Name      string
	lock      sync.RWMutex
	store     *stats.Store
	tokenizer lexer.Tokenizer
}

func NewSession(name string, tokenizer lexer.Tokenizer) *Session {
	store := stats.NewStore()
	store.SetTokenizer(tokenizer.Name())
	return &Session{Name: name, store: store, tokenizer: tokenizer}
}

// Info is a point-in-time summary of a session
type Info struct {
	Name       string         `json:"name"`
	Tokenizer  string         `json:"tokenizer"`
	Labels     []string       `json:"labels"`
	DocCount   map[string]int `json:"doc_count"`
	TotalDocs  int            `json:"total_docs"`
	Vocabulary int            `json:"vocabulary"`
}

func (s *Session) Train(docs []Document) {
	s.lock.Lock()
	defer s.lock.Unlock()
	NewTrainer(s.store, s.tokenizer).Train(docs)
}

func (s *Session) TrainConcurrent(ctx context.Context, docs []Document, workers int) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return NewTrainer(s.store, s.tokenizer).TrainConcurrent(ctx, docs, workers)
}

func (s *Session) Classify(text string) Result {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return NewClassifier(s.store, s.tokenizer).Classify(text)
}

func (s *Session) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.store.Reset()
}

// Replace swaps the session store for store, e.g. one loaded from a snapshot.
// tokenizer must be the one store was built with.
func (s *Session) Replace(store *stats.Store, tokenizer lexer.Tokenizer) error {
	if store.Tokenizer() != tokenizer.Name() {
		return fmt.Errorf("model %s was built with the %q tokenizer, not %q", s.Name, store.Tokenizer(), tokenizer.Name())
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.store = store
	s.tokenizer = tokenizer
	return nil
}

// View runs f with the store under the read lock
func (s *Session) View(f func(store *stats.Store) error) error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return f(s.store)
}

func (s *Session) Info() Info {
	s.lock.RLock()
	defer s.lock.RUnlock()

	labels := s.store.Labels()
	counts := make(map[string]int, len(labels))
	for _, label := range labels {
		counts[label] = s.store.DocCount(label)
	}
	return Info{
		Name:       s.Name,
		Tokenizer:  s.tokenizer.Name(),
		Labels:     labels,
		DocCount:   counts,
		TotalDocs:  s.store.TotalDocs(),
		Vocabulary: len(s.store.Tokens()),
	}
}
