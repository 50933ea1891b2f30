package stats

import (
	"fmt"
	"sort"
)

type DocCount = map[string]int
type StemCount = map[string]int

// JointCount maps a token to the number of documents of each label containing it
type JointCount = map[string]map[string]int

// Store holds the counters accumulated by one training session.
// It is plain data: callers serialise writes (train, reset) against reads.
type Store struct {
	labels    []string
	labelSet  map[string]bool
	docs      DocCount
	stems     StemCount
	joint     JointCount
	total     int
	tokenizer string
}

// NewStore returns an empty store
func NewStore() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// SetTokenizer records the name of the tokenizer feeding the store
func (s *Store) SetTokenizer(name string) {
	s.tokenizer = name
}

func (s *Store) Tokenizer() string {
	return s.tokenizer
}

// Reset clears every counter and the label list. The tokenizer name is kept.
func (s *Store) Reset() {
	s.labels = []string{}
	s.labelSet = make(map[string]bool)
	s.docs = make(DocCount)
	s.stems = make(StemCount)
	s.joint = make(JointCount)
	s.total = 0
}

// RegisterLabel remembers label, keeping first-seen order. It reports whether the label was new.
func (s *Store) RegisterLabel(label string) bool {
	if s.labelSet[label] {
		return false
	}
	s.labelSet[label] = true
	s.labels = append(s.labels, label)
	return true
}

func (s *Store) IncrementStem(token string) {
	s.stems[token] += 1
}

func (s *Store) IncrementJoint(token, label string) {
	perLabel, ok := s.joint[token]
	if !ok {
		perLabel = make(map[string]int)
		s.joint[token] = perLabel
	}
	perLabel[label] += 1
}

func (s *Store) IncrementDoc(label string) {
	s.docs[label] += 1
	s.total += 1
}

// StemCount is the number of documents, across all labels, containing token
func (s *Store) StemCount(token string) int {
	return s.stems[token]
}

// JointCount is the number of documents labeled label containing token
func (s *Store) JointCount(token, label string) int {
	return s.joint[token][label]
}

func (s *Store) DocCount(label string) int {
	return s.docs[label]
}

// InverseJointCount is the number of documents containing token that are not labeled label
func (s *Store) InverseJointCount(token, label string) int {
	return max(s.StemCount(token)-s.JointCount(token, label), 0)
}

// InverseDocCount is the number of trained documents not labeled label
func (s *Store) InverseDocCount(label string) int {
	return max(s.total-s.DocCount(label), 0)
}

// Labels returns a copy of the known labels in first-seen order
func (s *Store) Labels() []string {
	labels := make([]string, len(s.labels))
	copy(labels, s.labels)
	return labels
}

func (s *Store) TotalDocs() int {
	return s.total
}

// Tokens returns the training vocabulary, sorted
func (s *Store) Tokens() []string {
	tokens := make([]string, 0, len(s.stems))
	for token := range s.stems {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// Merge adds the counters of other to s. Labels unknown to s are appended in other's order.
func (s *Store) Merge(other *Store) {
	for _, label := range other.labels {
		s.RegisterLabel(label)
	}
	for label, n := range other.docs {
		s.docs[label] += n
		s.total += n
	}
	for token, n := range other.stems {
		s.stems[token] += n
	}
	for token, perLabel := range other.joint {
		for label, n := range perLabel {
			if s.joint[token] == nil {
				s.joint[token] = make(map[string]int)
			}
			s.joint[token][label] += n
		}
	}
}

// CheckInvariants returns an error describing the first counter invariant that does not hold
func (s *Store) CheckInvariants() error {
	sum := 0
	for _, label := range s.labels {
		n := s.docs[label]
		if n < 0 {
			return fmt.Errorf("negative document count %d for label %q", n, label)
		}
		sum += n
	}
	if sum != s.total {
		return fmt.Errorf("document counts sum to %d, %d documents trained", sum, s.total)
	}

	for token, total := range s.stems {
		joint := 0
		for _, n := range s.joint[token] {
			joint += n
		}
		if joint != total {
			return fmt.Errorf("token %q: joint counts sum to %d, stem count is %d", token, joint, total)
		}
	}
	return nil
}
