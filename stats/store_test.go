package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fill(s *Store, label string, tokens ...string) {
	s.RegisterLabel(label)
	for _, token := range tokens {
		s.IncrementStem(token)
		s.IncrementJoint(token, label)
	}
	s.IncrementDoc(label)
}

func TestNewStore(t *testing.T) {
	req := require.New(t)
	s := NewStore()

	req.Empty(s.Labels())
	req.Zero(s.TotalDocs())
	req.Zero(s.StemCount("anything"))
	req.Zero(s.JointCount("anything", "label"))
	req.Zero(s.DocCount("label"))
	req.Zero(s.InverseDocCount("label"))
	req.Zero(s.InverseJointCount("anything", "label"))
	req.NoError(s.CheckInvariants())
}

func TestStore_Counters(t *testing.T) {
	req := require.New(t)
	s := NewStore()

	fill(s, "english", "the", "cat")
	fill(s, "french", "le", "chat")
	fill(s, "english", "the", "dog")

	req.Equal([]string{"english", "french"}, s.Labels())
	req.Equal(3, s.TotalDocs())
	req.Equal(2, s.DocCount("english"))
	req.Equal(1, s.InverseDocCount("english"))
	req.Equal(2, s.InverseDocCount("french"))
	req.Equal(2, s.StemCount("the"))
	req.Equal(2, s.JointCount("the", "english"))
	req.Zero(s.JointCount("the", "french"))
	req.Equal(2, s.InverseJointCount("the", "french"))
	req.Zero(s.InverseJointCount("the", "english"))
	req.Equal([]string{"cat", "chat", "dog", "le", "the"}, s.Tokens())
	req.NoError(s.CheckInvariants())
}

func TestStore_RegisterLabelKeepsFirstSeenOrder(t *testing.T) {
	req := require.New(t)
	s := NewStore()

	req.True(s.RegisterLabel("b"))
	req.True(s.RegisterLabel("a"))
	req.False(s.RegisterLabel("b"))
	req.Equal([]string{"b", "a"}, s.Labels())

	// callers cannot mutate the internal order
	labels := s.Labels()
	labels[0] = "z"
	req.Equal([]string{"b", "a"}, s.Labels())
}

func TestStore_Reset(t *testing.T) {
	req := require.New(t)
	s := NewStore()
	fill(s, "positive", "good")
	fill(s, "negative", "bad")

	s.Reset()

	req.Empty(s.Labels())
	req.Empty(s.Tokens())
	req.Zero(s.TotalDocs())
	req.Zero(s.DocCount("positive"))
	req.Zero(s.StemCount("good"))
	req.Zero(s.JointCount("good", "positive"))
}

func TestStore_Merge(t *testing.T) {
	req := require.New(t)
	a := NewStore()
	fill(a, "x", "one", "two")

	b := NewStore()
	fill(b, "y", "two")
	fill(b, "x", "three")

	a.Merge(b)

	req.Equal([]string{"x", "y"}, a.Labels())
	req.Equal(3, a.TotalDocs())
	req.Equal(2, a.DocCount("x"))
	req.Equal(2, a.StemCount("two"))
	req.Equal(1, a.JointCount("two", "y"))
	req.Equal(1, a.JointCount("three", "x"))
	req.NoError(a.CheckInvariants())
}

func TestStore_CheckInvariants(t *testing.T) {
	req := require.New(t)
	s := NewStore()
	fill(s, "x", "one")

	// a stem increment without its joint breaks the token invariant
	s.IncrementStem("one")
	req.Error(s.CheckInvariants())
}
