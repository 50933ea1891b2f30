package util

import (
	"bytes"
	"testing"

	"github.com/deanrtaylor1/gobayes/bayes"
	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func TestTitleLabel(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"english", "English"},
		{"positive", "Positive"},
		{"", ""},
	}
	for _, c := range cases {
		if got := TitleLabel(c.label); got != c.want {
			t.Errorf("TitleLabel(%q) == %q, want %q", c.label, got, c.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0.9, "90.0%"},
		{0.5, "50.0%"},
		{0.12345, "12.3%"},
		{1, "100.0%"},
	}
	for _, c := range cases {
		if got := FormatPercent(c.score); got != c.want {
			t.Errorf("FormatPercent(%v) == %q, want %q", c.score, got, c.want)
		}
	}
}

func TestReferenceLanguage(t *testing.T) {
	name, _ := ReferenceLanguage("Mary and Samantha arrived at the bus station before noon, and they left on the bus before I arrived.")
	require.Equal(t, "English", name)
}

func TestRenderTrace(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	RenderTrace(&buf, []bayes.Wordicity{
		{Label: "english", Token: "the", Value: 0.75},
		{Label: "french", Token: "the", Value: 0.25},
	})

	out := buf.String()
	req.Contains(out, "English-icity")
	req.Contains(out, "French-icity")
	req.Contains(out, "0.75")
	req.Contains(out, "0.25")
}

func TestRenderScores(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	RenderScores(&buf, bayes.Result{
		Labels: []string{"french", "english"},
		Scores: map[string]float64{"french": 0.1, "english": 0.9},
	})

	out := buf.String()
	req.Less(bytes.Index(buf.Bytes(), []byte("English")), bytes.Index(buf.Bytes(), []byte("French")))
	req.Contains(out, "90.0%")
}

func TestDescribeWinner(t *testing.T) {
	cases := []struct {
		name   string
		result bayes.Result
		want   string
	}{
		{"untrained", bayes.Result{Status: bayes.StatusUntrained}, "model is not trained yet"},
		{"unscorable", bayes.Result{Status: bayes.StatusUnscorable}, "at least two labels are needed to score a text"},
		{"winner", bayes.Result{Status: bayes.StatusOK, Winner: bayes.Winner{Label: "english", Score: 0.9, Found: true}}, "English 90.0%"},
		{"no winner", bayes.Result{Status: bayes.StatusOK}, "no label scored above zero"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, DescribeWinner(c.result))
		})
	}
}
