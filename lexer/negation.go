package lexer

import (
	"github.com/samber/lo"
)

// NegationMarker is prefixed to the neighbours of a negation word.
const NegationMarker = "!"

var negations = map[string]bool{
	"never": true, "no": true, "nothing": true, "nowhere": true, "noone": true,
	"none": true, "not": true, "havent": true, "hasnt": true, "hadnt": true,
	"cant": true, "couldnt": true, "shouldnt": true, "wont": true, "wouldnt": true,
	"dont": true, "doesnt": true, "didnt": true, "isnt": true, "arent": true,
	"aint": true,
}

// IsNegation reports whether token belongs to the negation word set
func IsNegation(token string) bool {
	return negations[token]
}

// NegationTokenizer marks the tokens around a negation word so that
// "not good" yields "!good" instead of "good", then stems every token.
// A nil Stem leaves tokens untouched.
type NegationTokenizer struct {
	Stem StemFunc
}

func (NegationTokenizer) Name() string { return NegationName }

// Tokenize marks in place while scanning: a neighbour already marked ("!not") no longer
// counts as a negation word, and a token between two negation words is marked twice ("!!y").
func (n NegationTokenizer) Tokenize(text string) []string {
	tokens := PlainTokenizer{}.Tokenize(text)
	for i := range tokens {
		if !IsNegation(tokens[i]) {
			continue
		}
		if i+1 < len(tokens) {
			tokens[i+1] = NegationMarker + tokens[i+1]
		}
		if i > 0 {
			tokens[i-1] = NegationMarker + tokens[i-1]
		}
	}

	if n.Stem == nil {
		return lo.Uniq(tokens)
	}
	stemmed := make([]string, len(tokens))
	for i, token := range tokens {
		stemmed[i] = n.Stem(token)
	}
	// two surface forms can share a stem
	return lo.Uniq(stemmed)
}
