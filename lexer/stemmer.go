package lexer

import (
	"fmt"
	"sync"

	"github.com/tebeka/snowball"
)

// StemFunc maps a token to its stem. It must be deterministic for a given input.
type StemFunc func(token string) string

// SnowballStemmer wraps a snowball stemmer for the given language.
// The returned close func releases the underlying C stemmer.
func SnowballStemmer(language string) (StemFunc, func(), error) {
	stemmer, err := snowball.New(language)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating %s stemmer: %w", language, err)
	}

	// snowball stemmers keep internal state between calls
	var mu sync.Mutex
	stem := func(token string) string {
		mu.Lock()
		defer mu.Unlock()
		return stemmer.Stem(token)
	}
	closer := func() {
		mu.Lock()
		defer mu.Unlock()
		stemmer.Close()
	}
	return stem, closer, nil
}

// SentimentTokenizer returns the negation-aware tokenizer backed by a snowball stemmer
func SentimentTokenizer(language string) (Tokenizer, func(), error) {
	stem, closer, err := SnowballStemmer(language)
	if err != nil {
		return nil, nil, err
	}
	return NegationTokenizer{Stem: stem}, closer, nil
}
