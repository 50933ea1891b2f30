package lexer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

const (
	PlainName    = "plain"
	NegationName = "negation"
)

var ErrUnknownTokenizer = errors.New("unknown tokenizer")

// Tokenizer turns raw text into a deduplicated, ordered sequence of tokens.
// Name identifies the tokenizer in saved snapshots.
type Tokenizer interface {
	Tokenize(text string) []string
	Name() string
}

// ByName builds the tokenizer recorded under name. stem is only used by the negation tokenizer.
func ByName(name string, stem StemFunc) (Tokenizer, error) {
	switch name {
	case PlainName:
		return PlainTokenizer{}, nil
	case NegationName:
		return NegationTokenizer{Stem: stem}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownTokenizer, name)
	}
}

type Lexer struct {
	content []rune
}

// NewLexer creates a new Lexer over the lower-cased content
func NewLexer(content string) *Lexer {
	return &Lexer{[]rune(strings.ToLower(content))}
}

// isWord matches the ASCII word class [A-Za-z0-9_]
func isWord(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

// TrimLeft drops every non-word rune from the left of the content
func (l *Lexer) TrimLeft() {
	for len(l.content) > 0 && !isWord(l.content[0]) {
		l.content = l.content[1:]
	}
}

// Chop chops the content by n and returns the chopped content
func (l *Lexer) Chop(n int) (token []rune) {
	token = l.content[:n]
	l.content = l.content[n:]
	return token
}

// ChopWhile chops the content while the predicate f returns true
func (l *Lexer) ChopWhile(f func(rune) bool) (token []rune) {
	n := 0
	for n < len(l.content) && f(l.content[n]) {
		n += 1
	}
	return l.Chop(n)
}

// NextToken returns the next run of word runes, nil once the content is exhausted
func (l *Lexer) NextToken() []rune {
	l.TrimLeft()

	if len(l.content) == 0 {
		return nil
	}
	return l.ChopWhile(isWord)
}

// Next returns the next token as a string
func (l *Lexer) Next() (string, error) {
	token := l.NextToken()
	if token == nil {
		return "EOF", errors.New("no more tokens")
	}
	return string(token), nil
}

// Words returns every token left in the lexer, duplicates included
func (l *Lexer) Words() []string {
	words := []string{}
	for {
		token, err := l.Next()
		if err != nil {
			return words
		}
		words = append(words, token)
	}
}

// PlainTokenizer lower-cases, splits on runs of non-word characters and
// keeps the first occurrence of each token.
type PlainTokenizer struct{}

func (PlainTokenizer) Name() string { return PlainName }

func (PlainTokenizer) Tokenize(text string) []string {
	return lo.Uniq(NewLexer(text).Words())
}
