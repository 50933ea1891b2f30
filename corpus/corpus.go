package corpus

import (
	"bufio"
	"embed"
	"fmt"
	"strings"

	"github.com/deanrtaylor1/gobayes/bayes"
	"github.com/deanrtaylor1/gobayes/eval"
)

//go:embed data/*
var data embed.FS

const (
	LanguageModel  = "language"
	SentimentModel = "sentiment"
)

func readLines(name string) ([]string, error) {
	f, err := data.Open("data/" + name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

// Language returns the embedded language identification documents, in file order
func Language() ([]bayes.Document, error) {
	lines, err := readLines("language.tsv")
	if err != nil {
		return nil, err
	}

	docs := make([]bayes.Document, 0, len(lines))
	for i, line := range lines {
		label, text, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("language.tsv line %d: missing tab separator", i+1)
		}
		docs = append(docs, bayes.Document{Text: text, Label: label})
	}
	return docs, nil
}

// Sentiment returns the embedded positive and negative movie reviews
func Sentiment() (positive, negative []string, err error) {
	if positive, err = readLines("positive.txt"); err != nil {
		return nil, nil, err
	}
	if negative, err = readLines("negative.txt"); err != nil {
		return nil, nil, err
	}
	return positive, negative, nil
}

// SentimentDocuments interleaves the reviews one negative, one positive, so negative is
// seen first and wins exact ties, as in EvaluateBinary
func SentimentDocuments() ([]bayes.Document, error) {
	positive, negative, err := Sentiment()
	if err != nil {
		return nil, err
	}

	docs := make([]bayes.Document, 0, len(positive)+len(negative))
	for i := 0; i < max(len(positive), len(negative)); i++ {
		if i < len(negative) {
			docs = append(docs, bayes.Document{Text: negative[i], Label: eval.NegativeLabel})
		}
		if i < len(positive) {
			docs = append(docs, bayes.Document{Text: positive[i], Label: eval.PositiveLabel})
		}
	}
	return docs, nil
}

// Documents returns the embedded training set for a model name
func Documents(model string) ([]bayes.Document, error) {
	switch model {
	case LanguageModel:
		return Language()
	case SentimentModel:
		return SentimentDocuments()
	default:
		return nil, fmt.Errorf("no embedded corpus for model %q", model)
	}
}

// Pools groups documents by label, labels in first-seen order
func Pools(docs []bayes.Document) []eval.Pool {
	index := map[string]int{}
	pools := []eval.Pool{}
	for _, doc := range docs {
		i, ok := index[doc.Label]
		if !ok {
			i = len(pools)
			index[doc.Label] = i
			pools = append(pools, eval.Pool{Label: doc.Label})
		}
		pools[i].Docs = append(pools[i].Docs, doc.Text)
	}
	return pools
}
