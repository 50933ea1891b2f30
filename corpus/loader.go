package corpus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/deanrtaylor1/gobayes/bayes"
	"github.com/deanrtaylor1/gobayes/lexer"
)

// LoadDir reads a labeled corpus laid out as dir/<label>/<document>.
// .txt files are taken verbatim, .html and .htm files are reduced to their text.
// Labels come in directory name order; other files are ignored.
func LoadDir(dir string) ([]bayes.Document, error) {
	labels, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading corpus directory: %w", err)
	}

	docs := []bayes.Document{}
	for _, l := range labels {
		if !l.IsDir() || strings.HasPrefix(l.Name(), ".") {
			continue
		}
		files, err := os.ReadDir(filepath.Join(dir, l.Name()))
		if err != nil {
			return nil, fmt.Errorf("error reading label directory %s: %w", l.Name(), err)
		}

		for _, f := range files {
			if f.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(f.Name()))
			if ext != ".txt" && ext != ".html" && ext != ".htm" {
				continue
			}
			content, err := os.ReadFile(filepath.Join(dir, l.Name(), f.Name()))
			if err != nil {
				return nil, fmt.Errorf("error reading document %s: %w", f.Name(), err)
			}
			text := string(content)
			if ext != ".txt" || lexer.LooksLikeHTML(text) {
				text = lexer.TextContent(text)
			}
			docs = append(docs, bayes.Document{Text: text, Label: l.Name()})
		}
	}
	return docs, nil
}

// Fetch downloads a page and returns its text as a document labeled label
func Fetch(ctx context.Context, client *http.Client, rawURL, label string) (bayes.Document, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return bayes.Document{}, fmt.Errorf("error parsing url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return bayes.Document{}, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return bayes.Document{}, fmt.Errorf("error accessing site: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return bayes.Document{}, fmt.Errorf("error accessing site: %s returned %s", rawURL, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return bayes.Document{}, fmt.Errorf("error reading html response body: %w", err)
	}

	text := string(body)
	if strings.Contains(resp.Header.Get("Content-Type"), "html") || lexer.LooksLikeHTML(text) {
		text = lexer.TextContent(text)
	}
	return bayes.Document{Text: text, Label: label}, nil
}
