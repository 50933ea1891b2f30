package lexer

import (
	"strings"

	"golang.org/x/net/html"
)

// TextContent returns the text nodes of an html document, skipping script and style bodies
func TextContent(htmlContent string) string {
	var content strings.Builder
	skip := 0

	d := html.NewTokenizer(strings.NewReader(htmlContent))
	for {
		tt := d.Next()
		switch tt {
		case html.ErrorToken:
			return strings.TrimSpace(content.String())
		case html.StartTagToken:
			if name, _ := d.TagName(); isHiddenTag(string(name)) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := d.TagName(); isHiddenTag(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			content.Write(d.Text())
			content.WriteByte(' ')
		}
	}
}

func isHiddenTag(name string) bool {
	return name == "script" || name == "style"
}

// LooksLikeHTML is a cheap check used by corpus loaders to decide whether to strip markup
func LooksLikeHTML(content string) bool {
	trimmed := strings.TrimSpace(strings.ToLower(content))
	return strings.HasPrefix(trimmed, "<!doctype html") || strings.HasPrefix(trimmed, "<html")
}
