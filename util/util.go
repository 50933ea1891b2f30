package util

import (
	"fmt"
	"io"
	"sort"

	"github.com/abadojack/whatlanggo"
	"github.com/deanrtaylor1/gobayes/bayes"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	Cyan   = color.New(color.FgCyan).SprintFunc()
	Green  = color.New(color.FgGreen, color.Bold).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
)

// TitleLabel formats a label for display: "english" -> "English"
func TitleLabel(label string) string {
	// casers keep state, one per call keeps this safe for concurrent handlers
	return cases.Title(language.English).String(label)
}

// FormatPercent renders a score in [0,1] as a percentage with one decimal
func FormatPercent(score float64) string {
	return fmt.Sprintf("%.1f%%", score*100)
}

// ReferenceLanguage is an independent guess from whatlanggo, shown next to the trained model.
// name is empty when whatlanggo cannot tell.
func ReferenceLanguage(text string) (name string, confidence float64) {
	info := whatlanggo.Detect(text)
	return info.Lang.String(), info.Confidence
}

// RenderTrace writes the wordicity of every scored token, one row per (label, token)
func RenderTrace(w io.Writer, trace []bayes.Wordicity) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Label", "Token", "Wordicity"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, m := range trace {
		table.Append([]string{TitleLabel(m.Label) + "-icity", fmt.Sprintf("%q", m.Token), fmt.Sprintf("%.2f", m.Value)})
	}
	table.Render()
}

// RenderScores writes one row per scored label, highest score first, ties in label order
func RenderScores(w io.Writer, result bayes.Result) {
	labels := make([]string, len(result.Labels))
	copy(labels, result.Labels)
	sort.SliceStable(labels, func(i, j int) bool {
		return result.Scores[labels[i]] > result.Scores[labels[j]]
	})

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Label", "Score"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, label := range labels {
		table.Append([]string{TitleLabel(label), FormatPercent(result.Scores[label])})
	}
	table.Render()
}

// DescribeWinner is the one line summary printed after a classification
func DescribeWinner(result bayes.Result) string {
	switch {
	case result.Status == bayes.StatusUntrained:
		return Red("model is not trained yet")
	case result.Status == bayes.StatusUnscorable:
		return Yellow("at least two labels are needed to score a text")
	case !result.Winner.Found:
		return Yellow("no label scored above zero")
	default:
		return Green(fmt.Sprintf("%s %s", TitleLabel(result.Winner.Label), FormatPercent(result.Winner.Score)))
	}
}
