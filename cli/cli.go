package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/deanrtaylor1/gobayes/bayes"
	"github.com/deanrtaylor1/gobayes/util"
)

//CLI Interface of GoBayes

const (
	optionNewText     = "○ GoBayes: New Text"
	optionSelectModel = "○ GoBayes: Select Model"
	optionToggleTrace = "○ GoBayes: Toggle Trace"
	optionExit        = "○ GoBayes: Exit"
)

type Prompter interface {
	Select(message string, options []string) (string, error)
	Input(message string) (string, error)
}

// SurveyPrompter asks on the terminal
type SurveyPrompter struct{}

func (SurveyPrompter) Select(message string, options []string) (string, error) {
	var selected string
	err := survey.AskOne(&survey.Select{Message: message, Options: options}, &selected)
	return selected, err
}

func (SurveyPrompter) Input(message string) (string, error) {
	var input string
	err := survey.AskOne(&survey.Input{Message: message}, &input)
	return input, err
}

// Clean up the CLI response to remove the bullet point
func formatCliResponse(response string) string {
	return strings.Replace(response, "○ ", "", -1)
}

type CLI struct {
	prompter Prompter
	out      io.Writer
	sessions []*bayes.Session
	trace    bool
}

func New(prompter Prompter, out io.Writer, sessions ...*bayes.Session) *CLI {
	return &CLI{prompter: prompter, out: out, sessions: sessions}
}

// Utility function to show the user the current state of a model
func (c *CLI) logStatus(session *bayes.Session) {
	info := session.Info()
	labels := make([]string, 0, len(info.Labels))
	for _, label := range info.Labels {
		labels = append(labels, util.TitleLabel(label))
	}
	fmt.Fprintln(c.out, util.Green(fmt.Sprintf("Model: %s | %d documents | %d tokens | labels: %s",
		info.Name, info.TotalDocs, info.Vocabulary, strings.Join(labels, ", "))))
	fmt.Fprintln(c.out, "Type a text or press Ctrl+C to exit")
}

func (c *CLI) selectModel() (*bayes.Session, error) {
	options := make([]string, 0, len(c.sessions))
	for _, s := range c.sessions {
		options = append(options, "○ "+s.Name)
	}
	selected, err := c.prompter.Select("Select a model:", options)
	if err != nil {
		return nil, err
	}
	name := formatCliResponse(selected)
	for _, s := range c.sessions {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("unknown model %q", name)
}

// Classify a single text and print the outcome
func (c *CLI) classify(session *bayes.Session, text string) {
	start := time.Now()
	result := session.Classify(text)
	elapsed := time.Since(start)

	fmt.Fprintln(c.out, "------------------------------------")
	fmt.Fprintln(c.out, util.Cyan(fmt.Sprintf("Scored %d tokens in %d µs", len(result.Tokens), elapsed.Microseconds())))
	fmt.Fprintln(c.out, "------------------------------------")
	if c.trace && len(result.Trace) > 0 {
		util.RenderTrace(c.out, result.Trace)
	}
	if result.Status == bayes.StatusOK {
		util.RenderScores(c.out, result)
	}
	fmt.Fprintln(c.out, util.DescribeWinner(result))
}

// Run starts the prompt loop and returns when the user exits or interrupts
func (c *CLI) Run() error {
	if len(c.sessions) == 0 {
		return errors.New("no models to classify with")
	}

	session, err := c.selectModel()
	for err == nil {
		c.logStatus(session)

		var text string
		if text, err = c.prompter.Input("Enter a text:"); err != nil {
			break
		}
		c.classify(session, text)

		var next string
		if next, err = c.prompter.Select("Next:", []string{optionNewText, optionSelectModel, optionToggleTrace, optionExit}); err != nil {
			break
		}
		switch next {
		case optionSelectModel:
			session, err = c.selectModel()
		case optionToggleTrace:
			c.trace = !c.trace
			fmt.Fprintf(c.out, "Trace: %v\n", c.trace)
		case optionExit:
			return nil
		}
	}

	if errors.Is(err, terminal.InterruptErr) {
		return nil
	}
	return err
}
