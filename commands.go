package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/deanrtaylor1/gobayes/bayes"
	"github.com/deanrtaylor1/gobayes/cli"
	"github.com/deanrtaylor1/gobayes/corpus"
	"github.com/deanrtaylor1/gobayes/eval"
	"github.com/deanrtaylor1/gobayes/lexer"
	"github.com/deanrtaylor1/gobayes/stats"
	"github.com/deanrtaylor1/gobayes/util"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Train the built-in models and serve the JSON API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var cliCmd = &cobra.Command{
	Use:   "cli",
	Short: "Classify texts interactively",
	Args:  cobra.NoArgs,
	RunE:  runCli,
}

var classifyCmd = &cobra.Command{
	Use:   "classify [flags] text...",
	Short: "Classify a single text and print the scores",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Measure accuracy on a held-out part of an embedded corpus",
	Long: `Evaluate shuffles an embedded corpus, trains on part of each label and classifies the rest.
The embedded corpora are small demo sets (40 reviews per sentiment label, 6 sentences per language),
so a single run holds out only a handful of documents. Use several seeds, or train and evaluate on
your own data with "train", for a meaningful accuracy.`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a model from a labeled directory or web pages and save a snapshot",
	Args:  cobra.NoArgs,
	RunE:  runTrain,
}

func init() {
	serveCmd.Flags().Bool("empty", false, "start with untrained models")
	serveCmd.Flags().StringSlice("load", nil, "snapshots to load after start up")

	cliCmd.Flags().Bool("serve", false, "also serve the JSON API while the prompt runs")

	classifyCmd.Flags().String("model", corpus.LanguageModel, "model to classify with")
	classifyCmd.Flags().Bool("snapshot", false, "load the model from its saved snapshot instead of the embedded corpus")
	classifyCmd.Flags().Bool("trace", false, "print the wordicity of every token")
	classifyCmd.Flags().Bool("json", false, "print the raw result as json")

	evaluateCmd.Flags().String("model", corpus.SentimentModel, "embedded corpus to evaluate")
	evaluateCmd.Flags().Float64("split", -1, "share of each label used for training (default from config, 0.85 for sentiment)")
	evaluateCmd.Flags().Float64("threshold", -1, "minimum winning score, lower scores abstain (default from config, 0.75 for sentiment)")
	evaluateCmd.Flags().Int64("seed", 0, "shuffle seed, random when unset")

	trainCmd.Flags().String("dir", "", "corpus directory laid out as DIR/<label>/<document>")
	trainCmd.Flags().StringArray("url", nil, "label=URL page to fetch and train on, repeatable")
	trainCmd.Flags().String("name", "", "snapshot name")
	trainCmd.Flags().String("tokenizer", lexer.PlainName, "tokenizer (plain|negation), recorded in the snapshot")
	_ = trainCmd.MarkFlagRequired("name")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()

	s := a.server()
	if empty, _ := cmd.Flags().GetBool("empty"); !empty {
		fmt.Println(util.Cyan("Training built-in models"))
		if err := s.TrainEmbedded(ctx); err != nil {
			return err
		}
	}

	names, _ := cmd.Flags().GetStringSlice("load")
	for _, name := range names {
		store, err := s.LoadSnapshot(name)
		if err != nil {
			return err
		}
		if _, err := s.Load(name, store); err != nil {
			return err
		}
	}

	return s.Serve(ctx)
}

func runCli(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()

	s := a.server()
	if err := s.TrainEmbedded(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	if serve, _ := cmd.Flags().GetBool("serve"); serve {
		g.Go(func() error {
			err := s.Serve(ctx)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		defer cancel()
		return cli.New(cli.SurveyPrompter{}, os.Stdout, s.Sessions()...).Run()
	})
	return g.Wait()
}

func runClassify(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	name, _ := cmd.Flags().GetString("model")
	s := a.server()

	var session *bayes.Session
	if fromSnapshot, _ := cmd.Flags().GetBool("snapshot"); fromSnapshot {
		store, err := s.LoadSnapshot(name)
		if err != nil {
			return err
		}
		if session, err = s.Load(name, store); err != nil {
			return err
		}
	} else {
		var ok bool
		if session, ok = s.Session(name); !ok {
			return fmt.Errorf("unknown model %q, pass --snapshot to classify with a saved one", name)
		}
		docs, err := corpus.Documents(name)
		if err != nil {
			return err
		}
		session.Train(docs)
	}

	text := strings.Join(args, " ")
	result := session.Classify(text)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		util.RenderTrace(os.Stdout, result.Trace)
	}
	if result.Status == bayes.StatusOK {
		util.RenderScores(os.Stdout, result)
	}
	fmt.Println(util.DescribeWinner(result))
	if name == corpus.LanguageModel {
		reference, confidence := util.ReferenceLanguage(text)
		fmt.Printf("Reference guess: %s (%s)\n", reference, util.FormatPercent(confidence))
	}
	return nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	name, _ := cmd.Flags().GetString("model")
	docs, err := corpus.Documents(name)
	if err != nil {
		return err
	}

	opts := a.server().EvaluationOptions(name)
	opts.OnProgress = func(trained, total int) {
		a.log.Debug("Training", "trained", trained, "total", total)
	}
	if split, _ := cmd.Flags().GetFloat64("split"); split >= 0 {
		opts.SplitRatio = split
	}
	if threshold, _ := cmd.Flags().GetFloat64("threshold"); threshold >= 0 {
		opts.Threshold = threshold
	}
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetInt64("seed")
		opts.Rand = rand.New(rand.NewSource(seed))
	}

	start := time.Now()
	report, err := eval.Evaluate(corpus.Pools(docs), opts)
	if err != nil {
		return err
	}

	fmt.Println("------------------------------------")
	fmt.Println(util.Cyan(fmt.Sprintf("Evaluated %s in %d ms", name, time.Since(start).Milliseconds())))
	fmt.Println("------------------------------------")
	fmt.Printf("Trained: %d | Held out: %d\n", report.Trained, report.HeldOut)
	fmt.Printf("Correct: %s | Incorrect: %s | Abstained: %s\n",
		util.Green(report.Correct), util.Red(report.Incorrect), util.Yellow(report.Abstained))
	fmt.Printf("Accuracy: %s\n", report)
	return nil
}

// parseURLFlags splits label=URL pairs
func parseURLFlags(values []string) ([][2]string, error) {
	pairs := make([][2]string, 0, len(values))
	for _, v := range values {
		label, rawURL, ok := strings.Cut(v, "=")
		if !ok || label == "" || rawURL == "" {
			return nil, fmt.Errorf("invalid --url %q, expected label=URL", v)
		}
		pairs = append(pairs, [2]string{label, rawURL})
	}
	return pairs, nil
}

// fetchAll downloads every page concurrently, documents keep flag order
func fetchAll(ctx context.Context, pairs [][2]string) ([]bayes.Document, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	docs := make([]bayes.Document, len(pairs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, pair := range pairs {
		g.Go(func() error {
			doc, err := corpus.Fetch(ctx, client, pair[1], pair[0])
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func runTrain(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()

	dir, _ := cmd.Flags().GetString("dir")
	urls, _ := cmd.Flags().GetStringArray("url")
	name, _ := cmd.Flags().GetString("name")
	tokenizer, _ := cmd.Flags().GetString("tokenizer")
	if dir == "" && len(urls) == 0 {
		return errors.New("nothing to train on, pass --dir or --url")
	}

	docs := []bayes.Document{}
	if dir != "" {
		if docs, err = corpus.LoadDir(dir); err != nil {
			return err
		}
	}
	pairs, err := parseURLFlags(urls)
	if err != nil {
		return err
	}
	fetched, err := fetchAll(ctx, pairs)
	if err != nil {
		return err
	}
	docs = append(docs, fetched...)

	start := time.Now()
	store := stats.NewStore()
	tok, err := a.server().Tokenizer(tokenizer)
	if err != nil {
		return err
	}
	trainer := bayes.NewTrainer(store, tok)
	if err := trainer.TrainConcurrent(ctx, docs, a.config.TrainWorkers); err != nil {
		return err
	}
	a.log.Info("Model trained", "model", name, "documents", len(docs), "labels", len(store.Labels()), "elapsed_ms", time.Since(start).Milliseconds())

	if err := stats.SaveSnapshot(stats.FileOpsImpl{}, a.config.ModelDir, name, store); err != nil {
		return err
	}
	if a.repo != nil {
		if err := a.repo.Save(name, store); err != nil {
			return err
		}
	}
	fmt.Println(util.Green(fmt.Sprintf("Saved %s: %d documents, %d labels, %d tokens", name, store.TotalDocs(), len(store.Labels()), len(store.Tokens()))))
	return nil
}
