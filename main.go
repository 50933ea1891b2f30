package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/deanrtaylor1/gobayes/config"
	"github.com/deanrtaylor1/gobayes/lexer"
	"github.com/deanrtaylor1/gobayes/logger"
	"github.com/deanrtaylor1/gobayes/server"
	"github.com/deanrtaylor1/gobayes/stats"
	"github.com/dgraph-io/badger/v4"
	"github.com/spf13/cobra"
)

const version = "0.2"

var rootCmd = &cobra.Command{
	Use:   "gobayes",
	Short: "GoBayes - a naive Bayes text classifier written in Go",
	Long: `GoBayes trains naive Bayes models on labeled text and classifies new text against them.
It ships with an embedded language identification corpus and a movie review sentiment corpus.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// app is everything a command needs once config is loaded
type app struct {
	config config.Config
	log    *slog.Logger
	db     *badger.DB
	repo   *stats.Repository
	stem   lexer.StemFunc
	close  func()
}

// newApp loads config and sets up the logger, the stemmer and, when BADGER_PATH is set, the snapshot database
func newApp(cmd *cobra.Command) (*app, error) {
	envFile, _ := cmd.Root().PersistentFlags().GetString("env")
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.LogLevel)
	logger.SetDefault(log)

	stem, closeStemmer, err := lexer.SnowballStemmer(cfg.StemLanguage)
	if err != nil {
		return nil, err
	}
	a := &app{config: cfg, log: log, stem: stem, close: closeStemmer}

	if cfg.BadgerPath != "" {
		if a.db, err = stats.OpenBadger(cfg.BadgerPath); err != nil {
			closeStemmer()
			return nil, err
		}
		repo := stats.NewRepository(a.db, log)
		a.repo = &repo
		a.close = func() {
			if err := a.db.Close(); err != nil {
				log.Error("Unable to close database", "error", err)
			}
			closeStemmer()
		}
	}
	return a, nil
}

func (a *app) server() *server.Server {
	return server.NewServer(a.config, a.log, a.repo, stats.FileOpsImpl{}, a.stem)
}

func main() {
	rootCmd.Version = version

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cliCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(trainCmd)

	rootCmd.PersistentFlags().String("env", ".env", "dotenv file to load before reading the environment")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
