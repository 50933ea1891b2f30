package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/deanrtaylor1/gobayes/bayes"
	"github.com/deanrtaylor1/gobayes/config"
	"github.com/deanrtaylor1/gobayes/corpus"
	"github.com/deanrtaylor1/gobayes/eval"
	"github.com/deanrtaylor1/gobayes/lexer"
	"github.com/deanrtaylor1/gobayes/logger"
	"github.com/deanrtaylor1/gobayes/stats"
	"github.com/deanrtaylor1/gobayes/util"
)

type Response struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ModelsResponse struct {
	Sessions  []string `json:"sessions"`
	Snapshots []string `json:"snapshots"`
	Stored    []string `json:"stored,omitempty"`
}

type TrainRequest struct {
	Model     string           `json:"model"`
	Tokenizer string           `json:"tokenizer"`
	Documents []bayes.Document `json:"documents"`
	Embedded  bool             `json:"embedded"`
	Reset     bool             `json:"reset"`
}

type ClassifyRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

type ClassifyResponse struct {
	bayes.Result
	Reference  string  `json:"reference,omitempty"`
	Confidence float64 `json:"reference_confidence,omitempty"`
}

type EvaluateRequest struct {
	Model      string   `json:"model"`
	SplitRatio *float64 `json:"split_ratio"`
	Threshold  *float64 `json:"threshold"`
	Seed       *int64   `json:"seed"`
}

type ModelRequest struct {
	Model string `json:"model"`
}

// Server exposes one bayes session per model name over a JSON API
type Server struct {
	config   config.Config
	log      *slog.Logger
	repo     *stats.Repository
	fileOps  stats.FileOps
	lock     sync.Mutex
	sessions map[string]*bayes.Session
	stem     lexer.StemFunc
}

// NewServer creates the server with the language and sentiment models registered but untrained.
// repo may be nil when no badger database is configured.
func NewServer(cfg config.Config, log *slog.Logger, repo *stats.Repository, fileOps stats.FileOps, stem lexer.StemFunc) *Server {
	s := &Server{
		config:   cfg,
		log:      log,
		repo:     repo,
		fileOps:  fileOps,
		sessions: make(map[string]*bayes.Session),
		stem:     stem,
	}
	for _, model := range []string{corpus.LanguageModel, corpus.SentimentModel} {
		s.sessions[model] = bayes.NewSession(model, s.modelTokenizer(model))
	}
	return s
}

// Tokenizer builds the tokenizer recorded under name, using the server's stemmer
func (s *Server) Tokenizer(name string) (lexer.Tokenizer, error) {
	return lexer.ByName(name, s.stem)
}

// the sentiment model marks negations, every other built-in model uses plain tokens
func (s *Server) modelTokenizer(model string) lexer.Tokenizer {
	if model == corpus.SentimentModel {
		return lexer.NegationTokenizer{Stem: s.stem}
	}
	return lexer.PlainTokenizer{}
}

// EvaluationOptions returns the configured split, threshold and tokenizer for evaluating model
func (s *Server) EvaluationOptions(model string) eval.Options {
	opts := eval.Options{
		SplitRatio: s.config.SplitRatio,
		Threshold:  s.config.ConfidenceThreshold,
		Tokenizer:  s.modelTokenizer(model),
	}
	if model == corpus.SentimentModel {
		opts.SplitRatio = s.config.SentimentSplit
		opts.Threshold = s.config.SentimentThreshold
	}
	return opts
}

// Session looks up a model by name
func (s *Server) Session(name string) (*bayes.Session, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	session, ok := s.sessions[name]
	return session, ok
}

// Sessions returns every session, sorted by name
func (s *Server) Sessions() []*bayes.Session {
	s.lock.Lock()
	defer s.lock.Unlock()
	sessions := make([]*bayes.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Name < sessions[j].Name })
	return sessions
}

func (s *Server) sessionOrCreate(name string, tokenizer lexer.Tokenizer) *bayes.Session {
	s.lock.Lock()
	defer s.lock.Unlock()
	session, ok := s.sessions[name]
	if !ok {
		session = bayes.NewSession(name, tokenizer)
		s.sessions[name] = session
	}
	return session
}

// LoadSnapshot reads a snapshot from the model directory, then from badger when configured
func (s *Server) LoadSnapshot(name string) (*stats.Store, error) {
	store, err := stats.LoadSnapshot(s.config.ModelDir, name)
	if errors.Is(err, stats.ErrSnapshotNotFound) && s.repo != nil {
		return s.repo.Load(name)
	}
	return store, err
}

// Load installs store as model name, with the tokenizer recorded in the snapshot.
// The model is created when it does not exist yet.
func (s *Server) Load(name string, store *stats.Store) (*bayes.Session, error) {
	tokenizer, err := s.Tokenizer(store.Tokenizer())
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", name, err)
	}
	session := s.sessionOrCreate(name, tokenizer)
	if err := session.Replace(store, tokenizer); err != nil {
		return nil, err
	}
	s.log.Info("Snapshot loaded", "model", name, "tokenizer", tokenizer.Name(), "documents", store.TotalDocs())
	return session, nil
}

// TrainEmbedded trains the built-in models on their embedded corpora
func (s *Server) TrainEmbedded(ctx context.Context) error {
	for _, name := range []string{corpus.LanguageModel, corpus.SentimentModel} {
		docs, err := corpus.Documents(name)
		if err != nil {
			return err
		}
		session, _ := s.Session(name)
		session.Reset()
		if err := session.TrainConcurrent(ctx, docs, s.config.TrainWorkers); err != nil {
			return fmt.Errorf("training %s: %w", name, err)
		}
		s.log.Info("Model trained", "model", name, "documents", len(docs))
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		logger.HandleError(fmt.Errorf("unable to marshal json: %w", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(jsonBytes); err != nil {
		logger.HandleError(fmt.Errorf("unable to write response: %w", err))
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Message: message})
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	logger.HandleError(err)
	s.fail(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.fail(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// Server route to list live sessions and saved snapshots
func (s *Server) handleApiModels(w http.ResponseWriter, r *http.Request) {
	sessions := []string{}
	for _, session := range s.Sessions() {
		sessions = append(sessions, session.Name)
	}

	snapshots, err := stats.ListSnapshots(s.config.ModelDir)
	if err != nil {
		logger.HandleError(fmt.Errorf("unable to list snapshots: %w", err))
		snapshots = []string{}
	}
	response := ModelsResponse{Sessions: sessions, Snapshots: snapshots}
	if s.repo != nil {
		if response.Stored, err = s.repo.List(); err != nil {
			logger.HandleError(fmt.Errorf("unable to list stored snapshots: %w", err))
		}
	}
	writeJSON(w, http.StatusOK, response)
}

// Server route to get the label and document counts of a model
func (s *Server) handleApiProgress(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("model")
	session, ok := s.Session(name)
	if !ok {
		s.fail(w, http.StatusNotFound, fmt.Sprintf("Unknown model %q", name))
		return
	}
	info := session.Info()
	message := "Not Started"
	if info.TotalDocs > 0 {
		message = "Trained"
	}
	writeJSON(w, http.StatusOK, Response{Message: message, Data: info})
}

// Server route to train a model on posted documents or on its embedded corpus
func (s *Server) handleApiTrain(w http.ResponseWriter, r *http.Request) {
	var req TrainRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Model == "" {
		s.fail(w, http.StatusBadRequest, "Missing model name")
		return
	}

	docs := req.Documents
	if req.Embedded {
		embedded, err := corpus.Documents(req.Model)
		if err != nil {
			s.fail(w, http.StatusBadRequest, err.Error())
			return
		}
		docs = append(embedded, docs...)
	}

	name := req.Tokenizer
	if name == "" {
		name = lexer.PlainName
	}
	tokenizer, err := s.Tokenizer(name)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	session := s.sessionOrCreate(req.Model, tokenizer)
	if current := session.Info().Tokenizer; req.Tokenizer != "" && current != req.Tokenizer {
		s.fail(w, http.StatusBadRequest, fmt.Sprintf("Model %q uses the %s tokenizer", req.Model, current))
		return
	}
	if req.Reset {
		session.Reset()
	}
	if err := session.TrainConcurrent(r.Context(), docs, s.config.TrainWorkers); err != nil {
		s.internalError(w, err)
		return
	}

	elapsed := time.Since(start)
	s.log.Info("Model trained", "model", req.Model, "documents", len(docs), "elapsed_ms", elapsed.Milliseconds())
	writeJSON(w, http.StatusOK, Response{
		Message: fmt.Sprintf("Trained %d documents in %d Ms", len(docs), elapsed.Milliseconds()),
		Data:    session.Info(),
	})
}

// Server route to classify a text
func (s *Server) handleApiClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !s.decode(w, r, &req) {
		return
	}
	session, ok := s.Session(req.Model)
	if !ok {
		s.fail(w, http.StatusNotFound, fmt.Sprintf("Unknown model %q", req.Model))
		return
	}

	response := ClassifyResponse{Result: session.Classify(req.Text)}
	if req.Model == corpus.LanguageModel {
		response.Reference, response.Confidence = util.ReferenceLanguage(req.Text)
	}
	s.log.Debug("Classified", "model", req.Model, "status", response.Status, "winner", response.Winner.Label)
	writeJSON(w, http.StatusOK, response)
}

// Server route to clear every counter of a model
func (s *Server) handleApiReset(w http.ResponseWriter, r *http.Request) {
	var req ModelRequest
	if !s.decode(w, r, &req) {
		return
	}
	session, ok := s.Session(req.Model)
	if !ok {
		s.fail(w, http.StatusNotFound, fmt.Sprintf("Unknown model %q", req.Model))
		return
	}
	session.Reset()
	writeJSON(w, http.StatusOK, Response{Message: "Model reset", Data: session.Info()})
}

// Server route to measure accuracy on a model's embedded corpus
func (s *Server) handleApiEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !s.decode(w, r, &req) {
		return
	}
	docs, err := corpus.Documents(req.Model)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := s.EvaluationOptions(req.Model)
	if req.SplitRatio != nil {
		opts.SplitRatio = *req.SplitRatio
	}
	if req.Threshold != nil {
		opts.Threshold = *req.Threshold
	}
	if req.Seed != nil {
		opts.Rand = rand.New(rand.NewSource(*req.Seed))
	}

	report, err := eval.Evaluate(corpus.Pools(docs), opts)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: fmt.Sprintf("Accuracy %s", report), Data: report})
}

// Server route to save a model snapshot to the model directory and, when configured, badger
func (s *Server) handleApiSave(w http.ResponseWriter, r *http.Request) {
	var req ModelRequest
	if !s.decode(w, r, &req) {
		return
	}
	session, ok := s.Session(req.Model)
	if !ok {
		s.fail(w, http.StatusNotFound, fmt.Sprintf("Unknown model %q", req.Model))
		return
	}

	err := session.View(func(store *stats.Store) error {
		if err := stats.SaveSnapshot(s.fileOps, s.config.ModelDir, req.Model, store); err != nil {
			return err
		}
		if s.repo != nil {
			return s.repo.Save(req.Model, store)
		}
		return nil
	})
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "Snapshot saved", Data: session.Info()})
}

// Server route to replace a model with its saved snapshot
func (s *Server) handleApiLoad(w http.ResponseWriter, r *http.Request) {
	var req ModelRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Model == "" {
		s.fail(w, http.StatusBadRequest, "Missing model name")
		return
	}

	store, err := s.LoadSnapshot(req.Model)
	if errors.Is(err, stats.ErrSnapshotNotFound) {
		s.fail(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}

	session, err := s.Load(req.Model, store)
	if err != nil {
		s.fail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "Snapshot loaded", Data: session.Info()})
}

// Server route to delete a saved snapshot from the model directory and badger.
// The live model is left as it is.
func (s *Server) handleApiDelete(w http.ResponseWriter, r *http.Request) {
	var req ModelRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Model == "" {
		s.fail(w, http.StatusBadRequest, "Missing model name")
		return
	}

	found := false
	err := stats.DeleteSnapshot(s.config.ModelDir, req.Model)
	if err == nil {
		found = true
	} else if !errors.Is(err, stats.ErrSnapshotNotFound) {
		s.internalError(w, err)
		return
	}
	if s.repo != nil {
		err = s.repo.Delete(req.Model)
		if err == nil {
			found = true
		} else if !errors.Is(err, stats.ErrSnapshotNotFound) {
			s.internalError(w, err)
			return
		}
	}

	if !found {
		s.fail(w, http.StatusNotFound, fmt.Sprintf("No snapshot named %q", req.Model))
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "Snapshot deleted"})
}

// Handler routes requests
func (s *Server) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("Request", "method", r.Method, "path", r.URL.Path)
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/models":
			s.handleApiModels(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/api/progress":
			s.handleApiProgress(w, r)
		case r.Method == http.MethodPost && r.URL.Path == "/api/train":
			s.handleApiTrain(w, r)
		case r.Method == http.MethodPost && r.URL.Path == "/api/classify":
			s.handleApiClassify(w, r)
		case r.Method == http.MethodPost && r.URL.Path == "/api/reset":
			s.handleApiReset(w, r)
		case r.Method == http.MethodPost && r.URL.Path == "/api/evaluate":
			s.handleApiEvaluate(w, r)
		case r.Method == http.MethodPost && r.URL.Path == "/api/save":
			s.handleApiSave(w, r)
		case r.Method == http.MethodPost && r.URL.Path == "/api/load":
			s.handleApiLoad(w, r)
		case r.Method == http.MethodPost && r.URL.Path == "/api/delete":
			s.handleApiDelete(w, r)
		default:
			s.fail(w, http.StatusNotFound, "404 Not Found")
		}
	}
}

// Serve listens on the configured address until ctx is cancelled
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Listening", "address", srv.Addr)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}
