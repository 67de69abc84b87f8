package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"resumerag/internal/ai"
	"resumerag/internal/model"
	appErr "resumerag/internal/pkg/errors"
	"resumerag/internal/store"
)

const (
	answerSystemPrompt = "You are an HR assistant analyzing resumes. Be concise and factual."
	answerTemperature  = 0.7
	answerMaxTokens    = 200
	contextDelimiter   = "\n\n---\n\n"

	// Returned in place of an answer when the generative provider cannot be
	// reached. Ranked results are unaffected, so search still succeeds.
	providerDownAnswer = "The answer model is not reachable. Start the generative provider (for ollama: `ollama serve`) and retry; the ranked results above are still valid."
)

type AnswerState string

const (
	AnswerGenerated AnswerState = "generated"
	AnswerDegraded  AnswerState = "degraded"
	AnswerFailed    AnswerState = "failed"
)

// Answer is the tagged outcome of answer synthesis. Degraded means the
// provider was unreachable and Text holds instruction text; Failed means the
// provider answered with an error; Generated is a genuine model answer.
type Answer struct {
	State  AnswerState
	Text   string
	Reason string
}

type SearchOutput struct {
	Matches []model.SearchMatch
	Answer  *Answer
	Total   int
}

type Status struct {
	TotalResumes        int
	EmbeddingModel      string
	GenerativeModel     string
	GenerativeReachable bool
}

type Options struct {
	Timeout       time.Duration
	ContextChars  int
	MaxInputChars int
}

// RAGService composes the corpus, the snapshot store and the two providers
// into the public retrieval operations.
type RAGService struct {
	corpus    *store.Corpus
	snapshot  *store.Snapshot
	embedder  ai.IEmbedder
	generator ai.IGenerator
	opts      Options
}

func NewRAGService(corpus *store.Corpus, snapshot *store.Snapshot, embedder ai.IEmbedder, generator ai.IGenerator, opts Options) *RAGService {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.ContextChars <= 0 {
		opts.ContextChars = 800
	}
	return &RAGService{
		corpus:    corpus,
		snapshot:  snapshot,
		embedder:  embedder,
		generator: generator,
		opts:      opts,
	}
}

// Hydrate restores the corpus from the last snapshot. A malformed snapshot
// is logged and skipped; the service starts with an empty corpus.
func (s *RAGService) Hydrate(ctx context.Context) {
	state := s.snapshot.Load(ctx)
	if len(state.Resumes) == 0 {
		return
	}
	if err := s.corpus.Restore(state); err != nil {
		logutil.GetLogger(ctx).Warn("snapshot rejected, starting empty", zap.Error(err))
	}
}

// AddResume embeds the content and indexes it under the given id. The
// embedding happens before the corpus lock is taken; on provider failure
// nothing is indexed. Returns whether the mutation reached the snapshot.
func (s *RAGService) AddResume(ctx context.Context, id, filename, content string) (bool, error) {
	content = strings.TrimSpace(content)
	if id == "" || content == "" {
		return false, appErr.ErrInvalid
	}
	if s.opts.MaxInputChars > 0 && len(content) > s.opts.MaxInputChars {
		return false, appErr.ErrInvalid
	}
	logger := logutil.GetLogger(ctx).With(zap.String("resume_id", id), zap.String("filename", filename))
	embedding, err := s.embed(ctx, content)
	if err != nil {
		logger.Error("failed to embed resume", zap.Error(err))
		return false, err
	}
	if err := s.corpus.Insert(model.Resume{ID: id, Filename: filename, Content: content}, embedding); err != nil {
		return false, err
	}
	durable := s.persist(ctx)
	logger.Info("resume indexed", zap.Int("total", s.corpus.Size()), zap.Bool("durable", durable))
	return durable, nil
}

// Search ranks the corpus against the query and optionally synthesizes an
// answer over the top hits. Provider trouble during answer generation never
// fails the search itself.
func (s *RAGService) Search(ctx context.Context, query string, topK int, wantAnswer bool) (*SearchOutput, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, appErr.ErrInvalid
	}
	if topK < 1 {
		topK = 1
	}
	total := s.corpus.Size()
	if total == 0 {
		return &SearchOutput{Total: 0}, nil
	}
	logger := logutil.GetLogger(ctx).With(zap.String("query", query), zap.Int("top_k", topK))
	queryEmbedding, err := s.embed(ctx, query)
	if err != nil {
		logger.Error("failed to embed query", zap.Error(err))
		return nil, err
	}
	matches := s.corpus.Rank(queryEmbedding, topK)
	out := &SearchOutput{Matches: matches, Total: total}
	if wantAnswer && len(matches) > 0 {
		out.Answer = s.generateAnswer(ctx, query, matches)
		logger.Info("search served", zap.Int("results", len(matches)), zap.String("answer_state", string(out.Answer.State)))
		return out, nil
	}
	logger.Info("search served", zap.Int("results", len(matches)))
	return out, nil
}

// DeleteResume removes the resume and its embedding. The second return
// reports snapshot durability and is only meaningful when found is true.
func (s *RAGService) DeleteResume(ctx context.Context, id string) (found bool, durable bool) {
	if !s.corpus.Remove(id) {
		return false, true
	}
	durable = s.persist(ctx)
	logutil.GetLogger(ctx).Info("resume deleted",
		zap.String("resume_id", id),
		zap.Int("total", s.corpus.Size()),
		zap.Bool("durable", durable),
	)
	return true, durable
}

func (s *RAGService) ListResumes(ctx context.Context) []model.Resume {
	_ = ctx
	return s.corpus.All()
}

func (s *RAGService) Status(ctx context.Context) *Status {
	probeCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	return &Status{
		TotalResumes:        s.corpus.Size(),
		EmbeddingModel:      s.embedder.ModelName(),
		GenerativeModel:     s.generator.ModelName(),
		GenerativeReachable: s.generator.Available(probeCtx),
	}
}

// ListModels returns the generative provider's model list, or an empty list
// when the provider cannot answer.
func (s *RAGService) ListModels(ctx context.Context) []string {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	models, err := s.generator.ListModels(callCtx)
	if err != nil {
		logutil.GetLogger(ctx).Warn("failed to list models", zap.Error(err))
		return []string{}
	}
	return models
}

// SaveSnapshot forces a full snapshot write. Used by the periodic job and
// the shutdown path.
func (s *RAGService) SaveSnapshot(ctx context.Context) error {
	return s.snapshot.Save(ctx, s.corpus.State())
}

func (s *RAGService) embed(ctx context.Context, text string) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	return s.embedder.Embed(callCtx, text)
}

// persist writes the snapshot after a mutation. A failed write leaves the
// in-memory corpus authoritative and is reported as degraded durability.
func (s *RAGService) persist(ctx context.Context) bool {
	if err := s.snapshot.Save(ctx, s.corpus.State()); err != nil {
		logutil.GetLogger(ctx).Error("snapshot save failed, in-memory state only", zap.Error(err))
		return false
	}
	return true
}

func (s *RAGService) generateAnswer(ctx context.Context, query string, matches []model.SearchMatch) *Answer {
	logger := logutil.GetLogger(ctx)
	probeCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	available := s.generator.Available(probeCtx)
	cancel()
	if !available {
		logger.Warn("generative provider unreachable, answer degraded")
		return &Answer{State: AnswerDegraded, Text: providerDownAnswer, Reason: "generative provider unreachable"}
	}
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	text, err := s.generator.Complete(callCtx, answerSystemPrompt, s.buildPrompt(query, matches), ai.GenerateOptions{
		Temperature:     answerTemperature,
		MaxOutputTokens: answerMaxTokens,
	})
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			logger.Warn("generative call unreachable mid-flight", zap.Error(err))
			return &Answer{State: AnswerDegraded, Text: providerDownAnswer, Reason: err.Error()}
		}
		logger.Error("answer generation failed", zap.Error(err))
		return &Answer{
			State:  AnswerFailed,
			Text:   fmt.Sprintf("Error generating answer: %v", err),
			Reason: err.Error(),
		}
	}
	return &Answer{State: AnswerGenerated, Text: text}
}

// buildPrompt assembles the bounded RAG prompt: one block per retrieved
// resume, each truncated to keep prompt size and latency in check.
func (s *RAGService) buildPrompt(query string, matches []model.SearchMatch) string {
	blocks := make([]string, 0, len(matches))
	for _, match := range matches {
		blocks = append(blocks, fmt.Sprintf("Resume: %s\n%s", match.Resume.Filename, truncateRunes(match.Resume.Content, s.opts.ContextChars)))
	}
	return fmt.Sprintf(`Based on the following resumes, answer this question: %s

Resumes:
%s

Provide a clear, concise answer based only on the information in these resumes.`, query, strings.Join(blocks, contextDelimiter))
}

func truncateRunes(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
