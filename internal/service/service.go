// Package service assembles the pipeline components from configuration and
// exposes one facade to the CLI, the TUI and the HTTP server.
package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"ragbot/internal/chat"
	"ragbot/internal/chunker"
	"ragbot/internal/config"
	"ragbot/internal/domain"
	"ragbot/internal/embedding"
	"ragbot/internal/embedding/hashing"
	embopenai "ragbot/internal/embedding/openai"
	"ragbot/internal/indexer"
	"ragbot/internal/retriever"
)

// ErrLLMNotConfigured is returned by Ask when no chat-completion API key is
// available; retrieval still works without one.
var ErrLLMNotConfigured = errors.New("LLM not configured (set the chat API key)")

// Service wires the build and query pipelines. The loaded store is swapped
// atomically after a successful rebuild; reads in flight keep the
// generation they started with.
type Service struct {
	cfg      *config.AppConfig
	embedder embedding.Embedder
	builder  *indexer.Builder

	mu    sync.RWMutex
	store *retriever.Store
	retr  *retriever.Retriever
	bot   *chat.Bot
}

// New builds a service from configuration. A missing index is not an
// error: retrieval stays unavailable until the first Build.
func New(cfg *config.AppConfig) (*Service, error) {
	emb, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	ch, err := chunker.New(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	s := &Service{
		cfg:      cfg,
		embedder: emb,
		builder:  indexer.NewBuilder(ch, emb, cfg.Paths.IndexDir, cfg.Paths.ContentFile, cfg.Embedder.BatchSize),
	}
	if err := s.reload(); err != nil && !errors.Is(err, indexer.ErrIndexNotFound) {
		return nil, err
	}
	return s, nil
}

func newEmbedder(cfg config.EmbedderConfig) (embedding.Embedder, error) {
	switch cfg.Type {
	case "hashing", "":
		dim := 0
		if cfg.Hashing != nil {
			dim = cfg.Hashing.Dimension
		}
		return hashing.New(dim), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, errors.New("openai embedder config missing")
		}
		return embopenai.New(embopenai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

// reload opens the persisted store and rebuilds the query-side components
// on top of it.
func (s *Service) reload() error {
	store, err := retriever.OpenStore(s.cfg.Paths.IndexDir, s.embedder)
	if err != nil {
		return err
	}
	retr := retriever.New(s.embedder, store, s.cfg.Retrieval.TopK)

	var bot *chat.Bot
	b, err := chat.NewBot(chat.Config{
		BaseURL:      s.cfg.LLM.BaseURL,
		APIKeyEnv:    s.cfg.LLM.APIKeyEnv,
		Model:        s.cfg.LLM.Model,
		Temperature:  s.cfg.LLM.Temperature,
		MaxTokens:    s.cfg.LLM.MaxTokens,
		Timeout:      time.Duration(s.cfg.LLM.TimeoutSecs) * time.Second,
		SystemPrompt: s.cfg.LLM.SystemPrompt,
	}, retr)
	if err == nil {
		bot = b
	}

	s.mu.Lock()
	s.store, s.retr, s.bot = store, retr, bot
	s.mu.Unlock()
	return nil
}

// Build runs the indexing pipeline and, on success, swaps in the new
// generation for queries.
func (s *Service) Build(contentPath string) (*indexer.Stats, error) {
	stats, err := s.builder.Build(contentPath)
	if err != nil {
		return nil, err
	}
	if err := s.reload(); err != nil {
		return nil, fmt.Errorf("reloading rebuilt index: %w", err)
	}
	return stats, nil
}

// Retrieve returns ranked chunks for the query.
func (s *Service) Retrieve(query string, topK int) ([]domain.RetrievalResult, error) {
	s.mu.RLock()
	retr := s.retr
	s.mu.RUnlock()
	if retr == nil {
		return nil, fmt.Errorf("%w: %s", indexer.ErrIndexNotFound, s.cfg.Paths.IndexDir)
	}
	return retr.Retrieve(query, topK)
}

// Ask answers the query through the full RAG pipeline.
func (s *Service) Ask(query string) (domain.Answer, error) {
	s.mu.RLock()
	bot := s.bot
	retr := s.retr
	s.mu.RUnlock()
	if retr == nil {
		return domain.Answer{}, fmt.Errorf("%w: %s", indexer.ErrIndexNotFound, s.cfg.Paths.IndexDir)
	}
	if bot == nil {
		return domain.Answer{}, ErrLLMNotConfigured
	}
	return bot.Ask(query)
}

// Metadata returns the loaded build generation's metadata.
func (s *Service) Metadata() (indexer.Metadata, error) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil {
		return indexer.Metadata{}, fmt.Errorf("%w: %s", indexer.ErrIndexNotFound, s.cfg.Paths.IndexDir)
	}
	return store.Metadata(), nil
}

// Ready reports whether an index generation is loaded.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store != nil
}
