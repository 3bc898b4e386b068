// Package chat is the LLM boundary: it forwards retrieved context and the
// user question to an OpenAI-compatible chat-completion endpoint.
package chat

import (
	"context"
	"fmt"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ragbot/internal/domain"
	"ragbot/internal/retriever"
)

// Retriever is the subset of the retrieval core the bot depends on.
type Retriever interface {
	Retrieve(query string, topK int) ([]domain.RetrievalResult, error)
}

// Config configures the chat-completion client.
type Config struct {
	BaseURL      string
	APIKeyEnv    string
	Model        string
	Temperature  float32
	MaxTokens    int
	Timeout      time.Duration
	SystemPrompt string
}

// Bot answers user queries through the RAG pipeline. Service failures
// degrade to a textual error answer; they are never retried and never
// surfaced as errors. Retrieval failures, by contrast, do propagate.
type Bot struct {
	client    *openai.Client
	retriever Retriever
	cfg       Config
}

// NewBot creates a bot. The API key is read from the configured environment
// variable and its absence is an error.
func NewBot(cfg Config, r Retriever) (*Bot, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "DEEPSEEK_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek-chat"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	cc := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	return &Bot{client: openai.NewClientWithConfig(cc), retriever: r, cfg: cfg}, nil
}

// Ask runs the query through retrieval and one chat completion.
func (b *Bot) Ask(query string) (domain.Answer, error) {
	results, err := b.retriever.Retrieve(query, 0)
	if err != nil {
		return domain.Answer{}, err
	}
	contextText, sources := retriever.FormatContext(results)

	userMessage := fmt.Sprintf(
		"Context from knowledge base:\n%s\n\nUser question: %s\n\nProvide a complete answer based on the provided context.",
		contextText, query)

	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.Timeout)
	defer cancel()
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: b.cfg.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: b.cfg.Temperature,
		MaxTokens:   b.cfg.MaxTokens,
	})
	if err != nil {
		return errorAnswer(query, err), nil
	}
	if len(resp.Choices) == 0 {
		return errorAnswer(query, fmt.Errorf("no completion returned")), nil
	}
	return domain.Answer{Text: resp.Choices[0].Message.Content, Sources: sources, Query: query}, nil
}

func errorAnswer(query string, err error) domain.Answer {
	return domain.Answer{
		Text:    "Error communicating with service: " + err.Error(),
		Sources: []string{},
		Query:   query,
	}
}
