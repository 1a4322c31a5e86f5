// Package llm wraps the OpenAI-compatible chat model used for token analysis.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/tokenscope/internal/logging"
)

// ProviderName identifies the model provider in errors and logs.
const ProviderName = "model"

// Sampling policy. These are fixed and not tunable per request.
const (
	Temperature  float32 = 0.7
	MaxTokens            = 1000
	DefaultModel         = "gpt-4"
	DefaultURL           = "https://api.openai.com/v1"
)

// ChatGenerator is the subset of an eino chat model the client needs.
type ChatGenerator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Config configures the model provider.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client sends a system and user message pair and returns the completion text.
type Client struct {
	generator ChatGenerator
	model     string
	logger    logrus.FieldLogger
}

// NewClient builds an OpenAI chat model client.
func NewClient(ctx context.Context, cfg Config, logger logrus.FieldLogger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	maxTokens := MaxTokens
	temperature := Temperature
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Timeout:     cfg.Timeout,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, err
	}

	return NewClientWithGenerator(chatModel, cfg.Model, logger), nil
}

// NewClientWithGenerator wraps an existing generator.
func NewClientWithGenerator(generator ChatGenerator, modelName string, logger logrus.FieldLogger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		generator: generator,
		model:     modelName,
		logger:    logging.WithComponent(logger, "llm"),
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Complete runs one inference. Provider errors are returned unchanged. An
// empty completion is not an error and yields "".
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.generator == nil {
		return "", errors.New("chat model is not initialized")
	}

	start := time.Now()
	msg, err := c.generator.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	})
	log := c.logger.WithFields(logrus.Fields{
		"model":       c.model,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		log.WithError(err).Warn("Inference failed")
		return "", err
	}
	if msg == nil {
		log.Warn("Inference returned no message")
		return "", nil
	}

	log.WithField("chars", len(msg.Content)).Debug("Inference completed")
	return msg.Content, nil
}
