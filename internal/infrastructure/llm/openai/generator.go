// Package openai provides a TextGenerator implementation using OpenAI.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/ersonp/jurisflow/internal/domain/entities"
	"github.com/ersonp/jurisflow/internal/infrastructure/config"
)

const systemPrompt = "Você é um assistente jurídico que redige descrições curtas e fiéis de andamentos processuais."

// Generator implements ports.TextGenerator using OpenAI chat completions.
type Generator struct {
	client  *openai.Client
	limiter *rate.Limiter
}

// NewGenerator creates a new OpenAI text generator.
func NewGenerator(cfg config.LLMConfig) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &Generator{
		client:  openai.NewClientWithConfig(clientCfg),
		limiter: limiter,
	}, nil
}

// Generate sends prompt to model and returns the first choice. The call is
// bounded by ctx; throttling, rate limiting, server and network errors wrap
// entities.ErrTransientGeneration.
func (g *Generator) Generate(ctx context.Context, prompt, model string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("waiting for rate limiter: %w", ctxErr)
		}
		return "", fmt.Errorf("%w: rate limiter: %v", entities.ErrTransientGeneration, err)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return "", classify(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response from OpenAI", entities.ErrTransientGeneration)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// classify wraps err so the enrichment engine can tell retryable failures apart.
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("calling OpenAI: %w", ctxErr)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && retryableStatus(apiErr.HTTPStatusCode) {
		return fmt.Errorf("%w: calling OpenAI: %v", entities.ErrTransientGeneration, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && retryableStatus(reqErr.HTTPStatusCode) {
		return fmt.Errorf("%w: calling OpenAI: %v", entities.ErrTransientGeneration, err)
	}

	if isNetworkError(err) {
		return fmt.Errorf("%w: calling OpenAI: %v", entities.ErrTransientGeneration, err)
	}

	return fmt.Errorf("calling OpenAI: %w", err)
}

// isNetworkError reports transport failures: refused or reset connections,
// DNS errors, timeouts and responses cut short.
func isNetworkError(err error) bool {
	var urlErr *url.Error
	var netErr net.Error
	switch {
	case errors.As(err, &urlErr), errors.As(err, &netErr):
		return true
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.ECONNREFUSED):
		return true
	}
	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
