package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ersonp/jurisflow/internal/domain/entities"
	"github.com/ersonp/jurisflow/internal/domain/ports"
)

// DefaultRetryBackoff is the base delay between generation attempts.
// Attempt n waits n times this value.
const DefaultRetryBackoff = 250 * time.Millisecond

// EnrichmentResult is the outcome of one enrichment.
type EnrichmentResult struct {
	Description  string
	WasChanged   bool
	CostIncurred decimal.Decimal
	Outcome      entities.EnrichmentOutcome
	Attempts     int
	Reason       string
}

// EnrichmentEngine merges contextual detail into a base timeline description
// through a text-generation backend.
//
// Failures never escape: after the configured attempts the base description
// is returned unchanged and nothing is charged.
type EnrichmentEngine struct {
	generator ports.TextGenerator
	ledger    ports.CreditLedger
	cfg       entities.TimelineConfig
	logger    *slog.Logger
	backoff   time.Duration
}

// EnrichmentOption configures an EnrichmentEngine.
type EnrichmentOption func(*EnrichmentEngine)

// WithEnrichmentLogger sets the logger.
func WithEnrichmentLogger(logger *slog.Logger) EnrichmentOption {
	return func(e *EnrichmentEngine) {
		e.logger = logger
	}
}

// WithRetryBackoff sets the base delay between attempts. Zero disables waiting.
func WithRetryBackoff(d time.Duration) EnrichmentOption {
	return func(e *EnrichmentEngine) {
		e.backoff = d
	}
}

// NewEnrichmentEngine creates a new enrichment engine.
func NewEnrichmentEngine(generator ports.TextGenerator, ledger ports.CreditLedger, cfg entities.TimelineConfig, opts ...EnrichmentOption) *EnrichmentEngine {
	e := &EnrichmentEngine{
		generator: generator,
		ledger:    ledger,
		cfg:       cfg,
		logger:    slog.Default(),
		backoff:   DefaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich asks the backend to fold contextualText into base.Description.
// A changed description debits exactly the configured credit cost from the
// case account; every other outcome costs nothing.
func (e *EnrichmentEngine) Enrich(ctx context.Context, base entities.TimelineEntry, contextualText, sourceDocumentName string) EnrichmentResult {
	result := EnrichmentResult{
		Description:  base.Description,
		CostIncurred: decimal.Zero,
		Outcome:      entities.EnrichmentUnchanged,
	}

	contextualText = strings.TrimSpace(contextualText)
	if contextualText == "" || Score(contextualText, base.Description) == 1 {
		result.Outcome = entities.EnrichmentSkipped
		result.Reason = "no contextual information"
		return result
	}

	prompt := BuildEnrichmentPrompt(e.cfg.PromptVariant, base, contextualText, sourceDocumentName)

	raw, attempts, err := e.generateWithRetry(ctx, prompt)
	result.Attempts = attempts
	if err != nil {
		return e.fail(result, base, err)
	}

	candidate, err := sanitizeGenerated(raw)
	if err != nil {
		return e.fail(result, base, err)
	}
	if !plausiblyDerived(candidate, base.Description, contextualText) {
		return e.fail(result, base, errors.New("generated description is not derived from its inputs"))
	}

	candidate = TruncateDescription(candidate, entities.MaxDescriptionLength)
	if normalizeText(candidate) == normalizeText(base.Description) {
		result.Reason = "backend kept the base description"
		return result
	}

	reason := fmt.Sprintf("timeline enrichment of entry %s", base.ID)
	if err := e.ledger.Debit(ctx, base.CaseID, e.cfg.EnrichmentCreditCost, reason); err != nil {
		return e.fail(result, base, fmt.Errorf("debiting credits: %w", err))
	}

	result.Description = candidate
	result.WasChanged = true
	result.CostIncurred = e.cfg.EnrichmentCreditCost
	result.Outcome = entities.EnrichmentChanged
	return result
}

func (e *EnrichmentEngine) fail(result EnrichmentResult, base entities.TimelineEntry, err error) EnrichmentResult {
	e.logger.Warn("Enrichment failed, keeping base description",
		"case_id", base.CaseID,
		"entry_id", base.ID,
		"attempts", result.Attempts,
		"error", err)

	result.Outcome = entities.EnrichmentFailed
	result.Reason = err.Error()
	return result
}

// generateWithRetry calls the backend up to MaxEnrichmentRetries times, each
// call bounded by EnrichmentTimeout. Only transient failures are retried.
func (e *EnrichmentEngine) generateWithRetry(ctx context.Context, prompt string) (string, int, error) {
	maxAttempts := e.cfg.MaxEnrichmentRetries
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", attempt - 1, err
		}

		callCtx, cancel := context.WithTimeout(ctx, e.cfg.EnrichmentTimeout)
		out, err := e.generator.Generate(callCtx, prompt, e.cfg.Model)
		cancel()
		if err == nil {
			return out, attempt, nil
		}

		lastErr = err
		if !isTransient(ctx, err) {
			return "", attempt, err
		}

		e.logger.Debug("Generation attempt failed",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", err)

		if attempt < maxAttempts && e.backoff > 0 {
			select {
			case <-ctx.Done():
				return "", attempt, ctx.Err()
			case <-time.After(e.backoff * time.Duration(attempt)):
			}
		}
	}

	return "", maxAttempts, fmt.Errorf("giving up after %d attempts: %w", maxAttempts, lastErr)
}

// isTransient reports whether err is worth another attempt. A cancelled
// parent context is never retried.
func isTransient(parent context.Context, err error) bool {
	if parent.Err() != nil {
		return false
	}
	return errors.Is(err, entities.ErrTransientGeneration) || errors.Is(err, context.DeadlineExceeded)
}
