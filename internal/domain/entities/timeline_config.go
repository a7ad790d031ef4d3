package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PromptVariant selects the instruction wording used by the enrichment engine.
type PromptVariant string

const (
	PromptStandard PromptVariant = "standard"
	PromptConcise  PromptVariant = "concise"
	PromptFormal   PromptVariant = "formal"
)

// PromptVariants lists the supported variants.
var PromptVariants = []PromptVariant{PromptStandard, PromptConcise, PromptFormal}

// IsValid reports whether v is a supported prompt variant.
func (v PromptVariant) IsValid() bool {
	for _, known := range PromptVariants {
		if v == known {
			return true
		}
	}
	return false
}

// TimelineConfig is the process-wide engine configuration. It is built once at
// startup and passed by value; nothing mutates it afterwards.
type TimelineConfig struct {
	EnrichmentThreshold  float64
	RelatedThreshold     float64
	DateProximityDays    int
	EnrichmentCreditCost decimal.Decimal
	Model                string
	MaxEnrichmentRetries int
	EnrichmentTimeout    time.Duration
	PromptVariant        PromptVariant
	MaxInputLength       int
}

// DefaultTimelineConfig returns the production defaults.
func DefaultTimelineConfig() TimelineConfig {
	return TimelineConfig{
		EnrichmentThreshold:  0.85,
		RelatedThreshold:     0.70,
		DateProximityDays:    3,
		EnrichmentCreditCost: decimal.NewFromInt(1),
		Model:                "gpt-4o-mini",
		MaxEnrichmentRetries: 3,
		EnrichmentTimeout:    15 * time.Second,
		PromptVariant:        PromptStandard,
		MaxInputLength:       4000,
	}
}

// Validate checks the configuration invariants. Every violation wraps ErrConfiguration.
func (c TimelineConfig) Validate() error {
	if c.EnrichmentThreshold < 0 || c.EnrichmentThreshold > 1 {
		return fmt.Errorf("%w: enrichment threshold %.2f outside [0,1]", ErrConfiguration, c.EnrichmentThreshold)
	}
	if c.RelatedThreshold < 0 || c.RelatedThreshold > 1 {
		return fmt.Errorf("%w: related threshold %.2f outside [0,1]", ErrConfiguration, c.RelatedThreshold)
	}
	if c.EnrichmentThreshold <= c.RelatedThreshold {
		return fmt.Errorf("%w: enrichment threshold %.2f must be greater than related threshold %.2f",
			ErrConfiguration, c.EnrichmentThreshold, c.RelatedThreshold)
	}
	if c.DateProximityDays < 0 {
		return fmt.Errorf("%w: date proximity days must be >= 0", ErrConfiguration)
	}
	if !c.EnrichmentCreditCost.IsPositive() {
		return fmt.Errorf("%w: enrichment credit cost must be > 0", ErrConfiguration)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: model is required", ErrConfiguration)
	}
	if c.MaxEnrichmentRetries < 1 {
		return fmt.Errorf("%w: max enrichment retries must be >= 1", ErrConfiguration)
	}
	if c.EnrichmentTimeout <= 0 {
		return fmt.Errorf("%w: enrichment timeout must be > 0", ErrConfiguration)
	}
	if !c.PromptVariant.IsValid() {
		return fmt.Errorf("%w: unknown prompt variant %q", ErrConfiguration, c.PromptVariant)
	}
	if c.MaxInputLength < MaxDescriptionLength {
		return fmt.Errorf("%w: max input length must be >= %d", ErrConfiguration, MaxDescriptionLength)
	}
	return nil
}
