package entities

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimelineConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *TimelineConfig)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "defaults are valid",
			modify: func(c *TimelineConfig) {},
		},
		{
			name:    "related equal to enrichment",
			modify:  func(c *TimelineConfig) { c.RelatedThreshold = c.EnrichmentThreshold },
			wantErr: true,
			errMsg:  "must be greater than related threshold",
		},
		{
			name: "related above enrichment",
			modify: func(c *TimelineConfig) {
				c.RelatedThreshold = 0.9
				c.EnrichmentThreshold = 0.8
			},
			wantErr: true,
			errMsg:  "must be greater than related threshold",
		},
		{
			name:    "enrichment above one",
			modify:  func(c *TimelineConfig) { c.EnrichmentThreshold = 1.2 },
			wantErr: true,
			errMsg:  "outside [0,1]",
		},
		{
			name:    "negative related",
			modify:  func(c *TimelineConfig) { c.RelatedThreshold = -0.1 },
			wantErr: true,
			errMsg:  "outside [0,1]",
		},
		{
			name:    "negative proximity",
			modify:  func(c *TimelineConfig) { c.DateProximityDays = -1 },
			wantErr: true,
			errMsg:  "date proximity",
		},
		{
			name:   "zero proximity allowed",
			modify: func(c *TimelineConfig) { c.DateProximityDays = 0 },
		},
		{
			name:    "zero cost",
			modify:  func(c *TimelineConfig) { c.EnrichmentCreditCost = decimal.Zero },
			wantErr: true,
			errMsg:  "credit cost",
		},
		{
			name:    "empty model",
			modify:  func(c *TimelineConfig) { c.Model = " " },
			wantErr: true,
			errMsg:  "model",
		},
		{
			name:    "zero retries",
			modify:  func(c *TimelineConfig) { c.MaxEnrichmentRetries = 0 },
			wantErr: true,
			errMsg:  "retries",
		},
		{
			name:    "zero timeout",
			modify:  func(c *TimelineConfig) { c.EnrichmentTimeout = 0 },
			wantErr: true,
			errMsg:  "timeout",
		},
		{
			name:    "unknown prompt variant",
			modify:  func(c *TimelineConfig) { c.PromptVariant = "poetic" },
			wantErr: true,
			errMsg:  "prompt variant",
		},
		{
			name:    "input length below description cap",
			modify:  func(c *TimelineConfig) { c.MaxInputLength = 100 },
			wantErr: true,
			errMsg:  "max input length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTimelineConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrConfiguration)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSource_CanTransitionTo(t *testing.T) {
	assert.True(t, SourceOfficial.CanTransitionTo(SourceEnriched))
	assert.True(t, SourceDocument.CanTransitionTo(SourceEnriched))
	assert.True(t, SourceEnriched.CanTransitionTo(SourceEnriched))
	assert.False(t, SourceOfficial.CanTransitionTo(SourceDocument))
	assert.False(t, SourceDocument.CanTransitionTo(SourceOfficial))
	assert.False(t, SourceEnriched.CanTransitionTo(SourceOfficial))
	assert.False(t, Source("manual").CanTransitionTo(SourceEnriched))
}

func TestSortTimeline(t *testing.T) {
	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	c1 := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	c2 := c1.Add(time.Minute)

	entries := []TimelineEntry{
		{ID: "c", EventDate: d2, CreatedAt: c1},
		{ID: "b", EventDate: d1, CreatedAt: c2},
		{ID: "a", EventDate: d1, CreatedAt: c1},
	}

	SortTimeline(entries)

	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, "b", entries[1].ID)
	assert.Equal(t, "c", entries[2].ID)
}

func TestTimelineEntry_Clone(t *testing.T) {
	original := TimelineEntry{
		ID:                "e1",
		EnrichmentHistory: []HistoryRecord{{Description: "Despacho"}},
	}

	clone := original.Clone()
	clone.EnrichmentHistory[0].Description = "changed"
	clone.EnrichmentHistory = append(clone.EnrichmentHistory, HistoryRecord{Description: "x"})

	assert.Equal(t, "Despacho", original.EnrichmentHistory[0].Description)
	assert.Len(t, original.EnrichmentHistory, 1)
}

func TestEventObservation_Validate(t *testing.T) {
	valid := EventObservation{
		CaseID:      "case-1",
		EventDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description: "Juntada de Petição",
		Source:      SourceOfficial,
	}

	tests := []struct {
		name   string
		modify func(o *EventObservation)
		errMsg string
	}{
		{name: "valid", modify: func(o *EventObservation) {}},
		{name: "blank case", modify: func(o *EventObservation) { o.CaseID = "  " }, errMsg: "case id"},
		{name: "zero date", modify: func(o *EventObservation) { o.EventDate = time.Time{} }, errMsg: "event date"},
		{name: "blank description", modify: func(o *EventObservation) { o.Description = "\n\t" }, errMsg: "description"},
		{name: "enriched source", modify: func(o *EventObservation) { o.Source = SourceEnriched }, errMsg: "unsupported source"},
		{name: "missing source", modify: func(o *EventObservation) { o.Source = "" }, errMsg: "unsupported source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := valid
			tt.modify(&obs)

			err := obs.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidObservation)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestEventObservation_Sanitize(t *testing.T) {
	obs := EventObservation{
		CaseID:         " case-1 ",
		Description:    "  Sentença\xff proferida  ",
		ContextualText: "abcdefghij",
	}

	got := obs.Sanitize(5)

	assert.Equal(t, "case-1", got.CaseID)
	assert.Equal(t, "Sente", got.Description)
	assert.Equal(t, "abcde", got.ContextualText)
	assert.Equal(t, "  Sentença\xff proferida  ", obs.Description, "original must be untouched")
}
