package services

import (
	"time"

	"github.com/ersonp/jurisflow/internal/domain/entities"
)

var (
	day0    = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	created = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
)

func testEntry(id, description string, eventDate time.Time) entities.TimelineEntry {
	return entities.TimelineEntry{
		ID:          id,
		CaseID:      "case-1",
		EventDate:   eventDate,
		EventType:   "Andamento",
		Description: description,
		Source:      entities.SourceOfficial,
		Version:     1,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func testObservation(description string, eventDate time.Time) entities.EventObservation {
	return entities.EventObservation{
		CaseID:      "case-1",
		EventDate:   eventDate,
		EventType:   "Andamento",
		Description: description,
		Source:      entities.SourceOfficial,
	}
}

func testConfig() entities.TimelineConfig {
	cfg := entities.DefaultTimelineConfig()
	cfg.EnrichmentTimeout = time.Second
	return cfg
}
