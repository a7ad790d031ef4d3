package services

import "github.com/ersonp/jurisflow/internal/domain/entities"

// Classification is the outcome of comparing one observation with a case timeline.
type Classification struct {
	Kind entities.ClassificationKind
	// Match is the best-matching entry. It is nil for NEW.
	Match *entities.TimelineEntry
	// Score is the best similarity found, 0 for an empty timeline.
	Score float64
	// Compared is false when the timeline was empty.
	Compared bool
}

// Classify decides how candidate relates to the existing entries of its case.
//
// Every entry is scored against the candidate description and the best one is
// kept. At or above the enrichment threshold the candidate enriches it, unless
// it is an exact resend (score 1 on the same date), which is a duplicate.
// At or above the related threshold, or any positive score within the date
// proximity window, it becomes a related sibling. Anything else is new.
//
// Classify never inspects content depth; whether an enrichment actually adds
// information is decided by the enrichment engine.
func Classify(candidate entities.EventObservation, entries []entities.TimelineEntry, cfg entities.TimelineConfig) (Classification, error) {
	if err := candidate.Validate(); err != nil {
		return Classification{}, err
	}

	bestIdx := -1
	var bestScore float64
	for i := range entries {
		score := Score(candidate.Description, entries[i].Description)
		if bestIdx < 0 || betterMatch(candidate, score, &entries[i], bestScore, &entries[bestIdx]) {
			bestIdx = i
			bestScore = score
		}
	}

	if bestIdx < 0 {
		return Classification{Kind: entities.ClassNew}, nil
	}

	match := entries[bestIdx].Clone()
	result := Classification{Match: &match, Score: bestScore, Compared: true}

	switch {
	case bestScore >= cfg.EnrichmentThreshold:
		if bestScore == 1 && SameDay(candidate.EventDate, match.EventDate) {
			result.Kind = entities.ClassDuplicate
		} else {
			result.Kind = entities.ClassEnrichment
		}
	case bestScore >= cfg.RelatedThreshold,
		bestScore > 0 && IsProximate(candidate.EventDate, match.EventDate, cfg.DateProximityDays):
		result.Kind = entities.ClassRelated
	default:
		result.Kind = entities.ClassNew
		result.Match = nil
	}

	return result, nil
}

// betterMatch reports whether entry (with score) beats the current best.
// Ties go to the closer event date, then the most recently created entry,
// then the larger ID so the order is total.
func betterMatch(candidate entities.EventObservation, score float64, entry *entities.TimelineEntry, bestScore float64, best *entities.TimelineEntry) bool {
	if score != bestScore {
		return score > bestScore
	}

	dist := absDays(DaysBetween(candidate.EventDate, entry.EventDate))
	bestDist := absDays(DaysBetween(candidate.EventDate, best.EventDate))
	if dist != bestDist {
		return dist < bestDist
	}

	if !entry.CreatedAt.Equal(best.CreatedAt) {
		return entry.CreatedAt.After(best.CreatedAt)
	}
	return entry.ID > best.ID
}
