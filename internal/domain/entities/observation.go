package entities

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// EventObservation is one incoming procedural event, either from a court-system
// synchronization job or from the document extraction pipeline.
type EventObservation struct {
	CaseID             string    `json:"case_id"`
	EventDate          time.Time `json:"event_date"`
	EventType          string    `json:"event_type"`
	Description        string    `json:"description"`
	ContextualText     string    `json:"contextual_text,omitempty"`
	SourceDocumentName string    `json:"source_document_name,omitempty"`
	Source             Source    `json:"source"`
}

// Validate rejects observations that must never reach classification.
func (o *EventObservation) Validate() error {
	if strings.TrimSpace(o.CaseID) == "" {
		return fmt.Errorf("%w: case id is required", ErrInvalidObservation)
	}
	if o.EventDate.IsZero() {
		return fmt.Errorf("%w: event date is required", ErrInvalidObservation)
	}
	if strings.TrimSpace(o.Description) == "" {
		return fmt.Errorf("%w: description is empty", ErrInvalidObservation)
	}
	if o.Source != SourceOfficial && o.Source != SourceDocument {
		return fmt.Errorf("%w: unsupported source %q", ErrInvalidObservation, o.Source)
	}
	return nil
}

// Sanitize returns a copy with invalid UTF-8 dropped, surrounding whitespace
// trimmed and free-text fields capped at maxRunes.
func (o EventObservation) Sanitize(maxRunes int) EventObservation {
	o.CaseID = strings.TrimSpace(o.CaseID)
	o.EventType = strings.TrimSpace(cleanText(o.EventType, maxRunes))
	o.Description = cleanText(o.Description, maxRunes)
	o.ContextualText = cleanText(o.ContextualText, maxRunes)
	o.SourceDocumentName = cleanText(o.SourceDocumentName, maxRunes)
	return o
}

func cleanText(s string, maxRunes int) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	s = strings.TrimSpace(s)
	if maxRunes > 0 && utf8.RuneCountInString(s) > maxRunes {
		s = strings.TrimSpace(string([]rune(s)[:maxRunes]))
	}
	return s
}
