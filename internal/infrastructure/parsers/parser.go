// Package parsers provides parsers for importing event observations from various formats.
package parsers

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/ersonp/jurisflow/internal/domain/entities"
)

// dateLayouts are the accepted event date formats, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02/01/2006 15:04",
}

// RawObservation represents an observation parsed from an external source before validation.
type RawObservation struct {
	CaseID             string `json:"case_id"`
	EventDate          string `json:"event_date"`
	EventType          string `json:"event_type,omitempty"`
	Description        string `json:"description"`
	ContextualText     string `json:"contextual_text,omitempty"`
	SourceDocumentName string `json:"source_document_name,omitempty"`
	Source             string `json:"source,omitempty"`
	LineNum            int    `json:"-"` // Line number in source file (set by parser)
}

// ToObservation converts the raw record. defaultCaseID fills a missing case
// id; a missing source is "document" when a document name is present and
// "official" otherwise. Dates are read in loc when they carry no offset.
func (r RawObservation) ToObservation(defaultCaseID string, loc *time.Location) (entities.EventObservation, error) {
	caseID := strings.TrimSpace(r.CaseID)
	if caseID == "" {
		caseID = defaultCaseID
	}

	date, err := ParseEventDate(r.EventDate, loc)
	if err != nil {
		return entities.EventObservation{}, fmt.Errorf("line %d: %w", r.LineNum, err)
	}

	source := entities.Source(strings.ToLower(strings.TrimSpace(r.Source)))
	if source == "" {
		source = entities.SourceOfficial
		if strings.TrimSpace(r.SourceDocumentName) != "" {
			source = entities.SourceDocument
		}
	}

	return entities.EventObservation{
		CaseID:             caseID,
		EventDate:          date,
		EventType:          r.EventType,
		Description:        r.Description,
		ContextualText:     r.ContextualText,
		SourceDocumentName: r.SourceDocumentName,
		Source:             source,
	}, nil
}

// ParseEventDate parses s with the first matching layout.
func ParseEventDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: event date is required", entities.ErrInvalidObservation)
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized event date %q", entities.ErrInvalidObservation, s)
}

// Parser defines the interface for parsing observations from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawObservation, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	return ForFormat(strings.TrimPrefix(filepath.Ext(filename), "."))
}
