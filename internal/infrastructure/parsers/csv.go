package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVParser parses observations from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed observations.
// Expected columns: case_id, event_date, event_type, description,
// contextual_text, source_document_name, source.
func (p *CSVParser) Parse(r io.Reader) ([]RawObservation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}

	requiredCols := []string{"event_date", "description"}
	for _, col := range requiredCols {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to RawObservations.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawObservation, error) {
	observations := []RawObservation{}
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		observations = append(observations, RawObservation{
			CaseID:             getColumn(record, colIndex, "case_id"),
			EventDate:          getColumn(record, colIndex, "event_date"),
			EventType:          getColumn(record, colIndex, "event_type"),
			Description:        getColumn(record, colIndex, "description"),
			ContextualText:     getColumn(record, colIndex, "contextual_text"),
			SourceDocumentName: getColumn(record, colIndex, "source_document_name"),
			Source:             getColumn(record, colIndex, "source"),
			LineNum:            lineNum,
		})
	}

	return observations, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return record[idx]
	}
	return ""
}
