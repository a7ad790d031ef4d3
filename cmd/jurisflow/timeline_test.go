package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/jurisflow/internal/domain/entities"
)

func sampleEntries() []entities.TimelineEntry {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return []entities.TimelineEntry{
		{
			ID:          "3f1c9a2e-0000-4000-8000-000000000001",
			CaseID:      "case-1",
			EventDate:   day,
			EventType:   "Despacho",
			Description: "Despacho judicial determinando nova data de audiência | urgente",
			Source:      entities.SourceEnriched,
			Version:     2,
			EnrichmentHistory: []entities.HistoryRecord{
				{Description: "Despacho judicial determinando nova data", Source: entities.SourceOfficial},
			},
		},
		{
			ID:             "e2",
			CaseID:         "case-1",
			EventDate:      day.AddDate(0, 0, 2),
			EventType:      "Audiência",
			Description:    "Audiência de conciliação realizada",
			Source:         entities.SourceDocument,
			RelatedEntryID: "3f1c9a2e-0000-4000-8000-000000000001",
			Version:        1,
		},
	}
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, formatJSON(&buf, sampleEntries()))

	var parsed []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))

	require.Len(t, parsed, 2)
	assert.Equal(t, "enriched", parsed[0]["source"])
	assert.Len(t, parsed[0]["enrichment_history"], 1)
	assert.Equal(t, "3f1c9a2e-0000-4000-8000-000000000001", parsed[1]["related_entry_id"])
}

func TestFormatCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, formatCSV(&buf, sampleEntries()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "event_date", rows[0][2])
	assert.Equal(t, "2024-03-01", rows[1][2])
	assert.Equal(t, "1", rows[1][7])
	assert.Equal(t, "0", rows[2][7])
}

func TestFormatMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, formatMarkdown(&buf, sampleEntries()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# Timeline: case-1"))
	assert.Contains(t, out, `audiência \| urgente`)
	assert.Equal(t, 4, strings.Count(out, "\n|"))
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, formatTimeline(&buf, "table", sampleEntries()))

	out := buf.String()
	assert.Contains(t, out, "DATE")
	assert.Contains(t, out, "3f1c9a2e ")
	assert.Contains(t, out, "(related to 3f1c9a2e)")
}

func TestFormatTimeline_Unknown(t *testing.T) {
	err := formatTimeline(&bytes.Buffer{}, "xml", sampleEntries())
	assert.ErrorContains(t, err, "unknown format")
}

func TestWriteOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.csv")

	err := writeOutput(path, func(w io.Writer) error {
		return formatCSV(w, sampleEntries())
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "id,case_id,event_date"))
}

func TestContainsAndRedact(t *testing.T) {
	assert.True(t, contains(validFormats, "markdown"))
	assert.False(t, contains(validFormats, "xml"))
	assert.Equal(t, "", redact(""))
	assert.Equal(t, "********", redact("sk-live"))
}
