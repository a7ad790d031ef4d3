package parsers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses observations from JSON: an array of objects or a single object.
type JSONParser struct{}

// Parse reads JSON from the reader and returns parsed observations.
func (p *JSONParser) Parse(r io.Reader) ([]RawObservation, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	var observations []RawObservation
	decoder := json.NewDecoder(br)

	if first == '{' {
		var single RawObservation
		if err := decoder.Decode(&single); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
		observations = []RawObservation{single}
	} else if err := decoder.Decode(&observations); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	// Set line numbers (array index + 1, 1-indexed)
	for i := range observations {
		observations[i].LineNum = i + 1
	}

	return observations, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = br.ReadByte()
		default:
			return b[0], nil
		}
	}
}
