// Package export converts sessions to and from portable file formats.
//
// JSONL is the native interchange format, one session per line. JSON,
// CSV and YAML exist for spreadsheets and other tooling; only the JSON
// flavors can be imported back.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/drowselabs/drowse/internal/sleep"
)

// Format identifies an interchange format.
type Format string

const (
	FormatJSONL Format = "jsonl"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatYAML  Format = "yaml"
)

// ParseFormat resolves a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "jsonl":
		return FormatJSONL, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (available: jsonl, json, csv, yaml)", s)
	}
}

// DetectFormat guesses the format from a file extension, defaulting to
// JSONL.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSONL
	}
}

// Record is the wire form of a session. Timestamps are RFC 3339 with
// the store's millisecond precision.
type Record struct {
	ID      int64     `json:"id" yaml:"id"`
	Start   time.Time `json:"start" yaml:"start"`
	End     time.Time `json:"end" yaml:"end"`
	Quality int       `json:"quality" yaml:"quality"`
}

func toRecord(s *sleep.Session) Record {
	return Record{ID: s.ID, Start: s.Start, End: s.End, Quality: s.Quality}
}

func (r Record) session() *sleep.Session {
	// Store-assigned ids do not survive an export/import round trip;
	// the importing store hands out fresh ones.
	return &sleep.Session{Start: r.Start, End: r.End, Quality: r.Quality}
}

// Export writes sessions to w in the given format.
func Export(w io.Writer, sessions []*sleep.Session, format Format) error {
	switch format {
	case FormatJSONL:
		return exportJSONL(w, sessions)
	case FormatJSON:
		return exportJSON(w, sessions)
	case FormatCSV:
		return exportCSV(w, sessions)
	case FormatYAML:
		return exportYAML(w, sessions)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// Import reads sessions from r. Only the JSON flavors are supported.
func Import(r io.Reader, format Format) ([]*sleep.Session, error) {
	switch format {
	case FormatJSONL:
		return importJSONL(r)
	case FormatJSON:
		return importJSON(r)
	default:
		return nil, fmt.Errorf("format %q does not support import", format)
	}
}

func exportJSONL(w io.Writer, sessions []*sleep.Session) error {
	enc := json.NewEncoder(w)
	for _, s := range sessions {
		if err := enc.Encode(toRecord(s)); err != nil {
			return fmt.Errorf("failed to encode session %d: %w", s.ID, err)
		}
	}
	return nil
}

func exportJSON(w io.Writer, sessions []*sleep.Session) error {
	records := make([]Record, 0, len(sessions))
	for _, s := range sessions {
		records = append(records, toRecord(s))
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	data = append(data, '\n')

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write sessions: %w", err)
	}
	return nil
}

func exportCSV(w io.Writer, sessions []*sleep.Session) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "start", "end", "quality"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, s := range sessions {
		row := []string{
			strconv.FormatInt(s.ID, 10),
			s.Start.Format(time.RFC3339Nano),
			s.End.Format(time.RFC3339Nano),
			strconv.Itoa(s.Quality),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write session %d: %w", s.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportYAML(w io.Writer, sessions []*sleep.Session) error {
	records := make([]Record, 0, len(sessions))
	for _, s := range sessions {
		records = append(records, toRecord(s))
	}

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode sessions: %w", err)
	}
	return nil
}

func importJSONL(r io.Reader) ([]*sleep.Session, error) {
	var sessions []*sleep.Session
	decoder := json.NewDecoder(r)
	lineNum := 0

	for {
		var rec Record
		if err := decoder.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid JSON at line %d: %w", lineNum+1, err)
		}
		lineNum++

		s := rec.session()
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("invalid session at line %d: %w", lineNum, err)
		}
		sessions = append(sessions, s)
	}

	return sessions, nil
}

func importJSON(r io.Reader) ([]*sleep.Session, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	sessions := make([]*sleep.Session, 0, len(records))
	for i, rec := range records {
		s := rec.session()
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("invalid session at index %d: %w", i, err)
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
