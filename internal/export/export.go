// Package export writes analysis results as JSON or CSV files.
package export

import (
	"BotSpectra/internal/model"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name. An empty name selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown export format '%s'", s)
	}
}

// ContentType returns the MIME type of an export.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/json"
}

// Filename names an export file after its creation time.
func Filename(f Format, now time.Time) string {
	return fmt.Sprintf("botnet-analysis-%d.%s", now.UnixMilli(), f)
}

// document is the top-level shape of a JSON export.
type document struct {
	Analysis model.Analysis `json:"analysis"`
}

// Write encodes an analysis in the given format.
func Write(w io.Writer, f Format, a model.Analysis) error {
	if len(a.Results) == 0 {
		return model.ErrNoResults
	}
	switch f {
	case FormatCSV:
		return WriteCSV(w, a.Results)
	default:
		return WriteJSON(w, a)
	}
}

// WriteJSON writes the analysis wrapped in an "analysis" object, indented
// by two spaces.
func WriteJSON(w io.Writer, a model.Analysis) error {
	if len(a.Results) == 0 {
		return model.ErrNoResults
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(document{Analysis: a}); err != nil {
		return fmt.Errorf("failed to encode analysis to json: %w", err)
	}
	return nil
}

// ReadJSON parses a document produced by WriteJSON.
func ReadJSON(r io.Reader) (model.Analysis, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return model.Analysis{}, fmt.Errorf("failed to decode analysis json: %w", err)
	}
	return doc.Analysis, nil
}

// CSVHeader is the fixed column order of a CSV export.
var CSVHeader = []string{
	"ID",
	"Device",
	"Threat",
	"Confidence",
	"Status",
	"Timestamp",
	"Packet Rate",
	"Byte Rate",
	"Suspicious Patterns",
}

// WriteCSV writes one row per result. The patterns column is always quoted
// and joins the labels with "; ".
func WriteCSV(w io.Writer, results []model.ClassificationResult) error {
	if len(results) == 0 {
		return model.ErrNoResults
	}

	var b strings.Builder
	b.WriteString(strings.Join(CSVHeader, ","))
	for _, r := range results {
		row := []string{
			escape(r.ID),
			escape(r.Device),
			escape(r.Threat),
			strconv.Itoa(r.Confidence),
			escape(string(r.Status)),
			escape(r.Timestamp),
			strconv.FormatFloat(r.Features.PacketRate, 'f', 2, 64),
			strconv.FormatFloat(r.Features.ByteRate, 'f', 2, 64),
			quote(strings.Join(r.Features.SuspiciousPatterns, "; ")),
		}
		b.WriteByte('\n')
		b.WriteString(strings.Join(row, ","))
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// escape quotes a field only when it needs it.
func escape(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quote(s)
	}
	return s
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
