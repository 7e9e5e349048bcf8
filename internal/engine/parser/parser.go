// Package parser turns uploaded traffic summaries into TrafficRecords.
package parser

import (
	"BotSpectra/internal/model"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Fallbacks for fields that are missing from an input row.
const (
	DefaultDestinationIP = "8.8.8.8"
	DefaultProtocol      = "TCP"
	DefaultFlags         = "ACK"
)

// Options carries the sources of randomness and time used to fill missing fields.
type Options struct {
	Random model.Random
	Now    func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Random == nil {
		o.Random = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func (o Options) timestamp() string {
	return o.Now().UTC().Format(time.RFC3339)
}

// Format is a recognized upload format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// DetectFormat maps a file name to a Format by its extension.
func DetectFormat(name string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch ext {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "pcap", "pcapng":
		return "", fmt.Errorf("%w: %s captures require specialized parsing; convert them with pcap2csv first", model.ErrUnsupportedFormat, ext)
	default:
		return "", fmt.Errorf("%w: '%s'; use CSV or JSON files", model.ErrUnsupportedFormat, name)
	}
}

// Parse reads data according to the extension of name.
func Parse(name string, data []byte, opts Options) ([]model.TrafficRecord, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return ParseCSV(string(data), opts), nil
	default:
		return ParseJSON(data, opts)
	}
}

var (
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// leadingInt parses the integer prefix of s. ok is false when s has none.
func leadingInt(s string) (int, bool) {
	m := intPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// leadingFloat parses the decimal prefix of s. ok is false when s has none.
func leadingFloat(s string) (float64, bool) {
	m := floatPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
