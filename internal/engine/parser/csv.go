package parser

import (
	"BotSpectra/internal/model"
	"fmt"
	"strings"
)

// csvColumns is the number of positional columns read from each row.
const csvColumns = 9

// ParseCSV reads a header line followed by comma-separated rows. Columns are
// read by position, not by header name. Blank lines are skipped, and any
// missing, unparsable or zero field is replaced with a synthetic value.
func ParseCSV(text string, opts Options) []model.TrafficRecord {
	opts = opts.withDefaults()

	lines := strings.Split(text, "\n")
	if len(lines) <= 1 {
		return []model.TrafficRecord{}
	}

	records := make([]model.TrafficRecord, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, csvRecord(line, len(records), opts))
	}
	return records
}

func csvRecord(line string, index int, opts Options) model.TrafficRecord {
	values := strings.Split(line, ",")
	field := func(i int) string {
		if i >= len(values) || i >= csvColumns {
			return ""
		}
		return strings.TrimSpace(values[i])
	}
	str := func(i int, fallback func() string) string {
		if v := field(i); v != "" {
			return v
		}
		return fallback()
	}
	num := func(i int, fallback func() int) int {
		if n, ok := leadingInt(field(i)); ok && n != 0 {
			return n
		}
		return fallback()
	}

	rnd := opts.Random
	duration, ok := leadingFloat(field(6))
	if !ok || duration == 0 {
		duration = rnd.Float64() * 10
	}

	return model.TrafficRecord{
		Timestamp:     str(0, opts.timestamp),
		SourceIP:      str(1, func() string { return fmt.Sprintf("192.168.1.%d", 100+index) }),
		DestinationIP: str(2, constant(DefaultDestinationIP)),
		Protocol:      str(3, constant(DefaultProtocol)),
		PacketSize:    num(4, func() int { return rnd.IntN(1500) }),
		Flags:         str(5, constant(DefaultFlags)),
		Duration:      duration,
		Bytes:         num(7, func() int { return rnd.IntN(10000) }),
		Packets:       num(8, func() int { return rnd.IntN(100) }),
	}
}

func constant(s string) func() string {
	return func() string { return s }
}
