package parser

import (
	"BotSpectra/internal/model"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Fixed fallbacks used for JSON objects that omit a field.
const (
	DefaultJSONSourceIP   = "192.168.1.100"
	DefaultJSONPacketSize = 1000
	DefaultJSONDuration   = 1.0
	DefaultJSONBytes      = 5000
	DefaultJSONPackets    = 50
)

// ParseJSON reads an array of objects. Each field is looked up under every
// accepted alias, and missing or zero values fall back to fixed defaults.
func ParseJSON(data []byte, opts Options) ([]model.TrafficRecord, error) {
	opts = opts.withDefaults()

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: JSON file must contain an array of network traffic records: %v", model.ErrMalformedInput, err)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: JSON file must contain an array of network traffic records", model.ErrMalformedInput)
	}

	records := make([]model.TrafficRecord, 0, len(items))
	for _, raw := range items {
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			obj = nil // non-object elements are read as empty objects
		}
		o := object(obj)
		records = append(records, model.TrafficRecord{
			Timestamp:     o.str(opts.timestamp(), "timestamp"),
			SourceIP:      o.str(DefaultJSONSourceIP, "sourceIP", "src_ip"),
			DestinationIP: o.str(DefaultDestinationIP, "destinationIP", "dst_ip"),
			Protocol:      o.str(DefaultProtocol, "protocol"),
			PacketSize:    int(o.num(DefaultJSONPacketSize, "packetSize", "packet_size")),
			Flags:         o.str(DefaultFlags, "flags"),
			Duration:      o.num(DefaultJSONDuration, "duration"),
			Bytes:         int(o.num(DefaultJSONBytes, "bytes")),
			Packets:       int(o.num(DefaultJSONPackets, "packets")),
		})
	}
	return records, nil
}

type object map[string]any

func (o object) str(fallback string, keys ...string) string {
	for _, k := range keys {
		switch v := o[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			if v != 0 {
				return strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
	}
	return fallback
}

func (o object) num(fallback float64, keys ...string) float64 {
	for _, k := range keys {
		switch v := o[k].(type) {
		case float64:
			if v != 0 {
				return v
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f != 0 {
				return f
			}
		}
	}
	return fallback
}
