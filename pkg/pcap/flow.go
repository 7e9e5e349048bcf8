package pcap

import (
	"BotSpectra/internal/engine/protocol"
	"BotSpectra/internal/model"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"
)

// MinDuration is the duration given to flows whose packets share one timestamp.
// Traffic parsers treat a zero duration as missing.
const MinDuration = time.Millisecond

// NoFlags marks flows that carried no TCP flags.
const NoFlags = "NONE"

type flow struct {
	tuple   protocol.FiveTuple
	first   time.Time
	last    time.Time
	bytes   int
	packets int
	flags   map[string]bool
}

// FlowBuilder folds packets into one traffic record per 5-tuple.
type FlowBuilder struct {
	flows map[string]*flow
	order []string
}

// NewFlowBuilder creates an empty FlowBuilder.
func NewFlowBuilder() *FlowBuilder {
	return &FlowBuilder{flows: make(map[string]*flow)}
}

// Add accounts one packet to its flow.
func (b *FlowBuilder) Add(p *protocol.PacketInfo) {
	key := p.FiveTuple.Key()
	f, ok := b.flows[key]
	if !ok {
		f = &flow{tuple: p.FiveTuple, first: p.Timestamp, last: p.Timestamp, flags: make(map[string]bool)}
		b.flows[key] = f
		b.order = append(b.order, key)
	}
	if p.Timestamp.Before(f.first) {
		f.first = p.Timestamp
	}
	if p.Timestamp.After(f.last) {
		f.last = p.Timestamp
	}
	f.bytes += p.Length
	f.packets++
	for _, fl := range p.Flags {
		f.flags[fl] = true
	}
}

// Records returns one record per flow in first-seen order.
func (b *FlowBuilder) Records() []model.TrafficRecord {
	records := make([]model.TrafficRecord, 0, len(b.order))
	for _, key := range b.order {
		f := b.flows[key]
		d := f.last.Sub(f.first)
		if d < MinDuration {
			d = MinDuration
		}
		records = append(records, model.TrafficRecord{
			Timestamp:     f.first.UTC().Format(time.RFC3339),
			SourceIP:      f.tuple.SrcIP.String(),
			DestinationIP: f.tuple.DstIP.String(),
			Protocol:      protocol.ProtocolName(f.tuple.Protocol),
			PacketSize:    f.bytes / f.packets,
			Flags:         f.flagString(),
			Duration:      d.Seconds(),
			Bytes:         f.bytes,
			Packets:       f.packets,
		})
	}
	return records
}

func (f *flow) flagString() string {
	var set []string
	for _, name := range []string{"SYN", "ACK", "FIN", "RST", "PSH", "URG"} {
		if f.flags[name] {
			set = append(set, name)
		}
	}
	if len(set) == 0 {
		return NoFlags
	}
	return strings.Join(set, "|")
}

// CSVHeader is the column order read by the traffic CSV parser.
var CSVHeader = []string{"timestamp", "source_ip", "destination_ip", "protocol", "packet_size", "flags", "duration", "bytes", "packets"}

// WriteCSV writes records in the positional CSV layout.
func WriteCSV(w io.Writer, records []model.TrafficRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Timestamp,
			r.SourceIP,
			r.DestinationIP,
			r.Protocol,
			strconv.Itoa(r.PacketSize),
			r.Flags,
			strconv.FormatFloat(r.Duration, 'f', -1, 64),
			strconv.Itoa(r.Bytes),
			strconv.Itoa(r.Packets),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Convert reads the capture at path and returns its flows as traffic records.
func Convert(path string) ([]model.TrafficRecord, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out := make(chan *protocol.PacketInfo, 1024)
	go r.ReadPackets(out)

	b := NewFlowBuilder()
	for p := range out {
		b.Add(p)
	}
	return b.Records(), nil
}
