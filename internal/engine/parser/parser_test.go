package parser

import (
	"BotSpectra/internal/model"
	"errors"
	"strings"
	"testing"
	"time"
)

// fixedRandom returns the same values on every call.
type fixedRandom struct {
	f float64
	n int
}

func (r fixedRandom) Float64() float64 { return r.f }
func (r fixedRandom) IntN(n int) int {
	if r.n >= n {
		return n - 1
	}
	return r.n
}

var testNow = time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{
		Random: fixedRandom{f: 0.5, n: 42},
		Now:    func() time.Time { return testNow },
	}
}

const sampleCSV = "timestamp,source_ip,destination_ip,protocol,packet_size,flags,duration,bytes,packets\n" +
	"2024-01-15T14:32:15Z,192.168.1.100,8.8.8.8,TCP,1200,ACK,2.5,15000,120\n" +
	"\n" +
	"2024-01-15T14:32:16Z,192.168.1.101,10.0.0.1,UDP,64,SYN,0.1,500,50\n"

func TestParseCSV_RecordCount(t *testing.T) {
	records := ParseCSV(sampleCSV, testOptions())
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	want := model.TrafficRecord{
		Timestamp:     "2024-01-15T14:32:15Z",
		SourceIP:      "192.168.1.100",
		DestinationIP: "8.8.8.8",
		Protocol:      "TCP",
		PacketSize:    1200,
		Flags:         "ACK",
		Duration:      2.5,
		Bytes:         15000,
		Packets:       120,
	}
	if records[0] != want {
		t.Errorf("Unexpected first record.\n got: %+v\nwant: %+v", records[0], want)
	}
	if records[1].Protocol != "UDP" || records[1].Duration != 0.1 {
		t.Errorf("Unexpected second record: %+v", records[1])
	}
}

func TestParseCSV_CRLFAndTrailingNewline(t *testing.T) {
	text := strings.ReplaceAll(sampleCSV, "\n", "\r\n") + "\r\n"
	records := ParseCSV(text, testOptions())
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Packets != 120 {
		t.Errorf("Expected trailing CR to be ignored, got packets=%d", records[0].Packets)
	}
}

func TestParseCSV_ShortRowsUseDefaults(t *testing.T) {
	text := "header\n2024-01-15T14:32:15Z\n,,,,,,,,\n"
	records := ParseCSV(text, testOptions())
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	short := records[0]
	if short.Timestamp != "2024-01-15T14:32:15Z" {
		t.Errorf("timestamp=%q", short.Timestamp)
	}
	if short.SourceIP != "192.168.1.100" || records[1].SourceIP != "192.168.1.101" {
		t.Errorf("Expected sequential fake IPs, got %q and %q", short.SourceIP, records[1].SourceIP)
	}
	if short.DestinationIP != DefaultDestinationIP || short.Protocol != DefaultProtocol || short.Flags != DefaultFlags {
		t.Errorf("Unexpected string defaults: %+v", short)
	}
	if short.PacketSize != 42 || short.Bytes != 42 || short.Packets != 42 {
		t.Errorf("Expected random integer defaults of 42, got %+v", short)
	}
	if short.Duration != 5 {
		t.Errorf("Expected random duration 5, got %v", short.Duration)
	}
	if records[1].Timestamp != testNow.Format(time.RFC3339) {
		t.Errorf("Expected default timestamp, got %q", records[1].Timestamp)
	}
}

func TestParseCSV_UnparsableAndZeroFields(t *testing.T) {
	text := "header\nts,1.2.3.4,5.6.7.8,ICMP,abc,RST,0,12.9kb,0\n"
	records := ParseCSV(text, testOptions())
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.PacketSize != 42 {
		t.Errorf("Unparsable packet size should fall back, got %d", r.PacketSize)
	}
	if r.Duration != 5 {
		t.Errorf("Zero duration should fall back, got %v", r.Duration)
	}
	if r.Bytes != 12 {
		t.Errorf("Expected integer prefix 12, got %d", r.Bytes)
	}
	if r.Packets != 42 {
		t.Errorf("Zero packets should fall back, got %d", r.Packets)
	}
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	for _, text := range []string{"", "header", "header\n", "header\n\n  \n"} {
		if got := ParseCSV(text, testOptions()); len(got) != 0 {
			t.Errorf("%q: expected no records, got %d", text, len(got))
		}
	}
}

func TestParseJSON_Aliases(t *testing.T) {
	data := []byte(`[
		{"timestamp": "2024-01-15T14:32:15Z", "sourceIP": "10.0.0.5", "destinationIP": "1.1.1.1",
		 "protocol": "UDP", "packetSize": 80, "flags": "SYN", "duration": 2, "bytes": 100, "packets": 4},
		{"src_ip": "10.0.0.6", "dst_ip": "9.9.9.9", "packet_size": "512"},
		{},
		42
	]`)
	records, err := ParseJSON(data, testOptions())
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("Expected 4 records, got %d", len(records))
	}

	if r := records[0]; r.SourceIP != "10.0.0.5" || r.Protocol != "UDP" || r.PacketSize != 80 || r.Duration != 2 {
		t.Errorf("Unexpected first record: %+v", r)
	}
	if r := records[1]; r.SourceIP != "10.0.0.6" || r.DestinationIP != "9.9.9.9" || r.PacketSize != 512 {
		t.Errorf("Aliases not honored: %+v", r)
	}

	want := model.TrafficRecord{
		Timestamp:     testNow.Format(time.RFC3339),
		SourceIP:      DefaultJSONSourceIP,
		DestinationIP: DefaultDestinationIP,
		Protocol:      DefaultProtocol,
		PacketSize:    DefaultJSONPacketSize,
		Flags:         DefaultFlags,
		Duration:      DefaultJSONDuration,
		Bytes:         DefaultJSONBytes,
		Packets:       DefaultJSONPackets,
	}
	for _, r := range records[2:] {
		if r != want {
			t.Errorf("Expected defaults.\n got: %+v\nwant: %+v", r, want)
		}
	}
}

func TestParseJSON_NotAnArray(t *testing.T) {
	for _, input := range []string{`{"sourceIP": "1.2.3.4"}`, `null`, `not json`, `"text"`} {
		records, err := ParseJSON([]byte(input), testOptions())
		if !errors.Is(err, model.ErrMalformedInput) {
			t.Errorf("%s: expected ErrMalformedInput, got %v", input, err)
		}
		if records != nil {
			t.Errorf("%s: expected no records", input)
		}
	}
}

func TestParse_DispatchesOnExtension(t *testing.T) {
	records, err := Parse("Traffic.CSV", []byte(sampleCSV), testOptions())
	if err != nil || len(records) != 2 {
		t.Fatalf("csv: %d records, err=%v", len(records), err)
	}
	records, err = Parse("traffic.json", []byte(`[{}]`), testOptions())
	if err != nil || len(records) != 1 {
		t.Fatalf("json: %d records, err=%v", len(records), err)
	}
}

func TestParse_UnsupportedFormat(t *testing.T) {
	for _, name := range []string{"capture.pcap", "capture.pcapng", "notes.txt", "noext"} {
		records, err := Parse(name, []byte(sampleCSV), testOptions())
		if !errors.Is(err, model.ErrUnsupportedFormat) {
			t.Errorf("%s: expected ErrUnsupportedFormat, got %v", name, err)
		}
		if len(records) != 0 {
			t.Errorf("%s: expected zero records, got %d", name, len(records))
		}
	}
}
