package export

import (
	"BotSpectra/internal/model"
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func sampleAnalysis() model.Analysis {
	return model.Analysis{
		Timestamp: time.Date(2024, 1, 15, 14, 40, 0, 0, time.UTC),
		Stats: &model.AnalysisStats{
			TotalDevices: 2, ThreatsBlocked: 1, CleanDevices: 1, ProcessingTime: 1234, Accuracy: 97.31415,
		},
		Results: []model.ClassificationResult{
			{
				ID: "detection-1", Device: "Smart TV #66", Threat: "Clean Traffic", Confidence: 80,
				Status: model.StatusSafe, Timestamp: "2024-01-15T14:32:15Z",
				Features: model.ResultFeatures{
					PacketRate: 48, ByteRate: 6000,
					ProtocolDistribution: map[string]int{"TCP": 1},
					SuspiciousPatterns:   []string{},
				},
			},
			{
				ID: "detection-2", Device: "Router #12", Threat: "DDoS Botnet", Confidence: 91,
				Status: model.StatusBlocked, Timestamp: "2024-01-15T14:32:17Z",
				Features: model.ResultFeatures{
					PacketRate: 2000.0 / 3, ByteRate: 123456.789,
					ProtocolDistribution: map[string]int{"UDP": 1},
					SuspiciousPatterns:   []string{"High packet rate", "Suspicious TCP flags"},
				},
			},
		},
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	a := sampleAnalysis()
	var buf bytes.Buffer
	if err := WriteJSON(&buf, a); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "{\n  \"analysis\": {\n    \"timestamp\"") {
		t.Errorf("Unexpected layout:\n%s", buf.String())
	}

	back, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if !back.Timestamp.Equal(a.Timestamp) {
		t.Errorf("Timestamp changed: %v vs %v", back.Timestamp, a.Timestamp)
	}
	if !reflect.DeepEqual(back.Stats, a.Stats) {
		t.Errorf("Stats changed:\n got: %+v\nwant: %+v", back.Stats, a.Stats)
	}
	if !reflect.DeepEqual(back.Results, a.Results) {
		t.Errorf("Results changed:\n got: %+v\nwant: %+v", back.Results, a.Results)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleAnalysis().Results); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(buf.String(), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "ID,Device,Threat,Confidence,Status,Timestamp,Packet Rate,Byte Rate,Suspicious Patterns" {
		t.Errorf("Unexpected header: %q", lines[0])
	}
	if want := `detection-1,Smart TV #66,Clean Traffic,80,safe,2024-01-15T14:32:15Z,48.00,6000.00,""`; lines[1] != want {
		t.Errorf("Unexpected row:\n got: %s\nwant: %s", lines[1], want)
	}
	if want := `detection-2,Router #12,DDoS Botnet,91,blocked,2024-01-15T14:32:17Z,666.67,123456.79,"High packet rate; Suspicious TCP flags"`; lines[2] != want {
		t.Errorf("Unexpected row:\n got: %s\nwant: %s", lines[2], want)
	}
}

func TestWriteCSV_EscapesFields(t *testing.T) {
	results := []model.ClassificationResult{{ID: "a,b", Device: `say "hi"`, Features: model.ResultFeatures{SuspiciousPatterns: []string{`x"y`}}}}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, results); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	row := strings.Split(buf.String(), "\n")[1]
	if !strings.HasPrefix(row, `"a,b","say ""hi""",`) || !strings.HasSuffix(row, `"x""y"`) {
		t.Errorf("Fields not escaped: %s", row)
	}
}

func TestWrite_NoResults(t *testing.T) {
	var buf bytes.Buffer
	for _, f := range []Format{FormatJSON, FormatCSV} {
		if err := Write(&buf, f, model.Analysis{}); !errors.Is(err, model.ErrNoResults) {
			t.Errorf("%s: expected ErrNoResults, got %v", f, err)
		}
	}
	if buf.Len() != 0 {
		t.Errorf("Nothing should be written, got %q", buf.String())
	}
}

func TestParseFormatAndFilename(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != FormatJSON {
		t.Errorf("empty: %v %v", f, err)
	}
	if f, err := ParseFormat("CSV"); err != nil || f != FormatCSV {
		t.Errorf("CSV: %v %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("xml should be rejected")
	}
	now := time.UnixMilli(1705329600123)
	if got := Filename(FormatCSV, now); got != "botnet-analysis-1705329600123.csv" {
		t.Errorf("Unexpected filename %s", got)
	}
	if FormatCSV.ContentType() != "text/csv" || FormatJSON.ContentType() != "application/json" {
		t.Error("Unexpected content types")
	}
}
