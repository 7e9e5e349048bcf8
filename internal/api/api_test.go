package api

import (
	"BotSpectra/internal/config"
	"BotSpectra/internal/engine/classifier"
	"BotSpectra/internal/engine/manager"
	"BotSpectra/internal/engine/processor"
	"BotSpectra/internal/metrics"
	"BotSpectra/internal/model"
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

const trafficCSV = "timestamp,src,dst,proto,size,flags,duration,bytes,packets\n" +
	"2024-01-15T14:32:15Z,192.168.1.100,8.8.8.8,TCP,1200,ACK,2.5,15000,120\n" +
	"2024-01-15T14:32:16Z,192.168.1.101,10.0.0.1,UDP,64,SYN,0.1,500,50\n" +
	"2024-01-15T14:32:17Z,10.0.0.66,10.0.0.1,TCP,30,SYN FIN,1,200000,2000\n"

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	rnd := rand.New(rand.NewPCG(7, 8))
	c, err := classifier.New(cfg.Classifier, rnd)
	if err != nil {
		t.Fatalf("Failed to create classifier: %v", err)
	}
	reg := prometheus.NewRegistry()
	mgr, err := manager.NewManager(cfg, processor.New(c, rnd), nil, metrics.New(reg))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	srv := httptest.NewServer(NewRouter(mgr, reg))
	t.Cleanup(srv.Close)
	return srv
}

func upload(t *testing.T, url, name, content, threshold string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	fw.Write([]byte(content))
	if threshold != "" {
		mw.WriteField("threshold", threshold)
	}
	mw.Close()

	resp, err := http.Post(url+"/api/v1/analyze", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAnalyzeThenExport(t *testing.T) {
	srv := newTestServer(t, config.Default())

	resp, err := http.Get(srv.URL + "/api/v1/export?format=json")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Export before analysis: expected 404, got %d", resp.StatusCode)
	}

	resp = upload(t, srv.URL, "traffic.csv", trafficCSV, "0")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var state manager.State
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("Failed to decode state: %v", err)
	}
	if state.Phase != manager.PhaseIdle || state.Processing || state.TotalRecords != 3 || len(state.Results) != 3 {
		t.Errorf("Unexpected final state: %+v", state)
	}

	resp, err = http.Get(srv.URL + "/api/v1/export?format=csv")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "text/csv" {
		t.Fatalf("Unexpected export response: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "botnet-analysis-") || !strings.HasSuffix(cd, `.csv"`) {
		t.Errorf("Unexpected Content-Disposition: %s", cd)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if lines := strings.Split(buf.String(), "\n"); len(lines) != 4 || !strings.HasPrefix(lines[0], "ID,Device,Threat") {
		t.Errorf("Unexpected CSV body:\n%s", buf.String())
	}
}

func TestAnalyze_ErrorMapping(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.MaxFileSize = 512
	srv := newTestServer(t, cfg)

	cases := []struct {
		name, file, content, threshold string
		want                           int
	}{
		{"oversized", "big.csv", strings.Repeat("a", 513), "", http.StatusRequestEntityTooLarge},
		{"pcap", "capture.pcap", "\xd4\xc3\xb2\xa1", "", http.StatusUnsupportedMediaType},
		{"json object", "data.json", `{"a":1}`, "", http.StatusUnprocessableEntity},
		{"bad threshold", "traffic.csv", trafficCSV, "abc", http.StatusBadRequest},
		{"threshold over 100", "traffic.csv", trafficCSV, "101", http.StatusBadRequest},
	}
	for _, tc := range cases {
		resp := upload(t, srv.URL, tc.file, tc.content, tc.threshold)
		if resp.StatusCode != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, resp.StatusCode)
		}
		var body map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body["error"] == "" {
			t.Errorf("%s: expected an error body, got %v (%v)", tc.name, body, err)
		}
	}
}

func TestStateResetAndMetrics(t *testing.T) {
	srv := newTestServer(t, config.Default())
	upload(t, srv.URL, "traffic.csv", trafficCSV, "0")

	resp, err := http.Post(srv.URL+"/api/v1/reset", "", nil)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/v1/state")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	var state manager.State
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("Failed to decode state: %v", err)
	}
	if state.Phase != manager.PhaseIdle || len(state.Results) != 0 || state.Stats != nil {
		t.Errorf("Expected empty idle state after reset, got %+v", state)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), `botspectra_runs_total{outcome="success"} 1`) {
		t.Errorf("Metrics missing run counter:\n%s", buf.String())
	}
}

func TestSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.ConfidenceThreshold = 60
	srv := newTestServer(t, cfg)

	resp, err := http.Get(srv.URL + "/api/v1/settings")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	var got Settings
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode settings: %v", err)
	}
	if got.DefaultThreshold != 60 || got.MaxFileSize != config.DefaultMaxFileSize || len(got.Formats) != 2 {
		t.Errorf("Unexpected settings: %+v", got)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{model.ErrOversizedFile, http.StatusRequestEntityTooLarge},
		{model.ErrUnsupportedFormat, http.StatusUnsupportedMediaType},
		{fmt.Errorf("wrap: %w", model.ErrMalformedInput), http.StatusUnprocessableEntity},
		{model.ErrProcessingFailed, http.StatusUnprocessableEntity},
		{model.ErrBusy, http.StatusConflict},
		{model.ErrNoResults, http.StatusNotFound},
		{manager.ErrInvalidThreshold, http.StatusBadRequest},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}
