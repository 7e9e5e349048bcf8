package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// --- Main Function ---
func main() {
	// Define command-line flags
	mode := flag.String("mode", "analyze", "Query mode: 'analyze' to upload a file, 'state' to print the current state, 'export' to download results.")
	server := flag.String("server", "http://localhost:8080", "BotSpectra API base URL.")
	file := flag.String("file", "", "Traffic file to upload (analyze mode).")
	threshold := flag.Int("threshold", -1, "Confidence threshold (analyze mode, default: server config).")
	format := flag.String("format", "json", "Export format: 'json' or 'csv' (export mode).")
	flag.Parse()

	client := &http.Client{Timeout: 2 * time.Minute}
	log.Printf("Running in '%s' mode.", *mode)

	switch *mode {
	case "analyze":
		analyze(client, *server, *file, *threshold)
	case "state":
		printResponse(client.Get(*server + "/api/v1/state"))
	case "export":
		printResponse(client.Get(*server + "/api/v1/export?format=" + *format))
	default:
		log.Fatalf("Invalid mode: %s. Use 'analyze', 'state' or 'export'.", *mode)
	}
}

// --- API Query Logic ---
func analyze(client *http.Client, server, path string, threshold int) {
	if path == "" {
		log.Fatalf("-file is required in analyze mode")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Error reading %s: %v", path, err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		log.Fatalf("Error creating form file: %v", err)
	}
	fw.Write(data)
	if threshold >= 0 {
		mw.WriteField("threshold", strconv.Itoa(threshold))
	}
	mw.Close()

	log.Printf("Uploading %s (%d bytes)...", path, len(data))
	resp, err := client.Post(server+"/api/v1/analyze", mw.FormDataContentType(), &body)
	if err != nil {
		log.Fatalf("Error sending request to API: %v", err)
	}
	defer resp.Body.Close()

	var state struct {
		Phase        string `json:"phase"`
		TotalRecords int    `json:"totalRecords"`
		Error        string `json:"error"`
		Stats        *struct {
			TotalDevices    int     `json:"totalDevices"`
			ThreatsBlocked  int     `json:"threatsBlocked"`
			UnderMonitoring int     `json:"underMonitoring"`
			CleanDevices    int     `json:"cleanDevices"`
			ProcessingTime  int64   `json:"processingTime"`
			Accuracy        float64 `json:"accuracy"`
		} `json:"stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("API returned %s: %s", resp.Status, state.Error)
	}

	fmt.Println("--- Analysis Result ---")
	fmt.Printf("Records: %d\n", state.TotalRecords)
	if s := state.Stats; s != nil {
		fmt.Printf("Devices: %d, blocked: %d, monitoring: %d, clean: %d\n", s.TotalDevices, s.ThreatsBlocked, s.UnderMonitoring, s.CleanDevices)
		fmt.Printf("Processing time: %d ms, accuracy: %.1f%%\n", s.ProcessingTime, s.Accuracy)
	}
}

func printResponse(resp *http.Response, err error) {
	if err != nil {
		log.Fatalf("Error sending request to API: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Error reading response body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("API returned non-OK status: %s\nBody: %s", resp.Status, string(body))
	}
	fmt.Println(string(body))
}
