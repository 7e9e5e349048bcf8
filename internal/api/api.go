// Package api exposes the analysis manager over HTTP.
package api

import (
	"BotSpectra/internal/engine/manager"
	"BotSpectra/internal/export"
	"BotSpectra/internal/model"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// multipartOverhead is the slack allowed on top of the file size cap for
// multipart boundaries and the other form fields.
const multipartOverhead = 1 << 20

// Handler holds the dependencies for API handlers.
type Handler struct {
	mgr *manager.Manager
	now func() time.Time
}

// NewRouter builds the HTTP routes. gatherer backs /metrics and may be nil.
func NewRouter(mgr *manager.Manager, gatherer prometheus.Gatherer) http.Handler {
	h := &Handler{mgr: mgr, now: time.Now}

	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/analyze", h.analyzeHandler).Methods("POST")
	v1.HandleFunc("/state", h.stateHandler).Methods("GET")
	v1.HandleFunc("/settings", h.settingsHandler).Methods("GET")
	v1.HandleFunc("/reset", h.resetHandler).Methods("POST")
	v1.HandleFunc("/export", h.exportHandler).Methods("GET")

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}).Methods("GET")
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}
	return r
}

// analyzeHandler runs one uploaded file through the pipeline and returns the final state.
func (h *Handler) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.mgr.MaxFileSize()+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, model.ErrOversizedFile)
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to parse upload: %w", err))
		return
	}

	var threshold *int
	if s := r.FormValue("threshold"); s != "" {
		t, err := strconv.Atoi(s)
		if err != nil || t < 0 {
			writeError(w, http.StatusBadRequest, manager.ErrInvalidThreshold)
			return
		}
		threshold = &t
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing 'file' field: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	state, err := h.mgr.Run(r.Context(), manager.Upload{Name: header.Filename, Data: data, Threshold: threshold})
	if err != nil {
		log.Printf("Analysis of '%s' failed: %v", header.Filename, err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) stateHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.mgr.State())
}

// Settings are the upload limits a client needs before submitting a file.
type Settings struct {
	MaxFileSize      int64    `json:"maxFileSize"`
	DefaultThreshold int      `json:"defaultThreshold"`
	Formats          []string `json:"formats"`
}

func (h *Handler) settingsHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Settings{
		MaxFileSize:      h.mgr.MaxFileSize(),
		DefaultThreshold: h.mgr.DefaultThreshold(),
		Formats:          []string{".csv", ".json"},
	})
}

func (h *Handler) resetHandler(w http.ResponseWriter, _ *http.Request) {
	h.mgr.Reset()
	writeJSON(w, http.StatusOK, h.mgr.State())
}

// exportHandler downloads the current results as JSON or CSV.
func (h *Handler) exportHandler(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a, err := h.mgr.Analysis()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, a); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(format, h.now())))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrOversizedFile):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, model.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, model.ErrMalformedInput), errors.Is(err, model.ErrProcessingFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrBusy), errors.Is(err, model.ErrCanceled):
		return http.StatusConflict
	case errors.Is(err, model.ErrNoResults):
		return http.StatusNotFound
	case errors.Is(err, manager.ErrInvalidThreshold):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
