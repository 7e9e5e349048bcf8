package manager

import (
	"BotSpectra/internal/config"
	"BotSpectra/internal/engine/parser"
	"BotSpectra/internal/engine/processor"
	"BotSpectra/internal/engine/stats"
	"BotSpectra/internal/metrics"
	"BotSpectra/internal/model"
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrInvalidThreshold is returned by Run for thresholds outside 0-100.
var ErrInvalidThreshold = errors.New("confidence threshold must be within 0-100")

// notifyTimeout bounds how long a run waits on its notifier.
const notifyTimeout = 5 * time.Second

// Upload is one file submitted for analysis. A nil Threshold selects the
// configured default; an explicit 0 keeps every result.
type Upload struct {
	Name      string
	Data      []byte
	Threshold *int
}

// State is a snapshot of the state machine.
type State struct {
	RunID        string                       `json:"runId,omitempty"`
	Phase        Phase                        `json:"phase"`
	Processing   bool                         `json:"isProcessing"`
	Progress     int                          `json:"progress"`
	CurrentStep  string                       `json:"currentStep"`
	FileName     string                       `json:"fileName,omitempty"`
	Threshold    int                          `json:"threshold"`
	TotalRecords int                          `json:"totalRecords"`
	Results      []model.ClassificationResult `json:"results"`
	Stats        *model.AnalysisStats         `json:"stats"`
	Error        string                       `json:"error,omitempty"`
}

func (s State) clone() State {
	s.Results = slices.Clone(s.Results)
	if s.Stats != nil {
		st := *s.Stats
		s.Stats = &st
	}
	return s
}

// Manager owns the analysis state and drives one run at a time through the
// phases. Results of a run that was reset or superseded are discarded.
type Manager struct {
	proc             *processor.Processor
	notifier         model.Notifier
	metrics          *metrics.Metrics
	maxFileSize      int64
	defaultThreshold int
	delays           map[Phase]time.Duration

	mu         sync.Mutex
	state      State
	generation uint64
	running    bool
	cancel     context.CancelFunc
	observers  []func(State)

	// work is held while a run executes stages so a run abandoned by Reset
	// finishes its current stage before the next run starts.
	work sync.Mutex
}

// NewManager creates a Manager. notifier and m may be nil.
func NewManager(cfg *config.Config, proc *processor.Processor, notifier model.Notifier, m *metrics.Metrics) (*Manager, error) {
	delays := make(map[Phase]time.Duration)
	for phase, s := range map[Phase]string{
		PhaseValidating: cfg.Pipeline.StageDelays.Validating,
		PhaseParsing:    cfg.Pipeline.StageDelays.Parsing,
		PhaseExtracting: cfg.Pipeline.StageDelays.Extracting,
		PhaseFinalizing: cfg.Pipeline.StageDelays.Finalizing,
	} {
		d, err := config.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s delay: %w", phase, err)
		}
		delays[phase] = d
	}

	maxFileSize := cfg.Pipeline.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = config.DefaultMaxFileSize
	}
	threshold := cfg.Pipeline.ConfidenceThreshold
	if threshold < 0 || threshold > 100 {
		return nil, ErrInvalidThreshold
	}

	return &Manager{
		proc:             proc,
		notifier:         notifier,
		metrics:          m,
		maxFileSize:      maxFileSize,
		defaultThreshold: threshold,
		delays:           delays,
		state:            State{Phase: PhaseIdle},
	}, nil
}

// MaxFileSize returns the upload size cap in bytes.
func (m *Manager) MaxFileSize() int64 {
	return m.maxFileSize
}

// DefaultThreshold returns the configured confidence threshold.
func (m *Manager) DefaultThreshold() int {
	return m.defaultThreshold
}

// OnChange registers fn to receive every state transition. fn runs on the
// goroutine driving the run and must not call back into the Manager's Run.
func (m *Manager) OnChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// State returns a copy of the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Analysis returns the current results in export form.
func (m *Manager) Analysis() (model.Analysis, error) {
	st := m.State()
	if len(st.Results) == 0 {
		return model.Analysis{}, model.ErrNoResults
	}
	return model.Analysis{Timestamp: time.Now().UTC(), Stats: st.Stats, Results: st.Results}, nil
}

// Reset cancels any run in flight and returns the machine to an empty Idle state.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.generation++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.running = false
	m.state = State{Phase: PhaseIdle}
	snap := m.state.clone()
	m.mu.Unlock()

	log.Println("Analysis state reset.")
	m.emit(snap)
}

// Run analyzes one upload and returns the final state. It returns ErrBusy
// when another run is in flight. Errors from the pipeline are reported both
// in the returned error and in State.Error.
func (m *Manager) Run(ctx context.Context, up Upload) (State, error) {
	threshold := m.defaultThreshold
	if up.Threshold != nil {
		threshold = *up.Threshold
	}
	if threshold < 0 || threshold > 100 {
		return State{}, ErrInvalidThreshold
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return State{}, model.ErrBusy
	}
	m.running = true
	m.generation++
	gen := m.generation
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.state = State{
		RunID:       uuid.NewString(),
		Phase:       PhaseIdle,
		Processing:  true,
		CurrentStep: "Initializing...",
		FileName:    up.Name,
		Threshold:   threshold,
	}
	snap := m.state.clone()
	m.mu.Unlock()

	defer func() {
		cancel()
		m.mu.Lock()
		if m.generation == gen {
			m.running = false
			m.cancel = nil
		}
		m.mu.Unlock()
	}()

	m.work.Lock()
	defer m.work.Unlock()

	log.Printf("Run %s started for '%s' (%d bytes, threshold %d).", snap.RunID, up.Name, len(up.Data), threshold)
	m.metrics.RunStarted()
	m.emit(snap)

	r := &run{m: m, gen: gen, ctx: runCtx, id: snap.RunID, started: time.Now()}
	final, err := r.execute(up, threshold)
	if errors.Is(err, errStale) {
		m.metrics.RunFinished("canceled")
		log.Printf("Run %s abandoned after reset.", snap.RunID)
		return m.State(), model.ErrCanceled
	}
	if err != nil {
		return m.fail(gen, snap.RunID, err)
	}

	m.metrics.RunFinished("success")
	m.notify(model.Notification{
		RunID:       final.RunID,
		Kind:        model.NotificationSuccess,
		Title:       "Analysis Complete",
		Description: fmt.Sprintf("Processed %d network traffic records. Found %d potential threats.", final.TotalRecords, final.Stats.Threats()),
		Stats:       final.Stats,
	})
	return final, nil
}

// fail moves the machine to Failed unless the run has been superseded.
func (m *Manager) fail(gen uint64, runID string, err error) (State, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", model.ErrCanceled, err)
	}

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		m.metrics.RunFinished("canceled")
		return m.State(), model.ErrCanceled
	}
	m.state.Phase = PhaseFailed
	m.state.Processing = false
	m.state.Progress = 0
	m.state.CurrentStep = ""
	m.state.Results = nil
	m.state.Stats = nil
	m.state.Error = err.Error()
	snap := m.state.clone()
	m.mu.Unlock()

	if errors.Is(err, model.ErrCanceled) {
		m.metrics.RunFinished("canceled")
	} else {
		m.metrics.RunFinished("failure")
	}
	log.Printf("Run %s failed: %v", runID, err)
	m.emit(snap)
	m.notify(model.Notification{
		RunID:       runID,
		Kind:        model.NotificationFailure,
		Title:       "Processing Failed",
		Description: err.Error(),
	})
	return snap, err
}

func (m *Manager) emit(s State) {
	m.mu.Lock()
	observers := slices.Clone(m.observers)
	m.mu.Unlock()
	for _, fn := range observers {
		fn(s)
	}
}

func (m *Manager) notify(n model.Notification) {
	if m.notifier == nil {
		return
	}
	n.Timestamp = time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := m.notifier.Notify(ctx, n); err != nil {
		log.Printf("Failed to send notification for run %s: %v", n.RunID, err)
	}
}

// validate rejects uploads that must never reach the parser.
func (m *Manager) validate(up Upload) error {
	if size := int64(len(up.Data)); size > m.maxFileSize {
		return fmt.Errorf("%w: '%s' is %d bytes, the limit is %d bytes", model.ErrOversizedFile, up.Name, size, m.maxFileSize)
	}
	if _, err := parser.DetectFormat(up.Name); err != nil {
		return err
	}
	if len(up.Data) == 0 {
		return nil
	}
	mt := mimetype.Detect(up.Data)
	for t := mt; t != nil; t = t.Parent() {
		if t.Is("text/plain") || t.Is("application/json") {
			return nil
		}
	}
	return fmt.Errorf("%w: '%s' looks like %s, not text", model.ErrMalformedInput, up.Name, mt.String())
}

// errStale marks a run that lost its generation.
var errStale = errors.New("run superseded")

// run carries the per-invocation bookkeeping of Manager.Run.
type run struct {
	m          *Manager
	gen        uint64
	ctx        context.Context
	id         string
	started    time.Time
	phase      Phase
	phaseStart time.Time
}

// execute runs the stages. A panic in any of them, including one raised by a
// Classifier backend, fails the run with ErrProcessingFailed.
func (r *run) execute(up Upload, threshold int) (final State, err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("Run %s panicked during %s: %v\n%s", r.id, r.phase, p, debug.Stack())
			final, err = State{}, fmt.Errorf("%w: panic during %s: %v", model.ErrProcessingFailed, r.phase, p)
		}
	}()
	return r.stages(up, threshold)
}

func (r *run) stages(up Upload, threshold int) (State, error) {
	m := r.m

	if err := r.advance(PhaseValidating); err != nil {
		return State{}, err
	}
	if err := m.validate(up); err != nil {
		return State{}, err
	}
	if err := r.pause(); err != nil {
		return State{}, err
	}

	if err := r.advance(PhaseParsing); err != nil {
		return State{}, err
	}
	processingStart := time.Now()
	records, err := m.proc.Parse(up.Name, up.Data)
	if err != nil {
		return State{}, err
	}
	m.metrics.RecordsParsed(len(records))
	if err := r.pause(); err != nil {
		return State{}, err
	}

	if err := r.advance(PhaseExtracting); err != nil {
		return State{}, err
	}
	vectors := m.proc.Extract(records)
	if err := r.pause(); err != nil {
		return State{}, err
	}

	if err := r.advance(PhaseClassifying); err != nil {
		return State{}, err
	}
	classified, err := m.proc.Classify(r.ctx, records, vectors)
	if err != nil {
		return State{}, err
	}
	elapsed := time.Since(processingStart)

	if err := r.advance(PhaseFiltering); err != nil {
		return State{}, err
	}
	filtered := stats.FilterByConfidence(classified, threshold)

	if err := r.advance(PhaseFinalizing); err != nil {
		return State{}, err
	}
	summary := m.proc.Summarize(filtered, elapsed)
	for _, res := range filtered {
		m.metrics.ResultKept(string(res.Status))
	}
	if err := r.pause(); err != nil {
		return State{}, err
	}

	return r.complete(len(records), filtered, summary)
}

// advance moves the machine into phase if the run is still current.
func (r *run) advance(phase Phase) error {
	if err := r.ctx.Err(); err != nil {
		if !r.current() {
			return errStale
		}
		return err
	}

	now := time.Now()
	if r.phase != PhaseIdle {
		r.m.metrics.ObservePhase(r.phase.String(), now.Sub(r.phaseStart))
	}
	r.phase, r.phaseStart = phase, now

	m := r.m
	m.mu.Lock()
	if m.generation != r.gen {
		m.mu.Unlock()
		return errStale
	}
	m.state.Phase = phase
	m.state.Progress = phase.Progress()
	m.state.CurrentStep = phase.Step()
	snap := m.state.clone()
	m.mu.Unlock()

	log.Printf("Run %s: %s (%d%%)", r.id, phase.Step(), phase.Progress())
	m.emit(snap)
	return nil
}

// pause applies the simulated latency of the current phase.
func (r *run) pause() error {
	d := r.m.delays[r.phase]
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-r.ctx.Done():
		if !r.current() {
			return errStale
		}
		return r.ctx.Err()
	}
}

func (r *run) current() bool {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.generation == r.gen
}

// complete publishes the results and returns the machine to Idle.
func (r *run) complete(total int, results []model.ClassificationResult, summary model.AnalysisStats) (State, error) {
	r.m.metrics.ObservePhase(r.phase.String(), time.Since(r.phaseStart))

	m := r.m
	m.mu.Lock()
	if m.generation != r.gen {
		m.mu.Unlock()
		return State{}, errStale
	}
	m.state.Phase = PhaseIdle
	m.state.Processing = false
	m.state.Progress = PhaseFinalizing.Progress()
	m.state.CurrentStep = ""
	m.state.TotalRecords = total
	m.state.Results = results
	m.state.Stats = &summary
	snap := m.state.clone()
	m.mu.Unlock()

	log.Printf("Run %s complete in %s: %d records, %d kept, %d threats.",
		r.id, time.Since(r.started).Round(time.Millisecond), total, len(results), summary.Threats())
	m.emit(snap)
	return snap, nil
}
