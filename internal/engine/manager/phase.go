package manager

import "fmt"

// Phase is a state of the analysis state machine. A successful run walks
// Validating through Finalizing in order and ends in Idle with results; any
// error ends it in Failed.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseParsing
	PhaseExtracting
	PhaseClassifying
	PhaseFiltering
	PhaseFinalizing
	PhaseFailed
)

var phaseInfo = map[Phase]struct {
	name     string
	progress int
	step     string
}{
	PhaseIdle:        {"idle", 0, ""},
	PhaseValidating:  {"validating", 10, "Validating file format..."},
	PhaseParsing:     {"parsing", 25, "Parsing network traffic data..."},
	PhaseExtracting:  {"extracting", 45, "Extracting traffic features..."},
	PhaseClassifying: {"classifying", 65, "Running CNN threat detection..."},
	PhaseFiltering:   {"filtering", 85, "Filtering results by confidence threshold..."},
	PhaseFinalizing:  {"finalizing", 100, "Analysis complete!"},
	PhaseFailed:      {"failed", 0, ""},
}

func (p Phase) String() string {
	if info, ok := phaseInfo[p]; ok {
		return info.name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Progress is the percentage reported while in the phase.
func (p Phase) Progress() int {
	return phaseInfo[p].progress
}

// Step is the human-readable label shown while in the phase.
func (p Phase) Step() string {
	return phaseInfo[p].step
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for phase, info := range phaseInfo {
		if info.name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase '%s'", text)
}
