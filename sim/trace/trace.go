package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every admission decision.
	TraceLevelDecisions TraceLevel = "decisions"
	// TraceLevelEvents captures admissions plus every fired schedule event.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	TraceLevelEvents:    true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects decision records during one episode.
type SimulationTrace struct {
	Config     TraceConfig
	EpisodeID  string
	Admissions []AdmissionRecord
	Events     []EventRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig, episodeID string) *SimulationTrace {
	return &SimulationTrace{
		Config:     config,
		EpisodeID:  episodeID,
		Admissions: make([]AdmissionRecord, 0),
		Events:     make([]EventRecord, 0),
	}
}

// Enabled reports whether anything is recorded at all.
func (st *SimulationTrace) Enabled() bool {
	return st != nil && st.Config.Level != TraceLevelNone && st.Config.Level != ""
}

// RecordAdmission appends an admission decision record.
func (st *SimulationTrace) RecordAdmission(record AdmissionRecord) {
	if !st.Enabled() {
		return
	}
	st.Admissions = append(st.Admissions, record)
}

// RecordEvent appends a fired-event record. Only kept at TraceLevelEvents.
func (st *SimulationTrace) RecordEvent(record EventRecord) {
	if st == nil || st.Config.Level != TraceLevelEvents {
		return
	}
	st.Events = append(st.Events, record)
}
