package sim

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/edps-sim/edps-sim/sim/trace"
	"github.com/edps-sim/edps-sim/sim/workload"
)

// Environment is the steppable patient-flow simulation.
// It owns the clock, the resource pool, the queue table, the event schedule and
// the patient store. It is NOT safe for concurrent use.
type Environment struct {
	facility *Facility

	state    EnvState
	clock    int64
	pool     *ResourcePool
	queues   *QueueTable
	schedule *EventSchedule
	patients []*Patient

	rng       *PartitionedRNG
	metrics   *Metrics
	trace     *trace.SimulationTrace
	episodeID string
}

// StepResult is what a successful Step returns.
type StepResult struct {
	Observation Observation `json:"observation"`
	Reward      float64     `json:"reward"`
	Done        bool        `json:"done"`
	Debug       DebugInfo   `json:"debug"`
}

// NewEnvironment validates cfg and builds an idle environment.
// Configuration errors are returned and nothing runs.
func NewEnvironment(cfg *Config) (*Environment, error) {
	f, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	return NewEnvironmentFromFacility(f), nil
}

// NewEnvironmentFromFacility builds an idle environment over an already resolved facility.
func NewEnvironmentFromFacility(f *Facility) *Environment {
	e := &Environment{facility: f, state: EnvIdle}
	e.clear()
	return e
}

func (e *Environment) clear() {
	nR, nA := e.facility.NumResources(), e.facility.NumAcuities()
	e.clock = 0
	e.pool = NewResourcePool(e.facility.Capacities)
	e.queues = NewQueueTable(nR, nA)
	e.schedule = NewEventSchedule()
	e.patients = nil
	e.metrics = NewMetrics(nR, nA)
}

// Reset starts a new episode seeded from the configured seed.
func (e *Environment) Reset() Observation {
	return e.ResetWithSeed(e.facility.Seed)
}

// ResetWithSeed starts a new episode with an explicit seed.
// The whole arrival schedule is drawn up front and pushed as arrival events,
// then the clock advances to the first decision point.
func (e *Environment) ResetWithSeed(seed int64) Observation {
	e.clear()
	e.rng = NewPartitionedRNG(NewSimulationKey(seed))
	e.episodeID = xid.New().String()
	e.trace = trace.NewSimulationTrace(trace.TraceConfig{Level: e.facility.TraceLevel}, e.episodeID)

	arrivals := workload.GenerateArrivals(e.rng.ForSubsystem(SubsystemArrivals), e.facility.Arrival, e.facility.ArrivalHorizon)
	e.patients = make([]*Patient, 0, len(arrivals))
	for i, a := range arrivals {
		order := e.facility.Patterns[a.Pattern]
		p := NewPatient(i, a.Time, a.Acuity, a.Pattern, order)
		p.PendingEvent = true
		e.patients = append(e.patients, p)
		e.schedule.Push(Event{
			Time:      a.Time,
			PatientID: p.ID,
			Freed:     NoResource,
			Next:      e.facility.ResourceOf(order[0]),
		})
	}
	e.metrics.Spawned = len(arrivals)
	logrus.Infof("[t %07d] episode %s reset: seed %d, %d patients spawned", e.clock, e.episodeID, seed, len(arrivals))

	e.advance()
	return e.Observation()
}

// Step admits the patients named by action at the current decision point and
// advances to the next one. The action is validated as a whole first; a rejected
// action leaves the environment untouched and returns a contract-violation error.
func (e *Environment) Step(action Action) (StepResult, error) {
	if err := e.validateAction(action); err != nil {
		return StepResult{}, err
	}
	now := e.clock
	treatRNG := e.rng.ForSubsystem(SubsystemTreatment)
	reward := 0.0
	for _, as := range action {
		if !e.pool.TryAcquire(as.Resource) {
			panic(fmt.Sprintf("Step: resource %d has no free unit after validation", as.Resource))
		}
		id := e.queues.SelectAndRemove(as.Resource, as.Acuity, e.facility.Selection, e.patient, now)
		p := e.patients[id]
		treatment := p.CurrentTreatment()
		duration := e.facility.Duration(treatment, p.Acuity).Sample(treatRNG)
		ev := p.Admit(now, duration, as.Resource, e.facility.ResourceOf)
		e.schedule.Push(ev)

		r := e.admissionReward(p, now)
		reward += r
		e.metrics.RecordAdmission(as.Resource, now, duration, e.facility.MaxTime)
		e.trace.RecordAdmission(trace.AdmissionRecord{
			Time:      now,
			PatientID: id,
			Resource:  as.Resource,
			Acuity:    p.Acuity,
			Treatment: treatment,
			Duration:  duration,
			Waited:    p.WaitingTime,
			Reward:    r,
		})
		logrus.Debugf("[t %07d] patient %d admitted to %s for %s (%d ticks), waited %d",
			now, id, e.facility.ResourceLabels[as.Resource], e.facility.TreatmentLabels[treatment], duration, p.WaitingTime)
	}
	e.metrics.TotalReward += reward

	e.advance()
	return StepResult{
		Observation: e.Observation(),
		Reward:      reward,
		Done:        e.state == EnvTerminated,
		Debug:       e.Debug(),
	}, nil
}

// admissionReward is the negative accumulated wait of p scaled by its acuity weight.
// Admissions during warm-up earn nothing.
func (e *Environment) admissionReward(p *Patient, now int64) float64 {
	if now < e.facility.WarmUpTime {
		return 0
	}
	return -e.facility.AcuityWeights[p.Acuity] * float64(p.WaitingTime)
}

func (e *Environment) patient(id int) *Patient {
	return e.patients[id]
}

// Clock returns the current simulation time.
func (e *Environment) Clock() int64 { return e.clock }

// State returns the decision-process state.
func (e *Environment) State() EnvState { return e.state }

// Done reports whether the episode has terminated.
func (e *Environment) Done() bool { return e.state == EnvTerminated }

// Facility returns the resolved configuration.
func (e *Environment) Facility() *Facility { return e.facility }

// Metrics returns the live metrics of the current episode.
func (e *Environment) Metrics() *Metrics { return e.metrics }

// Trace returns the decision trace of the current episode, nil before the first reset.
func (e *Environment) Trace() *trace.SimulationTrace { return e.trace }

// EpisodeID returns the unique id of the current episode, empty before the first reset.
func (e *Environment) EpisodeID() string { return e.episodeID }

// Patients returns copies of every spawned patient, indexed by id.
func (e *Environment) Patients() []Patient {
	out := make([]Patient, len(e.patients))
	for i, p := range e.patients {
		out[i] = *p
		out[i].Order = append([]int(nil), p.Order...)
	}
	return out
}

// ActionMask reports, per (resource, acuity), whether a single assignment there
// would be accepted right now.
func (e *Environment) ActionMask() [][]bool {
	nR, nA := e.facility.NumResources(), e.facility.NumAcuities()
	mask := make([][]bool, nR)
	for r := range mask {
		mask[r] = make([]bool, nA)
		if e.state != EnvAwaitingAction || e.pool.Free(r) == 0 {
			continue
		}
		for a := range mask[r] {
			mask[r][a] = !e.queues.IsEmpty(r, a)
		}
	}
	return mask
}

// ValidAssignments lists the single assignments ActionMask allows, resource-major.
func (e *Environment) ValidAssignments() []Assignment {
	var out []Assignment
	for r, row := range e.ActionMask() {
		for a, ok := range row {
			if ok {
				out = append(out, Assignment{Resource: r, Acuity: a})
			}
		}
	}
	return out
}
