package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions       int         `json:"total_decisions"`
	AdmissionsByResource map[int]int `json:"admissions_by_resource"` // resource id → admissions
	AdmissionsByAcuity   map[int]int `json:"admissions_by_acuity"`   // acuity → admissions
	MeanReward           float64     `json:"mean_reward"`
	MaxWait              int64       `json:"max_wait"`
	Exits                int         `json:"exits"`
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		AdmissionsByResource: make(map[int]int),
		AdmissionsByAcuity:   make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Admissions)
	if len(st.Admissions) > 0 {
		totalReward := 0.0
		for _, a := range st.Admissions {
			summary.AdmissionsByResource[a.Resource]++
			summary.AdmissionsByAcuity[a.Acuity]++
			totalReward += a.Reward
			if a.Waited > summary.MaxWait {
				summary.MaxWait = a.Waited
			}
		}
		summary.MeanReward = totalReward / float64(len(st.Admissions))
	}

	for _, e := range st.Events {
		if e.Kind == EventExit {
			summary.Exits++
		}
	}
	return summary
}
