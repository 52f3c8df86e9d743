package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/edps-sim/edps-sim/sim"
	"github.com/edps-sim/edps-sim/sim/policy"
)

var (
	// CLI flags for play
	serverURL     string        // Base URL of a running serve command
	playPolicy    string        // Built-in policy choosing actions client-side
	playSeed      int64         // Episode seed sent with reset
	playMaxSteps  int           // Abort after this many decisions (0 = unlimited)
	playTimeout   time.Duration // Per-request HTTP timeout
	playRecordOut string        // Write the step records as JSON here
)

// EnvClient talks to an environment exposed by the serve command.
type EnvClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewEnvClient creates a client for the server at baseURL.
func NewEnvClient(baseURL string, timeout time.Duration) *EnvClient {
	return &EnvClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// StatusError is a non-2xx server reply.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Message)
}

// do sends body (when non-nil) as JSON and decodes a 200 reply into out.
func (c *EnvClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s reply: %w", path, err)
	}
	return nil
}

// Reset starts a remote episode with the given seed.
func (c *EnvClient) Reset(ctx context.Context, seed int64) (*resetResponse, error) {
	var out resetResponse
	if err := c.do(ctx, http.MethodPost, "/api/reset", resetRequest{Seed: &seed}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Step submits one action to the remote episode.
func (c *EnvClient) Step(ctx context.Context, action sim.Action) (*sim.StepResult, error) {
	var out sim.StepResult
	if err := c.do(ctx, http.MethodPost, "/api/step", stepRequest{Action: action}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Facility fetches the served facility and rebuilds the parts policies read.
func (c *EnvClient) Facility(ctx context.Context) (*sim.Facility, error) {
	var out facilityResponse
	if err := c.do(ctx, http.MethodGet, "/api/facility", nil, &out); err != nil {
		return nil, err
	}
	return &sim.Facility{
		ResourceLabels:  out.Resources,
		Capacities:      out.Capacities,
		AcuityLabels:    out.Acuities,
		AcuityWeights:   out.Weights,
		TreatmentLabels: out.Treatments,
		MaxTime:         out.MaxTime,
		WarmUpTime:      out.WarmUpTime,
	}, nil
}

// StepRecord captures one remote decision.
type StepRecord struct {
	Step     int        `json:"step"`
	Time     int64      `json:"time"`
	Action   sim.Action `json:"action"`
	Reward   float64    `json:"reward"`
	Duration int64      `json:"round_trip_us"`
}

// Recorder captures step records (goroutine-safe).
type Recorder struct {
	mu      sync.Mutex
	records []StepRecord
}

// Record appends one step record.
func (r *Recorder) Record(rec StepRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

// Records returns a copy of all recorded steps.
func (r *Recorder) Records() []StepRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]StepRecord, len(r.records))
	copy(out, r.records)
	return out
}

// TotalReward sums the recorded rewards.
func (r *Recorder) TotalReward() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0.0
	for _, rec := range r.records {
		total += rec.Reward
	}
	return total
}

// playEpisode drives one remote episode to termination with p.
func playEpisode(ctx context.Context, c *EnvClient, p policy.Policy, seed int64, limit int, rec *Recorder) (string, error) {
	f, err := c.Facility(ctx)
	if err != nil {
		return "", err
	}
	reset, err := c.Reset(ctx, seed)
	if err != nil {
		return "", err
	}
	info, done := reset.Debug, reset.Done
	for step := 0; !done; step++ {
		if limit > 0 && step >= limit {
			return reset.EpisodeID, fmt.Errorf("episode %s exceeded %d steps at t=%d", reset.EpisodeID, limit, info.Time)
		}
		action := p.Choose(info, f)
		start := time.Now()
		res, err := c.Step(ctx, action)
		if err != nil {
			return reset.EpisodeID, fmt.Errorf("step %d at t=%d: %w", step, info.Time, err)
		}
		rec.Record(StepRecord{
			Step:     step,
			Time:     info.Time,
			Action:   action,
			Reward:   res.Reward,
			Duration: time.Since(start).Microseconds(),
		})
		logrus.Debugf("[t %07d] step %d %v -> reward %.2f", info.Time, step, action, res.Reward)
		info, done = res.Debug, res.Done
	}
	return reset.EpisodeID, nil
}

// playCmd drives a served environment over HTTP with a built-in policy
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Drive an environment exposed by serve with a built-in policy",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		if !policy.IsValidPolicy(playPolicy) {
			logrus.Fatalf("unknown policy %q; valid policies: %s", playPolicy, strings.Join(policy.ValidPolicyNames(), ", "))
		}
		client := NewEnvClient(serverURL, playTimeout)
		rec := &Recorder{}
		episodeID, err := playEpisode(cmd.Context(), client, policy.NewPolicy(playPolicy, playSeed), playSeed, playMaxSteps, rec)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Episode %s: %d decisions, total reward %.2f\n", episodeID, len(rec.Records()), rec.TotalReward())
		if playRecordOut != "" {
			if err := writeRecords(playRecordOut, rec.Records()); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
	},
}

func writeRecords(path string, records []StepRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding step records: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing step records: %w", err)
	}
	return nil
}

func init() {
	playCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	playCmd.Flags().StringVar(&serverURL, "url", "http://localhost:8080", "Base URL of the serve command")
	playCmd.Flags().StringVar(&playPolicy, "policy", "greedy-acuity", "Policy: "+strings.Join(policy.ValidPolicyNames(), ", "))
	playCmd.Flags().Int64Var(&playSeed, "seed", 0, "Episode seed sent with reset")
	playCmd.Flags().IntVar(&playMaxSteps, "max-steps", 0, "Abort after this many decisions (0 = unlimited)")
	playCmd.Flags().DurationVar(&playTimeout, "timeout", 30*time.Second, "Per-request HTTP timeout")
	playCmd.Flags().StringVar(&playRecordOut, "record", "", "File to save step records as JSON")
	rootCmd.AddCommand(playCmd)
}
