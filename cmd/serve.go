package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/edps-sim/edps-sim/sim"
)

var listenAddr string // HTTP listen address for serve

// serveCmd exposes one environment over a JSON HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ED environment over HTTP for external agents",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		cfg, err := loadConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		env, err := sim.NewEnvironment(cfg)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		srv := &http.Server{
			Addr:              listenAddr,
			Handler:           newEnvServer(env).routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		logrus.Infof("serving %s on %s", env.Facility(), listenAddr)
		if err := serveUntil(ctx, srv); err != nil {
			logrus.Fatalf("server: %v", err)
		}
	},
}

// serveUntil runs srv until ctx is done, then shuts it down gracefully.
// A failed shutdown is logged, not returned.
func serveUntil(ctx context.Context, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Warnf("server shutdown: %v", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// envServer serialises HTTP access to a single environment.
type envServer struct {
	mu  sync.Mutex
	env *sim.Environment
}

func newEnvServer(env *sim.Environment) *envServer {
	return &envServer{env: env}
}

func (s *envServer) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/reset", s.reset).Methods(http.MethodPost)
	r.HandleFunc("/api/step", s.step).Methods(http.MethodPost)
	r.HandleFunc("/api/observation", s.observation).Methods(http.MethodGet)
	r.HandleFunc("/api/mask", s.mask).Methods(http.MethodGet)
	r.HandleFunc("/api/debug", s.debug).Methods(http.MethodGet)
	r.HandleFunc("/api/metrics", s.metrics).Methods(http.MethodGet)
	r.HandleFunc("/api/facility", s.facility).Methods(http.MethodGet)
	return r
}

type resetRequest struct {
	Seed *int64 `json:"seed,omitempty"`
}

type resetResponse struct {
	EpisodeID   string          `json:"episode_id"`
	Observation sim.Observation `json:"observation"`
	Done        bool            `json:"done"`
	Debug       sim.DebugInfo   `json:"debug"`
}

type stepRequest struct {
	Action sim.Action `json:"action"`
}

type facilityResponse struct {
	Resources  []string  `json:"resources"`
	Capacities []int     `json:"capacities"`
	Acuities   []string  `json:"acuities"`
	Weights    []float64 `json:"weights"`
	Treatments []string  `json:"treatments"`
	Patterns   []string  `json:"patterns"`
	MaxTime    int64     `json:"max_time"`
	WarmUpTime int64     `json:"warm_up_time"`
}

// reset starts a new episode; an empty body uses the configured seed.
func (s *envServer) reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var obs sim.Observation
	if req.Seed != nil {
		obs = s.env.ResetWithSeed(*req.Seed)
	} else {
		obs = s.env.Reset()
	}
	writeJSON(w, http.StatusOK, resetResponse{
		EpisodeID:   s.env.EpisodeID(),
		Observation: obs,
		Done:        s.env.Done(),
		Debug:       s.env.Debug(),
	})
}

func (s *envServer) step(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.env.Step(req.Action)
	if err != nil {
		writeError(w, stepErrorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// stepErrorStatus maps a rejected step to 400 for malformed actions and 409 for
// actions that conflict with the current environment state.
func stepErrorStatus(err error) int {
	switch {
	case errors.Is(err, sim.ErrInvalidAction):
		return http.StatusBadRequest
	case sim.IsContractViolation(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *envServer) observation(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obs := s.env.Observation()
	writeJSON(w, http.StatusOK, map[string]any{"observation": obs, "flat": obs.Flatten()})
}

func (s *envServer) mask(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"mask": s.env.ActionMask(), "valid": s.env.ValidAssignments()})
}

func (s *envServer) debug(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.env.Debug())
}

func (s *envServer) metrics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, sim.EpisodeResults{
		EpisodeID:      s.env.EpisodeID(),
		MetricsSummary: s.env.Metrics().Summarize(s.env.Facility().Capacities),
	})
}

func (s *envServer) facility(w http.ResponseWriter, r *http.Request) {
	f := s.env.Facility()
	patterns := make([]string, len(f.Patterns))
	for p := range patterns {
		patterns[p] = f.PatternLabels[p] + ": " + f.PatternString(p)
	}
	writeJSON(w, http.StatusOK, facilityResponse{
		Resources:  f.ResourceLabels,
		Capacities: f.Capacities,
		Acuities:   f.AcuityLabels,
		Weights:    f.AcuityWeights,
		Treatments: f.TreatmentLabels,
		Patterns:   patterns,
		MaxTime:    f.MaxTime,
		WarmUpTime: f.WarmUpTime,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "HTTP listen address")
}
