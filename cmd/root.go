package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/edps-sim/edps-sim/sim"
	"github.com/edps-sim/edps-sim/sim/policy"
	"github.com/edps-sim/edps-sim/sim/trace"
)

var (
	// CLI flags shared by run, describe and serve
	configPath string // Facility YAML
	logLevel   string // Log verbosity level
	seed       int64  // Overrides the config seed when set
	maxTime    int64  // Overrides max_time when > 0

	// CLI flags for run
	policyName      string // Built-in policy driving the episodes
	episodes        int    // Number of episodes, seeded seed, seed+1, ...
	maxSteps        int    // Abort an episode after this many decisions (0 = unlimited)
	traceLevel      string // Overrides the config trace level when non-empty
	checkInvariants bool   // Verify engine bookkeeping after every step
	resultsPath     string // Write per-episode metrics JSON here
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "edps-sim",
	Short: "Discrete-event simulator for emergency department patient flow",
}

// runOptions gathers the run flags so episodes can be driven without cobra.
type runOptions struct {
	Policy          string
	Episodes        int
	MaxSteps        int
	CheckInvariants bool
	ResultsPath     string
}

// runCmd drives episodes of the environment with a built-in policy
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run episodes of the ED simulation under a built-in policy",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		cfg, err := loadConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if traceLevel != "" {
			cfg.Trace = traceLevel
		}
		opts := runOptions{
			Policy:          policyName,
			Episodes:        episodes,
			MaxSteps:        maxSteps,
			CheckInvariants: checkInvariants,
			ResultsPath:     resultsPath,
		}
		if _, err := runEpisodes(cmd.OutOrStdout(), cfg, opts); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// setLogLevel applies the --log flag to logrus.
func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// loadConfig reads --config and applies the flag overrides the user set explicitly.
func loadConfig(cmd *cobra.Command) (*sim.Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("facility config not provided (use --config)")
	}
	cfg, err := sim.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if maxTime > 0 {
		cfg.MaxTime = maxTime
		if cfg.ArrivalHorizon > cfg.MaxTime {
			cfg.ArrivalHorizon = 0
		}
	}
	return cfg, nil
}

// runEpisodes runs opts.Episodes episodes seeded cfg.Seed, cfg.Seed+1, ... and
// prints the metrics block of each, plus a reward summary when there are several.
func runEpisodes(w io.Writer, cfg *sim.Config, opts runOptions) ([]*policy.EpisodeResult, error) {
	if !policy.IsValidPolicy(opts.Policy) {
		return nil, fmt.Errorf("unknown policy %q; valid policies: %s",
			opts.Policy, strings.Join(policy.ValidPolicyNames(), ", "))
	}
	if opts.Episodes < 1 {
		return nil, fmt.Errorf("--episodes must be >= 1, got %d", opts.Episodes)
	}
	env, err := sim.NewEnvironment(cfg)
	if err != nil {
		return nil, err
	}
	f := env.Facility()
	logrus.Infof("%s", f)
	p := policy.NewPolicy(opts.Policy, cfg.Seed)

	results := make([]*policy.EpisodeResult, 0, opts.Episodes)
	for i := 0; i < opts.Episodes; i++ {
		res, err := policy.RunEpisode(env, p, policy.RunOptions{
			Seed:            cfg.Seed + int64(i),
			MaxSteps:        opts.MaxSteps,
			CheckInvariants: opts.CheckInvariants,
		})
		if err != nil {
			return nil, fmt.Errorf("episode %d: %w", i, err)
		}
		results = append(results, res)

		fmt.Fprintf(w, "Episode %d (%s, policy %s, seed %d, %d decisions)\n", i, res.EpisodeID, res.Policy, res.Seed, res.Steps)
		env.Metrics().Print(w, f)
		if res.Trace != nil {
			printTraceSummary(w, res.Trace, f)
		}
		if opts.ResultsPath != "" {
			path := resultsFile(opts.ResultsPath, i, opts.Episodes)
			if err := env.Metrics().SaveResults(path, res.EpisodeID, f.Capacities); err != nil {
				return nil, err
			}
			logrus.Infof("results written to %s", path)
		}
	}
	if len(results) > 1 {
		printRewardSummary(w, results)
	}
	return results, nil
}

// resultsFile returns path for a single episode, or path with the episode index
// inserted before the extension when several episodes are run.
func resultsFile(path string, i, n int) string {
	if n == 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), i, ext)
}

func printTraceSummary(w io.Writer, ts *trace.TraceSummary, f *sim.Facility) {
	fmt.Fprintln(w, "=== Trace Summary ===")
	fmt.Fprintf(w, "Decisions            : %d\n", ts.TotalDecisions)
	for r, label := range f.ResourceLabels {
		fmt.Fprintf(w, "  %-18s : %d admissions\n", label, ts.AdmissionsByResource[r])
	}
	fmt.Fprintf(w, "Longest Wait         : %d ticks\n", ts.MaxWait)
}

func printRewardSummary(w io.Writer, results []*policy.EpisodeResult) {
	rewards := make([]float64, len(results))
	waits := make([]float64, len(results))
	for i, res := range results {
		rewards[i] = res.TotalReward()
		waits[i] = res.Summary.MeanWait
	}
	mean, std := stat.MeanStdDev(rewards, nil)
	fmt.Fprintln(w, "=== Policy Summary ===")
	fmt.Fprintf(w, "Episodes             : %d\n", len(results))
	fmt.Fprintf(w, "Reward               : mean %.2f, stddev %.2f\n", mean, std)
	fmt.Fprintf(w, "Average Wait         : %.2f ticks\n", stat.Mean(waits, nil))
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	for _, c := range []*cobra.Command{runCmd, describeCmd, serveCmd} {
		c.Flags().StringVar(&configPath, "config", "", "Path to the facility YAML")
		c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
		c.Flags().Int64Var(&seed, "seed", 0, "Seed overriding the config seed")
		c.Flags().Int64Var(&maxTime, "max-time", 0, "Episode length in ticks overriding max_time (0 = use config)")
		rootCmd.AddCommand(c)
	}

	runCmd.Flags().StringVar(&policyName, "policy", "greedy-acuity", "Policy: "+strings.Join(policy.ValidPolicyNames(), ", "))
	runCmd.Flags().IntVar(&episodes, "episodes", 1, "Number of episodes")
	runCmd.Flags().IntVar(&maxSteps, "max-steps", 0, "Abort an episode after this many decisions (0 = unlimited)")
	runCmd.Flags().StringVar(&traceLevel, "trace", "", "Trace level overriding the config: none, decisions, events")
	runCmd.Flags().BoolVar(&checkInvariants, "check-invariants", false, "Verify engine bookkeeping after every step")
	runCmd.Flags().StringVar(&resultsPath, "results-path", "", "File to save episode metrics as JSON")
}
