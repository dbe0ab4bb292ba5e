package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	sim "github.com/ssdfair-sim/ssdfair-sim/sim"
	"github.com/ssdfair-sim/ssdfair-sim/sim/trace"
)

var (
	// CLI flags for the simulation run
	tracePath        string    // Path to request trace
	policy           string    // Scheduler type: rr, drr, qfq, sgfs
	quantum          float64   // DRR quantum (bytes)
	overrideUsers    int       // Override inferred tenant count
	overrideChannels int       // Channel count
	readBW           float64   // Aggregate read bandwidth (MB/s)
	writeBW          float64   // Aggregate write bandwidth (MB/s)
	weights          []float64 // Per-tenant weights
	rotateEvery      int       // SGFS rotation interval (picks)
	gap              int       // SGFS rotation stride
	outPath          string    // Results CSV path
	logLevel         string    // Log verbosity level
	configPath       string    // Optional YAML experiment file
)

// experimentConfig mirrors the run flags so a whole experiment can live in a
// YAML file. Explicitly-set flags override file values.
type experimentConfig struct {
	Trace       string    `yaml:"trace"`
	Scheduler   string    `yaml:"scheduler"`
	Quantum     float64   `yaml:"quantum"`
	Users       int       `yaml:"users"`
	Channels    int       `yaml:"channels"`
	ReadBWMBps  float64   `yaml:"read_bw_mbps"`
	WriteBWMBps float64   `yaml:"write_bw_mbps"`
	Weights     []float64 `yaml:"weights"`
	RotateEvery int       `yaml:"rotate_every"`
	Gap         int       `yaml:"gap"`
	Output      string    `yaml:"output"`
}

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "ssdfair-sim",
	Short: "Discrete-event simulator for multi-tenant SSD fairness scheduling",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a trace through a fairness policy and report per-tenant stats",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg := resolveExperiment(cmd)

		if !sim.IsValidScheduler(cfg.Scheduler) {
			logrus.Fatalf("Unknown scheduler policy: %s", cfg.Scheduler)
		}

		requests, err := trace.Load(cfg.Trace)
		if err != nil {
			logrus.Fatalf("Failed to load trace %s: %v", cfg.Trace, err)
		}

		// Tenant count comes from the trace unless overridden.
		numUsers := cfg.Users
		if numUsers <= 0 {
			numUsers = trace.MaxUserID(requests) + 1
		}

		simCfg := sim.Config{
			NumUsers:    numUsers,
			NumChannels: cfg.Channels,
			ReadBWMBps:  cfg.ReadBWMBps,
			WriteBWMBps: cfg.WriteBWMBps,
		}

		sched, err := sim.NewScheduler(cfg.Scheduler, cfg.RotateEvery, cfg.Gap)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		sched.SetUsers(numUsers)
		sched.SetQuantum(cfg.Quantum)
		if len(cfg.Weights) > 0 {
			sched.SetWeights(cfg.Weights)
		}

		logrus.Infof("Starting simulation: policy=%s users=%d channels=%d read=%gMB/s write=%gMB/s requests=%d",
			cfg.Scheduler, numUsers, cfg.Channels, cfg.ReadBWMBps, cfg.WriteBWMBps, len(requests))

		s := sim.NewSimulator(simCfg, sched, requests)
		s.Run()

		s.Metrics.Print()

		// A failed results write is logged but does not fail the run: the
		// simulation itself completed.
		if err := s.Metrics.SaveCSV(cfg.Output); err != nil {
			logrus.Errorf("Failed to write results to %s: %v", cfg.Output, err)
		} else {
			fmt.Printf("Results saved to %s\n", cfg.Output)
		}
	},
}

// resolveExperiment merges the optional YAML experiment file with the CLI
// flags. File values fill in anything the user did not set explicitly;
// changed flags always win.
func resolveExperiment(cmd *cobra.Command) experimentConfig {
	cfg := experimentConfig{
		Trace:       tracePath,
		Scheduler:   policy,
		Quantum:     quantum,
		Users:       overrideUsers,
		Channels:    overrideChannels,
		ReadBWMBps:  readBW,
		WriteBWMBps: writeBW,
		Weights:     weights,
		RotateEvery: rotateEvery,
		Gap:         gap,
		Output:      outPath,
	}
	if configPath == "" {
		return cfg
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		logrus.Fatalf("Failed to read config %s: %v", configPath, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Fatalf("Failed to parse config %s: %v", configPath, err)
	}

	flags := cmd.Flags()
	if flags.Changed("trace") {
		cfg.Trace = tracePath
	}
	if flags.Changed("scheduler") {
		cfg.Scheduler = policy
	}
	if flags.Changed("quantum") {
		cfg.Quantum = quantum
	}
	if flags.Changed("users") {
		cfg.Users = overrideUsers
	}
	if flags.Changed("channels") {
		cfg.Channels = overrideChannels
	}
	if flags.Changed("read-bw") {
		cfg.ReadBWMBps = readBW
	}
	if flags.Changed("write-bw") {
		cfg.WriteBWMBps = writeBW
	}
	if flags.Changed("weights") {
		cfg.Weights = weights
	}
	if flags.Changed("rotate-every") {
		cfg.RotateEvery = rotateEvery
	}
	if flags.Changed("gap") {
		cfg.Gap = gap
	}
	if flags.Changed("out") {
		cfg.Output = outPath
	}
	return cfg
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&tracePath, "trace", "traces/example.csv", "Path to the request trace (CSV or blkparse)")
	runCmd.Flags().StringVar(&policy, "scheduler", sim.PolicyWeightedFair, "Scheduling policy (rr, drr, qfq, sgfs)")
	runCmd.Flags().Float64Var(&quantum, "quantum", sim.DefaultQuantum, "DRR byte quantum")
	runCmd.Flags().IntVar(&overrideUsers, "users", 0, "Override the tenant count inferred from the trace")
	runCmd.Flags().IntVar(&overrideChannels, "channels", 8, "Number of parallel channels")
	runCmd.Flags().Float64Var(&readBW, "read-bw", 2000, "Aggregate read bandwidth (MB/s)")
	runCmd.Flags().Float64Var(&writeBW, "write-bw", 1200, "Aggregate write bandwidth (MB/s)")
	runCmd.Flags().Float64SliceVar(&weights, "weights", nil, "Comma-separated per-tenant weights")
	runCmd.Flags().IntVar(&rotateEvery, "rotate-every", sim.DefaultRotateEvery, "SGFS rotation interval in picks")
	runCmd.Flags().IntVar(&gap, "gap", sim.DefaultGap, "SGFS rotation stride")
	runCmd.Flags().StringVar(&outPath, "out", "build/results.csv", "Per-tenant results CSV path")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&configPath, "config", "", "Optional YAML experiment file mirroring the run flags")

	rootCmd.AddCommand(runCmd)
}
