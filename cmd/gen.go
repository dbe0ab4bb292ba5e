package cmd

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssdfair-sim/ssdfair-sim/sim/trace"
)

var (
	genProcesses int
	genRequests  int
	genSeed      int64
	genOutput    string
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a synthetic I/O trace",
	Long:  "Write a legacy-format CSV trace with fixed 4KiB requests, random read/write mix, and random microsecond inter-arrival gaps. The same seed reproduces the same trace.",
	Run: func(cmd *cobra.Command, args []string) {
		if dir := filepath.Dir(genOutput); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				logrus.Fatalf("Failed to create output directory: %v", err)
			}
		}
		file, err := os.Create(genOutput)
		if err != nil {
			logrus.Fatalf("Failed to create trace file %s: %v", genOutput, err)
		}
		defer func() { _ = file.Close() }()

		cfg := trace.GenConfig{Processes: genProcesses, Requests: genRequests, Seed: genSeed}
		if err := trace.Generate(file, cfg); err != nil {
			logrus.Fatalf("Trace generation failed: %v", err)
		}
		logrus.Infof("Wrote %d requests from %d processes to %s", genRequests, genProcesses, genOutput)
	},
}

func init() {
	genCmd.Flags().IntVar(&genProcesses, "processes", 4, "Number of issuing processes")
	genCmd.Flags().IntVar(&genRequests, "requests", 1000, "Number of requests to generate")
	genCmd.Flags().Int64Var(&genSeed, "seed", 42, "Seed for random trace generation")
	genCmd.Flags().StringVar(&genOutput, "output", "", "Output trace path")
	_ = genCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(genCmd)
}
