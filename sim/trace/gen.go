package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
)

// GenConfig parameterizes synthetic trace generation.
type GenConfig struct {
	Processes int   // number of distinct issuing processes
	Requests  int   // total rows to emit
	Seed      int64 // rng seed; same seed, same trace
}

// Generate writes a synthetic legacy-format CSV trace to w: fixed 4 KiB
// requests, 4 KiB-aligned addresses, and random 1-1000 microsecond gaps
// between consecutive arrivals. Randomness stays outside the simulation
// core, so replaying the generated file is fully deterministic.
func Generate(w io.Writer, cfg GenConfig) error {
	if cfg.Processes < 1 {
		return fmt.Errorf("generate: need at least one process, got %d", cfg.Processes)
	}
	if cfg.Requests < 0 {
		return fmt.Errorf("generate: negative request count %d", cfg.Requests)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"timestamp", "process_id", "type", "address", "size"}); err != nil {
		return fmt.Errorf("writing trace header: %w", err)
	}

	const sizeBytes = 4096
	timestamp := int64(0)
	for i := 0; i < cfg.Requests; i++ {
		process := fmt.Sprintf("process%d", rng.Intn(cfg.Processes)+1)
		op := "READ"
		if rng.Intn(2) == 1 {
			op = "WRITE"
		}
		address := rng.Int63n(1<<40) / sizeBytes * sizeBytes

		row := []string{
			strconv.FormatInt(timestamp, 10),
			process,
			op,
			strconv.FormatInt(address, 10),
			strconv.Itoa(sizeBytes),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing trace row %d: %w", i, err)
		}
		timestamp += rng.Int63n(1000) + 1
	}

	writer.Flush()
	return writer.Error()
}
