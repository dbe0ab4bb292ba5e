// Package trace decodes I/O request traces into sim.Request records.
//
// Three on-disk formats are recognized, and may be mixed line-by-line in the
// same file:
//
//   - legacy CSV: timestamp_us, process_id, type, address, size
//     (tenant ids auto-assigned in first-seen process order)
//   - extended CSV: timestamp_us, process_id, user_id, type, address, size
//     (explicit tenant id, checked for consistency per process)
//   - Linux blkparse output: whitespace-separated; only action "Q" rows
//     produce requests, sizes are 512-byte sector counts
//
// Comment lines starting with '#' and blank lines are ignored. Timestamps in
// CSV rows are microseconds and are converted to the simulator's seconds
// timeline; blkparse timestamps are already seconds. The returned slice is
// sorted by (arrival time, tenant id).
package trace

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ssdfair-sim/ssdfair-sim/sim"
)

const sectorSizeBytes = 512

// loader carries the per-file tenant-id assignment state.
type loader struct {
	requests     []sim.Request
	processUsers map[string]int
	nextAutoUID  int
}

// Load reads and decodes the trace at path.
func Load(path string) ([]sim.Request, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}
	defer func() { _ = file.Close() }()

	l := &loader{processUsers: make(map[string]int)}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	sawData := false
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if !sawData && looksLikeHeader(trimmed) {
			continue
		}

		if err := l.parseLine(trimmed, lineNo); err != nil {
			return nil, err
		}
		sawData = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading trace file: %w", err)
	}

	sort.SliceStable(l.requests, func(i, j int) bool {
		a, b := l.requests[i], l.requests[j]
		if a.ArrivalTS == b.ArrivalTS {
			return a.UserID < b.UserID
		}
		return a.ArrivalTS < b.ArrivalTS
	})
	return l.requests, nil
}

// MaxUserID returns the highest tenant id in requests, or -1 when empty.
// The CLI uses it to infer the tenant count when no override is given.
func MaxUserID(requests []sim.Request) int {
	max := -1
	for _, r := range requests {
		if r.UserID > max {
			max = r.UserID
		}
	}
	return max
}

// looksLikeHeader reports whether the first comma-separated field fails to
// parse as an integer timestamp. Only consulted before the first data line.
func looksLikeHeader(line string) bool {
	first, _, _ := strings.Cut(line, ",")
	first = strings.TrimSpace(first)
	if first == "" {
		return true
	}
	_, err := strconv.ParseInt(first, 10, 64)
	return err != nil
}

// parseLine dispatches on the comma token count: 6 and 5 are the CSV
// variants, anything else is tried as blkparse output.
func (l *loader) parseLine(line string, lineNo int) error {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	switch len(fields) {
	case 6:
		return l.parseExtendedCSV(fields, lineNo)
	case 5:
		return l.parseLegacyCSV(fields, lineNo)
	}

	handled, err := l.parseBlkparse(line, lineNo)
	if err != nil {
		return err
	}
	if handled {
		return nil
	}
	return fmt.Errorf("line %d: expected CSV or blkparse format", lineNo)
}

func (l *loader) parseExtendedCSV(fields []string, lineNo int) error {
	arrival, err := parseTimestampSeconds(fields[0], lineNo)
	if err != nil {
		return err
	}
	process := fields[1]
	uid, err := strconv.Atoi(fields[2])
	if err != nil {
		return fmt.Errorf("line %d: invalid user_id %q: %w", lineNo, fields[2], err)
	}
	op, err := parseOp(fields[3], lineNo)
	if err != nil {
		return err
	}
	size, err := parseSize(fields[5], lineNo)
	if err != nil {
		return err
	}

	if known, ok := l.processUsers[process]; ok {
		if known != uid {
			return fmt.Errorf("line %d: process %q has conflicting user_id values (%d vs %d)",
				lineNo, process, known, uid)
		}
	} else {
		l.processUsers[process] = uid
	}

	l.append(uid, op, arrival, size)
	return nil
}

func (l *loader) parseLegacyCSV(fields []string, lineNo int) error {
	arrival, err := parseTimestampSeconds(fields[0], lineNo)
	if err != nil {
		return err
	}
	op, err := parseOp(fields[2], lineNo)
	if err != nil {
		return err
	}
	size, err := parseSize(fields[4], lineNo)
	if err != nil {
		return err
	}

	l.append(l.userFor(fields[1]), op, arrival, size)
	return nil
}

// parseBlkparse handles one blkparse output line. It returns (false, nil)
// when the line does not look like blkparse at all, (true, nil) for
// recognized lines (including non-queue actions, which produce no request),
// and an error for malformed queue events.
func (l *loader) parseBlkparse(line string, lineNo int) (bool, error) {
	tokens := strings.Fields(line)
	// device cpu seq timestamp pid action rwbs [sector + count [comm]]
	if len(tokens) < 7 {
		return false, nil
	}
	if !strings.Contains(tokens[0], ",") {
		return false, nil
	}

	arrival, err := strconv.ParseFloat(tokens[3], 64)
	if err != nil {
		return false, nil
	}

	action := tokens[5]
	if action != "Q" {
		// Recognized blkparse event that does not generate a request.
		return true, nil
	}

	if len(tokens) < 10 {
		return true, fmt.Errorf("line %d: incomplete blkparse data for queue event", lineNo)
	}
	if tokens[8] != "+" {
		return true, fmt.Errorf("line %d: expected '+' before sector count", lineNo)
	}
	sectors, err := strconv.ParseUint(tokens[9], 10, 64)
	if err != nil {
		return true, fmt.Errorf("line %d: invalid sector count %q: %w", lineNo, tokens[9], err)
	}
	bytes := sectors * sectorSizeBytes
	if bytes > uint64(^uint32(0)) {
		return true, fmt.Errorf("line %d: request size %d exceeds 32 bits", lineNo, bytes)
	}

	// Tenant identity is the issuing pid, refined with the command name when
	// blkparse printed one ("1234 ... [fio]" becomes "1234:fio").
	label := tokens[4]
	if len(tokens) > 10 {
		comm := strings.TrimPrefix(tokens[10], "[")
		comm = strings.TrimSuffix(comm, "]")
		if comm != "" {
			label += ":" + comm
		}
	}

	op := sim.OpRead
	if strings.Contains(strings.ToUpper(tokens[6]), "W") {
		op = sim.OpWrite
	}

	l.append(l.userFor(label), op, arrival, uint32(bytes))
	return true, nil
}

// userFor returns the auto-assigned tenant id for a process label,
// allocating the next id on first sight.
func (l *loader) userFor(process string) int {
	if uid, ok := l.processUsers[process]; ok {
		return uid
	}
	uid := l.nextAutoUID
	l.processUsers[process] = uid
	l.nextAutoUID++
	return uid
}

func (l *loader) append(uid int, op sim.OpType, arrival float64, size uint32) {
	l.requests = append(l.requests, sim.Request{
		UserID:    uid,
		Op:        op,
		ArrivalTS: arrival,
		SizeBytes: size,
	})
}

func parseTimestampSeconds(field string, lineNo int) (float64, error) {
	us, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid timestamp %q: %w", lineNo, field, err)
	}
	return us / 1e6, nil
}

func parseOp(field string, lineNo int) (sim.OpType, error) {
	switch strings.ToLower(field) {
	case "read":
		return sim.OpRead, nil
	case "write":
		return sim.OpWrite, nil
	}
	return 0, fmt.Errorf("line %d: unknown op type: %q", lineNo, field)
}

func parseSize(field string, lineNo int) (uint32, error) {
	size, err := strconv.ParseUint(field, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid size %q: %w", lineNo, field, err)
	}
	return uint32(size), nil
}
