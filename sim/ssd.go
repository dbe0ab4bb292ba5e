package sim

import (
	"fmt"
)

// channelState tracks when an SSD channel becomes available again.
// freeAt only ever moves forward: every dispatch starts at or after the
// previous completion on that channel.
type channelState struct {
	freeAt float64
}

// SSD models a simple multi-channel flash device. Each channel serves
// requests strictly serially under a fluid-bandwidth model: a request of B
// bytes occupies a channel for B divided by the per-channel byte rate of its
// operation kind.
type SSD struct {
	cfg      Config
	channels []channelState
}

// NewSSD creates a device with cfg.NumChannels idle channels.
func NewSSD(cfg Config) *SSD {
	n := cfg.NumChannels
	if n < 0 {
		n = 0
	}
	return &SSD{
		cfg:      cfg,
		channels: make([]channelState, n),
	}
}

// NumChannels returns the channel count.
func (d *SSD) NumChannels() int {
	return len(d.channels)
}

// ReadServiceTime returns the simulated seconds a read of bytes occupies a
// channel. A zero per-channel rate yields a zero service time.
func (d *SSD) ReadServiceTime(bytes uint32) float64 {
	rate := d.cfg.ReadBytesPerSec()
	if rate <= 0 {
		return 0
	}
	return float64(bytes) / rate
}

// WriteServiceTime returns the service time for a write of bytes.
func (d *SSD) WriteServiceTime(bytes uint32) float64 {
	rate := d.cfg.WriteBytesPerSec()
	if rate <= 0 {
		return 0
	}
	return float64(bytes) / rate
}

// Dispatch places r onto channel idx at time now and returns the completion
// time. The channel starts service at max(now, freeAt) and stays busy for the
// request's service time. An index outside [0, NumChannels) is a programmer
// error and panics.
func (d *SSD) Dispatch(idx int, r Request, now float64) float64 {
	if idx < 0 || idx >= len(d.channels) {
		panic(fmt.Sprintf("Dispatch: channel index %d out of range [0,%d)", idx, len(d.channels)))
	}

	service := d.ReadServiceTime(r.SizeBytes)
	if r.Op == OpWrite {
		service = d.WriteServiceTime(r.SizeBytes)
	}

	ch := &d.channels[idx]
	start := now
	if ch.freeAt > start {
		start = ch.freeAt
	}
	ch.freeAt = start + service
	return ch.freeAt
}

// FirstFreeChannel returns the lowest-indexed channel that is idle at now.
// The linear scan keeps dispatch ordering deterministic; channel counts are
// small (typically 8-16) so nothing faster is warranted.
func (d *SSD) FirstFreeChannel(now float64) (int, bool) {
	for i := range d.channels {
		if d.channels[i].freeAt <= now {
			return i, true
		}
	}
	return -1, false
}

// IsFree reports whether channel idx is available at now.
// Out-of-range indices are simply not free.
func (d *SSD) IsFree(idx int, now float64) bool {
	if idx < 0 || idx >= len(d.channels) {
		return false
	}
	return d.channels[idx].freeAt <= now
}

// FreeAt returns the timestamp when channel idx becomes idle. Useful for
// debugging and visualization; out-of-range indices report zero.
func (d *SSD) FreeAt(idx int) float64 {
	if idx < 0 || idx >= len(d.channels) {
		return 0
	}
	return d.channels[idx].freeAt
}
