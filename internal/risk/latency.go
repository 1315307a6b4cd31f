package risk

import "sync"

// latencyCapacity is the rolling window size for processing-time samples.
const latencyCapacity = 10

// maxLatencyMs is the breach threshold for the rolling average.
const maxLatencyMs = 200.0

// LatencyBuffer is a bounded ring of recent per-transaction processing
// times, mutex-guarded so callers need no external synchronization.
type LatencyBuffer struct {
	mu      sync.Mutex
	samples []float64
}

// NewLatencyBuffer creates an empty rolling latency buffer.
func NewLatencyBuffer() *LatencyBuffer {
	return &LatencyBuffer{samples: make([]float64, 0, latencyCapacity)}
}

// Record appends ms, evicting the oldest sample once capacity is exceeded.
func (b *LatencyBuffer) Record(ms float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = append(b.samples, ms)
	if len(b.samples) > latencyCapacity {
		b.samples = b.samples[len(b.samples)-latencyCapacity:]
	}
}

// Average returns the arithmetic mean of retained samples, or 0 if empty.
func (b *LatencyBuffer) Average() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.averageLocked()
}

func (b *LatencyBuffer) averageLocked() float64 {
	if len(b.samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range b.samples {
		sum += s
	}
	return sum / float64(len(b.samples))
}

// IsBreach reports whether the rolling average exceeds maxLatencyMs.
func (b *LatencyBuffer) IsBreach() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.averageLocked() > maxLatencyMs
}

// Samples returns a snapshot copy of the retained samples, oldest first.
func (b *LatencyBuffer) Samples() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]float64, len(b.samples))
	copy(out, b.samples)
	return out
}

// Stats is the read-only projection GetLatencyStats returns over the API.
type Stats struct {
	Average float64   `json:"average"`
	Breach  bool      `json:"breach"`
	History []float64 `json:"history"`
}

// GetStats returns the current average, breach flag, and sample history in
// a single consistent snapshot.
func (b *LatencyBuffer) GetStats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	history := make([]float64, len(b.samples))
	copy(history, b.samples)
	return Stats{
		Average: b.averageLocked(),
		Breach:  b.averageLocked() > maxLatencyMs,
		History: history,
	}
}
