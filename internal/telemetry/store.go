// Package telemetry keeps the rolling history of metric samples and the
// poller that feeds it.
package telemetry

import (
	"sync"
	"time"
)

// DefaultHistorySize is the number of samples retained for the charts.
const DefaultHistorySize = 20

// Sample is one reading of the backend metrics endpoint. Values are
// immutable once captured.
type Sample struct {
	CPUPercent   float64
	RAMPercent   float64
	DiskPercent  float64
	ProcessCount int
	CapturedAt   time.Time
}

// NewSample builds a sample with percentages clamped to [0, 100] and a
// non-negative process count.
func NewSample(cpu, ram, disk float64, processes int, at time.Time) Sample {
	if processes < 0 {
		processes = 0
	}
	return Sample{
		CPUPercent:   clampPercent(cpu),
		RAMPercent:   clampPercent(ram),
		DiskPercent:  clampPercent(disk),
		ProcessCount: processes,
		CapturedAt:   at,
	}
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// Store is a fixed-capacity FIFO of samples. When full, the oldest sample
// is evicted before the newest is written. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	data  []Sample
	head  int
	count int
	first time.Time
}

// NewStore creates an empty store holding at most size samples.
func NewStore(size int) *Store {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &Store{data: make([]Sample, size)}
}

// Append adds s, evicting the oldest sample if the store is full.
func (s *Store) Append(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.first.IsZero() {
		s.first = sample.CapturedAt
	}
	s.data[s.head] = sample
	s.head = (s.head + 1) % len(s.data)
	if s.count < len(s.data) {
		s.count++
	}
}

// Snapshot returns the history oldest first. The slice is a fresh copy on
// every call.
func (s *Store) Snapshot() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastLocked(s.count)
}

// Latest returns the most recent sample. ok is false when the store is empty.
func (s *Store) Latest() (sample Sample, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.count == 0 {
		return Sample{}, false
	}
	idx := (s.head - 1 + len(s.data)) % len(s.data)
	return s.data[idx], true
}

// Series extracts one value per sample, oldest first, for sparklines.
func (s *Store) Series(field func(Sample) float64) []float64 {
	samples := s.Snapshot()
	out := make([]float64, len(samples))
	for i, sm := range samples {
		out[i] = field(sm)
	}
	return out
}

// Len returns the number of samples held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Cap returns the maximum number of samples held.
func (s *Store) Cap() int {
	return len(s.data)
}

// FirstCapturedAt returns the capture time of the first sample ever
// appended, including evicted ones. Zero until the first Append.
func (s *Store) FirstCapturedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.first
}

// lastLocked returns the last n samples oldest first. Must be called with
// s.mu held.
func (s *Store) lastLocked(n int) []Sample {
	if n <= 0 || s.count == 0 {
		return []Sample{}
	}
	if n > s.count {
		n = s.count
	}

	out := make([]Sample, n)
	size := len(s.data)
	start := (s.head - n + size) % size
	for i := 0; i < n; i++ {
		out[i] = s.data[(start+i)%size]
	}
	return out
}

// CPU, RAM and Disk select a series for Store.Series.
func CPU(s Sample) float64  { return s.CPUPercent }
func RAM(s Sample) float64  { return s.RAMPercent }
func Disk(s Sample) float64 { return s.DiskPercent }
