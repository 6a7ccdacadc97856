package acquire

import (
	"sync"
	"time"
)

// Stats keeps a fixed-size ring of recent processing durations.
type Stats struct {
	mu        sync.Mutex
	durations []time.Duration
	next      int
	filled    int
	total     int64
}

// NewStats builds a ring holding up to window samples.
func NewStats(window int) *Stats {
	if window <= 0 {
		window = 1
	}
	return &Stats{durations: make([]time.Duration, window)}
}

// Record adds a sample, evicting the oldest when the ring is full.
func (s *Stats) Record(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durations[s.next] = d
	s.next = (s.next + 1) % len(s.durations)
	if s.filled < len(s.durations) {
		s.filled++
	}
	s.total++
}

// Average returns the mean of the retained samples, zero when empty.
func (s *Stats) Average() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filled == 0 {
		return 0
	}
	var sum time.Duration
	for i := 0; i < s.filled; i++ {
		sum += s.durations[i]
	}
	return sum / time.Duration(s.filled)
}

// Total returns how many samples were ever recorded.
func (s *Stats) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Window returns how many samples are currently retained.
func (s *Stats) Window() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filled
}
