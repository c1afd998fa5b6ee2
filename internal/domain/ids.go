package domain

import (
	"sync"
	"time"
)

type IDSource interface {
	NextID() int64
}

// ClockIDSource hands out millisecond clock readings, bumped by one when
// the clock has not moved on since the previous call.
type ClockIDSource struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewClockIDSource() *ClockIDSource {
	return &ClockIDSource{now: time.Now}
}

func (s *ClockIDSource) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}
