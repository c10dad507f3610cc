package display

import (
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MockSink records what it is shown. It requests a quit on the Nth poll.
type MockSink struct {
	mu      sync.Mutex
	quitAt  int // 1-based poll that returns true, 0 = never
	polls   int
	shows   int
	closes  int
	closed  bool
	last    gocv.Mat
	hasLast bool
}

// NewMockSink creates a mock that quits on poll number quitAt.
func NewMockSink(quitAt int) *MockSink {
	return &MockSink{quitAt: quitAt}
}

// Show keeps a copy of frame.
func (m *MockSink) Show(frame gocv.Mat) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.shows++
	if m.hasLast {
		m.last.Close()
	}
	m.last = frame.Clone()
	m.hasLast = true
	return nil
}

// PollQuit returns true on the configured poll and every poll after it.
func (m *MockSink) PollQuit(time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.polls++
	return m.quitAt > 0 && m.polls >= m.quitAt
}

// Close counts the teardown and releases the stored frame.
func (m *MockSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closes++
	if m.closed {
		return nil
	}
	m.closed = true
	if m.hasLast {
		m.last.Close()
		m.hasLast = false
	}
	return nil
}

// Last returns a clone of the last shown frame; ok is false if none.
func (m *MockSink) Last() (gocv.Mat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasLast {
		return gocv.Mat{}, false
	}
	return m.last.Clone(), true
}

// Shows returns how many frames were shown.
func (m *MockSink) Shows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shows
}

// Closes returns how many times Close was called.
func (m *MockSink) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

// Ensure MockSink implements Sink.
var _ Sink = (*MockSink)(nil)
