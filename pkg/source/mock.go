package source

import (
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-tello-monitor/pkg/detection"
	"gocv.io/x/gocv"
)

// MockSource is a scripted source for testing. It hands out clones of its
// frames in order and repeats the last one once the script runs out.
type MockSource struct {
	order detection.ChannelOrder

	mu     sync.Mutex
	frames []gocv.Mat
	next   int
	failAt int // 1-based acquisition that fails, 0 = never
	err    error
	closed bool

	acquires atomic.Int64
	closes   atomic.Int64
}

// MockOption configures a MockSource.
type MockOption func(*MockSource)

// WithOrder sets the channel order the mock reports.
func WithOrder(o detection.ChannelOrder) MockOption {
	return func(m *MockSource) {
		m.order = o
	}
}

// WithFailure makes acquisition number n (1-based) return err.
func WithFailure(n int, err error) MockOption {
	return func(m *MockSource) {
		m.failAt = n
		m.err = err
	}
}

// NewMockSource creates a mock serving clones of frames. The mock takes
// ownership of frames and closes them on Close.
func NewMockSource(frames []gocv.Mat, opts ...MockOption) *MockSource {
	m := &MockSource{
		order:  detection.OrderBGR,
		frames: frames,
		err:    ErrEmptyFrame,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire returns a clone of the next scripted frame.
func (m *MockSource) Acquire() (gocv.Mat, error) {
	n := m.acquires.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return gocv.Mat{}, ErrClosed
	}
	if m.failAt > 0 && int(n) == m.failAt {
		return gocv.Mat{}, m.err
	}
	if len(m.frames) == 0 {
		return gocv.Mat{}, ErrEmptyFrame
	}

	frame := m.frames[m.next].Clone()
	if m.next < len(m.frames)-1 {
		m.next++
	}
	return frame, nil
}

// ChannelOrder returns the configured order (BGR by default).
func (m *MockSource) ChannelOrder() detection.ChannelOrder {
	return m.order
}

// Name returns "mock".
func (m *MockSource) Name() string {
	return string(BackendMock)
}

// Close releases the scripted frames.
func (m *MockSource) Close() error {
	m.closes.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for i := range m.frames {
		m.frames[i].Close()
	}
	return nil
}

// Acquires returns how many times Acquire was called.
func (m *MockSource) Acquires() int {
	return int(m.acquires.Load())
}

// Closes returns how many times Close was called.
func (m *MockSource) Closes() int {
	return int(m.closes.Load())
}

// Ensure MockSource implements Source.
var _ Source = (*MockSource)(nil)
