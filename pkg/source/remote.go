package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-tello-monitor/pkg/detection"
	"gocv.io/x/gocv"
)

// Vehicle is the minimal drone surface the remote source consumes.
// *tello.Driver implements it.
type Vehicle interface {
	Connect(ctx context.Context) error
	Battery(ctx context.Context) (int, error)
	StreamOn(ctx context.Context) error
	// Frame returns whatever the live feed currently holds without blocking.
	Frame() (gocv.Mat, error)
	StreamOff() error
}

// Remote reads frames from a vehicle's live video feed.
type Remote struct {
	vehicle Vehicle
	owned   bool // created by us: halt the link on Close
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewRemote prepares a vehicle for streaming. When connect is true the
// vehicle is connected first; pass false for a handle that is already
// connected. The battery level is reported once and the stream enabled.
// When owned is true, Close also closes the vehicle if it is an io.Closer.
func NewRemote(ctx context.Context, v Vehicle, connect, owned bool, logger *slog.Logger) (*Remote, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if connect {
		if err := v.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect vehicle: %w", err)
		}
	}

	if level, err := v.Battery(ctx); err != nil {
		logger.Warn("battery query failed", "error", err)
	} else {
		logger.Info("vehicle battery", "percent", level)
	}

	if err := v.StreamOn(ctx); err != nil {
		return nil, fmt.Errorf("enable video stream: %w", err)
	}

	return &Remote{vehicle: v, owned: owned, logger: logger}, nil
}

// Acquire returns the current frame of the live feed.
func (r *Remote) Acquire() (gocv.Mat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return gocv.Mat{}, ErrClosed
	}

	frame, err := r.vehicle.Frame()
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("vehicle frame: %w", err)
	}
	if frame.Empty() {
		frame.Close()
		return gocv.Mat{}, fmt.Errorf("vehicle frame: %w", ErrEmptyFrame)
	}
	return frame, nil
}

// ChannelOrder returns RGB, the layout the feed decoder emits.
func (r *Remote) ChannelOrder() detection.ChannelOrder {
	return detection.OrderRGB
}

// Name returns "tello".
func (r *Remote) Name() string {
	return string(BackendTello)
}

// Close disables the video stream.
func (r *Remote) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	err := r.vehicle.StreamOff()
	if err != nil {
		r.logger.Warn("stream off failed", "error", err)
	}
	if c, ok := r.vehicle.(io.Closer); ok && r.owned {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
