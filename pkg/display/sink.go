// Package display delivers annotated frames to an operator and reports
// when the operator asks to stop.
package display

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-tello-monitor/pkg/detection"
	"gocv.io/x/gocv"
)

// Title is the window and page title.
const Title = "HorsePower Tello Monitor"

// QuitKey is the key that stops the monitor.
const QuitKey = 'q'

// ErrClosed is returned by Show after Close.
var ErrClosed = errors.New("display: closed")

// Sink receives one display image per loop iteration.
type Sink interface {
	// Show presents frame, which is in BGR order. The sink must not keep a
	// reference to frame after returning.
	Show(frame gocv.Mat) error

	// PollQuit waits up to timeout for a quit request and reports whether
	// one arrived.
	PollQuit(timeout time.Duration) bool

	// Close tears the sink down. It is safe to call Close multiple times.
	Close() error
}

// Reporter is implemented by sinks that publish per-frame detections.
type Reporter interface {
	Report(dets []detection.Detection)
}

// Backend represents the display type.
type Backend string

const (
	// BackendWindow opens a native OpenCV window.
	BackendWindow Backend = "window"
	// BackendWeb serves frames to browsers over websocket.
	BackendWeb Backend = "web"
	// BackendNone discards frames; the monitor runs until cancelled.
	BackendNone Backend = "none"
)

// New opens the sink for backend. Web sinks are started before returning.
func New(backend Backend, web WebConfig, ranges []detection.ColorRange, logger *slog.Logger) (Sink, error) {
	switch backend {
	case BackendWindow, "":
		return NewWindow(Title), nil
	case BackendWeb:
		w := NewWeb(web, ranges, logger)
		if err := w.Start(); err != nil {
			return nil, err
		}
		return w, nil
	case BackendNone:
		return Discard{}, nil
	default:
		return nil, fmt.Errorf("display: unknown backend %q", backend)
	}
}

// Discard drops every frame and never asks to quit.
type Discard struct{}

func (Discard) Show(gocv.Mat) error { return nil }

func (Discard) PollQuit(timeout time.Duration) bool {
	time.Sleep(timeout)
	return false
}

func (Discard) Close() error { return nil }
