// Package source supplies frames to the detection pipeline from either a
// local capture device or a drone's video downlink.
//
// Backends:
//   - camera: OpenCV capture device, blocking reads, BGR frames
//   - tello:  drone live feed, non-blocking latest-frame reads, RGB frames
//   - mock:   scripted frames for tests and headless demos
package source

import (
	"errors"
	"io"

	"github.com/teslashibe/go-tello-monitor/pkg/detection"
	"gocv.io/x/gocv"
)

// Sentinel errors for frame acquisition.
var (
	// ErrEmptyFrame is returned when the device yields no frame or an empty one.
	ErrEmptyFrame = errors.New("source: empty frame")

	// ErrClosed is returned by Acquire after Close.
	ErrClosed = errors.New("source: closed")
)

// Source supplies one frame per Acquire call.
type Source interface {
	// Acquire returns the next frame. The caller owns the Mat and must Close it.
	// On error the returned Mat is zero and must not be used.
	Acquire() (gocv.Mat, error)

	// ChannelOrder is the native layout of acquired frames. The pipeline
	// reorders frames whose order is not canonical RGB: camera frames are
	// BGR and get reordered, tello frames arrive as rgb24 from ffmpeg and
	// do not.
	ChannelOrder() detection.ChannelOrder

	// Name returns the backend name (e.g., "camera", "tello", "mock").
	Name() string

	// Close releases the device or turns the stream off.
	// It is safe to call Close multiple times.
	io.Closer
}

// NeedsReorder reports whether frames from s must be converted to the
// canonical order before detection.
func NeedsReorder(s Source) bool {
	return s.ChannelOrder().NeedsReorder()
}
