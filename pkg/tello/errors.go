package tello

import "errors"

// Sentinel errors for the drone link.
var (
	// ErrTimeout is returned when the drone does not answer in time.
	ErrTimeout = errors.New("tello: timed out")

	// ErrNotConnected is returned for stream calls before Connect.
	ErrNotConnected = errors.New("tello: not connected")

	// ErrNotStreaming is returned by Frame when the stream is off.
	ErrNotStreaming = errors.New("tello: video stream is off")

	// ErrNoFrame is returned by Frame before the first frame is decoded.
	ErrNoFrame = errors.New("tello: no frame decoded yet")

	// ErrDecoderClosed is returned when writing to a stopped decoder.
	ErrDecoderClosed = errors.New("tello: decoder closed")
)
