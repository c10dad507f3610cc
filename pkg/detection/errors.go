package detection

import "errors"

// Sentinel errors for range configuration and input frames.
var (
	// ErrInvalidRange is returned when a colour range fails validation.
	ErrInvalidRange = errors.New("detection: invalid color range")

	// ErrNoRanges is returned when a range set is empty.
	ErrNoRanges = errors.New("detection: no color ranges configured")

	// ErrFrameFormat is returned for frames that are not 3-channel 8-bit.
	ErrFrameFormat = errors.New("detection: frame must be 8-bit 3-channel")
)
