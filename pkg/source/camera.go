package source

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-tello-monitor/pkg/detection"
	"gocv.io/x/gocv"
)

// Camera reads frames from a local OpenCV capture device.
type Camera struct {
	device  int
	capture *gocv.VideoCapture
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewCamera opens the capture device with the given index.
func NewCamera(device int, logger *slog.Logger) (*Camera, error) {
	if logger == nil {
		logger = slog.Default()
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("open camera %d: device not available", device)
	}

	logger.Info("camera opened", "device", device)
	return &Camera{device: device, capture: capture, logger: logger}, nil
}

// Acquire blocks until the device delivers the next frame.
func (c *Camera) Acquire() (gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return gocv.Mat{}, ErrClosed
	}

	frame := gocv.NewMat()
	if ok := c.capture.Read(&frame); !ok || frame.Empty() {
		frame.Close()
		return gocv.Mat{}, fmt.Errorf("camera %d: %w", c.device, ErrEmptyFrame)
	}
	return frame, nil
}

// ChannelOrder returns BGR, OpenCV's capture layout.
func (c *Camera) ChannelOrder() detection.ChannelOrder {
	return detection.OrderBGR
}

// Name returns "camera".
func (c *Camera) Name() string {
	return string(BackendCamera)
}

// Close releases the device.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.logger.Info("camera released", "device", c.device)
	return c.capture.Close()
}
