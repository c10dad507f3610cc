package source

import (
	"fmt"

	"github.com/teslashibe/go-tello-monitor/pkg/tello"
)

// Backend represents the frame source type.
type Backend string

const (
	// BackendCamera reads a local capture device.
	BackendCamera Backend = "camera"
	// BackendTello reads a Tello drone's video downlink.
	BackendTello Backend = "tello"
	// BackendMock serves a synthetic scene for headless runs.
	BackendMock Backend = "mock"
)

// Config selects and configures a source backend.
type Config struct {
	// Backend specifies which source to open.
	// Default: "camera"
	Backend Backend `yaml:"backend" json:"backend"`

	// CameraDevice is the capture device index for the camera backend.
	CameraDevice int `yaml:"camera_device" json:"camera_device"`

	// Tello configures the drone link when no Vehicle is supplied.
	Tello tello.Config `yaml:"tello" json:"tello"`

	// Vehicle is an already-connected vehicle to stream from instead of
	// creating one. It is not closed when the source closes.
	Vehicle Vehicle `yaml:"-" json:"-"`
}

// DefaultConfig returns a Config for capture device 0.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendCamera,
		CameraDevice: 0,
		Tello:        tello.DefaultConfig(),
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendCamera:
		if c.CameraDevice < 0 {
			return fmt.Errorf("camera_device must be >= 0, got %d", c.CameraDevice)
		}
	case BackendTello:
		if c.Vehicle == nil {
			if err := c.Tello.Validate(); err != nil {
				return fmt.Errorf("tello: %w", err)
			}
		}
	case BackendMock:
	default:
		return fmt.Errorf("unknown source backend %q", c.Backend)
	}
	return nil
}
