// Package monitor runs the acquire, detect, display loop against one frame
// source and one display sink until the operator quits.
package monitor

import (
	"fmt"

	"github.com/teslashibe/go-tello-monitor/internal/config"
	"github.com/teslashibe/go-tello-monitor/pkg/detection"
	"github.com/teslashibe/go-tello-monitor/pkg/display"
	"github.com/teslashibe/go-tello-monitor/pkg/source"
)

// Config holds all configuration for a monitor run.
// Flag parsing is done in cmd/monitor/main.go; this struct is data only.
type Config struct {
	// Source selects the camera, the drone, or the synthetic scene.
	// Set Source.Vehicle to stream from an already-connected drone.
	Source source.Config

	// SplitView shows the combined colour mask beside the annotated frame.
	SplitView bool

	// DebugLog prints "<Color> Spotted at <time>" lines to stdout.
	DebugLog bool

	// Display selects the sink: "window", "web" or "none".
	Display display.Backend

	// Web configures the browser sink.
	Web display.WebConfig

	// RangesFile is a YAML range set replacing Ranges when set.
	RangesFile string

	// Ranges are processed in order. Empty means the stock Red and Blue.
	Ranges []detection.ColorRange
}

// DefaultConfig returns a camera-backed, windowed configuration.
func DefaultConfig() Config {
	return Config{
		Source:  source.DefaultConfig(),
		Display: display.BackendWindow,
		Web:     display.DefaultWebConfig(),
	}
}

// UseRemote switches the source to the drone feed.
func (c *Config) UseRemote() {
	c.Source.Backend = source.BackendTello
}

// LoadEnvConfig applies TELLO_PORT, CAMERA_DEVICE and MONITOR_WEB_PORT.
// Unset or invalid variables keep the current values. Call this before
// flag parsing so flags take precedence.
func (c *Config) LoadEnvConfig() {
	c.Source.Tello.Port = config.TelloPort(c.Source.Tello.Port)
	c.Source.CameraDevice = config.CameraDevice(c.Source.CameraDevice)
	c.Web.Port = config.WebPort(c.Web.Port)
}

// Validate checks that the configuration can be run.
func (c *Config) Validate() error {
	if err := c.Source.Validate(); err != nil {
		return &ConfigError{Field: "Source", Message: err.Error()}
	}

	switch c.Display {
	case display.BackendWindow, display.BackendNone:
	case display.BackendWeb:
		if c.Web.Port == "" {
			return &ConfigError{Field: "Web.Port", Message: "web display requires a port"}
		}
	default:
		return &ConfigError{Field: "Display", Message: fmt.Sprintf("unknown display %q", c.Display)}
	}

	for _, r := range c.Ranges {
		if err := r.Validate(); err != nil {
			return &ConfigError{Field: "Ranges", Message: err.Error()}
		}
	}
	return nil
}

// ResolveRanges returns the ranges the run will use.
func (c *Config) ResolveRanges() ([]detection.ColorRange, error) {
	if c.RangesFile != "" {
		ranges, err := detection.LoadRanges(c.RangesFile)
		if err != nil {
			return nil, &ConfigError{Field: "RangesFile", Message: err.Error()}
		}
		return ranges, nil
	}
	if len(c.Ranges) > 0 {
		return c.Ranges, nil
	}
	return detection.DefaultRanges(), nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
