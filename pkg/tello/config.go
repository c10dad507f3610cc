// Package tello drives a DJI Tello over its UDP link and turns its H.264
// downlink into raw RGB frames.
package tello

import (
	"fmt"
	"time"
)

// Tello native stream geometry.
const (
	StreamWidth  = 960
	StreamHeight = 720
)

// Config holds drone link and decoder settings.
type Config struct {
	// Port is the local UDP port the gobot driver listens on.
	Port string `yaml:"port" json:"port"`

	// FrameWidth and FrameHeight set the decoded frame size.
	// ffmpeg scales the stream when they differ from the native 960x720.
	FrameWidth  int `yaml:"frame_width" json:"frame_width"`
	FrameHeight int `yaml:"frame_height" json:"frame_height"`

	// ConnectTimeout bounds the wait for the drone's connection ack.
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`

	// BatteryTimeout bounds the wait for the first flight data packet.
	BatteryTimeout time.Duration `yaml:"battery_timeout" json:"battery_timeout"`

	// FirstFrameTimeout bounds the wait for the first decoded frame after stream-on.
	FirstFrameTimeout time.Duration `yaml:"first_frame_timeout" json:"first_frame_timeout"`

	// KeyframeInterval is how often the video start request is repeated so
	// the drone keeps emitting SPS/PPS for the decoder.
	KeyframeInterval time.Duration `yaml:"keyframe_interval" json:"keyframe_interval"`

	// FFmpegPath is the decoder binary.
	FFmpegPath string `yaml:"ffmpeg_path" json:"ffmpeg_path"`
}

// DefaultConfig returns settings for a Tello on its own access point.
func DefaultConfig() Config {
	return Config{
		Port:              "8888",
		FrameWidth:        StreamWidth,
		FrameHeight:       StreamHeight,
		ConnectTimeout:    10 * time.Second,
		BatteryTimeout:    5 * time.Second,
		FirstFrameTimeout: 10 * time.Second,
		KeyframeInterval:  100 * time.Millisecond,
		FFmpegPath:        "ffmpeg",
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		return fmt.Errorf("frame size must be positive, got %dx%d", c.FrameWidth, c.FrameHeight)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect_timeout must be positive, got %v", c.ConnectTimeout)
	}
	if c.FirstFrameTimeout <= 0 {
		return fmt.Errorf("first_frame_timeout must be positive, got %v", c.FirstFrameTimeout)
	}
	if c.KeyframeInterval <= 0 {
		return fmt.Errorf("keyframe_interval must be positive, got %v", c.KeyframeInterval)
	}
	if c.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg_path is required")
	}
	return nil
}

// FrameSize returns the byte length of one decoded RGB frame.
func (c *Config) FrameSize() int {
	return c.FrameWidth * c.FrameHeight * 3
}
