// Package config provides environment helpers for the monitor commands.
// Each helper returns def when its variable is unset or unusable.
package config

import (
	"os"
	"strconv"
)

// TelloPort returns the local UDP port for the drone link from TELLO_PORT.
func TelloPort(def string) string {
	if p := os.Getenv("TELLO_PORT"); p != "" {
		return p
	}
	return def
}

// CameraDevice returns the capture device index from CAMERA_DEVICE.
// Values that are not a non-negative number are ignored.
func CameraDevice(def int) int {
	if v := os.Getenv("CAMERA_DEVICE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

// WebPort returns the viewer port from MONITOR_WEB_PORT.
func WebPort(def string) string {
	if p := os.Getenv("MONITOR_WEB_PORT"); p != "" {
		return p
	}
	return def
}

// LogLevel returns LOG_LEVEL, or the provided default.
func LogLevel(def string) string {
	if l := os.Getenv("LOG_LEVEL"); l != "" {
		return l
	}
	return def
}
