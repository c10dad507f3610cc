// HorsePower Tello Monitor - colour detection over a webcam or Tello feed.
// Press q in the window (or in the web viewer) to quit.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-tello-monitor/internal/config"
	"github.com/teslashibe/go-tello-monitor/internal/log"
	"github.com/teslashibe/go-tello-monitor/pkg/display"
	"github.com/teslashibe/go-tello-monitor/pkg/monitor"
	"github.com/teslashibe/go-tello-monitor/pkg/source"
)

func main() {
	cfg, level := parseFlags()

	log.Init(level)
	logger := log.L()

	r, err := monitor.New(cfg, logger)
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting monitor", "run", r.ID(), "source", cfg.Source.Backend, "display", cfg.Display)
	if err := r.Run(ctx); err != nil {
		log.Error("monitor failed", "error", err)
		cancel()
		os.Exit(1)
	}
}

// parseFlags parses command line flags and returns configuration.
// Environment variables provide the flag defaults.
func parseFlags() (monitor.Config, string) {
	cfg := monitor.DefaultConfig()
	cfg.LoadEnvConfig()

	tello := flag.Bool("tello", false, "Stream from a Tello drone instead of the local camera")
	backend := flag.String("source", string(source.BackendCamera), "Frame source: camera, tello, mock")
	device := flag.Int("device", cfg.Source.CameraDevice, "Camera device index (CAMERA_DEVICE)")
	telloPort := flag.String("tello-port", cfg.Source.Tello.Port, "Local UDP port for the drone link (TELLO_PORT)")
	split := flag.Bool("split", false, "Show the combined colour mask beside the annotated frame")
	debug := flag.Bool("debug", false, "Print '<Color> Spotted at <time>' lines to stdout")
	disp := flag.String("display", string(display.BackendWindow), "Display: window, web, none")
	port := flag.String("port", cfg.Web.Port, "Web viewer port (MONITOR_WEB_PORT)")
	ranges := flag.String("ranges", "", "YAML file of colour ranges (default Red and Blue)")
	level := flag.String("log-level", config.LogLevel("info"), "Log level: debug, info, warn, error (LOG_LEVEL)")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg.Source.Backend = source.Backend(*backend)
	if *tello {
		cfg.UseRemote()
	}
	cfg.Source.CameraDevice = *device
	cfg.Source.Tello.Port = *telloPort
	cfg.SplitView = *split
	cfg.DebugLog = *debug
	cfg.Display = display.Backend(*disp)
	cfg.Web.Port = *port
	cfg.RangesFile = *ranges

	return cfg, *level
}
