package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-tello-monitor/pkg/detection"
	"github.com/teslashibe/go-tello-monitor/pkg/display"
	"github.com/teslashibe/go-tello-monitor/pkg/pipeline"
	"github.com/teslashibe/go-tello-monitor/pkg/source"
)

// ErrAlreadyStarted is returned when Run is called on a used Runner.
var ErrAlreadyStarted = errors.New("monitor: runner already started")

// State is the runner lifecycle position.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Option customizes a Runner.
type Option func(*Runner)

// WithSource runs against src instead of opening cfg.Source. The runner
// still closes it on exit.
func WithSource(src source.Source) Option {
	return func(r *Runner) {
		r.src = src
	}
}

// WithSink shows frames on sink instead of opening cfg.Display. The runner
// still closes it on exit.
func WithSink(sink display.Sink) Option {
	return func(r *Runner) {
		r.sink = sink
	}
}

// Runner owns one source and one sink for a single run:
// Idle -> Running -> Stopped. A Runner cannot be restarted.
type Runner struct {
	cfg    Config
	id     string
	logger *slog.Logger
	ranges []detection.ColorRange
	pipe   *pipeline.Pipeline

	src  source.Source
	sink display.Sink

	state  atomic.Int32
	frames atomic.Int64
}

// New validates cfg and prepares a runner. No device is opened until Run.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	ranges, err := cfg.ResolveRanges()
	if err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:    cfg,
		id:     uuid.NewString(),
		ranges: ranges,
	}
	r.logger = logger.With("run", r.id)
	for _, opt := range opts {
		opt(r)
	}

	r.pipe, err = pipeline.New(pipeline.Config{
		Ranges:    ranges,
		SplitView: cfg.SplitView,
		DebugLog:  cfg.DebugLog,
	}, r.logger)
	if err != nil {
		return nil, &ConfigError{Field: "Ranges", Message: err.Error()}
	}
	return r, nil
}

// ID returns the run identifier attached to every log record.
func (r *Runner) ID() string {
	return r.id
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	return State(r.state.Load())
}

// Frames returns how many frames have been shown.
func (r *Runner) Frames() int64 {
	return r.frames.Load()
}

// Ranges returns a copy of the colour ranges in processing order.
func (r *Runner) Ranges() []detection.ColorRange {
	return slices.Clone(r.ranges)
}

// Run opens the source and sink and processes frames until the sink
// reports a quit, a frame fails, or ctx is cancelled. The source and sink
// are closed exactly once before Run returns. Quit and cancellation return
// nil.
func (r *Runner) Run(ctx context.Context) error {
	if !r.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrAlreadyStarted
	}
	defer r.state.Store(int32(StateStopped))

	start := time.Now()

	src, err := r.openSource(ctx)
	if err != nil {
		r.closeInjected()
		return fmt.Errorf("open source: %w", err)
	}
	sink, err := r.openSink()
	if err != nil {
		r.closeSource(src)
		return fmt.Errorf("open display: %w", err)
	}
	defer func() {
		r.closeSource(src)
		if err := sink.Close(); err != nil {
			r.logger.Warn("display close failed", "error", err)
		}
	}()

	r.logger.Info("monitor running",
		"source", src.Name(),
		"display", r.cfg.Display,
		"split_view", r.cfg.SplitView,
		"ranges", len(r.ranges),
	)

	reason := "quit"
	defer func() {
		r.logger.Info("monitor stopped",
			"reason", reason,
			"frames", r.frames.Load(),
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
	}()

	for {
		if ctx.Err() != nil {
			reason = "cancelled"
			return nil
		}

		cont, err := r.pipe.Step(src, sink)
		if err != nil {
			reason = "error"
			r.logger.Error("frame failed", "error", err)
			return err
		}
		r.frames.Add(1)
		if !cont {
			return nil
		}
	}
}

// Start runs the monitor on its own goroutine. The returned channel
// receives Run's result and is then closed; cancel ctx to stop early.
func (r *Runner) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- r.Run(ctx)
	}()
	return done
}

func (r *Runner) openSource(ctx context.Context) (source.Source, error) {
	if r.src != nil {
		return r.src, nil
	}
	return source.New(ctx, r.cfg.Source, r.logger)
}

func (r *Runner) openSink() (display.Sink, error) {
	if r.sink != nil {
		return r.sink, nil
	}
	return display.New(r.cfg.Display, r.cfg.Web, r.ranges, r.logger)
}

func (r *Runner) closeSource(src source.Source) {
	if err := src.Close(); err != nil {
		r.logger.Warn("source close failed", "source", src.Name(), "error", err)
	}
}

// closeInjected releases a caller-supplied sink when the source never opened.
func (r *Runner) closeInjected() {
	if r.sink != nil {
		r.sink.Close()
	}
}
