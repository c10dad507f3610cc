// Package pipeline turns one acquired frame into one display image:
// channel reorder, per-colour masking and annotation, the combined mask
// view, and the optional side-by-side composition.
package pipeline

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/teslashibe/go-tello-monitor/pkg/debug"
	"github.com/teslashibe/go-tello-monitor/pkg/detection"
	"github.com/teslashibe/go-tello-monitor/pkg/display"
	"github.com/teslashibe/go-tello-monitor/pkg/source"
	"gocv.io/x/gocv"
)

// DefaultPollInterval bounds how long Step waits for a quit request.
const DefaultPollInterval = time.Millisecond

// Config controls per-frame processing.
type Config struct {
	// Ranges are processed in order; later colours draw over earlier ones.
	Ranges []detection.ColorRange

	// SplitView appends the combined mask view to the right of the frame.
	SplitView bool

	// DebugLog enables the "<Color> Spotted at" trace on stdout.
	DebugLog bool

	// PollInterval is the quit poll timeout per Step.
	PollInterval time.Duration
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithTrace replaces the stdout trace writer.
func WithTrace(trace *debug.Logger) Option {
	return func(p *Pipeline) {
		p.trace = trace
	}
}

// Pipeline runs the detection steps for a single frame at a time. It is not
// safe for concurrent use.
type Pipeline struct {
	cfg    Config
	trace  *debug.Logger
	masker *detection.Masker
	logger *slog.Logger
}

// New validates cfg and builds a pipeline. Empty Ranges fall back to the
// stock Red and Blue ranges.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Ranges) == 0 {
		cfg.Ranges = detection.DefaultRanges()
	} else {
		cfg.Ranges = slices.Clone(cfg.Ranges)
	}
	for _, r := range cfg.Ranges {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	p := &Pipeline{
		cfg:    cfg,
		trace:  debug.New(cfg.DebugLog),
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.masker = detection.NewMasker(p.trace, logger)
	return p, nil
}

// Ranges returns a copy of the colour ranges in processing order.
func (p *Pipeline) Ranges() []detection.ColorRange {
	return slices.Clone(p.cfg.Ranges)
}

// Result is the output of one processed frame. Close releases its Mats.
type Result struct {
	// Display is the BGR image for the sink, split view applied.
	Display gocv.Mat

	// Combined is the saturating sum of every colour's isolated view, in
	// canonical (RGB) order.
	Combined gocv.Mat

	Detections []detection.Detection
}

// Close releases the result's images.
func (r *Result) Close() {
	r.Display.Close()
	r.Combined.Close()
}

// ProcessFrame acquires one frame from src and processes it.
func (p *Pipeline) ProcessFrame(src source.Source) (*Result, error) {
	frame, err := src.Acquire()
	if err != nil {
		return nil, fmt.Errorf("acquire from %s: %w", src.Name(), err)
	}
	defer frame.Close()

	return p.process(frame, source.NeedsReorder(src))
}

// Process annotates frame, whose channels are laid out in order. frame is
// not modified.
func (p *Pipeline) Process(frame gocv.Mat, order detection.ChannelOrder) (*Result, error) {
	return p.process(frame, order.NeedsReorder())
}

func (p *Pipeline) process(frame gocv.Mat, reorder bool) (*Result, error) {
	if frame.Empty() {
		return nil, source.ErrEmptyFrame
	}
	if frame.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("%w: got type %v", detection.ErrFrameFormat, frame.Type())
	}

	canon := gocv.NewMat()
	defer canon.Close()
	if reorder {
		gocv.CvtColor(frame, &canon, gocv.ColorBGRToRGB)
	} else {
		frame.CopyTo(&canon)
	}

	combined := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), canon.Rows(), canon.Cols(), canon.Type())

	var dets []detection.Detection
	for _, r := range p.cfg.Ranges {
		mask := p.masker.Compute(canon, r, r.NeedsSwap(detection.Canonical))
		isolated, found := detection.Annotate(&canon, mask, r.Name)
		mask.Close()

		gocv.Add(combined, isolated, &combined)
		isolated.Close()
		dets = append(dets, found...)
	}

	out := gocv.NewMat()
	gocv.CvtColor(canon, &out, gocv.ColorRGBToBGR)

	if p.cfg.SplitView {
		view := gocv.NewMat()
		gocv.CvtColor(combined, &view, gocv.ColorRGBToBGR)

		joined := gocv.NewMat()
		gocv.Hconcat(out, view, &joined)
		view.Close()
		out.Close()
		out = joined
	}

	return &Result{Display: out, Combined: combined, Detections: dets}, nil
}

// Step processes one frame from src, shows it on sink, and polls the sink
// for a quit request. It reports whether the loop should continue.
func (p *Pipeline) Step(src source.Source, sink display.Sink) (bool, error) {
	res, err := p.ProcessFrame(src)
	if err != nil {
		return false, err
	}
	defer res.Close()

	if err := sink.Show(res.Display); err != nil {
		return false, fmt.Errorf("show frame: %w", err)
	}
	if r, ok := sink.(display.Reporter); ok {
		r.Report(res.Detections)
	}

	return !sink.PollQuit(p.cfg.PollInterval), nil
}
