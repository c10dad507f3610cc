package detection

import (
	"log/slog"

	"github.com/teslashibe/go-tello-monitor/pkg/debug"
	"gocv.io/x/gocv"
)

// Masker thresholds frames against colour ranges.
type Masker struct {
	trace  *debug.Logger
	logger *slog.Logger
}

// NewMasker creates a masker. trace may be nil to disable spotted lines.
func NewMasker(trace *debug.Logger, logger *slog.Logger) *Masker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Masker{trace: trace, logger: logger}
}

// Compute returns a single-channel mask of frame, 255 where every channel lies
// within the range bounds (inclusive) and 0 elsewhere.
//
// swapped must be true when frame's channel order differs from the order the
// range was authored in; the bounds are then reordered before thresholding so
// the mask and any diagnostics use the same values. The caller owns the mask.
func (m *Masker) Compute(frame gocv.Mat, r ColorRange, swapped bool) gocv.Mat {
	lower, upper := r.Bounds(swapped)

	mask := gocv.NewMat()
	gocv.InRangeWithScalar(frame, lower.Scalar(), upper.Scalar(), &mask)

	if m.trace.Enabled() {
		if gocv.CountNonZero(mask) > 0 {
			m.trace.Spotted(r.Name)
		}
		m.logger.Debug("color mask",
			"color", r.Name,
			"lower", lower,
			"upper", upper,
			"swapped", swapped,
		)
	}

	return mask
}
