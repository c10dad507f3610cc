package source

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/teslashibe/go-tello-monitor/pkg/tello"
	"gocv.io/x/gocv"
)

// New opens the source selected by cfg.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("creating frame source", "backend", cfg.Backend)

	switch cfg.Backend {
	case BackendCamera:
		return NewCamera(cfg.CameraDevice, logger)
	case BackendTello:
		if cfg.Vehicle != nil {
			return NewRemote(ctx, cfg.Vehicle, false, false, logger)
		}
		drv, err := tello.NewDriver(cfg.Tello, logger)
		if err != nil {
			return nil, err
		}
		src, err := NewRemote(ctx, drv, true, true, logger)
		if err != nil {
			drv.Close()
			return nil, err
		}
		return src, nil
	case BackendMock:
		return NewMockSource([]gocv.Mat{DemoFrame(480, 640)}), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
}

// DemoFrame draws a BGR scene with one red and one blue square that the
// stock ranges detect.
func DemoFrame(rows, cols int) gocv.Mat {
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC3)

	paint := func(rect image.Rectangle, b, g, r float64) {
		region := frame.Region(rect.Intersect(image.Rect(0, 0, cols, rows)))
		defer region.Close()
		region.SetTo(gocv.NewScalar(b, g, r, 0))
	}
	paint(image.Rect(cols/8, rows/3, cols/8+120, rows/3+120), 20, 10, 200)     // red
	paint(image.Rect(cols*5/8, rows/3, cols*5/8+120, rows/3+120), 200, 60, 20) // blue
	return frame
}
