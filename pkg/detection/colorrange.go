package detection

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"
)

// ChannelOrder names the layout of the three 8-bit channels of a pixel.
type ChannelOrder string

const (
	// OrderRGB is the canonical order used for all detection math.
	OrderRGB ChannelOrder = "rgb"
	// OrderBGR is the layout OpenCV capture devices and windows use.
	OrderBGR ChannelOrder = "bgr"
)

// Canonical is the order frames are converted to before detection.
const Canonical = OrderRGB

// Normalize maps the empty order to the canonical one.
func (o ChannelOrder) Normalize() ChannelOrder {
	if o == "" {
		return Canonical
	}
	return o
}

// NeedsReorder reports whether frames laid out in o must be converted
// before detection.
func (o ChannelOrder) NeedsReorder() bool {
	return o.Normalize() != Canonical
}

// Triple is one value per channel, in the order of the owning range.
type Triple [3]int

// Swapped returns the triple with its first and third components exchanged.
func (t Triple) Swapped() Triple {
	return Triple{t[2], t[1], t[0]}
}

// Scalar converts the triple to a gocv scalar in the same channel order.
func (t Triple) Scalar() gocv.Scalar {
	return gocv.NewScalar(float64(t[0]), float64(t[1]), float64(t[2]), 0)
}

// ColorRange is a named pair of inclusive per-channel thresholds.
type ColorRange struct {
	Name  string       `yaml:"name" json:"name"`
	Lower Triple       `yaml:"lower" json:"lower"`
	Upper Triple       `yaml:"upper" json:"upper"`
	Order ChannelOrder `yaml:"order" json:"order"` // order Lower/Upper were authored in
}

// Red and Blue are the stock ranges, authored as B,G,R.
var (
	Red = ColorRange{
		Name:  "Red",
		Lower: Triple{0, 0, 50},
		Upper: Triple{100, 33, 240},
		Order: OrderBGR,
	}
	Blue = ColorRange{
		Name:  "Blue",
		Lower: Triple{100, 20, 0},
		Upper: Triple{255, 106, 65},
		Order: OrderBGR,
	}
)

// DefaultRanges returns the stock ranges in processing order.
// Later ranges draw over earlier ones where their annotations overlap.
func DefaultRanges() []ColorRange {
	return []ColorRange{Red, Blue}
}

// Validate checks the name and that every lower component is <= upper.
func (r ColorRange) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRange)
	}
	switch r.Order.Normalize() {
	case OrderRGB, OrderBGR:
	default:
		return fmt.Errorf("%w: %s: unknown channel order %q", ErrInvalidRange, r.Name, r.Order)
	}
	for i := 0; i < 3; i++ {
		lo, hi := r.Lower[i], r.Upper[i]
		if lo < 0 || hi > 255 {
			return fmt.Errorf("%w: %s: channel %d out of 0..255", ErrInvalidRange, r.Name, i)
		}
		if lo > hi {
			return fmt.Errorf("%w: %s: channel %d lower %d > upper %d", ErrInvalidRange, r.Name, i, lo, hi)
		}
	}
	return nil
}

// NeedsSwap reports whether the range must be reordered to match frames in order o.
func (r ColorRange) NeedsSwap(o ChannelOrder) bool {
	return r.Order.Normalize() != o.Normalize()
}

// Bounds returns the thresholds, reordered when swapped is true.
func (r ColorRange) Bounds(swapped bool) (lower, upper Triple) {
	if swapped {
		return r.Lower.Swapped(), r.Upper.Swapped()
	}
	return r.Lower, r.Upper
}

// Swatch returns the hex colour at the centre of the range.
func (r ColorRange) Swatch() string {
	lo, hi := r.Bounds(r.NeedsSwap(OrderRGB))
	c := colorful.Color{
		R: float64(lo[0]+hi[0]) / 2 / 255,
		G: float64(lo[1]+hi[1]) / 2 / 255,
		B: float64(lo[2]+hi[2]) / 2 / 255,
	}
	return c.Hex()
}
