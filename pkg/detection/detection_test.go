package detection

import (
	"bytes"
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-tello-monitor/pkg/debug"
	"gocv.io/x/gocv"
)

// newFrame returns a rows x cols 3-channel frame filled with (a, b, c).
func newFrame(rows, cols int, a, b, c float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(a, b, c, 0), rows, cols, gocv.MatTypeCV8UC3)
}

// fill paints rect of m with (a, b, c) in m's own channel order.
func fill(m gocv.Mat, rect image.Rectangle, a, b, c float64) {
	region := m.Region(rect)
	defer region.Close()
	region.SetTo(gocv.NewScalar(a, b, c, 0))
}

// newMask returns a zeroed single-channel mask with rect set to 255.
func newMask(rows, cols int, rect image.Rectangle) gocv.Mat {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8U)
	fill(m, rect, 255, 0, 0)
	return m
}

func TestComputeMask_InclusiveBounds(t *testing.T) {
	r := ColorRange{Name: "Test", Lower: Triple{10, 20, 30}, Upper: Triple{40, 50, 60}, Order: OrderRGB}

	frame := newFrame(60, 60, 0, 0, 0)
	defer frame.Close()
	fill(frame, image.Rect(0, 0, 10, 10), 40, 50, 60)   // exactly upper
	fill(frame, image.Rect(20, 20, 30, 30), 10, 20, 30) // exactly lower
	fill(frame, image.Rect(50, 50, 51, 51), 41, 51, 61) // outside every channel

	mask := NewMasker(nil, nil).Compute(frame, r, false)
	defer mask.Close()

	if mask.Rows() != 60 || mask.Cols() != 60 || mask.Channels() != 1 {
		t.Fatalf("mask shape: got %dx%dx%d, want 60x60x1", mask.Rows(), mask.Cols(), mask.Channels())
	}

	tests := []struct {
		name   string
		row    int
		col    int
		expect uint8
	}{
		{"upper bound block", 5, 5, 255},
		{"lower bound block", 25, 25, 255},
		{"outside pixel", 50, 50, 0},
		{"background", 40, 10, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := mask.GetUCharAt(tc.row, tc.col); got != tc.expect {
				t.Errorf("mask(%d,%d): got %d, want %d", tc.row, tc.col, got, tc.expect)
			}
		})
	}

	if n := gocv.CountNonZero(mask); n != 200 {
		t.Errorf("matched pixels: got %d, want 200", n)
	}
}

func TestComputeMask_SwappedOrder(t *testing.T) {
	// Authored B,G,R: blue high, red low.
	r := ColorRange{Name: "Blue", Lower: Triple{200, 0, 0}, Upper: Triple{255, 30, 30}, Order: OrderBGR}

	// Canonical RGB frame holding a blue pixel.
	frame := newFrame(10, 10, 10, 10, 230)
	defer frame.Close()

	masker := NewMasker(nil, nil)

	swapped := r.NeedsSwap(OrderRGB)
	if !swapped {
		t.Fatal("BGR range should need a swap against RGB frames")
	}

	mask := masker.Compute(frame, r, swapped)
	defer mask.Close()
	if n := gocv.CountNonZero(mask); n != 100 {
		t.Errorf("swapped bounds: got %d matched, want 100", n)
	}

	unswapped := masker.Compute(frame, r, false)
	defer unswapped.Close()
	if n := gocv.CountNonZero(unswapped); n != 0 {
		t.Errorf("unswapped bounds: got %d matched, want 0", n)
	}
}

func TestComputeMask_SpottedLine(t *testing.T) {
	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	r := ColorRange{Name: "Green", Lower: Triple{0, 100, 0}, Upper: Triple{50, 255, 50}}

	tests := []struct {
		name    string
		green   float64
		enabled bool
		expect  int
	}{
		{"match with logging", 200, true, 1},
		{"no match with logging", 0, true, 0},
		{"match without logging", 200, false, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			trace := debug.NewWithWriter(tc.enabled, &buf, func() time.Time { return stamp })

			frame := newFrame(8, 8, 0, tc.green, 0)
			defer frame.Close()
			mask := NewMasker(trace, nil).Compute(frame, r, false)
			defer mask.Close()

			lines := strings.Count(buf.String(), "Green Spotted at ")
			if lines != tc.expect {
				t.Errorf("spotted lines: got %d, want %d (%q)", lines, tc.expect, buf.String())
			}
		})
	}
}

func TestFindRegions_AreaThreshold(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		expect int
	}{
		{"20x20 block is annotated", 20, 1},
		{"10x10 block is noise", 10, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mask := newMask(100, 100, image.Rect(40, 40, 40+tc.size, 40+tc.size))
			defer mask.Close()

			dets := FindRegions(mask, "Red")
			if len(dets) != tc.expect {
				t.Fatalf("regions: got %d, want %d", len(dets), tc.expect)
			}
			if tc.expect == 1 {
				want := image.Rect(40, 40, 40+tc.size, 40+tc.size)
				if dets[0].Box != want {
					t.Errorf("box: got %v, want %v", dets[0].Box, want)
				}
			}
		})
	}
}

func TestAnnotate_Idempotent(t *testing.T) {
	frame := newFrame(120, 120, 0, 0, 0)
	defer frame.Close()
	fill(frame, image.Rect(50, 50, 80, 80), 200, 10, 10)

	mask := newMask(120, 120, image.Rect(50, 50, 80, 80))
	defer mask.Close()

	first, dets1 := Annotate(&frame, mask, "Red")
	defer first.Close()
	second, dets2 := Annotate(&frame, mask, "Red")
	defer second.Close()

	if len(dets1) != 1 || len(dets2) != 1 {
		t.Fatalf("detections: got %d then %d, want 1 and 1", len(dets1), len(dets2))
	}
	if dets1[0].Box != dets2[0].Box {
		t.Errorf("box changed on re-annotation: %v then %v", dets1[0].Box, dets2[0].Box)
	}
}

func TestAnnotate_IsolatedView(t *testing.T) {
	frame := newFrame(120, 120, 30, 30, 30)
	defer frame.Close()
	fill(frame, image.Rect(50, 50, 80, 80), 200, 10, 10)

	mask := newMask(120, 120, image.Rect(50, 50, 80, 80))
	defer mask.Close()

	isolated, _ := Annotate(&frame, mask, "Red")
	defer isolated.Close()

	outside := isolated.GetVecbAt(10, 110)
	if outside[0] != 0 || outside[1] != 0 || outside[2] != 0 {
		t.Errorf("outside mask: got %v, want zero", outside)
	}
	inside := isolated.GetVecbAt(65, 65)
	if inside[0] != 200 || inside[1] != 10 || inside[2] != 10 {
		t.Errorf("inside mask: got %v, want [200 10 10]", inside)
	}
	// Box border is drawn on the frame before isolation.
	border := frame.GetVecbAt(50, 65)
	if border[0] != 255 || border[1] != 255 || border[2] != 255 {
		t.Errorf("box border: got %v, want white", border)
	}
}

func TestColorRange_Validate(t *testing.T) {
	tests := []struct {
		name    string
		r       ColorRange
		wantErr bool
	}{
		{"stock red", Red, false},
		{"stock blue", Blue, false},
		{"missing name", ColorRange{Upper: Triple{1, 1, 1}}, true},
		{"lower above upper", ColorRange{Name: "x", Lower: Triple{5, 0, 0}, Upper: Triple{4, 9, 9}}, true},
		{"out of byte range", ColorRange{Name: "x", Upper: Triple{256, 0, 0}}, true},
		{"unknown order", ColorRange{Name: "x", Order: "hsv"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.r.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate: got %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRange) {
				t.Errorf("Validate: %v should wrap ErrInvalidRange", err)
			}
		})
	}
}

func TestColorRange_Swatch(t *testing.T) {
	r := ColorRange{Name: "x", Lower: Triple{0, 0, 0}, Upper: Triple{254, 0, 100}}
	if got := r.Swatch(); got != "#7f0032" {
		t.Errorf("Swatch: got %s, want #7f0032", got)
	}

	bgr := r
	bgr.Lower, bgr.Upper = r.Lower.Swapped(), r.Upper.Swapped()
	bgr.Order = OrderBGR
	if got := bgr.Swatch(); got != "#7f0032" {
		t.Errorf("Swatch (bgr): got %s, want #7f0032", got)
	}
}

func TestParseRanges(t *testing.T) {
	good := `
ranges:
  - name: Red
    order: bgr
    lower: [0, 0, 50]
    upper: [100, 33, 240]
  - name: Yellow
    lower: [150, 150, 0]
    upper: [255, 255, 90]
`
	ranges, err := ParseRanges([]byte(good))
	if err != nil {
		t.Fatalf("ParseRanges: %v", err)
	}
	if len(ranges) != 2 {
		t.Fatalf("ranges: got %d, want 2", len(ranges))
	}
	if ranges[0] != Red {
		t.Errorf("first range: got %+v, want %+v", ranges[0], Red)
	}
	if ranges[1].Order != OrderRGB {
		t.Errorf("default order: got %q, want %q", ranges[1].Order, OrderRGB)
	}

	bad := []struct {
		name string
		doc  string
	}{
		{"empty", "ranges: []"},
		{"inverted", "ranges:\n  - name: x\n    lower: [9, 0, 0]\n    upper: [1, 0, 0]\n"},
		{"duplicate", "ranges:\n  - name: x\n  - name: x\n"},
		{"not yaml", "ranges: [1, 2"},
	}
	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseRanges([]byte(tc.doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLargest(t *testing.T) {
	if Largest(nil) != nil {
		t.Error("Largest(nil) should be nil")
	}
	dets := []Detection{
		{Label: "Red", Area: 400},
		{Label: "Blue", Area: 900},
		{Label: "Red", Area: 500},
	}
	if got := Largest(dets); got.Label != "Blue" {
		t.Errorf("Largest: got %s, want Blue", got.Label)
	}
}

func TestChannelOrder_NeedsReorder(t *testing.T) {
	tests := []struct {
		order ChannelOrder
		want  bool
	}{
		{OrderBGR, true},
		{OrderRGB, false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			if got := tt.order.NeedsReorder(); got != tt.want {
				t.Errorf("NeedsReorder(%q): got %v, want %v", tt.order, got, tt.want)
			}
		})
	}
}
