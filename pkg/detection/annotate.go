package detection

import (
	"image/color"

	"gocv.io/x/gocv"
)

// Annotation geometry.
const (
	// MinArea rejects contours enclosing this many pixels or fewer.
	MinArea = 300.0

	// LabelOffset lifts the label this far above the box's top edge.
	LabelOffset = 32

	boxThickness     = 2
	outlineThickness = 9
	fillThickness    = 1
	labelScale       = 1.0
)

var (
	white = color.RGBA{R: 255, G: 255, B: 255}
	black = color.RGBA{}
)

// FindRegions returns one detection per outer contour of mask whose area
// exceeds MinArea. Nested contours are ignored.
func FindRegions(mask gocv.Mat, label string) []Detection {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var dets []Detection
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		area := gocv.ContourArea(c)
		if area <= MinArea {
			continue
		}
		dets = append(dets, Detection{
			Label: label,
			Box:   gocv.BoundingRect(c),
			Area:  area,
		})
	}
	return dets
}

// Draw renders a white box and an outlined label for each detection onto frame.
func Draw(frame *gocv.Mat, dets []Detection) {
	for _, d := range dets {
		gocv.Rectangle(frame, d.Box, white, boxThickness)
		org := d.LabelOrigin()
		gocv.PutText(frame, d.Label, org, gocv.FontHersheyDuplex, labelScale, black, outlineThickness)
		gocv.PutText(frame, d.Label, org, gocv.FontHersheyDuplex, labelScale, white, fillThickness)
	}
}

// Annotate draws the regions of mask onto frame in place and returns the
// isolated view: a copy of the annotated frame with every pixel outside the
// mask zeroed. The caller owns the returned Mat.
func Annotate(frame *gocv.Mat, mask gocv.Mat, label string) (gocv.Mat, []Detection) {
	dets := FindRegions(mask, label)
	Draw(frame, dets)

	isolated := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), frame.Rows(), frame.Cols(), frame.Type())
	gocv.BitwiseAndWithMask(*frame, *frame, &isolated, mask)
	return isolated, dets
}
