// Package detection finds regions of configured colours in a frame and
// draws labelled bounding boxes over them.
package detection

import "image"

// Detection is one annotated colour region.
type Detection struct {
	Label string          `json:"label"`
	Box   image.Rectangle `json:"box"`  // Pixel coordinates, Max exclusive
	Area  float64         `json:"area"` // Contour area in pixels
}

// LabelOrigin is where the label baseline starts: the box corner raised by LabelOffset.
func (d Detection) LabelOrigin() image.Point {
	return image.Pt(d.Box.Min.X, d.Box.Min.Y-LabelOffset)
}

// Largest picks the detection with the biggest contour area.
func Largest(dets []Detection) *Detection {
	if len(dets) == 0 {
		return nil
	}

	best := &dets[0]
	for i := 1; i < len(dets); i++ {
		if dets[i].Area > best.Area {
			best = &dets[i]
		}
	}
	return best
}
