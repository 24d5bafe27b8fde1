package nn

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

var (
	ErrOutputSize   = errors.New("detection output buffer size mismatch")
	ErrOutputLayout = errors.New("detection output layout needs at least one class and one candidate")
)

// OutputLayout describes the shape of the flat buffer that the detection
// model produces: [1, 4+NumClasses, NumCandidates], channel-major, so the
// first NumCandidates values are the center-x of every candidate, the next
// NumCandidates are the center-y, and so on. The 4 box channels are followed
// by one score channel per class.
type OutputLayout struct {
	NumClasses    int
	NumCandidates int
}

// BufferLen is the number of float32 values that a buffer of this layout must hold.
func (l OutputLayout) BufferLen() int {
	return (4 + l.NumClasses) * l.NumCandidates
}

// DecodeOutput parses a raw model output buffer into detections in original
// image pixel space.
//
// Boxes come out of the model in center form (cx, cy, w, h), in model input
// pixel space. We convert to top-left form, rescale from the model input
// resolution (modelWidth x modelHeight) to the original image resolution
// (imageWidth x imageHeight), and clamp to the image bounds. Candidates whose
// best class score is below confidenceThreshold are skipped, and boxes that
// are degenerate after clamping are dropped.
//
// Candidate order is preserved, and decoding the same buffer twice yields
// identical results. If the buffer length does not match the layout, we fail
// hard and return no detections.
func DecodeOutput(buffer []float32, layout OutputLayout, modelWidth, modelHeight, imageWidth, imageHeight int, confidenceThreshold float32) ([]Detection, error) {
	if layout.NumClasses < 1 || layout.NumCandidates < 1 {
		return nil, fmt.Errorf("%w: %v classes, %v candidates", ErrOutputLayout, layout.NumClasses, layout.NumCandidates)
	}
	if len(buffer) != layout.BufferLen() {
		return nil, fmt.Errorf("%w: have %v values, expected %v (%v classes, %v candidates)",
			ErrOutputSize, len(buffer), layout.BufferLen(), layout.NumClasses, layout.NumCandidates)
	}
	nc := layout.NumCandidates
	scaleX := float32(imageWidth) / float32(modelWidth)
	scaleY := float32(imageHeight) / float32(modelHeight)

	dets := []Detection{}
	for i := 0; i < nc; i++ {
		// Arg-max over the class score channels
		bestClass := 0
		bestScore := buffer[4*nc+i]
		for c := 1; c < layout.NumClasses; c++ {
			if s := buffer[(4+c)*nc+i]; s > bestScore {
				bestScore = s
				bestClass = c
			}
		}
		if bestScore < confidenceThreshold {
			continue
		}

		cx := buffer[0*nc+i]
		cy := buffer[1*nc+i]
		w := buffer[2*nc+i]
		h := buffer[3*nc+i]

		// Center form -> top-left form, then model space -> image space
		x1 := (cx - w/2) * scaleX
		y1 := (cy - h/2) * scaleY
		x2 := (cx + w/2) * scaleX
		y2 := (cy + h/2) * scaleY

		x1 = math32.Max(0, math32.Min(x1, float32(imageWidth)))
		y1 = math32.Max(0, math32.Min(y1, float32(imageHeight)))
		x2 = math32.Max(0, math32.Min(x2, float32(imageWidth)))
		y2 = math32.Max(0, math32.Min(y2, float32(imageHeight)))
		if x2-x1 < 1 || y2-y1 < 1 {
			continue
		}

		dets = append(dets, Detection{
			Class:      bestClass,
			Confidence: bestScore,
			Box: Rect{
				X:      int(math32.Round(x1)),
				Y:      int(math32.Round(y1)),
				Width:  int(math32.Round(x2 - x1)),
				Height: int(math32.Round(y2 - y1)),
			},
		})
	}
	return dets, nil
}
