package nn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// makeOutput builds a channel-major [1, 4+numClasses, numCandidates] buffer
func makeOutput(numClasses, numCandidates int) []float32 {
	return make([]float32, (4+numClasses)*numCandidates)
}

func setCandidate(buf []float32, numCandidates, i int, cx, cy, w, h float32, scores []float32) {
	buf[0*numCandidates+i] = cx
	buf[1*numCandidates+i] = cy
	buf[2*numCandidates+i] = w
	buf[3*numCandidates+i] = h
	for c, s := range scores {
		buf[(4+c)*numCandidates+i] = s
	}
}

func TestDecodeOutput(t *testing.T) {
	layout := OutputLayout{NumClasses: 3, NumCandidates: 4}
	buf := makeOutput(3, 4)
	// One candidate at model-space center (320,320), 100x200, class 1 score 0.9.
	// Model input is 640x640, image is 640x480, so y gets scaled by 0.75.
	setCandidate(buf, 4, 0, 320, 320, 100, 200, []float32{0.1, 0.9, 0.2})
	// Below threshold
	setCandidate(buf, 4, 1, 100, 100, 50, 50, []float32{0.3, 0.1, 0.2})
	// Degenerate after clamping: entirely outside the image
	setCandidate(buf, 4, 2, -100, 50, 20, 20, []float32{0.9, 0.1, 0.1})

	dets, err := DecodeOutput(buf, layout, 640, 640, 640, 480, 0.5)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	require.Equal(t, 1, dets[0].Class)
	require.Equal(t, float32(0.9), dets[0].Confidence)
	require.Equal(t, Rect{X: 270, Y: 165, Width: 100, Height: 150}, dets[0].Box)
}

func TestDecodeOutputIdempotent(t *testing.T) {
	layout := OutputLayout{NumClasses: 2, NumCandidates: 3}
	buf := makeOutput(2, 3)
	setCandidate(buf, 3, 0, 50, 50, 30, 30, []float32{0.8, 0.1})
	setCandidate(buf, 3, 1, 200, 100, 60, 40, []float32{0.2, 0.7})

	first, err := DecodeOutput(buf, layout, 320, 320, 320, 320, 0.5)
	require.NoError(t, err)
	second, err := DecodeOutput(buf, layout, 320, 320, 320, 320, 0.5)
	require.NoError(t, err)
	require.Equal(t, first, second)
	// Candidate order is preserved
	require.Equal(t, 0, first[0].Class)
	require.Equal(t, 1, first[1].Class)
}

func TestDecodeOutputSizeMismatch(t *testing.T) {
	layout := OutputLayout{NumClasses: 3, NumCandidates: 10}
	dets, err := DecodeOutput(make([]float32, 17), layout, 640, 640, 640, 480, 0.5)
	require.ErrorIs(t, err, ErrOutputSize)
	require.Nil(t, dets)
}

// A zero-class layout would pass the size check with a 4*numCandidates buffer,
// but there is no score channel to read
func TestDecodeOutputDegenerateLayout(t *testing.T) {
	dets, err := DecodeOutput(make([]float32, 40), OutputLayout{NumClasses: 0, NumCandidates: 10}, 640, 640, 640, 640, 0.5)
	require.ErrorIs(t, err, ErrOutputLayout)
	require.Nil(t, dets)

	dets, err = DecodeOutput(nil, OutputLayout{NumClasses: 3, NumCandidates: 0}, 640, 640, 640, 640, 0.5)
	require.ErrorIs(t, err, ErrOutputLayout)
	require.Nil(t, dets)
}

func TestDecodeOutputClamping(t *testing.T) {
	layout := OutputLayout{NumClasses: 1, NumCandidates: 1}
	buf := makeOutput(1, 1)
	// Box hangs over the right/bottom edge of the image
	setCandidate(buf, 1, 0, 630, 630, 100, 100, []float32{0.9})
	dets, err := DecodeOutput(buf, layout, 640, 640, 640, 640, 0.5)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	box := dets[0].Box
	require.GreaterOrEqual(t, box.X, 0)
	require.GreaterOrEqual(t, box.Y, 0)
	require.LessOrEqual(t, box.X2(), 640)
	require.LessOrEqual(t, box.Y2(), 640)
}
