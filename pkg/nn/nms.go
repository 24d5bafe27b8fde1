package nn

import (
	"sort"
)

// NonMaxSuppression removes duplicate detections of the same object.
//
// This is the classic greedy algorithm: sort by confidence, repeatedly keep
// the highest scoring remaining detection, and throw away everything that
// overlaps it with IOU >= iouThreshold. Ties in confidence are broken by the
// original position in 'input', so results are deterministic.
// The output is always a subset of the input, highest confidence first.
//
// O(n^2), which is fine for per-frame candidate counts (low thousands).
func NonMaxSuppression(input []Detection, iouThreshold float32) []Detection {
	order := make([]int, len(input))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return input[order[a]].Confidence > input[order[b]].Confidence
	})

	suppressed := make([]bool, len(input))
	keep := []Detection{}
	for _, i := range order {
		if suppressed[i] {
			continue
		}
		keep = append(keep, input[i])
		for _, j := range order {
			if j == i || suppressed[j] {
				continue
			}
			if input[i].Box.IOU(input[j].Box) >= iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return keep
}
