package detect

import (
	"sort"

	"github.com/openadas/go-signcam/pkg/gtsrb"
)

// TopK is the maximum number of candidates reported per cycle.
const TopK = 3

// decide applies the confidence threshold to a vector. A detection is
// reported iff the maximum confidence strictly exceeds the threshold.
// The top-k list holds the highest-confidence classes above threshold,
// descending, ties broken by lowest class index; only the maximum is
// guaranteed to qualify, so the list may be shorter than k even when a
// detection fired.
func decide(confidences []float32, threshold float64) (detected bool, primary *Detection, top []Detection) {
	if len(confidences) == 0 {
		return false, nil, nil
	}

	idx := make([]int, len(confidences))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if confidences[idx[a]] != confidences[idx[b]] {
			return confidences[idx[a]] > confidences[idx[b]]
		}
		return idx[a] < idx[b]
	})

	top = make([]Detection, 0, TopK)
	for _, i := range idx[:min(TopK, len(idx))] {
		c := float64(confidences[i])
		if c > threshold {
			top = append(top, Detection{
				ClassID:    i,
				Label:      gtsrb.Label(i),
				Confidence: c,
			})
		}
	}

	best := idx[0]
	maxConf := float64(confidences[best])
	if maxConf > threshold {
		return true, &Detection{
			ClassID:    best,
			Label:      gtsrb.Label(best),
			Confidence: maxConf,
		}, top
	}
	return false, nil, top
}
