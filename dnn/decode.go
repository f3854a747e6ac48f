package dnn

import (
	"fmt"
	"sort"

	"github.com/safesite/helmetvision/postprocess"
)

// decodeDetections interprets the flat model output tensor as rows of
// [cx, cy, w, h, objectness, class scores...] with box coordinates in
// pixels of the model input size.  Rows whose objectness falls below the
// box threshold are skipped, the rest are converted into candidates with
// normalized bottom-left-origin boxes.
func decodeDetections(data []float32, rowSize int, inputSize float64,
	labels []string, boxThreshold float32) ([]postprocess.Candidate, error) {

	if rowSize <= 5 {
		return nil, fmt.Errorf("invalid output row size %d", rowSize)
	}
	if len(data)%rowSize != 0 {
		return nil, fmt.Errorf("model output length %d is not a multiple of "+
			"row size %d", len(data), rowSize)
	}

	rows := len(data) / rowSize

	candidates := make([]postprocess.Candidate, 0)

	for i := 0; i < rows; i++ {
		row := data[i*rowSize : (i+1)*rowSize]

		objectness := row[4]

		if objectness < boxThreshold {
			continue
		}

		// top classification identifier for this object
		classID := 0
		classScore := row[5]

		for j := 6; j < rowSize; j++ {
			if row[j] > classScore {
				classScore = row[j]
				classID = j - 5
			}
		}

		if classID >= len(labels) {
			return nil, fmt.Errorf("model output class %d exceeds the %d "+
				"configured labels", classID, len(labels))
		}

		confidence := float64(objectness) * float64(classScore)

		candidates = append(candidates, postprocess.Candidate{
			Label:      labels[classID],
			Confidence: confidence,
			Box:        normalizeBox(row[0], row[1], row[2], row[3], inputSize),
		})
	}

	return candidates, nil
}

// normalizeBox converts a center based box in model input pixels into a
// normalized bottom-left-origin box.  Box edges overhanging the image are
// clamped to the unit square.
func normalizeBox(cx, cy, w, h float32, inputSize float64) postprocess.NormalizedBox {

	halfW := float64(w) / inputSize / 2
	halfH := float64(h) / inputSize / 2

	left := clampUnit(float64(cx)/inputSize - halfW)
	right := clampUnit(float64(cx)/inputSize + halfW)

	// the model reports y from the top edge, flip to the bottom edge
	top := clampUnit(float64(cy)/inputSize - halfH)
	bottom := clampUnit(float64(cy)/inputSize + halfH)

	return postprocess.NormalizedBox{
		X:      left,
		Y:      1 - bottom,
		Width:  right - left,
		Height: bottom - top,
	}
}

// clampUnit restricts the value to the range [0,1]
func clampUnit(v float64) float64 {

	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}

	return v
}

// suppressOverlaps implements Non-Maximum Suppression over the candidates.
// For each class the highest confidence box is kept and any lower scored
// box of the same class overlapping it beyond the IoU threshold is
// dropped.  Surviving candidates keep their original input order.
func suppressOverlaps(candidates []postprocess.Candidate,
	iouThreshold float64) []postprocess.Candidate {

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}

	// visit boxes from highest confidence down
	sort.SliceStable(order, func(a, b int) bool {
		return candidates[order[a]].Confidence > candidates[order[b]].Confidence
	})

	dropped := make([]bool, len(candidates))

	for i := 0; i < len(order); i++ {
		n := order[i]

		if dropped[n] {
			continue
		}

		for j := i + 1; j < len(order); j++ {
			m := order[j]

			if dropped[m] || candidates[m].Label != candidates[n].Label {
				continue
			}

			if iou(candidates[n].Box, candidates[m].Box) > iouThreshold {
				dropped[m] = true
			}
		}
	}

	out := make([]postprocess.Candidate, 0, len(candidates))

	for i, c := range candidates {
		if !dropped[i] {
			out = append(out, c)
		}
	}

	return out
}

// iou calculates the Intersection Over Union of two normalized boxes
func iou(a, b postprocess.NormalizedBox) float64 {

	xMin := max64(a.X, b.X)
	yMin := max64(a.Y, b.Y)
	xMax := min64(a.X+a.Width, b.X+b.Width)
	yMax := min64(a.MaxY(), b.MaxY())

	w := xMax - xMin
	h := yMax - yMin

	if w <= 0 || h <= 0 {
		return 0
	}

	intersection := w * h
	union := a.Width*a.Height + b.Width*b.Height - intersection

	if union <= 0 {
		return 0
	}

	return intersection / union
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
