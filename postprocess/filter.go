package postprocess

import (
	"strings"
)

// DefaultThreshold is the minimum confidence score required for a detection
// candidate to be retained.  Candidates scoring exactly the threshold are
// excluded.
const DefaultThreshold = 0.5

// FilterCandidates converts raw detection candidates into DetectionResults,
// retaining only those whose confidence is strictly greater than the given
// threshold.  Input order is preserved and no resorting takes place.
func FilterCandidates(in []Candidate, threshold float64) []DetectionResult {

	out := make([]DetectionResult, 0, len(in))

	for _, c := range in {
		if c.Confidence > threshold {
			out = append(out, NewDetectionResult(c.Label, c.Confidence, c.Box))
		}
	}

	return out
}

// Postprocessor defines a function that filters or modifies an incoming
// list of DetectionResults
type Postprocessor func([]DetectionResult) []DetectionResult

// NewScoreFilter returns a Postprocessor that drops detections whose
// confidence is not strictly greater than the given score
func NewScoreFilter(score float64) Postprocessor {
	return func(in []DetectionResult) []DetectionResult {
		out := make([]DetectionResult, 0, len(in))
		for _, d := range in {
			if d.Confidence > score {
				out = append(out, d)
			}
		}
		return out
	}
}

// NewLabelFilter returns a Postprocessor that keeps only detections with
// one of the chosen labels.  An empty label set does not filter.
func NewLabelFilter(labels []string) Postprocessor {

	allowed := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		allowed[strings.ToLower(l)] = struct{}{}
	}

	return func(in []DetectionResult) []DetectionResult {
		if len(allowed) == 0 {
			return in
		}
		out := make([]DetectionResult, 0, len(in))
		for _, d := range in {
			if _, ok := allowed[strings.ToLower(d.Label)]; ok {
				out = append(out, d)
			}
		}
		return out
	}
}
