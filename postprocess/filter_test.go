package postprocess

import (
	"testing"
)

func TestFilterCandidatesThreshold(t *testing.T) {

	tests := []struct {
		confidence float64
		retained   bool
	}{
		{0.0, false},
		{0.499999, false},
		// a score of exactly the threshold is excluded
		{0.5, false},
		{0.500001, true},
		{0.82, true},
		{1.0, true},
	}

	for _, tc := range tests {
		in := []Candidate{
			{Label: "helmet", Confidence: tc.confidence},
		}

		out := FilterCandidates(in, DefaultThreshold)

		if tc.retained && len(out) != 1 {
			t.Errorf("candidate with confidence %v should be retained",
				tc.confidence)
		}
		if !tc.retained && len(out) != 0 {
			t.Errorf("candidate with confidence %v should be excluded",
				tc.confidence)
		}
	}
}

func TestFilterCandidatesOrder(t *testing.T) {

	in := []Candidate{
		{Label: "helmet", Confidence: 0.51},
		{Label: "helmet", Confidence: 0.99},
		{Label: "helmet", Confidence: 0.3},
		{Label: "hardhat", Confidence: 0.75},
	}

	out := FilterCandidates(in, DefaultThreshold)

	if len(out) != 3 {
		t.Fatalf("expected 3 retained candidates, got %d", len(out))
	}

	// input order is preserved, no resorting by confidence
	expected := []float64{0.51, 0.99, 0.75}

	for i, conf := range expected {
		if out[i].Confidence != conf {
			t.Errorf("result %d has confidence %v, expected %v", i,
				out[i].Confidence, conf)
		}
	}

	if out[2].Label != "hardhat" {
		t.Errorf("result 2 has label %q, expected %q", out[2].Label, "hardhat")
	}
}

func TestFilterCandidatesEmpty(t *testing.T) {

	out := FilterCandidates(nil, DefaultThreshold)

	if out == nil || len(out) != 0 {
		t.Errorf("expected empty non-nil result, got %v", out)
	}
}

func TestFilterCandidatesAssignsIDs(t *testing.T) {

	in := []Candidate{
		{Label: "helmet", Confidence: 0.8},
		{Label: "helmet", Confidence: 0.9},
	}

	out := FilterCandidates(in, DefaultThreshold)

	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}

	if out[0].ID == "" || out[1].ID == "" {
		t.Error("detection results must carry an opaque id")
	}
	if out[0].ID == out[1].ID {
		t.Error("detection result ids must be unique")
	}
}

func TestNewScoreFilter(t *testing.T) {

	in := []DetectionResult{
		{Label: "helmet", Confidence: 0.9},
		{Label: "helmet", Confidence: 0.6},
		{Label: "helmet", Confidence: 0.2},
	}

	out := NewScoreFilter(0.6)(in)

	if len(out) != 1 || out[0].Confidence != 0.9 {
		t.Errorf("score filter kept %v, expected only the 0.9 detection", out)
	}
}

func TestNewLabelFilter(t *testing.T) {

	in := []DetectionResult{
		{Label: "Helmet", Confidence: 0.9},
		{Label: "person", Confidence: 0.8},
	}

	out := NewLabelFilter([]string{"helmet"})(in)

	if len(out) != 1 || out[0].Label != "Helmet" {
		t.Errorf("label filter kept %v, expected only the helmet detection", out)
	}

	// empty label set does not filter
	out = NewLabelFilter(nil)(in)

	if len(out) != 2 {
		t.Errorf("empty label filter dropped detections: %v", out)
	}
}
