package postprocess

import (
	"github.com/google/uuid"
)

// NormalizedBox is a bounding box whose coordinates are expressed as
// fractions of the image dimensions in the range [0,1].  The Y coordinate
// is measured from the bottom edge of the image, which is the convention
// used by the vision model outputs.
type NormalizedBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MaxY returns the top edge of the box in bottom-left-origin space
func (b NormalizedBox) MaxY() float64 {
	return b.Y + b.Height
}

// DetectionResult defines the attributes of a single object detected.  It
// is a value type and immutable once created.
type DetectionResult struct {
	// ID is an opaque unique id assigned to the detection result
	ID string `json:"id"`
	// Label is the class name of the detected object
	Label string `json:"label"`
	// Confidence is the model reported probability in [0,1] that the
	// detected region matches the assigned Label
	Confidence float64 `json:"confidence"`
	// Box is the normalized bounding box of the object location
	Box NormalizedBox `json:"box"`
}

// NewDetectionResult returns a DetectionResult with a freshly assigned ID
func NewDetectionResult(label string, confidence float64,
	box NormalizedBox) DetectionResult {

	return DetectionResult{
		ID:         uuid.NewString(),
		Label:      label,
		Confidence: confidence,
		Box:        box,
	}
}

// Candidate is a raw object detection output before confidence filtering.
// Label is the top classification identifier for the detected object.
type Candidate struct {
	Label      string
	Confidence float64
	Box        NormalizedBox
}

// Prediction is the raw output of the classifier model, a single predicted
// label plus the mapping of candidate labels to their probabilities
type Prediction struct {
	Label         string
	Probabilities map[string]float64
}
