package helmetvision

import (
	"gocv.io/x/gocv"

	"github.com/safesite/helmetvision/postprocess"
)

// ObjectDetector is the boundary to the object detection model.  The image
// is handed over whole, without resizing, and the model returns labeled,
// confidence scored candidates with normalized bottom-left-origin bounding
// boxes.
type ObjectDetector interface {
	Detect(img gocv.Mat) ([]postprocess.Candidate, error)
}

// Classifier is the boundary to the classification model.  The input is
// the preprocessed fixed-square pixel buffer produced by the preprocess
// package and the model returns a predicted label plus the mapping of
// candidate labels to probabilities.
type Classifier interface {
	Classify(input gocv.Mat) (postprocess.Prediction, error)
}
