package postprocess

// FaceBox is the fixed stand-in region reported for classifier results.
// The classifier does not localize its subject, so the central 60%x60%
// region of the image is used as a cosmetic placeholder.
var FaceBox = NormalizedBox{X: 0.2, Y: 0.2, Width: 0.6, Height: 0.6}

// FaceDetection converts a classifier prediction into a single
// DetectionResult.  The probability associated with the predicted label is
// looked up in the prediction's probability mapping; when the entry is
// missing no result is produced and ok is false.
func FaceDetection(pred Prediction) (DetectionResult, bool) {

	prob, ok := pred.Probabilities[pred.Label]

	if !ok {
		return DetectionResult{}, false
	}

	return NewDetectionResult(pred.Label, prob, FaceBox), true
}
