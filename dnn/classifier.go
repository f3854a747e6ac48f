package dnn

import (
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"

	"github.com/safesite/helmetvision/postprocess"
	"github.com/safesite/helmetvision/preprocess"
)

// ClassifierConfig holds the parameters for constructing a Classifier
// backend
type ClassifierConfig struct {
	// ModelFile is the path to the ONNX classification model
	ModelFile string
	// Labels are the candidate class names in model output order
	Labels []string
	// InputSize is the square input dimension of the model, defaults to
	// preprocess.ClassifierSize
	InputSize int
}

// Classifier is a classification backend running an ONNX model through
// the OpenCV DNN module.  It does not localize its subject, the output is
// a predicted label and a probability per candidate label.
type Classifier struct {
	cfg     ClassifierConfig
	net     gocv.Net
	loadErr error
	mu      sync.Mutex
}

// NewClassifier loads the classification model.  A load failure does not
// prevent construction, the returned backend reports the failure from Err
// and from every Classify call.
func NewClassifier(cfg ClassifierConfig) *Classifier {

	if cfg.InputSize == 0 {
		cfg.InputSize = preprocess.ClassifierSize
	}

	c := &Classifier{cfg: cfg}

	if len(cfg.Labels) == 0 {
		c.loadErr = fmt.Errorf("no class labels configured")
		return c
	}

	if _, err := os.Stat(cfg.ModelFile); err != nil {
		c.loadErr = fmt.Errorf("model file missing: %w", err)
		return c
	}

	c.net = gocv.ReadNet(cfg.ModelFile, "")

	if c.net.Empty() {
		c.loadErr = fmt.Errorf("error loading model %s", cfg.ModelFile)
	}

	return c
}

// Err returns the model load failure, if any
func (c *Classifier) Err() error {
	return c.loadErr
}

// InputSize returns the square input dimension the model expects
func (c *Classifier) InputSize() int {
	return c.cfg.InputSize
}

// Classify runs the model over a preprocessed pixel buffer and returns the
// predicted label with the full label to probability mapping
func (c *Classifier) Classify(input gocv.Mat) (postprocess.Prediction, error) {

	if c.loadErr != nil {
		return postprocess.Prediction{}, c.loadErr
	}

	if input.Empty() {
		return postprocess.Prediction{}, fmt.Errorf("cannot classify an empty pixel buffer")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// the buffer is already resized, RGB ordered and scaled to [0,1]
	blob := gocv.BlobFromImage(input, 1.0,
		image.Pt(c.cfg.InputSize, c.cfg.InputSize),
		gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	c.net.SetInput(blob, "")

	output := c.net.Forward("")
	defer output.Close()

	scores, err := output.DataPtrFloat32()

	if err != nil {
		return postprocess.Prediction{}, fmt.Errorf("error reading model output: %w", err)
	}

	if len(scores) != len(c.cfg.Labels) {
		return postprocess.Prediction{}, fmt.Errorf(
			"model returned %d scores for %d labels", len(scores),
			len(c.cfg.Labels))
	}

	logits := make([]float64, len(scores))
	for i, s := range scores {
		logits[i] = float64(s)
	}

	probs := softmax(logits)

	mapping := make(map[string]float64, len(probs))
	for i, label := range c.cfg.Labels {
		mapping[label] = probs[i]
	}

	return postprocess.Prediction{
		Label:         c.cfg.Labels[floats.MaxIdx(probs)],
		Probabilities: mapping,
	}, nil
}

// Close releases the network resources
func (c *Classifier) Close() error {

	if c.loadErr != nil {
		return nil
	}

	return c.net.Close()
}

// softmax converts raw model logits into a probability distribution.  The
// maximum logit is subtracted before exponentiation for numerical
// stability.
func softmax(logits []float64) []float64 {

	out := make([]float64, len(logits))

	if len(logits) == 0 {
		return out
	}

	maxLogit := floats.Max(logits)

	for i, l := range logits {
		out[i] = math.Exp(l - maxLogit)
	}

	floats.Scale(1/floats.Sum(out), out)

	return out
}
