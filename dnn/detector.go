// Package dnn provides concrete model backends built on the OpenCV DNN
// module for ONNX model artifacts.  Both backends record a model load
// failure at construction and return it from every inference call, leaving
// the pipeline unusable for the process lifetime without a reload path.
package dnn

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/safesite/helmetvision/postprocess"
)

const (
	// DetectorInputSize is the default square input dimension of the
	// object detection model
	DetectorInputSize = 640
	// BoxThreshold is the default minimum objectness score required for a
	// raw model output row to be decoded into a candidate
	BoxThreshold = 0.25
	// NMSThreshold is the default maximum allowed Intersection Over Union
	// (IoU) between two candidate boxes for both to be kept
	NMSThreshold = 0.45
)

// DetectorConfig holds the parameters for constructing a Detector backend
type DetectorConfig struct {
	// ModelFile is the path to the ONNX object detection model
	ModelFile string
	// Labels are the class names the model was trained on, in training
	// order
	Labels []string
	// InputSize is the square input dimension of the model, defaults to
	// DetectorInputSize
	InputSize int
	// BoxThreshold is the raw objectness cutoff, defaults to BoxThreshold
	BoxThreshold float32
	// NMSThreshold is the IoU cutoff for suppression, defaults to
	// NMSThreshold
	NMSThreshold float64
}

// Detector is an object detection backend running an ONNX model through
// the OpenCV DNN module
type Detector struct {
	cfg DetectorConfig
	net gocv.Net
	// loadErr is recorded at construction and returned by every call
	loadErr error
	// mu serializes access to the network, it is not safe for concurrent
	// forward passes
	mu sync.Mutex
}

// NewDetector loads the object detection model.  A load failure does not
// prevent construction, the returned backend reports the failure from Err
// and from every Detect call.
func NewDetector(cfg DetectorConfig) *Detector {

	if cfg.InputSize == 0 {
		cfg.InputSize = DetectorInputSize
	}
	if cfg.BoxThreshold == 0 {
		cfg.BoxThreshold = BoxThreshold
	}
	if cfg.NMSThreshold == 0 {
		cfg.NMSThreshold = NMSThreshold
	}

	d := &Detector{cfg: cfg}

	if len(cfg.Labels) == 0 {
		d.loadErr = fmt.Errorf("no class labels configured")
		return d
	}

	if _, err := os.Stat(cfg.ModelFile); err != nil {
		d.loadErr = fmt.Errorf("model file missing: %w", err)
		return d
	}

	d.net = gocv.ReadNet(cfg.ModelFile, "")

	if d.net.Empty() {
		d.loadErr = fmt.Errorf("error loading model %s", cfg.ModelFile)
	}

	return d
}

// Err returns the model load failure, if any
func (d *Detector) Err() error {
	return d.loadErr
}

// Detect runs the model over the whole image and returns the decoded
// candidates with normalized bottom-left-origin bounding boxes
func (d *Detector) Detect(img gocv.Mat) ([]postprocess.Candidate, error) {

	if d.loadErr != nil {
		return nil, d.loadErr
	}

	if img.Empty() {
		return nil, fmt.Errorf("cannot run detection on an empty image")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	blob := gocv.BlobFromImage(img, 1.0/255.0,
		image.Pt(d.cfg.InputSize, d.cfg.InputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("error reading model output: %w", err)
	}

	rowSize := 5 + len(d.cfg.Labels)

	candidates, err := decodeDetections(data, rowSize,
		float64(d.cfg.InputSize), d.cfg.Labels, d.cfg.BoxThreshold)

	if err != nil {
		return nil, err
	}

	return suppressOverlaps(candidates, d.cfg.NMSThreshold), nil
}

// Close releases the network resources
func (d *Detector) Close() error {

	if d.loadErr != nil {
		return nil
	}

	return d.net.Close()
}
