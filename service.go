package helmetvision

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/safesite/helmetvision/postprocess"
	"github.com/safesite/helmetvision/preprocess"
)

// Service orchestrates the two inference pipelines for submitted images
// and publishes results to its state store.  It is an explicitly
// constructed instance with no process wide singleton; build one at
// application start and inject it where needed.
type Service struct {
	detector   ObjectDetector
	classifier Classifier
	store      *Store
	resizer    *preprocess.Resizer
	threshold  float64
	post       []postprocess.Postprocessor
	log        *zap.Logger

	// mu serializes submissions, the preprocess scratch buffers and model
	// backends are not safe for concurrent use
	mu sync.Mutex
}

// Option configures a Service
type Option func(*Service)

// WithThreshold overrides the default confidence threshold applied to
// object detection candidates
func WithThreshold(threshold float64) Option {
	return func(s *Service) {
		s.threshold = threshold
	}
}

// WithInputSize overrides the fixed square input dimension the classifier
// pipeline resizes submitted images to
func WithInputSize(size int) Option {
	return func(s *Service) {
		if s.resizer != nil {
			_ = s.resizer.Close()
		}
		s.resizer = preprocess.NewResizer(size)
	}
}

// WithPostprocessors appends extra filters applied to the helmet detection
// list after confidence filtering
func WithPostprocessors(post ...postprocess.Postprocessor) Option {
	return func(s *Service) {
		s.post = append(s.post, post...)
	}
}

// WithLogger sets the logger used for pipeline diagnostics
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// NewService returns a detector service running inference against the two
// given model backends
func NewService(detector ObjectDetector, classifier Classifier,
	opts ...Option) *Service {

	s := &Service{
		detector:   detector,
		classifier: classifier,
		store:      NewStore(),
		resizer:    preprocess.NewResizer(preprocess.ClassifierSize),
		threshold:  postprocess.DefaultThreshold,
		log:        zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Store returns the service's state store for observers
func (s *Service) Store() *Store {
	return s.store
}

// State returns a copy of the current detector state
func (s *Service) State() DetectorState {
	return s.store.Snapshot()
}

// Submit runs both inference pipelines over the image and returns the
// resulting state.  The object detection pipeline runs first, then the
// classification pipeline; a failure in one never prevents the other from
// running.  All failures are recorded as messages in the state rather
// than returned, the next submission may succeed.
func (s *Service) Submit(ctx context.Context, img gocv.Mat) DetectorState {

	s.mu.Lock()
	defer s.mu.Unlock()

	rev := s.store.Begin()

	s.runDetection(rev, img)

	if err := ctx.Err(); err != nil {
		s.store.SetClassifyError(rev, fmt.Sprintf("classification aborted: %v", err))
	} else {
		s.runClassification(rev, img)
	}

	s.store.Finish(rev)
	s.store.Flush()

	return s.store.Snapshot()
}

// runDetection is the object detection pipeline.  The image is handed to
// the model whole, without resizing, and candidates are confidence
// filtered into the helmet detection list.
func (s *Service) runDetection(rev uint64, img gocv.Mat) {

	candidates, err := s.detector.Detect(img)

	if err != nil {
		s.log.Warn("object detection failed", zap.Error(err))
		s.store.SetDetectError(rev, fmt.Sprintf("helmet detection failed: %v", err))
		return
	}

	results := postprocess.FilterCandidates(candidates, s.threshold)

	for _, p := range s.post {
		results = p(results)
	}

	s.store.SetHelmets(rev, results)
}

// runClassification is the face/target classification pipeline.  The
// image is resized to the fixed square input and converted to a pixel
// buffer before the classifier runs.
func (s *Service) runClassification(rev uint64, img gocv.Mat) {

	input := gocv.NewMat()
	defer input.Close()

	if err := s.resizer.ClassifierInput(img, &input); err != nil {
		s.log.Warn("classifier preprocess failed", zap.Error(err))
		s.store.SetClassifyError(rev, fmt.Sprintf("image preprocessing failed: %v", err))
		return
	}

	pred, err := s.classifier.Classify(input)

	if err != nil {
		s.log.Warn("classification failed", zap.Error(err))
		s.store.SetClassifyError(rev, fmt.Sprintf("face classification failed: %v", err))
		return
	}

	det, ok := postprocess.FaceDetection(pred)

	if !ok {
		// the predicted label has no probability entry, the previous face
		// detection is left in place and no error is surfaced
		s.log.Warn("predicted label missing from probability map",
			zap.String("label", pred.Label))
		return
	}

	s.store.SetFaces(rev, []postprocess.DetectionResult{det})
}

// Close releases the service's state store and preprocess buffers.  The
// model backends are owned by the caller and closed separately.
func (s *Service) Close() error {

	s.store.Close()

	return s.resizer.Close()
}
