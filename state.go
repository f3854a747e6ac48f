package helmetvision

import (
	"sync"
	"sync/atomic"

	"github.com/safesite/helmetvision/postprocess"
)

// DetectorState is the display ready result of the two inference pipelines.
// Each detection list is replaced wholesale when its pipeline completes,
// never patched incrementally.  The two pipelines own separate error slots
// so one pipeline's failure never erases the other's message.
type DetectorState struct {
	// Helmets are the current helmet detections in model output order
	Helmets []postprocess.DetectionResult `json:"helmets"`
	// Faces is the current face/target detection, always 0 or 1 entries
	Faces []postprocess.DetectionResult `json:"faces"`
	// DetectError is the most recent object detection pipeline failure
	DetectError string `json:"detect_error,omitempty"`
	// ClassifyError is the most recent classification pipeline failure
	ClassifyError string `json:"classify_error,omitempty"`
	// Processing indicates a submission is currently being worked on
	Processing bool `json:"processing"`
	// Revision is the sequence number of the submission the state reflects
	Revision uint64 `json:"revision"`
}

// update kinds applied by the store writer
const (
	updateBegin = iota
	updateHelmets
	updateFace
	updateDetectError
	updateClassifyError
	updateFinish
)

// stateUpdate is an immutable message posted by a pipeline to the store
type stateUpdate struct {
	kind     int
	revision uint64
	results  []postprocess.DetectionResult
	message  string
	// ack is closed once the writer has drained all prior updates, used
	// by Flush
	ack chan struct{}
}

// Store publishes DetectorState.  All mutations are posted as update
// messages on a channel and applied serially by a single writer goroutine,
// so observers never see torn state regardless of which pipeline produced
// an update.  Updates are tagged with the submission revision they belong
// to and updates from a revision older than the latest begun submission
// are discarded rather than interleaved.
type Store struct {
	updates chan stateUpdate
	quit    chan struct{}
	done    chan struct{}
	close   sync.Once

	// rev is the last allocated submission revision
	rev atomic.Uint64

	// mu guards state for snapshot reads
	mu    sync.RWMutex
	state DetectorState
}

// NewStore returns a running state store
func NewStore() *Store {

	s := &Store{
		updates: make(chan stateUpdate, 16),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	s.mu.Lock()
	s.state.Helmets = make([]postprocess.DetectionResult, 0)
	s.state.Faces = make([]postprocess.DetectionResult, 0)
	s.mu.Unlock()

	go s.run()

	return s
}

// run is the single writer applying posted updates in order
func (s *Store) run() {

	defer close(s.done)

	// latest is the revision of the most recently begun submission, used
	// to discard stale updates from an overlapped earlier submission
	var latest uint64

	for {
		select {
		case <-s.quit:
			return

		case u := <-s.updates:
			if u.ack != nil {
				close(u.ack)
				continue
			}

			if u.kind == updateBegin {
				if u.revision < latest {
					continue
				}
				latest = u.revision
			} else if u.revision < latest {
				// stale update from a superseded submission
				continue
			}

			s.apply(u)
		}
	}
}

// apply mutates the published state under lock
func (s *Store) apply(u stateUpdate) {

	s.mu.Lock()
	defer s.mu.Unlock()

	switch u.kind {
	case updateBegin:
		s.state.Processing = true
		s.state.Revision = u.revision
		// a new submission starts with clean error slots
		s.state.DetectError = ""
		s.state.ClassifyError = ""

	case updateHelmets:
		s.state.Helmets = u.results

	case updateFace:
		s.state.Faces = u.results

	case updateDetectError:
		// existing detections are left unchanged on failure
		s.state.DetectError = u.message

	case updateClassifyError:
		s.state.ClassifyError = u.message

	case updateFinish:
		s.state.Processing = false
	}
}

// post delivers an update to the writer, dropping it if the store has
// been closed
func (s *Store) post(u stateUpdate) {

	select {
	case s.updates <- u:
	case <-s.quit:
	}
}

// Begin allocates the revision for a new submission and marks the state
// as processing.  Both error slots are cleared.
func (s *Store) Begin() uint64 {

	rev := s.rev.Add(1)
	s.post(stateUpdate{kind: updateBegin, revision: rev})

	return rev
}

// SetHelmets replaces the helmet detection list for the given submission
func (s *Store) SetHelmets(rev uint64, results []postprocess.DetectionResult) {

	// copy so the caller cannot mutate published state
	cp := make([]postprocess.DetectionResult, len(results))
	copy(cp, results)

	s.post(stateUpdate{kind: updateHelmets, revision: rev, results: cp})
}

// SetFaces replaces the face detection list for the given submission
func (s *Store) SetFaces(rev uint64, results []postprocess.DetectionResult) {

	cp := make([]postprocess.DetectionResult, len(results))
	copy(cp, results)

	s.post(stateUpdate{kind: updateFace, revision: rev, results: cp})
}

// SetDetectError records an object detection pipeline failure.  The
// existing helmet detections are left unchanged.
func (s *Store) SetDetectError(rev uint64, message string) {
	s.post(stateUpdate{kind: updateDetectError, revision: rev, message: message})
}

// SetClassifyError records a classification pipeline failure.  The
// existing face detection is left unchanged.
func (s *Store) SetClassifyError(rev uint64, message string) {
	s.post(stateUpdate{kind: updateClassifyError, revision: rev, message: message})
}

// Finish clears the processing flag for the given submission
func (s *Store) Finish(rev uint64) {
	s.post(stateUpdate{kind: updateFinish, revision: rev})
}

// Flush blocks until the writer has applied all previously posted updates
func (s *Store) Flush() {

	ack := make(chan struct{})
	s.post(stateUpdate{ack: ack})

	select {
	case <-ack:
	case <-s.quit:
	}
}

// Snapshot returns a copy of the current state safe for the caller to hold
func (s *Store) Snapshot() DetectorState {

	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Helmets = make([]postprocess.DetectionResult, len(s.state.Helmets))
	copy(st.Helmets, s.state.Helmets)
	st.Faces = make([]postprocess.DetectionResult, len(s.state.Faces))
	copy(st.Faces, s.state.Faces)

	return st
}

// Close stops the writer goroutine.  Updates posted after Close are
// dropped.
func (s *Store) Close() {

	s.close.Do(func() {
		close(s.quit)
	})

	<-s.done
}
