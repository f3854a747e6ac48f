package helmetvision

import (
	"testing"

	"github.com/safesite/helmetvision/postprocess"
)

func TestStoreReplacesListsWholesale(t *testing.T) {

	s := NewStore()
	defer s.Close()

	rev := s.Begin()

	s.SetHelmets(rev, []postprocess.DetectionResult{
		{ID: "a", Label: "helmet", Confidence: 0.9},
		{ID: "b", Label: "helmet", Confidence: 0.8},
	})
	s.Flush()

	if got := len(s.Snapshot().Helmets); got != 2 {
		t.Fatalf("expected 2 helmet detections, got %d", got)
	}

	rev = s.Begin()
	s.SetHelmets(rev, []postprocess.DetectionResult{
		{ID: "c", Label: "helmet", Confidence: 0.7},
	})
	s.Flush()

	st := s.Snapshot()

	if len(st.Helmets) != 1 || st.Helmets[0].ID != "c" {
		t.Errorf("helmet list was not replaced wholesale: %v", st.Helmets)
	}
}

func TestStoreDiscardsStaleUpdates(t *testing.T) {

	s := NewStore()
	defer s.Close()

	rev1 := s.Begin()
	rev2 := s.Begin()

	// updates from the superseded submission must not interleave with the
	// newer one
	s.SetHelmets(rev1, []postprocess.DetectionResult{
		{ID: "stale", Label: "helmet", Confidence: 0.9},
	})
	s.SetHelmets(rev2, []postprocess.DetectionResult{
		{ID: "current", Label: "helmet", Confidence: 0.8},
	})
	s.Finish(rev1)
	s.Flush()

	st := s.Snapshot()

	if len(st.Helmets) != 1 || st.Helmets[0].ID != "current" {
		t.Errorf("stale helmet update was applied: %v", st.Helmets)
	}

	// the stale finish must not clear the processing flag of the newer
	// submission
	if !st.Processing {
		t.Error("stale finish cleared the processing flag")
	}

	s.Finish(rev2)
	s.Flush()

	if s.Snapshot().Processing {
		t.Error("processing flag still set after current submission finished")
	}
}

func TestStoreSeparateErrorSlots(t *testing.T) {

	s := NewStore()
	defer s.Close()

	rev := s.Begin()

	s.SetDetectError(rev, "helmet detection failed: model exploded")
	s.SetClassifyError(rev, "face classification failed: bad buffer")
	s.Flush()

	st := s.Snapshot()

	if st.DetectError == "" || st.ClassifyError == "" {
		t.Errorf("one pipeline's error erased the other's: %+v", st)
	}
}

func TestStoreBeginClearsErrors(t *testing.T) {

	s := NewStore()
	defer s.Close()

	rev := s.Begin()
	s.SetDetectError(rev, "helmet detection failed")
	s.Flush()

	if s.Snapshot().DetectError == "" {
		t.Fatal("expected detect error to be recorded")
	}

	s.Begin()
	s.Flush()

	st := s.Snapshot()

	if st.DetectError != "" || st.ClassifyError != "" {
		t.Errorf("new submission did not clear error slots: %+v", st)
	}
}

func TestStoreErrorLeavesDetectionsUnchanged(t *testing.T) {

	s := NewStore()
	defer s.Close()

	rev := s.Begin()
	s.SetHelmets(rev, []postprocess.DetectionResult{
		{ID: "a", Label: "helmet", Confidence: 0.9},
	})
	s.Finish(rev)

	rev = s.Begin()
	s.SetDetectError(rev, "helmet detection failed")
	s.Finish(rev)
	s.Flush()

	st := s.Snapshot()

	if len(st.Helmets) != 1 {
		t.Errorf("failed pipeline cleared the existing detections: %v",
			st.Helmets)
	}
	if st.DetectError == "" {
		t.Error("expected detect error to be recorded")
	}
}

func TestStoreSnapshotIsCopy(t *testing.T) {

	s := NewStore()
	defer s.Close()

	rev := s.Begin()
	s.SetHelmets(rev, []postprocess.DetectionResult{
		{ID: "a", Label: "helmet", Confidence: 0.9},
	})
	s.Flush()

	st := s.Snapshot()
	st.Helmets[0].ID = "mutated"

	if s.Snapshot().Helmets[0].ID != "a" {
		t.Error("snapshot shares backing storage with published state")
	}
}

func TestStoreCloseDropsLateUpdates(t *testing.T) {

	s := NewStore()

	rev := s.Begin()
	s.Flush()
	s.Close()

	// must not panic or block after close
	s.SetHelmets(rev, []postprocess.DetectionResult{
		{ID: "late", Label: "helmet", Confidence: 0.9},
	})
	s.Flush()

	if len(s.Snapshot().Helmets) != 0 {
		t.Error("update posted after close was applied")
	}
}
