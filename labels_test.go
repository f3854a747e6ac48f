package helmetvision

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLabels(t *testing.T) {

	file := filepath.Join(t.TempDir(), "labels.txt")

	content := "helmet\nno-helmet\n\n  person  \n"

	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatalf("error writing label file: %v", err)
	}

	labels, err := LoadLabels(file)

	if err != nil {
		t.Fatalf("error loading labels: %v", err)
	}

	expected := []string{"helmet", "no-helmet", "person"}

	if len(labels) != len(expected) {
		t.Fatalf("loaded %d labels, expected %d", len(labels), len(expected))
	}

	for i, l := range expected {
		if labels[i] != l {
			t.Errorf("label %d = %q, expected %q", i, labels[i], l)
		}
	}
}

func TestLoadLabelsMissingFile(t *testing.T) {

	if _, err := LoadLabels("does-not-exist.txt"); err == nil {
		t.Error("expected an error for a missing label file")
	}
}
