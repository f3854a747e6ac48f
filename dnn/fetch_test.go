package dnn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFetchModel(t *testing.T) {

	hits := 0

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			hits++
			_, _ = w.Write([]byte("model-bytes"))
		}))
	defer srv.Close()

	cacheDir := t.TempDir()

	dest, err := FetchModel(context.Background(), srv.URL+"/models/helmet.onnx",
		cacheDir)

	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if filepath.Base(dest) != "helmet.onnx" {
		t.Errorf("cached file name = %q, expected helmet.onnx", filepath.Base(dest))
	}

	data, err := os.ReadFile(dest)

	if err != nil || string(data) != "model-bytes" {
		t.Errorf("cached file content = %q, err = %v", data, err)
	}

	// a second fetch reuses the cached artifact
	if _, err := FetchModel(context.Background(),
		srv.URL+"/models/helmet.onnx", cacheDir); err != nil {
		t.Fatalf("cached fetch failed: %v", err)
	}

	if hits != 1 {
		t.Errorf("server hit %d times, expected 1", hits)
	}
}

func TestFetchModelServerError(t *testing.T) {

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
	defer srv.Close()

	cacheDir := t.TempDir()

	if _, err := FetchModel(context.Background(),
		srv.URL+"/models/helmet.onnx", cacheDir); err == nil {
		t.Fatal("expected an error for a failed download")
	}

	// the error body must not be left behind as a cached artifact
	if _, err := os.Stat(filepath.Join(cacheDir, "helmet.onnx")); err == nil {
		t.Error("failed download left a cache entry behind")
	}
}

func TestIsURL(t *testing.T) {

	tests := []struct {
		src      string
		expected bool
	}{
		{"https://example.com/m.onnx", true},
		{"http://example.com/m.onnx", true},
		{"./models/m.onnx", false},
		{"/opt/models/m.onnx", false},
	}

	for _, tc := range tests {
		if got := IsURL(tc.src); got != tc.expected {
			t.Errorf("IsURL(%q) = %v, expected %v", tc.src, got, tc.expected)
		}
	}
}
