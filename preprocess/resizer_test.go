package preprocess

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestClassifierInput(t *testing.T) {

	tests := []struct {
		srcWidth  int
		srcHeight int
		size      int
	}{
		{1280, 720, 299},
		{800, 1000, 299},
		{299, 299, 299},
		{64, 48, 224},
	}

	for _, tc := range tests {
		img := gocv.NewMatWithSize(tc.srcHeight, tc.srcWidth, gocv.MatTypeCV8UC3)

		dest := gocv.NewMat()

		resizer := NewResizer(tc.size)

		err := resizer.ClassifierInput(img, &dest)

		if err != nil {
			t.Errorf("Test failed for src (%d, %d): %v", tc.srcWidth,
				tc.srcHeight, err)
		}

		if dest.Cols() != tc.size || dest.Rows() != tc.size {
			t.Errorf("Test failed for src (%d, %d): buffer is %dx%d, expected %dx%d",
				tc.srcWidth, tc.srcHeight, dest.Cols(), dest.Rows(),
				tc.size, tc.size)
		}

		if dest.Type() != gocv.MatTypeCV32FC3 {
			t.Errorf("Test failed for src (%d, %d): buffer type is %v, expected CV32FC3",
				tc.srcWidth, tc.srcHeight, dest.Type())
		}

		img.Close()
		dest.Close()
		resizer.Close()
	}
}

func TestClassifierInputEmptySource(t *testing.T) {

	img := gocv.NewMat()
	defer img.Close()

	dest := gocv.NewMat()
	defer dest.Close()

	resizer := NewResizer(ClassifierSize)
	defer resizer.Close()

	if err := resizer.ClassifierInput(img, &dest); err == nil {
		t.Error("expected an error for an empty source image")
	}
}
