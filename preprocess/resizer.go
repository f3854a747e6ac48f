package preprocess

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ClassifierSize is the default fixed square dimension in pixels the
// classifier model expects its input resized to
const ClassifierSize = 299

// Resizer prepares a submitted image for the classification pipeline by
// scaling it to the fixed square input dimension and converting it into
// the float32 pixel buffer the classifier consumes
type Resizer struct {
	// size is the square input dimension to scale to
	size int
	// tempMat is a Mat used during the conversion process
	tempMat gocv.Mat
}

// NewResizer returns a resizer producing square inputs of the given
// dimension
func NewResizer(size int) *Resizer {

	return &Resizer{
		size:    size,
		tempMat: gocv.NewMat(),
	}
}

// Close frees memory allocated during the conversion process
func (r *Resizer) Close() error {
	return r.tempMat.Close()
}

// Size returns the square input dimension images are scaled to
func (r *Resizer) Size() int {
	return r.size
}

// ClassifierInput scales the source image to the square input dimension,
// ignoring aspect as the classifier contract requires, and converts the
// result into an RGB float32 pixel buffer scaled to [0,1]
func (r *Resizer) ClassifierInput(src gocv.Mat, dest *gocv.Mat) error {

	if src.Empty() {
		return fmt.Errorf("cannot preprocess empty image")
	}

	gocv.Resize(src, &r.tempMat, image.Pt(r.size, r.size), 0, 0,
		gocv.InterpolationArea)

	if r.tempMat.Cols() != r.size || r.tempMat.Rows() != r.size {
		return fmt.Errorf("resize produced %dx%d, expected %dx%d",
			r.tempMat.Cols(), r.tempMat.Rows(), r.size, r.size)
	}

	// model inputs are RGB ordered
	gocv.CvtColor(r.tempMat, &r.tempMat, gocv.ColorBGRToRGB)

	r.tempMat.ConvertToWithParams(dest, gocv.MatTypeCV32FC3, 1.0/255.0, 0)

	if dest.Empty() {
		return fmt.Errorf("pixel buffer conversion produced an empty buffer")
	}

	return nil
}
