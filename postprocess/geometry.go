package postprocess

import (
	"image"
	"math"
)

// PixelRect is a rectangle in display pixel space with the origin at the
// top left corner, suitable for drawing onto an image surface
type PixelRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MapToPixels converts a normalized bottom-left-origin bounding box into
// top-left-origin pixel coordinates for a display surface of the given
// width and height.  Inputs are assumed well formed as they originate from
// the inference outputs.
func MapToPixels(box NormalizedBox, width, height float64) PixelRect {

	return PixelRect{
		X:      box.X * width,
		Y:      (1 - box.MaxY()) * height,
		Width:  box.Width * width,
		Height: box.Height * height,
	}
}

// ToImageRect converts the pixel rectangle to an image.Rectangle for use
// with drawing functions, rounding to the nearest whole pixel
func (r PixelRect) ToImageRect() image.Rectangle {

	x0 := int(math.Round(r.X))
	y0 := int(math.Round(r.Y))
	x1 := int(math.Round(r.X + r.Width))
	y1 := int(math.Round(r.Y + r.Height))

	return image.Rect(x0, y0, x1, y1)
}
