package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/safesite/helmetvision"
	"github.com/safesite/helmetvision/postprocess"
)

// boxLabel holds the precalculated rendering details of a single text
// label so all labels can be drawn as the top most layer
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// DetectionBoxes renders the bounding boxes around the detected objects.
// Boxes are normalized and mapped to the pixel dimensions of the given
// image before drawing.
func DetectionBoxes(img *gocv.Mat, detections []postprocess.DetectionResult,
	font Font, lineThickness int) {

	width := float64(img.Cols())
	height := float64(img.Rows())

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0)

	for i, det := range detections {

		// get the color for this object
		useClr := classColors[i%len(classColors)]

		rect := postprocess.MapToPixels(det.Box, width, height).ToImageRect()
		gocv.Rectangle(img, rect, useClr, lineThickness)

		boxLabels = append(boxLabels,
			makeBoxLabel(det, rect, useClr, font, lineThickness))
	}

	drawBoxLabels(img, boxLabels, font)
}

// FaceBox renders the classifier's placeholder region with its label.
// The face list carries 0 or 1 entries.
func FaceBox(img *gocv.Mat, faces []postprocess.DetectionResult, font Font,
	lineThickness int) {

	if len(faces) == 0 {
		return
	}

	width := float64(img.Cols())
	height := float64(img.Rows())

	det := faces[0]

	rect := postprocess.MapToPixels(det.Box, width, height).ToImageRect()
	gocv.Rectangle(img, rect, FaceColor, lineThickness)

	drawBoxLabels(img, []boxLabel{
		makeBoxLabel(det, rect, FaceColor, font, lineThickness),
	}, font)
}

// Overlay draws the full detector state on the image, helmet detections
// first and the face region on top
func Overlay(img *gocv.Mat, state helmetvision.DetectorState, font Font,
	lineThickness int) {

	DetectionBoxes(img, state.Helmets, font, lineThickness)
	FaceBox(img, state.Faces, font, lineThickness)
}

// makeBoxLabel precalculates the position of the label text above the
// detection box
func makeBoxLabel(det postprocess.DetectionResult, rect image.Rectangle,
	clr color.RGBA, font Font, lineThickness int) boxLabel {

	text := fmt.Sprintf("%s %.2f", det.Label, det.Confidence)
	textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

	// calculate the alignment of text label
	var centerX int

	switch font.Alignment {
	case Center:
		centerX = (rect.Min.X + rect.Max.X) / 2

	case Right:
		centerX = rect.Max.X - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

	case Left:
		fallthrough
	default:
		centerX = rect.Min.X + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
	}

	// adjust the label position so the text is centered horizontally
	labelPosition := image.Pt(centerX-textSize.X/2, rect.Min.Y-font.BottomPad)

	// box the text gets written on
	bRect := image.Rect(centerX-textSize.X/2-font.LeftPad,
		rect.Min.Y-textSize.Y-font.TopPad-font.BottomPad,
		centerX+textSize.X/2+font.RightPad, rect.Min.Y)

	return boxLabel{
		rect:    bRect,
		clr:     clr,
		text:    text,
		textPos: labelPosition,
	}
}

// drawBoxLabels draws the precalculated labels so they are the top most
// layer on the image and don't get overlapped by box lines
func drawBoxLabels(img *gocv.Mat, boxLabels []boxLabel, font Font) {

	for _, box := range boxLabels {
		// draw box text gets written on
		gocv.Rectangle(img, box.rect, box.clr, -1)

		// draw the label over box
		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}
