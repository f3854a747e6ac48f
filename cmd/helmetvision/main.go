package main

import (
	"context"
	"flag"

	"gocv.io/x/gocv"

	"github.com/safesite/helmetvision"
	"github.com/safesite/helmetvision/dnn"
	"github.com/safesite/helmetvision/logger"
	"github.com/safesite/helmetvision/postprocess"
	"github.com/safesite/helmetvision/preprocess"
	"github.com/safesite/helmetvision/render"
)

func main() {

	// read in cli flags
	detModel := flag.String("m", "./models/helmet.onnx", "Object detection model file")
	detLabels := flag.String("n", "./models/helmet-labels.txt", "Detection class labels file")
	clsModel := flag.String("c", "./models/face.onnx", "Classification model file")
	clsLabels := flag.String("l", "./models/face-labels.txt", "Classification labels file")
	imgFile := flag.String("i", "./photo.jpg", "Image file to run inference on")
	outFile := flag.String("o", "", "Write a copy of the image with detections drawn on it")
	threshold := flag.Float64("t", 0.5, "Confidence threshold for helmet detections")
	flag.Parse()

	if err := logger.InitDevelopment(); err != nil {
		panic(err)
	}
	defer logger.Sync()

	log := logger.S()

	// load image
	img := gocv.IMRead(*imgFile, gocv.IMReadColor)

	if img.Empty() {
		log.Fatalf("Error reading image from: %s", *imgFile)
	}
	defer img.Close()

	detNames, err := helmetvision.LoadLabels(*detLabels)

	if err != nil {
		log.Fatalf("Error loading detection labels: %v", err)
	}

	clsNames, err := helmetvision.LoadLabels(*clsLabels)

	if err != nil {
		log.Fatalf("Error loading classification labels: %v", err)
	}

	// create the model backends.  a load failure is reported through the
	// detector state rather than aborting, matching the server behaviour
	detector := dnn.NewDetector(dnn.DetectorConfig{
		ModelFile: *detModel,
		Labels:    detNames,
	})
	defer detector.Close()

	classifier := dnn.NewClassifier(dnn.ClassifierConfig{
		ModelFile: *clsModel,
		Labels:    clsNames,
		InputSize: preprocess.ClassifierSize,
	})
	defer classifier.Close()

	if err := detector.Err(); err != nil {
		log.Warnf("Helmet detection unavailable: %v", err)
	}
	if err := classifier.Err(); err != nil {
		log.Warnf("Face classification unavailable: %v", err)
	}

	svc := helmetvision.NewService(detector, classifier,
		helmetvision.WithThreshold(*threshold),
		helmetvision.WithLogger(logger.Log()),
	)
	defer svc.Close()

	state := svc.Submit(context.Background(), img)

	log.Infof("Helmet detections: %d", len(state.Helmets))

	width := float64(img.Cols())
	height := float64(img.Rows())

	for _, det := range state.Helmets {
		rect := postprocess.MapToPixels(det.Box, width, height).ToImageRect()
		log.Infof("  %s %.2f at (%d, %d, %dx%d)", det.Label, det.Confidence,
			rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
	}

	for _, det := range state.Faces {
		log.Infof("Face/target: %s %.2f", det.Label, det.Confidence)
	}

	if state.DetectError != "" {
		log.Warnf("Detection pipeline: %s", state.DetectError)
	}
	if state.ClassifyError != "" {
		log.Warnf("Classification pipeline: %s", state.ClassifyError)
	}

	if *outFile != "" {
		render.Overlay(&img, state, render.DefaultFont(), 2)

		if ok := gocv.IMWrite(*outFile, img); !ok {
			log.Fatalf("Error writing annotated image to: %s", *outFile)
		}

		log.Infof("Annotated image written to %s", *outFile)
	}

	log.Info("done")
}
