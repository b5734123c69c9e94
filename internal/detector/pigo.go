package detector

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
)

// Cluster IoU for merging overlapping raw detections into one face.
const clusterIoU = 0.2

// PigoFinder locates faces with the pigo cascade classifier. The cascade is
// unpacked once at construction. Thumbnails arrive display-oriented from the
// library backend, so the cascade runs without rotation.
type PigoFinder struct {
	classifier *pigo.Pigo
	quality    float32
}

// NewPigoFinder creates a finder from cascade model bytes. The accuracy
// level sets the detection score a candidate must reach to count as a face.
func NewPigoFinder(cascade []byte, accuracy Accuracy) (*PigoFinder, error) {
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("could not unpack cascade file: %w", err)
	}

	quality := float32(6.0)
	if accuracy == AccuracyLow {
		quality = 4.0
	}

	return &PigoFinder{classifier: classifier, quality: quality}, nil
}

// NewPigoFinderFromFile loads the cascade model from disk.
func NewPigoFinderFromFile(path string, accuracy Accuracy) (*PigoFinder, error) {
	cascade, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read cascade file %s: %w", path, err)
	}
	return NewPigoFinder(cascade, accuracy)
}

// Detect returns face bounding boxes in image pixel coordinates.
func (f *PigoFinder) Detect(img image.Image) []Box {
	if img == nil {
		return nil
	}

	src := pigo.ImgToNRGBA(img)
	pixels := pigo.RgbToGrayscale(src)
	cols, rows := src.Bounds().Max.X, src.Bounds().Max.Y
	if cols <= 0 || rows <= 0 {
		return nil
	}

	minDim := cols
	if rows < minDim {
		minDim = rows
	}
	minSize := int(minRelativeFaceSize * float64(minDim))
	if minSize < 20 {
		minSize = 20
	}
	maxSize := cols
	if rows > maxSize {
		maxSize = rows
	}

	params := pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     maxSize,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := f.classifier.RunCascade(params, 0.0)
	dets = f.classifier.ClusterDetections(dets, clusterIoU)

	var boxes []Box
	for _, det := range dets {
		if det.Q < f.quality {
			continue
		}
		size := float64(det.Scale)
		boxes = append(boxes, Box{
			X:      float64(det.Col) - size/2,
			Y:      float64(det.Row) - size/2,
			Width:  size,
			Height: size,
		})
	}
	return boxes
}
