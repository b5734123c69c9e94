// Package detector decides whether a photo contains a face large enough to
// matter in a gallery. Detection runs on a downscaled thumbnail; detected
// bounding boxes are re-projected to full resolution before the size
// threshold is applied, so the threshold is independent of thumbnail size.
package detector

import (
	"image"
)

// maxRenderDim caps the effective full-resolution size used for
// re-projection. It models a capped full-size render rather than the true
// original pixel dimensions.
const maxRenderDim = 2000.0

// minRelativeFaceSize is the minimum feature size the finder looks for,
// relative to the smaller thumbnail dimension.
const minRelativeFaceSize = 0.15

// Accuracy selects the finder's detection quality level. It is fixed at
// construction.
type Accuracy string

const (
	AccuracyHigh Accuracy = "high"
	AccuracyLow  Accuracy = "low"
)

// Box is a detected face bounding box in thumbnail pixel coordinates.
type Box struct {
	X, Y          float64
	Width, Height float64
}

// FaceFinder locates face bounding boxes in an image. Implementations are
// safe for sequential reuse; the engine never calls Detect concurrently.
type FaceFinder interface {
	Detect(img image.Image) []Box
}

// Outcome is the result of a sized-face check. MaxFaceHeight and
// MaxFaceWidth are in full-resolution projected units and zero when no
// face was found.
type Outcome struct {
	HasFace       bool
	MaxFaceHeight float64
	MaxFaceWidth  float64
}

// Detector applies the resolution-normalized size threshold on top of a
// FaceFinder. Construction parameters are fixed for its lifetime.
type Detector struct {
	finder       FaceFinder
	minFaceSize  float64
	legacyOffset float64
	accuracy     Accuracy
}

// New creates a detector. minFaceSize and legacyOffset are expressed in
// full-resolution projected units.
func New(finder FaceFinder, minFaceSize, legacyOffset float64, accuracy Accuracy) *Detector {
	return &Detector{
		finder:       finder,
		minFaceSize:  minFaceSize,
		legacyOffset: legacyOffset,
		accuracy:     accuracy,
	}
}

// Accuracy returns the accuracy level fixed at construction.
func (d *Detector) Accuracy() Accuracy {
	return d.accuracy
}

// ContainsSizedFace reports whether the largest face detected in the
// thumbnail, re-projected to the asset's (capped) full resolution, exceeds
// the size threshold. assetWidth and assetHeight are the original asset's
// pixel dimensions. useLegacyOffset raises the threshold by the configured
// legacy device offset. Unusable input yields a negative outcome, never
// an error.
func (d *Detector) ContainsSizedFace(img image.Image, assetWidth, assetHeight int, useLegacyOffset bool) Outcome {
	if img == nil {
		return Outcome{}
	}
	bounds := img.Bounds()
	thumbWidth := float64(bounds.Dx())
	if thumbWidth <= 0 {
		return Outcome{}
	}

	boxes := d.finder.Detect(img)
	if len(boxes) == 0 {
		return Outcome{}
	}

	var maxHeight, maxWidth float64
	for _, box := range boxes {
		if box.Height > maxHeight {
			maxHeight = box.Height
		}
		if box.Width > maxWidth {
			maxWidth = box.Width
		}
	}

	effectiveWidth, _ := EffectiveRenderSize(assetWidth, assetHeight)
	ratio := effectiveWidth / thumbWidth
	scaledHeight := maxHeight * ratio
	scaledWidth := maxWidth * ratio

	threshold := d.minFaceSize
	if useLegacyOffset {
		threshold += d.legacyOffset
	}

	return Outcome{
		HasFace:       scaledHeight > threshold || scaledWidth > threshold,
		MaxFaceHeight: scaledHeight,
		MaxFaceWidth:  scaledWidth,
	}
}

// EffectiveRenderSize returns the asset dimensions with the longer dimension
// capped at 2000, preserving aspect ratio. The cap only applies when the
// longer dimension exceeds it; smaller assets keep their true size.
func EffectiveRenderSize(width, height int) (float64, float64) {
	w, h := float64(width), float64(height)
	if w >= h {
		if w > maxRenderDim {
			scale := maxRenderDim / w
			return maxRenderDim, h * scale
		}
		return w, h
	}
	if h > maxRenderDim {
		scale := maxRenderDim / h
		return w * scale, maxRenderDim
	}
	return w, h
}
