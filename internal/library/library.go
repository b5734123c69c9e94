// Package library defines the contracts between the detection core and the
// photo-library backend: the fetched asset sequence and the image resolver.
package library

import (
	"context"
	"image"
	"time"
)

// Asset represents one photo-library item. It is immutable once fetched;
// the detection core only reads it.
type Asset struct {
	UID     string
	Width   int
	Height  int
	TakenAt time.Time
}

// Sequence is a random-access, count-bearing view of a fetched photo
// collection. Providers order it by taken-at descending (newest first)
// and keep it stable for the duration of a detection session.
type Sequence interface {
	Count() int
	At(i int) Asset
}

// SliceSequence adapts a plain asset slice to the Sequence interface.
type SliceSequence []Asset

func (s SliceSequence) Count() int { return len(s) }

func (s SliceSequence) At(i int) Asset { return s[i] }

// ImageResolver resolves an asset to a displayable image at the requested
// target size (the longer dimension in pixels). The call is synchronous:
// the image is available when it returns. A nil image with a nil error is
// a legal outcome and means the asset could not be rendered; callers treat
// it as an expected condition, not a failure.
type ImageResolver interface {
	RequestImage(ctx context.Context, asset Asset, targetSize int) (image.Image, error)
}
