package photoprism

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/facescan/facescan/internal/library"
)

// Resolver fetches the photo sequence and resolves assets to decoded
// thumbnails. It implements library.ImageResolver on top of the API client,
// remembering each photo's thumb hash as the sequence is fetched.
type Resolver struct {
	client *Client

	mu     sync.RWMutex
	hashes map[string]string // photo UID -> thumb hash
}

// NewResolver creates a resolver over an authenticated client.
func NewResolver(client *Client) *Resolver {
	return &Resolver{
		client: client,
		hashes: make(map[string]string),
	}
}

// FetchSequence fetches all photos (paginated) and returns them as a
// library sequence ordered by taken-at descending, the upstream convention.
// The returned sequence is a stable snapshot: later library changes do not
// affect it.
func (r *Resolver) FetchSequence() (library.Sequence, error) {
	var assets []library.Asset
	hashes := make(map[string]string)

	offset := 0
	for {
		photos, err := r.client.GetPhotos(pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("could not fetch photos: %w", err)
		}
		if len(photos) == 0 {
			break
		}
		for _, photo := range photos {
			takenAt, _ := time.Parse(time.RFC3339, photo.TakenAt)
			assets = append(assets, library.Asset{
				UID:     photo.UID,
				Width:   photo.Width,
				Height:  photo.Height,
				TakenAt: takenAt,
			})
			hashes[photo.UID] = photo.Hash
		}
		offset += len(photos)
	}

	r.mu.Lock()
	r.hashes = hashes
	r.mu.Unlock()

	return library.SliceSequence(assets), nil
}

// RequestImage downloads and decodes a thumbnail for the asset at the
// requested target size (longer dimension). A photo the backend cannot
// render resolves to a nil image; decoding failures likewise, since an
// unreadable image is an expected outcome, not a failure.
func (r *Resolver) RequestImage(ctx context.Context, asset library.Asset, targetSize int) (image.Image, error) {
	r.mu.RLock()
	hash, ok := r.hashes[asset.UID]
	r.mu.RUnlock()
	if !ok || hash == "" {
		return nil, nil
	}

	data, err := r.client.GetThumbnail(ctx, hash, thumbName(targetSize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil
	}
	return downscale(img, targetSize), nil
}

// thumbName picks the smallest PhotoPrism thumb at or above the target size.
func thumbName(targetSize int) string {
	switch {
	case targetSize <= 100:
		return "tile_100"
	case targetSize <= 224:
		return "tile_224"
	case targetSize <= 500:
		return "tile_500"
	case targetSize <= 720:
		return "fit_720"
	default:
		return "fit_1280"
	}
}

// downscale scales an image down so its longer dimension equals targetSize,
// preserving aspect ratio. Images already at or below the target are
// returned unchanged.
func downscale(img image.Image, targetSize int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= targetSize && height <= targetSize {
		return img
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = targetSize
		newHeight = int(float64(height) * float64(targetSize) / float64(width))
	} else {
		newHeight = targetSize
		newWidth = int(float64(width) * float64(targetSize) / float64(height))
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
	return resized
}
