package photoprism

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Photo is the subset of PhotoPrism photo metadata the detection core needs.
type Photo struct {
	UID     string `json:"UID"`
	Type    string `json:"Type"`
	TakenAt string `json:"TakenAt"`
	Hash    string `json:"Hash"`
	Width   int    `json:"Width"`
	Height  int    `json:"Height"`
}

// pageSize is the number of photos fetched per API page.
const pageSize = 1000

// DefaultDownloadRetries is the retry budget for full-size downloads.
const DefaultDownloadRetries = 3

// GetPhotos retrieves one page of photos, newest first.
func (c *Client) GetPhotos(count, offset int) ([]Photo, error) {
	endpoint := fmt.Sprintf("photos?count=%d&offset=%d&order=newest&type=image", count, offset)
	result, err := doGetJSON[[]Photo](c, endpoint)
	if err != nil {
		return nil, err
	}
	return *result, nil
}

// GetThumbnail downloads a thumbnail for a photo by its hash. Size is a
// PhotoPrism thumb name such as "tile_224" or "tile_500". Thumbnails are
// served display-oriented (EXIF rotation already applied).
func (c *Client) GetThumbnail(ctx context.Context, thumbHash, size string) ([]byte, error) {
	url := fmt.Sprintf("%s/t/%s/%s/%s", c.URL, thumbHash, c.downloadToken, size)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	return io.ReadAll(resp.Body)
}

// Download fetches the full-size file for a photo, retrying up to retries
// times on failure. After exhausting the budget it returns nil data and nil
// error: callers treat a missing image as a normal outcome.
func (c *Client) Download(ctx context.Context, fileHash string, retries int) ([]byte, error) {
	if retries <= 0 {
		retries = DefaultDownloadRetries
	}
	for attempt := 0; attempt < retries; attempt++ {
		data, err := c.downloadOnce(ctx, fileHash)
		if err == nil && len(data) > 0 {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, nil
}

func (c *Client) downloadOnce(ctx context.Context, fileHash string) ([]byte, error) {
	url := fmt.Sprintf("%s/dl/%s?t=%s", c.URL, fileHash, c.downloadToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	return io.ReadAll(resp.Body)
}
