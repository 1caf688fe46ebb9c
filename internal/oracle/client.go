package oracle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"time"

	"github.com/cinelab/chart-audit/internal/buffer"
)

// Client talks to a detection sidecar over HTTP. The sidecar hosts the
// vision model; this process never loads one.
//
// The wire format is a single POST to the configured URL:
//
//	request:  {"image_png_base64": "...", "query": "color calibration chart"}
//	response: {"label": "...", "points": [[x,y],...], "boxes": [[x1,y1,x2,y2],...], "raw": "..."}
//
// Any of the response fields may be absent; NormalizeToPoints copes.
type Client struct {
	// URL of the sidecar's detect endpoint.
	URL string

	// HTTPClient to use. A nil value gets a client with a 120 s timeout;
	// model inference dominates pipeline latency.
	HTTPClient *http.Client
}

type detectRequest struct {
	ImagePNGBase64 string `json:"image_png_base64"`
	Query          string `json:"query"`
}

// Detect sends the buffer (as an 8-bit PNG proxy, clipped for display) and
// the query to the sidecar and returns its ROI verbatim.
func (c *Client) Detect(ctx context.Context, img *buffer.Buffer, query string) (ROI, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img.ToImage()); err != nil {
		return ROI{}, fmt.Errorf("failed to encode detection proxy: %w", err)
	}

	body, err := json.Marshal(detectRequest{
		ImagePNGBase64: base64.StdEncoding.EncodeToString(pngBuf.Bytes()),
		Query:          query,
	})
	if err != nil {
		return ROI{}, fmt.Errorf("failed to marshal detect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return ROI{}, fmt.Errorf("failed to build detect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return ROI{}, fmt.Errorf("detect call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ROI{}, fmt.Errorf("detect call returned status %d", resp.StatusCode)
	}

	var roi ROI
	if err := json.NewDecoder(resp.Body).Decode(&roi); err != nil {
		return ROI{}, fmt.Errorf("failed to decode detect response: %w", err)
	}
	return roi, nil
}
