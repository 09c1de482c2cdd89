// internal/inference/client.go
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"spectra-back/internal/queue"
)

// Client talks to the external inference service. The response body is
// opaque to this system; it is stored as the job result as-is.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient builds the service client. A zero timeout means the call is
// unbounded, which matches the historical behavior of this system; set
// INFERENCE_TIMEOUT to bound it.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type inferenceRequest struct {
	ModelID      string          `json:"modelId"`
	Spectrograms []queue.Payload `json:"spectrograms"`
}

func (c *Client) Infer(ctx context.Context, modelID string, spectrograms []queue.Payload) ([]byte, error) {
	body, err := json.Marshal(inferenceRequest{
		ModelID:      modelID,
		Spectrograms: spectrograms,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	result, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read inference response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("inference service returned %d: %s", resp.StatusCode, truncate(result, 256))
	}
	return result, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
