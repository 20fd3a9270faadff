package siglip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client talks to the cross-modal encoder sidecar, which serves image
// and text embeddings in one shared space plus generated captions. The
// sidecar loads its models lazily on first use and handles one request
// at a time, so calls are serialized here and the first call triggers a
// warmup.
type Client struct {
	baseURL    string
	httpClient *http.Client

	readyMu sync.Mutex
	ready   bool

	callMu sync.Mutex
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// First call pays the model load.
		httpClient: &http.Client{Timeout: 3 * time.Minute},
	}
}

// EmbedText embeds text into the shared cross-modal space.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var response struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := c.call(ctx, "/embed/text", map[string]any{"text": text}, &response, "embed text"); err != nil {
		return nil, err
	}
	if len(response.Embedding) == 0 {
		return nil, fmt.Errorf("empty text embedding")
	}
	return response.Embedding, nil
}

// EmbedImage embeds the image at path. The sidecar shares the asset
// volume, so only the path travels over the wire.
func (c *Client) EmbedImage(ctx context.Context, path string) ([]float32, error) {
	var response struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := c.call(ctx, "/embed/image", map[string]any{"path": path}, &response, "embed image"); err != nil {
		return nil, err
	}
	if len(response.Embedding) == 0 {
		return nil, fmt.Errorf("empty image embedding")
	}
	return response.Embedding, nil
}

// GenerateCaption asks the sidecar's captioning model to describe the
// image at path.
func (c *Client) GenerateCaption(ctx context.Context, path string) (string, error) {
	var response struct {
		Caption string `json:"caption"`
	}
	if err := c.call(ctx, "/caption", map[string]any{"path": path}, &response, "caption"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Caption), nil
}

func (c *Client) call(ctx context.Context, path string, payload, out any, operation string) error {
	if err := c.ensureReady(ctx); err != nil {
		return err
	}
	c.callMu.Lock()
	defer c.callMu.Unlock()
	return c.postJSON(ctx, path, payload, out, operation)
}

// ensureReady performs the one-time warmup. A failed warmup is retried
// on the next call.
func (c *Client) ensureReady(ctx context.Context) error {
	c.readyMu.Lock()
	defer c.readyMu.Unlock()
	if c.ready {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/warmup", nil)
	if err != nil {
		return fmt.Errorf("create warmup request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("encoder warmup request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("encoder warmup status: %s", resp.Status)
	}

	c.ready = true
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("encoder %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Errorf("encoder %s status: %s: %s", operation, resp.Status, msg)
		}
		return fmt.Errorf("encoder %s status: %s", operation, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}
