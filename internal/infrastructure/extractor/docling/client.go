package docling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
	"github.com/mkuznetsov/docuvision/internal/core/ports"
)

// Client talks to a document conversion sidecar that performs layout
// analysis and returns the flat structural-item stream of a document,
// including extracted image assets written next to the source file.
type Client struct {
	baseURL    string
	storage    ports.ObjectStorage
	httpClient *http.Client
}

func New(baseURL string, storage ports.ObjectStorage) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		storage: storage,
		// Layout analysis of a large PDF is slow.
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (c *Client) Extract(ctx context.Context, doc *domain.Document) ([]domain.StructureItem, int, error) {
	source, err := c.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, 0, fmt.Errorf("open source document: %w", err)
	}
	defer source.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", doc.Filename)
	if err != nil {
		return nil, 0, fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := io.Copy(part, source); err != nil {
		return nil, 0, fmt.Errorf("copy source into request: %w", err)
	}
	if err := writer.WriteField("doc_id", doc.ID); err != nil {
		return nil, 0, fmt.Errorf("write doc_id field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, 0, fmt.Errorf("finalize multipart body: %w", err)
	}

	url := c.baseURL + "/convert"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, 0, fmt.Errorf("create convert request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("conversion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return nil, 0, fmt.Errorf("conversion status: %s: %s", resp.Status, msg)
		}
		return nil, 0, fmt.Errorf("conversion status: %s", resp.Status)
	}

	var convertResp struct {
		NumPages int `json:"num_pages"`
		Items    []struct {
			Label     string    `json:"label"`
			Text      string    `json:"text"`
			Page      int       `json:"page"`
			ImagePath string    `json:"image_path"`
			BBox      []float64 `json:"bbox"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&convertResp); err != nil {
		return nil, 0, fmt.Errorf("decode convert response: %w", err)
	}

	items := make([]domain.StructureItem, 0, len(convertResp.Items))
	for _, it := range convertResp.Items {
		items = append(items, domain.StructureItem{
			Label:     it.Label,
			Text:      it.Text,
			Page:      it.Page,
			ImagePath: it.ImagePath,
			BBox:      it.BBox,
		})
	}
	return items, convertResp.NumPages, nil
}
