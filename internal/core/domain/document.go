package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	ContentHash string         `json:"content_hash,omitempty"`
	NumPages    int            `json:"num_pages"`
	ChunkCount  int            `json:"chunk_count"`
	ImageCount  int            `json:"image_count"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ProcessingCounts summarizes one completed pipeline run for the registry.
type ProcessingCounts struct {
	NumPages   int
	ChunkCount int
	ImageCount int
}
