package storage

import (
	"context"
	"io"
	"time"
)

// StorageProvider archives proof-of-delivery artifacts (photos,
// signatures, thumbnails). Proofs are write-once: they are uploaded at
// completion time and later fetched by URL, so the surface is small.
type StorageProvider interface {
	Upload(ctx context.Context, request *UploadRequest) (*UploadResponse, error)
	Delete(ctx context.Context, key string) error
	// GetURL returns a time-limited link for private objects. Backends
	// without signed URLs return a plain public link.
	GetURL(ctx context.Context, key string, expiration time.Duration) (string, error)
}

type UploadRequest struct {
	Key         string            `json:"key"`
	Reader      io.Reader         `json:"-"`
	ContentType string            `json:"content_type"`
	Size        int64             `json:"size"`
	Metadata    map[string]string `json:"metadata"`
	ACL         string            `json:"acl"`
}

type UploadResponse struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	ETag     string `json:"etag"`
	Location string `json:"location"`
}
