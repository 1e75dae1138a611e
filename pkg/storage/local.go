package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage keeps proof artifacts on disk under basePath and serves
// them from baseURL. It is the zero-credential default for development
// and single-node deployments.
type LocalStorage struct {
	basePath string
	baseURL  string
}

func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

func (l *LocalStorage) Upload(ctx context.Context, request *UploadRequest) (*UploadResponse, error) {
	filePath, err := l.resolve(request.Key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, request.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &UploadResponse{
		Key:      request.Key,
		URL:      l.generateURL(request.Key),
		Size:     size,
		Location: filePath,
	}, nil
}

func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	filePath, err := l.resolve(key)
	if err != nil {
		return err
	}
	return os.Remove(filePath)
}

// GetURL ignores the expiration; local files are served as static
// assets and carry no signature.
func (l *LocalStorage) GetURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	return l.generateURL(key), nil
}

// resolve joins key under basePath and rejects keys that would escape
// it.
func (l *LocalStorage) resolve(key string) (string, error) {
	filePath := filepath.Join(l.basePath, filepath.FromSlash(key))
	base, err := filepath.Abs(l.basePath)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return "", err
	}
	if abs != base && !strings.HasPrefix(abs, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid storage key: %s", key)
	}
	return filePath, nil
}

func (l *LocalStorage) generateURL(key string) string {
	return fmt.Sprintf("%s/%s", l.baseURL, key)
}
