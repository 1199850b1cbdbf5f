// Package storage archives generated export files to an S3-compatible
// bucket so order documents survive beyond the download that produced them.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/chartmuseum/storage"
)

// ArchiveConfig encapsulates the connection info for the export archive.
type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

// ExportArchive stores export payloads by key.
type ExportArchive interface {
	ArchiveExport(ctx context.Context, key string, data []byte) error
	ListExports(ctx context.Context) ([]ObjectInfo, error)
}

// ObjectInfo represents metadata for an archived object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ArchiveClient implements ExportArchive over an S3-compatible backend.
type ArchiveClient struct {
	backend storage.Backend
	prefix  string
}

// NewArchiveClient builds an ArchiveClient backed by chartmuseum's Amazon
// storage backend.
func NewArchiveClient(cfg ArchiveConfig) (*ArchiveClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("archive endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("archive credentials must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket must be provided")
	}

	endpoint := cfg.Endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		scheme := "https"
		if !cfg.UseSSL {
			scheme = "http"
		}
		endpoint = fmt.Sprintf("%s://%s", scheme, strings.TrimPrefix(cfg.Endpoint, "//"))
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	os.Setenv("AWS_ACCESS_KEY_ID", cfg.AccessKey)
	os.Setenv("AWS_SECRET_ACCESS_KEY", cfg.SecretKey)
	os.Setenv("AWS_REGION", region)
	os.Setenv("AWS_DEFAULT_REGION", region)

	backend := storage.NewAmazonS3BackendWithOptions(
		cfg.Bucket,
		"", // no prefix at backend level, applied per key instead
		region,
		endpoint,
		"",
		&storage.AmazonS3Options{
			S3ForcePathStyle: awsBool(true),
		},
	)

	return &ArchiveClient{backend: backend, prefix: cfg.Prefix}, nil
}

// ArchiveExport uploads one export payload under the configured prefix.
func (c *ArchiveClient) ArchiveExport(ctx context.Context, key string, data []byte) error {
	if err := c.backend.PutObject(path.Join(c.prefix, key), data); err != nil {
		return fmt.Errorf("archive upload failed for %s: %w", key, err)
	}
	return nil
}

// ListExports lists every archived export under the configured prefix.
func (c *ArchiveClient) ListExports(ctx context.Context) ([]ObjectInfo, error) {
	files, err := c.backend.ListObjects(c.prefix)
	if err != nil {
		return nil, fmt.Errorf("archive list failed: %w", err)
	}
	results := make([]ObjectInfo, 0, len(files))
	for _, object := range files {
		results = append(results, ObjectInfo{
			Key:  object.Path,
			Size: int64(len(object.Content)),
		})
	}
	return results, nil
}

var _ ExportArchive = (*ArchiveClient)(nil)

func awsBool(v bool) *bool {
	return &v
}
