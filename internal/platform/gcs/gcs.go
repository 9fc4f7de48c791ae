// Package gcs builds the Cloud Storage client used by the file store.
package gcs

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"tramite/internal/platform/config"
)

// New returns a storage client, preferring explicit JSON credentials and
// falling back to application default credentials. Returns nil when no
// bucket is configured.
func New(ctx context.Context, cfg config.StorageConfig) (*storage.Client, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}
	var opts []option.ClientOption
	if creds := strings.TrimSpace(cfg.CredentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(cfg.Bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("gcs bucket %q not accessible: %w", cfg.Bucket, err)
	}
	return client, nil
}
