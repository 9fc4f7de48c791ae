// Package filestore keeps procedure attachments in object storage.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
)

// GCS stores blobs in one Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
}

func NewGCS(client *storage.Client, bucket string) *GCS {
	return &GCS{client: client, bucket: bucket}
}

// Put writes data under key. An empty content type is sniffed.
func (g *GCS) Put(ctx context.Context, key, contentType string, data []byte) error {
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = DetectContentType(contentType, data)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object %s: %w", key, err)
	}
	return nil
}

// Delete removes key. A missing object is not an error.
func (g *GCS) Delete(ctx context.Context, key string) error {
	err := g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// URL is the public object URL.
func (g *GCS) URL(key string) string {
	return publicURL(g.bucket, key)
}

func publicURL(bucket, key string) string {
	return "https://storage.googleapis.com/" + bucket + "/" + (&url.URL{Path: key}).EscapedPath()
}

// DetectContentType keeps a declared type and otherwise sniffs data.
func DetectContentType(declared string, data []byte) string {
	if declared = strings.TrimSpace(declared); declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return http.DetectContentType(data)
}

// Memory keeps blobs in process memory.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]Object
	baseURL string
}

// Object is a stored blob.
type Object struct {
	ContentType string
	Data        []byte
}

func NewMemory(baseURL string) *Memory {
	return &Memory{objects: make(map[string]Object), baseURL: strings.TrimRight(baseURL, "/")}
}

func (m *Memory) Put(_ context.Context, key, contentType string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{ContentType: DetectContentType(contentType, data), Data: append([]byte(nil), data...)}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *Memory) URL(key string) string {
	return m.baseURL + "/" + key
}

// Get returns the blob under key.
func (m *Memory) Get(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	return o, ok
}

// Keys lists stored keys.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	return out
}
