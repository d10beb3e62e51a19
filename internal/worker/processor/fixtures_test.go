package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"comfybridge/internal/config"
	"comfybridge/internal/engine"
	"comfybridge/internal/pkg/logger"
	"comfybridge/internal/ports"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "text", Output: io.Discard})
}

func engineConfig(srv *httptest.Server) *config.Config {
	return &config.Config{
		EngineHost:        strings.TrimPrefix(srv.URL, "http://"),
		ReadyMaxAttempts:  3,
		ReadyInterval:     time.Millisecond,
		ReconnectAttempts: 2,
		ReconnectDelay:    time.Millisecond,
	}
}

func fakeEngine(t *testing.T, handler http.Handler) (*engine.Client, *config.Config) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := engineConfig(srv)
	return engine.NewClient(cfg, testLogger()), cfg
}

// memStore es un StorageProvider en memoria para tests.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Provider() string { return "mem" }

func (s *memStore) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if s.failPut {
		return ports.PutObjectOutput{}, fmt.Errorf("simulated storage outage")
	}
	data, err := io.ReadAll(in.Reader)
	if err != nil {
		return ports.PutObjectOutput{}, err
	}
	s.mu.Lock()
	s.objects[in.ObjectKey] = data
	s.mu.Unlock()
	return ports.PutObjectOutput{ObjectKey: in.ObjectKey, Size: int64(len(data))}, nil
}

func (s *memStore) GetObject(ctx context.Context, objectKey string) (io.ReadCloser, string, int64, error) {
	s.mu.Lock()
	data, ok := s.objects[objectKey]
	s.mu.Unlock()
	if !ok {
		return nil, "", 0, fmt.Errorf("object %s not found", objectKey)
	}
	return io.NopCloser(bytes.NewReader(data)), "application/octet-stream", int64(len(data)), nil
}

func (s *memStore) DeleteObject(ctx context.Context, objectKey string) error {
	s.mu.Lock()
	delete(s.objects, objectKey)
	s.mu.Unlock()
	return nil
}

func (s *memStore) GetSignedURL(ctx context.Context, objectKey string, expiresIn time.Duration) (ports.SignedURLOutput, error) {
	return ports.SignedURLOutput{
		URL:       "https://store.example/" + objectKey + "?signed=1",
		ExpiresAt: time.Now().Add(expiresIn),
	}, nil
}
