package localfs

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"comfybridge/internal/ports"
)

func putInput(key string, payload []byte) ports.PutObjectInput {
	return ports.PutObjectInput{
		ObjectKey: key,
		Reader:    bytes.NewReader(payload),
		Size:      int64(len(payload)),
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	fs := New(t.TempDir())
	ctx := context.Background()

	payload := []byte("artifact bytes")
	out, err := fs.PutObject(ctx, putInput("job-1/abc.png", payload))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if out.ObjectKey != "job-1/abc.png" {
		t.Errorf("expected key to round-trip, got %s", out.ObjectKey)
	}
	if out.Size != int64(len(payload)) {
		t.Errorf("expected size %d, got %d", len(payload), out.Size)
	}

	rc, contentType, size, err := fs.GetObject(ctx, "job-1/abc.png")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	defer rc.Close()

	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, payload) {
		t.Errorf("expected payload to round-trip, got %q", got)
	}
	if size != int64(len(payload)) {
		t.Errorf("expected size %d, got %d", len(payload), size)
	}
	if !strings.HasPrefix(contentType, "image/png") {
		t.Errorf("expected extension-based content type, got %s", contentType)
	}
}

func TestPutRequiresKey(t *testing.T) {
	fs := New(t.TempDir())
	if _, err := fs.PutObject(context.Background(), putInput("", nil)); err == nil {
		t.Error("expected error for empty object key")
	}
}

func TestDeleteObject(t *testing.T) {
	fs := New(t.TempDir())
	ctx := context.Background()

	_, _ = fs.PutObject(ctx, putInput("k.bin", []byte("x")))
	if err := fs.DeleteObject(ctx, "k.bin"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, _, _, err := fs.GetObject(ctx, "k.bin"); err == nil {
		t.Error("expected get to fail after delete")
	}
}

func TestSignedURLIsFileURL(t *testing.T) {
	fs := New(t.TempDir())
	ctx := context.Background()

	_, _ = fs.PutObject(ctx, putInput("k.bin", []byte("x")))
	signed, err := fs.GetSignedURL(ctx, "k.bin", time.Hour)
	if err != nil {
		t.Fatalf("signed url failed: %v", err)
	}
	if !strings.HasPrefix(signed.URL, "file://") {
		t.Errorf("expected file URL, got %s", signed.URL)
	}
	if !signed.ExpiresAt.After(time.Now()) {
		t.Error("expected expiry in the future")
	}
}
