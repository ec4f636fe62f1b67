package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyValidate(t *testing.T) {
	p := Policy{MaxBytes: 1024, Accept: ".pdf, image/*"}

	assert.NoError(t, p.Validate("scan.pdf", "application/pdf", 512))
	assert.NoError(t, p.Validate("pic.png", "image/png", 512))
	assert.Error(t, p.Validate("movie.mp4", "video/mp4", 512))
	assert.Error(t, p.Validate("scan.pdf", "application/pdf", 2048))

	open := DefaultPolicy(0)
	assert.NoError(t, open.Validate("anything.bin", "application/octet-stream", 1))
	assert.Error(t, open.Validate("huge.bin", "application/octet-stream", 51*1024*1024))
}

func TestLocalStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "http://localhost:8080")
	require.NoError(t, err)

	ctx := context.Background()

	n, err := s.Put(ctx, "demand/abc/report.pdf", strings.NewReader("contents"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	rc, err := s.Get(ctx, "demand/abc/report.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "contents", string(data))

	assert.Equal(t, "http://localhost:8080/files/demand/abc/report.pdf", s.ResourceURL("demand/abc/report.pdf"))

	require.NoError(t, s.Delete(ctx, "demand/abc/report.pdf"))
	_, err = s.Get(ctx, "demand/abc/report.pdf")
	assert.Error(t, err)
}
