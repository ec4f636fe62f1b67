package upload

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		file    FileInfo
		accept  string
		maxSize int64
		wantErr bool
	}{
		{
			name:   "wildcard accepts anything",
			file:   FileInfo{Name: "x.bin", Type: "application/octet-stream", Size: 10},
			accept: "*",
		},
		{
			name:   "extension match",
			file:   FileInfo{Name: "report.PDF", Type: "application/pdf", Size: 10},
			accept: ".pdf",
		},
		{
			name:    "extension mismatch",
			file:    FileInfo{Name: "report.docx", Type: "application/msword", Size: 10},
			accept:  ".pdf",
			wantErr: true,
		},
		{
			name:   "mime wildcard match",
			file:   FileInfo{Name: "photo.png", Type: "image/png", Size: 10},
			accept: "image/*",
		},
		{
			name:    "mime wildcard mismatch",
			file:    FileInfo{Name: "clip.mp4", Type: "video/mp4", Size: 10},
			accept:  "image/*",
			wantErr: true,
		},
		{
			name:   "comma list second entry matches",
			file:   FileInfo{Name: "photo.png", Type: "image/png", Size: 10},
			accept: ".pdf, image/*",
		},
		{
			name:    "comma list no entry matches",
			file:    FileInfo{Name: "song.mp3", Type: "audio/mpeg", Size: 10},
			accept:  ".pdf, image/*",
			wantErr: true,
		},
		{
			name:   "exact mime with parameters",
			file:   FileInfo{Name: "a.json", Type: "application/json; charset=utf-8", Size: 10},
			accept: "application/json",
		},
		{
			name:    "oversize rejected before type check",
			file:    FileInfo{Name: "big.pdf", Type: "application/pdf", Size: 60 * 1024 * 1024},
			accept:  "*",
			maxSize: 50 * 1024 * 1024,
			wantErr: true,
		},
		{
			name:    "size at limit passes",
			file:    FileInfo{Name: "edge.pdf", Type: "application/pdf", Size: 1024},
			accept:  "*",
			maxSize: 1024,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.file, tt.accept, tt.maxSize)
			if tt.wantErr {
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 Bytes", FormatSize(0))
	assert.Equal(t, "512 Bytes", FormatSize(512))
	assert.Equal(t, "1.00 KB", FormatSize(1024))
	assert.Equal(t, "50.00 MB", FormatSize(50*1024*1024))
	assert.Equal(t, "1.50 GB", FormatSize(3*1024*1024*1024/2))
}

func TestStreamForm(t *testing.T) {
	body, contentType := StreamForm(
		FileInfo{Name: "hello.txt", Type: "text/plain", Size: 5},
		strings.NewReader("hello"),
	)
	require.Contains(t, contentType, "multipart/form-data; boundary=")

	encoded, err := io.ReadAll(body)
	require.NoError(t, err)

	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	reader := multipart.NewReader(bytes.NewReader(encoded), params["boundary"])
	part, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, FieldName, part.FormName())
	assert.Equal(t, "hello.txt", part.FileName())

	data, err := io.ReadAll(part)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

// trackedReader records whether it has been read from.
type trackedReader struct {
	r    io.Reader
	read bool
}

func (tr *trackedReader) Read(b []byte) (int, error) {
	tr.read = true
	return tr.r.Read(b)
}

func TestStreamFormConsumesContentLazily(t *testing.T) {
	tracker := &trackedReader{r: strings.NewReader("payload")}
	body, _ := StreamForm(FileInfo{Name: "a.txt"}, tracker)

	// The pipe has no buffer, so the encoder blocks on its first header
	// write and cannot touch content until the body is drained.
	assert.False(t, tracker.read)

	encoded, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.True(t, tracker.read)
	assert.Contains(t, string(encoded), "payload")
}

func TestFilenameFromDisposition(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{`attachment; filename="roof repair.pdf"`, "roof repair.pdf"},
		{`attachment; filename=plain.txt`, "plain.txt"},
		{`inline; filename='quoted.png'`, "quoted.png"},
		{``, "demand_42_file"},
		{`attachment`, "demand_42_file"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FilenameFromDisposition(tt.header, "demand_42_file"), tt.header)
	}
}

func TestProgressReader(t *testing.T) {
	payload := bytes.Repeat([]byte{'a'}, 1000)
	pr, events := NewProgressReader(bytes.NewReader(payload), int64(len(payload)))

	_, err := io.Copy(io.Discard, pr)
	require.NoError(t, err)

	var seen []int
	for pct := range events {
		seen = append(seen, pct)
	}
	require.NotEmpty(t, seen)
	assert.Equal(t, 100, seen[len(seen)-1])
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1])
	}
}

func TestProgressReaderToleratesReadsPastEOF(t *testing.T) {
	pr, events := NewProgressReader(bytes.NewReader([]byte("ab")), 2)

	buf := make([]byte, 1)
	for i := 0; i < 4; i++ {
		pr.Read(buf)
	}

	var last int
	for pct := range events {
		last = pct
	}
	assert.Equal(t, 100, last)
}
