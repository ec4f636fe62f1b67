package upload

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"
)

// FieldName is the multipart form field the backend expects files under.
const FieldName = "file"

// StreamForm encodes a single-file multipart body lazily through a pipe, so
// content is consumed while the request transmits rather than buffered into
// memory first. Progress readers wrapped around content therefore track
// bytes leaving for the network. Encoding errors surface from the returned
// reader.
func StreamForm(info FileInfo, content io.Reader) (io.Reader, string) {
	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)

	go func() {
		part, err := w.CreateFormFile(FieldName, info.Name)
		if err != nil {
			pw.CloseWithError(fmt.Errorf("create form file: %w", err))
			return
		}
		if _, err := io.Copy(part, content); err != nil {
			pw.CloseWithError(fmt.Errorf("copy file content: %w", err))
			return
		}
		pw.CloseWithError(w.Close())
	}()

	return pr, w.FormDataContentType()
}

// FilenameFromDisposition recovers the original filename from a
// Content-Disposition header. The fallback is used when the header is
// absent or unparseable.
func FilenameFromDisposition(header, fallback string) string {
	if header == "" {
		return fallback
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		// The parser strips double quotes but leaves single quotes intact.
		if name := strings.Trim(params["filename"], `"'`); name != "" {
			return name
		}
	}
	// Some backends ship bare `filename=name` fragments that the strict
	// parser refuses; salvage them by hand.
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "filename=") {
			name := strings.Trim(strings.TrimPrefix(part, "filename="), `"'`)
			if name != "" {
				return name
			}
		}
	}
	return fallback
}
