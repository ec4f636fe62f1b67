// Package upload holds the client-side file helpers: validation against
// accept patterns, multipart construction and progress reporting.
package upload

import (
	"fmt"
	"mime"
	"strings"
)

// FileInfo describes a local file about to be uploaded.
type FileInfo struct {
	Name string
	Type string // MIME type, may be empty
	Size int64
}

// DefaultMaxSize caps uploads at 50MB unless a caller overrides it.
const DefaultMaxSize = 50 * 1024 * 1024

// ValidationError is surfaced to the user before any network call happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validate rejects files that exceed maxSize or whose name/MIME matches no
// entry of the comma-separated accept list. An accept of "*" (or empty)
// passes everything. Patterns are extensions (".pdf"), exact MIME types
// ("application/pdf") or wildcards ("image/*").
func Validate(file FileInfo, accept string, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if file.Size > maxSize {
		return &ValidationError{Reason: fmt.Sprintf("file size must not exceed %s", FormatSize(maxSize))}
	}

	if !MatchesAccept(file.Name, file.Type, accept) {
		return &ValidationError{Reason: fmt.Sprintf("unsupported file type: %s", file.Name)}
	}
	return nil
}

// MatchesAccept reports whether a file name/MIME pair satisfies an accept
// pattern list.
func MatchesAccept(name, contentType, accept string) bool {
	accept = strings.TrimSpace(accept)
	if accept == "" || accept == "*" || accept == "*/*" {
		return true
	}

	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	for _, pattern := range strings.Split(accept, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		switch {
		case strings.HasPrefix(pattern, "."):
			if strings.HasSuffix(strings.ToLower(name), strings.ToLower(pattern)) {
				return true
			}
		case strings.Contains(pattern, "/"):
			if strings.HasSuffix(pattern, "/*") {
				prefix := strings.TrimSuffix(pattern, "*")
				if strings.HasPrefix(mediaType, prefix) {
					return true
				}
			} else if mediaType == pattern {
				return true
			}
		default:
			if mediaType == pattern {
				return true
			}
		}
	}
	return false
}

// FormatSize renders a byte count in a human-readable unit.
func FormatSize(bytes int64) string {
	const k = 1024
	if bytes < k {
		return fmt.Sprintf("%d Bytes", bytes)
	}
	units := []string{"KB", "MB", "GB", "TB"}
	size := float64(bytes)
	unit := ""
	for _, u := range units {
		size /= k
		unit = u
		if size < k {
			break
		}
	}
	return fmt.Sprintf("%.2f %s", size, unit)
}
