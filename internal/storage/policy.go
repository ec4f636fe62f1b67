package storage

import (
	"fmt"

	"iserve/internal/upload"
)

// Policy constrains incoming attachment uploads.
type Policy struct {
	MaxBytes int64
	// Accept is a comma-separated pattern list (".pdf", "image/png",
	// "image/*"). Empty or "*" accepts everything.
	Accept string
}

// DefaultPolicy matches the limits the front-end advertises: a 50MB cap and
// no type restriction.
func DefaultPolicy(maxBytes int64) Policy {
	if maxBytes <= 0 {
		maxBytes = 50 * 1024 * 1024
	}
	return Policy{MaxBytes: maxBytes, Accept: "*"}
}

// Validate checks a file against the policy.
func (p Policy) Validate(fileName, contentType string, sizeBytes int64) error {
	if p.MaxBytes > 0 && sizeBytes > p.MaxBytes {
		return fmt.Errorf("file size %d bytes exceeds maximum %d bytes", sizeBytes, p.MaxBytes)
	}
	if !upload.MatchesAccept(fileName, contentType, p.Accept) {
		return fmt.Errorf("content type %s is not allowed. Allowed patterns: %s", contentType, p.Accept)
	}
	return nil
}
