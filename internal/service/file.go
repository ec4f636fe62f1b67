package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"iserve/internal/db"
	"iserve/internal/model"
	"iserve/internal/storage"

	"github.com/oklog/ulid/v2"
)

// OwnerKindDemand and OwnerKindResponse name the two entity kinds that can
// carry attachments.
const (
	OwnerKindDemand   = "demand"
	OwnerKindResponse = "response"
)

type FileService struct {
	queries *db.Queries
	store   storage.Storage
	policy  storage.Policy
}

func NewFileService(queries *db.Queries, store storage.Storage, policy storage.Policy) *FileService {
	return &FileService{queries: queries, store: store, policy: policy}
}

// MaxBytes reports the policy's size cap, for request body limiting.
func (s *FileService) MaxBytes() int64 {
	return s.policy.MaxBytes
}

type UploadInput struct {
	OwnerKind    string
	OwnerID      string
	OriginalName string
	MimeType     string
	SizeBytes    int64
	Content      io.Reader
}

// Upload stores a new attachment for an owner. A fresh upload does not touch
// earlier attachments; Replace does.
func (s *FileService) Upload(ctx context.Context, input UploadInput) (*model.StoredFile, error) {
	if input.OwnerKind != OwnerKindDemand && input.OwnerKind != OwnerKindResponse {
		return nil, fmt.Errorf("unknown owner kind %q", input.OwnerKind)
	}
	if err := s.policy.Validate(input.OriginalName, input.MimeType, input.SizeBytes); err != nil {
		return nil, err
	}

	id := ulid.Make().String()
	relPath := path.Join(input.OwnerKind, input.OwnerID, id+sanitizeExt(input.OriginalName))

	written, err := s.store.Put(ctx, relPath, input.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	f, err := s.queries.CreateFile(ctx, db.CreateFileParams{
		ID:           id,
		OwnerKind:    input.OwnerKind,
		OwnerID:      input.OwnerID,
		OriginalName: input.OriginalName,
		MimeType:     input.MimeType,
		SizeBytes:    written,
		RelPath:      relPath,
	})
	if err != nil {
		// Best effort: do not leave an orphaned object behind.
		_ = s.store.Delete(ctx, relPath)
		return nil, fmt.Errorf("failed to record file: %w", err)
	}
	return s.dbFileToModel(f), nil
}

// Replace removes an owner's existing attachments before storing the new one.
func (s *FileService) Replace(ctx context.Context, input UploadInput) (*model.StoredFile, error) {
	if err := s.DeleteByOwner(ctx, input.OwnerKind, input.OwnerID); err != nil {
		return nil, err
	}
	return s.Upload(ctx, input)
}

// GetLatest returns the most recent attachment for an owner, or nil when the
// owner has none.
func (s *FileService) GetLatest(ctx context.Context, ownerKind, ownerID string) (*model.StoredFile, error) {
	f, err := s.queries.GetLatestFile(ctx, ownerKind, ownerID)
	if err != nil {
		if err == db.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up file: %w", err)
	}
	return s.dbFileToModel(f), nil
}

// Open returns the stored content of an attachment.
func (s *FileService) Open(ctx context.Context, f *model.StoredFile) (io.ReadCloser, error) {
	return s.store.Get(ctx, f.RelPath)
}

// DeleteByOwner removes every attachment an owner holds, both the records and
// the stored objects. Owners without attachments are a no-op.
func (s *FileService) DeleteByOwner(ctx context.Context, ownerKind, ownerID string) error {
	removed, err := s.queries.DeleteFilesByOwner(ctx, ownerKind, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete file records: %w", err)
	}
	for _, f := range removed {
		if err := s.store.Delete(ctx, f.RelPath); err != nil {
			return fmt.Errorf("failed to delete stored object %s: %w", f.RelPath, err)
		}
	}
	return nil
}

func (s *FileService) dbFileToModel(f db.File) *model.StoredFile {
	return &model.StoredFile{
		ID:           f.ID,
		OwnerKind:    f.OwnerKind,
		OwnerID:      f.OwnerID,
		OriginalName: f.OriginalName,
		MimeType:     f.MimeType,
		SizeBytes:    f.SizeBytes,
		RelPath:      f.RelPath,
		URL:          s.store.ResourceURL(f.RelPath),
		CreatedAt:    model.FormatTime(f.CreatedAt),
	}
}

// sanitizeExt keeps only a plain extension from the original name so the
// relative path stays predictable.
func sanitizeExt(name string) string {
	ext := strings.ToLower(path.Ext(path.Base(name)))
	for _, r := range ext {
		if r != '.' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
