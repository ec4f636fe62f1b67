package api

import (
	"fmt"
	"io"
	"net/http"

	"iserve/internal/model"
	"iserve/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (d Dependencies) uploadDemandFile(w http.ResponseWriter, r *http.Request) {
	d.storeFile(w, r, service.OwnerKindDemand, false)
}

func (d Dependencies) replaceDemandFile(w http.ResponseWriter, r *http.Request) {
	d.storeFile(w, r, service.OwnerKindDemand, true)
}

func (d Dependencies) uploadResponseFile(w http.ResponseWriter, r *http.Request) {
	d.storeFile(w, r, service.OwnerKindResponse, false)
}

func (d Dependencies) replaceResponseFile(w http.ResponseWriter, r *http.Request) {
	d.storeFile(w, r, service.OwnerKindResponse, true)
}

// storeFile handles both the multipart upload (POST) and replace (PUT)
// variants. The file travels in the single form field "file".
func (d Dependencies) storeFile(w http.ResponseWriter, r *http.Request, ownerKind string, replace bool) {
	ownerID := chi.URLParam(r, "id")

	maxBytes := d.Files.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Missing file field", d.Log)
		return
	}
	defer file.Close()

	input := service.UploadInput{
		OwnerKind:    ownerKind,
		OwnerID:      ownerID,
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		SizeBytes:    header.Size,
		Content:      file,
	}

	var stored *model.StoredFile
	if replace {
		stored, err = d.Files.Replace(r.Context(), input)
	} else {
		stored, err = d.Files.Upload(r.Context(), input)
	}
	if err != nil {
		WriteError(w, http.StatusBadRequest, "upload_failed", err.Error(), d.Log)
		return
	}

	WriteJSON(w, http.StatusCreated, stored)
}

func (d Dependencies) downloadDemandFile(w http.ResponseWriter, r *http.Request) {
	d.serveFile(w, r, service.OwnerKindDemand)
}

func (d Dependencies) downloadResponseFile(w http.ResponseWriter, r *http.Request) {
	d.serveFile(w, r, service.OwnerKindResponse)
}

// serveFile streams the latest attachment. ?download=true forces a save-as
// disposition; the default is inline.
func (d Dependencies) serveFile(w http.ResponseWriter, r *http.Request, ownerKind string) {
	ownerID := chi.URLParam(r, "id")

	f, err := d.Files.GetLatest(r.Context(), ownerKind, ownerID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "get_failed", err.Error(), d.Log)
		return
	}
	if f == nil {
		WriteError(w, http.StatusNotFound, "not_found", "No file for this resource", d.Log)
		return
	}

	content, err := d.Files.Open(r.Context(), f)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "get_failed", err.Error(), d.Log)
		return
	}
	defer content.Close()

	disposition := "inline"
	if r.URL.Query().Get("download") == "true" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", f.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, f.OriginalName))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", f.SizeBytes))
	if _, err := io.Copy(w, content); err != nil {
		d.Log.Error("failed to stream file", zap.String("file_id", f.ID), zap.Error(err))
	}
}

func (d Dependencies) deleteDemandFile(w http.ResponseWriter, r *http.Request) {
	d.removeFile(w, r, service.OwnerKindDemand)
}

func (d Dependencies) deleteResponseFile(w http.ResponseWriter, r *http.Request) {
	d.removeFile(w, r, service.OwnerKindResponse)
}

func (d Dependencies) removeFile(w http.ResponseWriter, r *http.Request, ownerKind string) {
	if err := d.Files.DeleteByOwner(r.Context(), ownerKind, chi.URLParam(r, "id")); err != nil {
		WriteError(w, http.StatusInternalServerError, "delete_failed", err.Error(), d.Log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
