package api

import (
	"net/http"

	"iserve/internal/auth"
	"iserve/internal/service"

	"github.com/go-chi/chi/v5"
)

type createResponseRequest struct {
	Content string `json:"content"`
}

func (d Dependencies) createResponse(w http.ResponseWriter, r *http.Request) {
	var req createResponseRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	resp, err := d.Responses.CreateResponse(r.Context(), service.CreateResponseInput{
		DemandID: chi.URLParam(r, "id"),
		UserID:   auth.GetUserID(r.Context()),
		Content:  req.Content,
	})
	if err != nil {
		WriteError(w, http.StatusBadRequest, "create_failed", err.Error(), d.Log)
		return
	}

	WriteJSON(w, http.StatusCreated, resp)
}

func (d Dependencies) listResponses(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = auth.GetUserID(r.Context())
	}

	responses, err := d.Responses.ListUserResponses(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "list_failed", err.Error(), d.Log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": responses,
		"total": len(responses),
	})
}

type updateResponseRequest struct {
	Content *string `json:"content"`
	Status  *string `json:"status"`
}

func (d Dependencies) updateResponse(w http.ResponseWriter, r *http.Request) {
	var req updateResponseRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	resp, err := d.Responses.UpdateResponse(r.Context(), chi.URLParam(r, "id"), service.UpdateResponseInput{
		Content: req.Content,
		Status:  req.Status,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "update_failed", err.Error(), d.Log)
		return
	}
	if resp == nil {
		WriteError(w, http.StatusNotFound, "not_found", "Response not found", d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (d Dependencies) deleteResponse(w http.ResponseWriter, r *http.Request) {
	if err := d.Responses.DeleteResponse(r.Context(), chi.URLParam(r, "id")); err != nil {
		WriteError(w, http.StatusInternalServerError, "delete_failed", err.Error(), d.Log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
