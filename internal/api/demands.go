package api

import (
	"net/http"
	"strconv"

	"iserve/internal/auth"
	"iserve/internal/service"

	"github.com/go-chi/chi/v5"
)

type createDemandRequest struct {
	Type        string `json:"type"`
	LocationID  int    `json:"locationId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Address     string `json:"address"`
}

func (d Dependencies) createDemand(w http.ResponseWriter, r *http.Request) {
	var req createDemandRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	demand, err := d.Demands.CreateDemand(r.Context(), service.CreateDemandInput{
		Type:        req.Type,
		LocationID:  req.LocationID,
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		UserID:      auth.GetUserID(r.Context()),
	})
	if err != nil {
		WriteError(w, http.StatusBadRequest, "create_failed", err.Error(), d.Log)
		return
	}

	WriteJSON(w, http.StatusCreated, demand)
}

func (d Dependencies) getDemand(w http.ResponseWriter, r *http.Request) {
	demand, err := d.Demands.GetDemand(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "get_failed", err.Error(), d.Log)
		return
	}
	if demand == nil {
		WriteError(w, http.StatusNotFound, "not_found", "Demand not found", d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, demand)
}

func (d Dependencies) listDemands(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	demands, total, err := d.Demands.ListDemands(r.Context(), service.ListDemandsInput{
		Type:    q.Get("type"),
		UserID:  q.Get("userId"),
		Keyword: q.Get("keyword"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "list_failed", err.Error(), d.Log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": demands,
		"total": total,
	})
}

type updateDemandRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Address     *string `json:"address"`
	Status      *string `json:"status"`
}

func (d Dependencies) updateDemand(w http.ResponseWriter, r *http.Request) {
	var req updateDemandRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	demand, err := d.Demands.UpdateDemand(r.Context(), chi.URLParam(r, "id"), service.UpdateDemandInput{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		Status:      req.Status,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "update_failed", err.Error(), d.Log)
		return
	}
	if demand == nil {
		WriteError(w, http.StatusNotFound, "not_found", "Demand not found", d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, demand)
}

func (d Dependencies) deleteDemand(w http.ResponseWriter, r *http.Request) {
	if err := d.Demands.DeleteDemand(r.Context(), chi.URLParam(r, "id")); err != nil {
		WriteError(w, http.StatusInternalServerError, "delete_failed", err.Error(), d.Log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
