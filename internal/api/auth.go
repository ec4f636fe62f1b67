package api

import (
	"errors"
	"net/http"

	"iserve/internal/auth"
	"iserve/internal/model"
	"iserve/internal/service"

	"github.com/go-chi/chi/v5"
)

func (d Dependencies) login(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	password := r.URL.Query().Get("password")

	user, token, err := d.Users.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password", d.Log)
			return
		}
		WriteError(w, http.StatusInternalServerError, "login_failed", err.Error(), d.Log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

func (d Dependencies) register(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	password := r.URL.Query().Get("password")

	user, err := d.Users.Register(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			WriteError(w, http.StatusConflict, "username_taken", "Username already taken", d.Log)
			return
		}
		WriteError(w, http.StatusBadRequest, "register_failed", err.Error(), d.Log)
		return
	}

	WriteJSON(w, http.StatusCreated, user)
}

func (d Dependencies) registerAdmin(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	password := r.URL.Query().Get("password")

	user, token, err := d.Users.RegisterAdmin(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			WriteError(w, http.StatusConflict, "username_taken", "Username already taken", d.Log)
			return
		}
		WriteError(w, http.StatusBadRequest, "register_failed", err.Error(), d.Log)
		return
	}

	// "useInfo" is the field name the original backend shipped and clients
	// already tolerate, so it stays.
	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"token":   token,
		"useInfo": user,
	})
}

type updateProfileRequest struct {
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Avatar string `json:"avatar"`
}

func (d Dependencies) updateProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	// Users may only edit their own profile; admins may edit anyone's.
	target, err := d.Users.GetByUsername(r.Context(), username)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "update_failed", err.Error(), d.Log)
		return
	}
	if target == nil {
		WriteError(w, http.StatusNotFound, "not_found", "User not found", d.Log)
		return
	}
	if target.ID != auth.GetUserID(r.Context()) && auth.GetRole(r.Context()) != string(model.RoleAdmin) {
		WriteError(w, http.StatusForbidden, "forbidden", "Cannot update another user's profile", d.Log)
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	user, err := d.Users.UpdateProfile(r.Context(), username, service.UpdateProfileInput{
		Email:  req.Email,
		Phone:  req.Phone,
		Avatar: req.Avatar,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "update_failed", err.Error(), d.Log)
		return
	}
	if user == nil {
		WriteError(w, http.StatusNotFound, "not_found", "User not found", d.Log)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}
