// Package session owns the client-side session lifecycle: login and
// registration flows, durable credential persistence and profile updates.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"iserve/internal/client"
	"iserve/internal/model"
	"iserve/internal/persist"

	"go.uber.org/zap"
)

// State is exactly what survives a restart. Transient flags (loading,
// last error) are deliberately not part of it.
type State struct {
	IsLoggedIn bool       `json:"isLoggedIn"`
	Token      string     `json:"token"`
	UserInfo   model.User `json:"userInfo"`
}

type persisted struct {
	State State `json:"state"`
}

type Store struct {
	mu    sync.Mutex
	api   *client.Client
	files *persist.FileStore
	log   *zap.Logger
	state State
}

// New builds a session store and restores any persisted session. Malformed
// storage starts logged out instead of failing.
func New(api *client.Client, files *persist.FileStore, log *zap.Logger) *Store {
	s := &Store{api: api, files: files, log: log}

	raw, err := files.Load(persist.SessionKey)
	if err == nil {
		var p persisted
		if err := json.Unmarshal(raw, &p); err == nil {
			s.state = p.State
		} else {
			log.Warn("malformed session storage, starting logged out", zap.Error(err))
		}
	}
	return s
}

func (s *Store) save() {
	raw, err := json.Marshal(persisted{State: s.state})
	if err != nil {
		s.log.Error("failed to encode session", zap.Error(err))
		return
	}
	if err := s.files.Save(persist.SessionKey, raw); err != nil {
		s.log.Error("failed to persist session", zap.Error(err))
	}
}

// Current returns a copy of the session state.
func (s *Store) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) IsLoggedIn() bool { return s.Current().IsLoggedIn }
func (s *Store) Token() string    { return s.Current().Token }

// Login authenticates against the remote endpoint. The return is a success
// flag rather than an error so callers can chain feedback unconditionally.
// The session always converges fully-in or fully-out, never half-open.
func (s *Store) Login(ctx context.Context, username, password string) bool {
	raw, err := s.api.Login(ctx, username, password)
	if err != nil {
		s.log.Warn("login failed", zap.String("username", username), zap.Error(err))
		return false
	}

	token, user := decodeLogin(raw, username)

	s.mu.Lock()
	s.state = State{IsLoggedIn: true, Token: token, UserInfo: user}
	s.save()
	s.mu.Unlock()
	return true
}

// decodeLogin tolerates the response shapes different backend builds have
// shipped, in order: {token,user}, {data:{token,user}},
// {accessToken,userInfo}, then loose top-level fields. Whatever is still
// missing afterwards is synthesized so the session is always complete.
// The profile is held as raw JSON at every level so a single odd field in
// it (numeric ids, extra nesting) cannot fail the outer unmarshal and drop
// a perfectly good token alongside it.
func decodeLogin(raw json.RawMessage, username string) (string, model.User) {
	var token string
	var user model.User
	var haveUser bool

	var flat struct {
		Token string          `json:"token"`
		User  json.RawMessage `json:"user"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &flat); err == nil {
		token = flat.Token
		if u, ok := decodeProfile(flat.User); ok {
			user, haveUser = u, true
		}
		if (token == "" || !haveUser) && len(flat.Data) > 0 {
			var nested struct {
				Token string          `json:"token"`
				User  json.RawMessage `json:"user"`
			}
			if err := json.Unmarshal(flat.Data, &nested); err == nil {
				if token == "" {
					token = nested.Token
				}
				if !haveUser {
					if u, ok := decodeProfile(nested.User); ok {
						user, haveUser = u, true
					}
				}
			}
		}
	}

	if token == "" || !haveUser {
		var alt struct {
			AccessToken string          `json:"accessToken"`
			UserInfo    json.RawMessage `json:"userInfo"`
		}
		if err := json.Unmarshal(raw, &alt); err == nil {
			if token == "" {
				token = alt.AccessToken
			}
			if !haveUser {
				if u, ok := decodeProfile(alt.UserInfo); ok {
					user, haveUser = u, true
				}
			}
		}
	}

	if !haveUser {
		// loose fields: the profile may sit at the top level
		if u, ok := decodeProfile(raw); ok && u.Username != "" {
			user, haveUser = u, true
		}
	}

	if token == "" {
		token = tempToken()
	}
	if !haveUser {
		user = minimalProfile(username)
	}
	return token, user
}

// decodeProfile reads a user profile, retrying with tolerant field types
// when the strict model fails (some backend builds send the id as a JSON
// number).
func decodeProfile(raw json.RawMessage) (model.User, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return model.User{}, false
	}
	var user model.User
	if err := json.Unmarshal(raw, &user); err == nil {
		return user, true
	}
	var loose struct {
		ID       json.Number `json:"id"`
		Username string      `json:"username"`
		Role     string      `json:"role"`
		Email    string      `json:"email"`
		Phone    string      `json:"phone"`
		Avatar   string      `json:"avatar"`
	}
	if err := json.Unmarshal(raw, &loose); err != nil || loose.Username == "" {
		return model.User{}, false
	}
	return model.User{
		ID:       loose.ID.String(),
		Username: loose.Username,
		Role:     model.Role(loose.Role),
		Email:    loose.Email,
		Phone:    loose.Phone,
		Avatar:   loose.Avatar,
	}, true
}

func tempToken() string {
	return fmt.Sprintf("temp-token-%d", time.Now().UnixNano())
}

func minimalProfile(username string) model.User {
	return model.User{
		ID:       username,
		Username: username,
		Role:     model.RoleUser,
	}
}

// Register creates an account and starts an authenticated session
// immediately. The endpoint returns a bare profile, so a temporary token is
// synthesized unless the backend ever starts including one.
func (s *Store) Register(ctx context.Context, username, password string) bool {
	raw, err := s.api.Register(ctx, username, password)
	if err != nil {
		s.log.Warn("registration failed", zap.String("username", username), zap.Error(err))
		return false
	}
	return s.adoptRegistration(raw, username)
}

// RegisterAdmin creates an administrator account. The endpoint's payload
// names its profile field "useInfo"; that spelling is tolerated here.
func (s *Store) RegisterAdmin(ctx context.Context, username, password string) bool {
	raw, err := s.api.RegisterAdmin(ctx, username, password)
	if err != nil {
		s.log.Warn("admin registration failed", zap.String("username", username), zap.Error(err))
		return false
	}
	return s.adoptRegistration(raw, username)
}

func (s *Store) adoptRegistration(raw json.RawMessage, username string) bool {
	var parsed struct {
		Token   string          `json:"token"`
		User    json.RawMessage `json:"user"`
		UseInfo json.RawMessage `json:"useInfo"`
	}
	_ = json.Unmarshal(raw, &parsed)

	user := minimalProfile(username)
	if u, ok := decodeProfile(parsed.User); ok {
		user = u
	} else if u, ok := decodeProfile(parsed.UseInfo); ok {
		user = u
	} else if u, ok := decodeProfile(raw); ok && u.Username != "" {
		user = u
	}

	token := parsed.Token
	if token == "" {
		token = tempToken()
	}

	s.mu.Lock()
	s.state = State{IsLoggedIn: true, Token: token, UserInfo: user}
	s.save()
	s.mu.Unlock()
	return true
}

// Logout resets the session and clears persisted storage.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
	if err := s.files.Delete(persist.SessionKey); err != nil {
		s.log.Error("failed to clear persisted session", zap.Error(err))
	}
}

// UpdateUserInfo pushes contact-field changes and merges the returned
// profile onto the current one. The token and login flag are preserved
// explicitly; the remote response must never revoke the session by
// omission.
func (s *Store) UpdateUserInfo(ctx context.Context, patch map[string]string) bool {
	s.mu.Lock()
	username := s.state.UserInfo.Username
	s.mu.Unlock()

	if username == "" {
		s.log.Warn("cannot update profile without a resolvable username")
		return false
	}

	updated, err := s.api.UpdateProfile(ctx, username, patch)
	if err != nil {
		s.log.Warn("profile update failed", zap.Error(err))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	token, loggedIn := s.state.Token, s.state.IsLoggedIn

	merged := s.state.UserInfo
	if updated.ID != "" {
		merged.ID = updated.ID
	}
	if updated.Username != "" {
		merged.Username = updated.Username
	}
	if updated.Role != "" {
		merged.Role = updated.Role
	}
	if updated.Email != "" {
		merged.Email = updated.Email
	}
	if updated.Phone != "" {
		merged.Phone = updated.Phone
	}
	if updated.Avatar != "" {
		merged.Avatar = updated.Avatar
	}

	s.state = State{IsLoggedIn: loggedIn, Token: token, UserInfo: merged}
	s.save()
	return true
}
