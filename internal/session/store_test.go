package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"iserve/internal/client"
	"iserve/internal/model"
	"iserve/internal/persist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSession(t *testing.T, handler http.Handler) (*Store, *persist.FileStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	files, err := persist.NewFileStore(t.TempDir())
	require.NoError(t, err)

	api := client.New(srv.URL, files, zap.NewNop())
	return New(api, files, zap.NewNop()), files
}

func TestDecodeLoginShapes(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantToken string
		wantUser  string
	}{
		{
			name:      "flat token and user",
			payload:   `{"token":"t1","user":{"id":"7","username":"alice"}}`,
			wantToken: "t1",
			wantUser:  "alice",
		},
		{
			name:      "nested under data",
			payload:   `{"data":{"token":"t2","user":{"id":"8","username":"bob"}}}`,
			wantToken: "t2",
			wantUser:  "bob",
		},
		{
			name:      "accessToken and userInfo",
			payload:   `{"accessToken":"t3","userInfo":{"id":"9","username":"carol"}}`,
			wantToken: "t3",
			wantUser:  "carol",
		},
		{
			name:      "loose profile, token only",
			payload:   `{"token":"t4","id":"10","username":"dave"}`,
			wantToken: "t4",
			wantUser:  "dave",
		},
		{
			name:      "numeric id keeps the token",
			payload:   `{"token":"t5","user":{"id":7,"username":"erin"}}`,
			wantToken: "t5",
			wantUser:  "erin",
		},
		{
			name:      "numeric id nested under data",
			payload:   `{"data":{"token":"t6","user":{"id":8,"username":"frank"}}}`,
			wantToken: "t6",
			wantUser:  "frank",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, user := decodeLogin(json.RawMessage(tt.payload), "submitted")
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, tt.wantUser, user.Username)
		})
	}
}

func TestDecodeLoginNumericIDBecomesString(t *testing.T) {
	token, user := decodeLogin(json.RawMessage(`{"token":"t1","user":{"id":7,"username":"alice"}}`), "alice")
	assert.Equal(t, "t1", token)
	assert.Equal(t, "7", user.ID)
}

func TestDecodeLoginSynthesizesWhenEmpty(t *testing.T) {
	token, user := decodeLogin(json.RawMessage(`{}`), "alice")
	assert.True(t, strings.HasPrefix(token, "temp-token-"))
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, model.RoleUser, user.Role)
}

func TestLoginPersistsFullSession(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		require.Equal(t, "alice", r.URL.Query().Get("username"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"t1","user":{"id":"7","username":"alice"}}`))
	})

	s, files := newTestSession(t, handler)
	require.True(t, s.Login(context.Background(), "alice", "x"))

	state := s.Current()
	assert.True(t, state.IsLoggedIn)
	assert.Equal(t, "t1", state.Token)
	assert.Equal(t, "alice", state.UserInfo.Username)

	// the persisted file carries the {state:{...}} shape
	raw, err := files.Load(persist.SessionKey)
	require.NoError(t, err)
	var p struct {
		State State `json:"state"`
	}
	require.NoError(t, json.Unmarshal(raw, &p))
	assert.Equal(t, "t1", p.State.Token)
	assert.True(t, p.State.IsLoggedIn)
}

func TestLoginFailureLeavesSessionOut(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad credentials"}`, http.StatusUnauthorized)
	})

	s, _ := newTestSession(t, handler)
	assert.False(t, s.Login(context.Background(), "alice", "wrong"))
	assert.False(t, s.IsLoggedIn())
}

func TestRegisterSynthesizesToken(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"11","username":"erin","role":"user"}`))
	})

	s, _ := newTestSession(t, handler)
	require.True(t, s.Register(context.Background(), "erin", "x"))

	state := s.Current()
	assert.True(t, state.IsLoggedIn)
	assert.True(t, strings.HasPrefix(state.Token, "temp-token-"))
	assert.Equal(t, "erin", state.UserInfo.Username)
}

func TestRegisterAdminAdoptsTokenAndUseInfo(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"token":"admin-t","useInfo":{"id":"1","username":"root","role":"admin"}}`))
	})

	s, _ := newTestSession(t, handler)
	require.True(t, s.RegisterAdmin(context.Background(), "root", "x"))

	state := s.Current()
	assert.Equal(t, "admin-t", state.Token)
	assert.Equal(t, model.RoleAdmin, state.UserInfo.Role)
}

func TestLogoutClearsStateAndStorage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"t1","user":{"id":"7","username":"alice"}}`))
	})

	s, files := newTestSession(t, handler)
	require.True(t, s.Login(context.Background(), "alice", "x"))

	s.Logout()
	assert.False(t, s.IsLoggedIn())
	assert.Empty(t, s.Token())

	_, err := files.Load(persist.SessionKey)
	assert.ErrorIs(t, err, persist.ErrNotFound)
}

func TestUpdateUserInfoPreservesTokenAndFlag(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/auth/login"):
			w.Write([]byte(`{"token":"t1","user":{"id":"7","username":"alice"}}`))
		case strings.HasPrefix(r.URL.Path, "/users/"):
			// response deliberately omits token-ish fields
			w.Write([]byte(`{"email":"alice@example.com"}`))
		default:
			http.NotFound(w, r)
		}
	})

	s, _ := newTestSession(t, handler)
	require.True(t, s.Login(context.Background(), "alice", "x"))

	require.True(t, s.UpdateUserInfo(context.Background(), map[string]string{"email": "alice@example.com"}))

	state := s.Current()
	assert.True(t, state.IsLoggedIn)
	assert.Equal(t, "t1", state.Token)
	assert.Equal(t, "alice@example.com", state.UserInfo.Email)
	assert.Equal(t, "alice", state.UserInfo.Username)
}

func TestUpdateUserInfoRequiresUsername(t *testing.T) {
	s, _ := newTestSession(t, http.NotFoundHandler())
	assert.False(t, s.UpdateUserInfo(context.Background(), map[string]string{"email": "x@y"}))
}

func TestNewRestoresPersistedSession(t *testing.T) {
	files, err := persist.NewFileStore(t.TempDir())
	require.NoError(t, err)
	raw, _ := json.Marshal(persisted{State: State{
		IsLoggedIn: true,
		Token:      "restored",
		UserInfo:   model.User{ID: "7", Username: "alice"},
	}})
	require.NoError(t, files.Save(persist.SessionKey, raw))

	api := client.New("http://unused", files, zap.NewNop())
	s := New(api, files, zap.NewNop())
	assert.True(t, s.IsLoggedIn())
	assert.Equal(t, "restored", s.Token())
}

func TestNewToleratesMalformedStorage(t *testing.T) {
	files, err := persist.NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, files.Save(persist.SessionKey, []byte("{broken")))

	api := client.New("http://unused", files, zap.NewNop())
	s := New(api, files, zap.NewNop())
	assert.False(t, s.IsLoggedIn())
}
