package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"iserve/internal/persist"
	"iserve/internal/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *persist.FileStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	files, err := persist.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return New(srv.URL, files, zap.NewNop()), files
}

func saveSession(t *testing.T, files *persist.FileStore, token string) {
	t.Helper()
	raw := []byte(`{"state":{"isLoggedIn":true,"token":"` + token + `","userInfo":{"id":"7","username":"alice"}}}`)
	require.NoError(t, files.Save(persist.SessionKey, raw))
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	})

	c, files := newTestClient(t, handler)
	saveSession(t, files, "tok-123")

	_, err := c.do(context.Background(), http.MethodGet, "/demands", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestMalformedSessionProceedsAnonymous(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	})

	c, files := newTestClient(t, handler)
	require.NoError(t, files.Save(persist.SessionKey, []byte("{broken json")))

	_, err := c.do(context.Background(), http.MethodGet, "/demands", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestUnwrapDataEnvelope(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"id":"d1","title":"wrapped"}}`))
	})

	c, _ := newTestClient(t, handler)
	raw, err := c.do(context.Background(), http.MethodGet, "/demands/d1", nil, nil)
	require.NoError(t, err)

	var demand struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &demand))
	assert.Equal(t, "d1", demand.ID)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		check    func(t *testing.T, err error)
	}{
		{
			name:   "400 surfaces the server message",
			status: http.StatusBadRequest,
			body:   `{"message":"title is required"}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, "title is required", apiErr.Message)
			},
		},
		{
			name:   "403 is the fixed forbidden error",
			status: http.StatusForbidden,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrForbidden) },
		},
		{
			name:   "404 is the fixed not-found error",
			status: http.StatusNotFound,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotFound) },
		},
		{
			name:   "500 is the fixed server error",
			status: http.StatusInternalServerError,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrServer) },
		},
		{
			name:   "unmapped status falls back to request failed",
			status: http.StatusTeapot,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, "request failed (418)", apiErr.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != "" {
					w.Write([]byte(tt.body))
				}
			})
			c, _ := newTestClient(t, handler)
			_, err := c.do(context.Background(), http.MethodGet, "/x", nil, nil)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestUnauthorizedClearsSession(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, files := newTestClient(t, handler)
	saveSession(t, files, "stale")

	_, err := c.do(context.Background(), http.MethodGet, "/demands", nil, nil)
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = files.Load(persist.SessionKey)
	assert.ErrorIs(t, err, persist.ErrNotFound)
}

func TestConnectivityFailure(t *testing.T) {
	files, err := persist.NewFileStore(t.TempDir())
	require.NoError(t, err)
	// nothing listens on this address
	c := New("http://127.0.0.1:1", files, zap.NewNop())

	_, err = c.do(context.Background(), http.MethodGet, "/demands", nil, nil)
	assert.ErrorIs(t, err, ErrConnectivity)
}

func TestGetDemandNotFoundIsNil(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	c, _ := newTestClient(t, handler)
	d, err := c.GetDemand(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestGetDemandServedFromCache(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"id":"d1","title":"cached"}`))
	})

	c, _ := newTestClient(t, handler)
	_, err := c.GetDemand(context.Background(), "d1")
	require.NoError(t, err)
	_, err = c.GetDemand(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestGetLatestFileNotFoundYieldsNilDescriptor(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	c, _ := newTestClient(t, handler)
	desc, data, err := c.GetLatestFile(context.Background(), "demand", "d1", false)
	require.NoError(t, err)
	assert.Nil(t, desc)
	assert.Nil(t, data)
}

func TestGetLatestFileDescriptor(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.URL.Query().Get("download"))
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="contract.pdf"`)
		w.Write([]byte("%PDF-fake"))
	})

	c, _ := newTestClient(t, handler)
	desc, data, err := c.GetLatestFile(context.Background(), "demand", "d1", false)
	require.NoError(t, err)
	require.NotNil(t, desc)
	assert.Nil(t, data)
	assert.Equal(t, "contract.pdf", desc.Filename)
	assert.Equal(t, "application/pdf", desc.Type)
	assert.True(t, desc.Exists)
	assert.Equal(t, int64(len("%PDF-fake")), desc.Size)
}

func TestGetLatestFileFilenameFallback(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("bytes"))
	})

	c, _ := newTestClient(t, handler)
	desc, data, err := c.GetLatestFile(context.Background(), "demand", "d42", true)
	require.NoError(t, err)
	require.NotNil(t, desc)
	assert.Equal(t, "demand_d42_file", desc.Filename)
	assert.Equal(t, []byte("bytes"), data)
}

func TestUploadOversizeNeverReachesNetwork(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	c, _ := newTestClient(t, handler)
	info := upload.FileInfo{Name: "big.bin", Type: "application/octet-stream", Size: 60 * 1024 * 1024}
	_, err := c.UploadFile(context.Background(), "demand", "d1", info, bytes.NewReader(nil), "*")

	var verr *upload.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.False(t, called)
}

func TestUploadSendsMultipartFileField(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		file, header, err := r.FormFile(upload.FieldName)
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "notes.txt", header.Filename)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"f1","originalName":"notes.txt"}`))
	})

	c, _ := newTestClient(t, handler)
	info := upload.FileInfo{Name: "notes.txt", Type: "text/plain", Size: 5}
	stored, err := c.UploadFile(context.Background(), "demand", "d1", info, bytes.NewReader([]byte("hello")), "*")
	require.NoError(t, err)
	assert.Equal(t, "f1", stored.ID)
}

func TestUnknownResourceRejected(t *testing.T) {
	c, _ := newTestClient(t, http.NotFoundHandler())
	_, _, err := c.GetLatestFile(context.Background(), "widget", "w1", false)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}
