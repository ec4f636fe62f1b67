// Package client is the single request-construction point shared by every
// resource module. It attaches the persisted bearer token, unwraps payloads
// and normalizes transport and HTTP failures into sentinel errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"iserve/internal/model"
	"iserve/internal/persist"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// Sentinel failures callers can test with errors.Is. Session expiry is the
// one globally fatal condition: the persisted session is already cleared by
// the time the caller sees it.
var (
	ErrConnectivity   = errors.New("network error, please check your connection")
	ErrSessionExpired = errors.New("session expired, please log in again")
	ErrForbidden      = errors.New("you do not have permission to perform this action")
	ErrNotFound       = errors.New("the requested resource was not found")
	ErrServer         = errors.New("server error, please try again later")
)

// APIError carries a server-provided message for statuses that surface it
// verbatim (400 and any status outside the fixed mapping).
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

type Client struct {
	baseURL string
	httpc   *http.Client
	store   *persist.FileStore
	log     *zap.Logger

	// demand detail lookups are cached briefly; mutations evict
	demandCache *expirable.LRU[string, *model.Demand]
}

func New(baseURL string, store *persist.FileStore, log *zap.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		httpc:       &http.Client{Timeout: 30 * time.Second},
		store:       store,
		log:         log,
		demandCache: expirable.NewLRU[string, *model.Demand](128, nil, 30*time.Second),
	}
}

// persistedSession mirrors the {state:{...}} shape of the session file.
type persistedSession struct {
	State struct {
		IsLoggedIn bool            `json:"isLoggedIn"`
		Token      string          `json:"token"`
		UserInfo   json.RawMessage `json:"userInfo"`
	} `json:"state"`
}

// token reads the bearer token out of persisted session storage. Malformed
// or missing storage is tolerated: log and proceed unauthenticated.
func (c *Client) token() string {
	raw, err := c.store.Load(persist.SessionKey)
	if err != nil {
		if err != persist.ErrNotFound {
			c.log.Warn("failed to read session storage", zap.Error(err))
		}
		return ""
	}
	var s persistedSession
	if err := json.Unmarshal(raw, &s); err != nil {
		c.log.Warn("malformed session storage, proceeding unauthenticated", zap.Error(err))
		return ""
	}
	return s.State.Token
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

// do executes a JSON request and returns the unwrapped payload bytes.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) (json.RawMessage, error) {
	var reader io.Reader
	contentType := ""
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, path, query, reader, contentType)
	if err != nil {
		return nil, err
	}
	return c.roundTrip(req)
}

// doRaw executes a request and hands back the raw response for callers that
// need headers or binary bodies. Error statuses are already mapped.
func (c *Client) doRaw(req *http.Request) (*http.Response, error) {
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Error("request failed without a response", zap.String("url", req.URL.Path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, c.mapError(resp)
	}
	return resp, nil
}

func (c *Client) roundTrip(req *http.Request) (json.RawMessage, error) {
	resp, err := c.doRaw(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return unwrap(raw), nil
}

// unwrap peels a {"data": ...} envelope when one is present so callers
// receive the payload directly.
func unwrap(raw []byte) json.RawMessage {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data
	}
	return raw
}

// mapError turns an HTTP error status into the normalized error for it.
// Every branch logs before returning so failures always leave a trace.
func (c *Client) mapError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	serverMsg := ""
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		serverMsg = parsed.Message
		if serverMsg == "" {
			serverMsg = parsed.Error
		}
	}

	log := c.log.With(zap.Int("status", resp.StatusCode), zap.String("url", resp.Request.URL.Path))

	switch resp.StatusCode {
	case http.StatusBadRequest:
		if serverMsg == "" {
			serverMsg = "invalid request"
		}
		log.Warn("request rejected", zap.String("message", serverMsg))
		return &APIError{Status: resp.StatusCode, Message: serverMsg}
	case http.StatusUnauthorized:
		log.Warn("session expired, clearing stored session")
		if err := c.store.Delete(persist.SessionKey); err != nil {
			log.Error("failed to clear stored session", zap.Error(err))
		}
		return ErrSessionExpired
	case http.StatusForbidden:
		log.Warn("access forbidden")
		return ErrForbidden
	case http.StatusNotFound:
		log.Warn("resource not found")
		return ErrNotFound
	case http.StatusInternalServerError:
		log.Error("server error", zap.String("message", serverMsg))
		return ErrServer
	default:
		if serverMsg == "" {
			serverMsg = fmt.Sprintf("request failed (%d)", resp.StatusCode)
		}
		log.Warn("request failed", zap.String("message", serverMsg))
		return &APIError{Status: resp.StatusCode, Message: serverMsg}
	}
}
