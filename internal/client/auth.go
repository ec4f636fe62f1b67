package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"iserve/internal/model"
)

// Login posts credentials and returns the raw payload. The session store
// owns decoding because the token and profile nesting varies by backend
// build.
func (c *Client) Login(ctx context.Context, username, password string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("username", username)
	q.Set("password", password)
	return c.do(ctx, http.MethodPost, "/auth/login", q, nil)
}

// Register creates a regular account. The payload is a bare profile object.
func (c *Client) Register(ctx context.Context, username, password string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("username", username)
	q.Set("password", password)
	return c.do(ctx, http.MethodPost, "/auth/register", q, nil)
}

// RegisterAdmin creates an administrator account.
func (c *Client) RegisterAdmin(ctx context.Context, username, password string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("username", username)
	q.Set("password", password)
	return c.do(ctx, http.MethodPost, "/auth/register-admin", q, nil)
}

// UpdateProfile patches contact fields on a profile.
func (c *Client) UpdateProfile(ctx context.Context, username string, patch map[string]string) (*model.User, error) {
	raw, err := c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(username), nil, patch)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
