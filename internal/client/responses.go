package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"iserve/internal/model"
)

type ResponseList struct {
	Items []*model.ServiceResponse `json:"items"`
	Total int                      `json:"total"`
}

func (c *Client) CreateResponse(ctx context.Context, demandID, content string) (*model.ServiceResponse, error) {
	body := map[string]string{"content": content}
	raw, err := c.do(ctx, http.MethodPost, "/demands/"+url.PathEscape(demandID)+"/responses", nil, body)
	if err != nil {
		return nil, err
	}
	var resp model.ServiceResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListMyResponses returns a user's responses, each carrying the server's
// fresh projection of its parent demand.
func (c *Client) ListMyResponses(ctx context.Context, userID string) (*ResponseList, error) {
	q := url.Values{}
	if userID != "" {
		q.Set("userId", userID)
	}
	raw, err := c.do(ctx, http.MethodGet, "/responses", q, nil)
	if err != nil {
		return nil, err
	}
	var list ResponseList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

type UpdateResponseBody struct {
	Content *string `json:"content,omitempty"`
	Status  *string `json:"status,omitempty"`
}

func (c *Client) UpdateResponse(ctx context.Context, id string, body UpdateResponseBody) (*model.ServiceResponse, error) {
	raw, err := c.do(ctx, http.MethodPut, "/responses/"+url.PathEscape(id), nil, body)
	if err != nil {
		return nil, err
	}
	var resp model.ServiceResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteResponse(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/responses/"+url.PathEscape(id), nil, nil)
	return err
}
