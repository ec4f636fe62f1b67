package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"iserve/internal/model"
)

type DemandList struct {
	Items []*model.Demand `json:"items"`
	Total int             `json:"total"`
}

// ListDemandsQuery mirrors the server's list filters. Zero values mean
// "no restriction"; Type "all" is equivalent to unset.
type ListDemandsQuery struct {
	Type    string
	UserID  string
	Keyword string
	Limit   int
	Offset  int
}

func (c *Client) ListDemands(ctx context.Context, query ListDemandsQuery) (*DemandList, error) {
	q := url.Values{}
	if query.Type != "" {
		q.Set("type", query.Type)
	}
	if query.UserID != "" {
		q.Set("userId", query.UserID)
	}
	if query.Keyword != "" {
		q.Set("keyword", query.Keyword)
	}
	if query.Limit > 0 {
		q.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.Offset > 0 {
		q.Set("offset", strconv.Itoa(query.Offset))
	}

	raw, err := c.do(ctx, http.MethodGet, "/demands", q, nil)
	if err != nil {
		return nil, err
	}
	var list DemandList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetDemand returns a demand by id, or nil when the server reports 404.
// Detail lookups are served from a short-lived cache.
func (c *Client) GetDemand(ctx context.Context, id string) (*model.Demand, error) {
	if d, ok := c.demandCache.Get(id); ok {
		return d, nil
	}

	raw, err := c.do(ctx, http.MethodGet, "/demands/"+url.PathEscape(id), nil, nil)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var d model.Demand
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	c.demandCache.Add(id, &d)
	return &d, nil
}

type CreateDemandBody struct {
	Type        string `json:"type"`
	LocationID  int    `json:"locationId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Address     string `json:"address,omitempty"`
}

func (c *Client) CreateDemand(ctx context.Context, body CreateDemandBody) (*model.Demand, error) {
	raw, err := c.do(ctx, http.MethodPost, "/demands", nil, body)
	if err != nil {
		return nil, err
	}
	var d model.Demand
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

type UpdateDemandBody struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Address     *string `json:"address,omitempty"`
	Status      *string `json:"status,omitempty"`
}

func (c *Client) UpdateDemand(ctx context.Context, id string, body UpdateDemandBody) (*model.Demand, error) {
	raw, err := c.do(ctx, http.MethodPut, "/demands/"+url.PathEscape(id), nil, body)
	if err != nil {
		return nil, err
	}
	var d model.Demand
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	c.demandCache.Remove(id)
	return &d, nil
}

func (c *Client) DeleteDemand(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/demands/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	c.demandCache.Remove(id)
	return nil
}
