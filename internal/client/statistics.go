package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"iserve/internal/model"
)

// StatisticsQuery carries the optional filters for the monthly series.
type StatisticsQuery struct {
	LocationIDs    []int
	ServiceTypeIDs []int
	EarliestCreate *time.Time
	LatestCreate   *time.Time
}

func (q StatisticsQuery) values() url.Values {
	v := url.Values{}
	if len(q.LocationIDs) > 0 {
		v.Set("matchLocationIds", joinInts(q.LocationIDs))
	}
	if len(q.ServiceTypeIDs) > 0 {
		v.Set("matchServiceTypeIds", joinInts(q.ServiceTypeIDs))
	}
	if q.EarliestCreate != nil {
		v.Set("earliestCreateTime", q.EarliestCreate.Format(time.RFC3339))
	}
	if q.LatestCreate != nil {
		v.Set("latestCreateTime", q.LatestCreate.Format(time.RFC3339))
	}
	return v
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// DemandCreationMonthly returns demands created per month.
func (c *Client) DemandCreationMonthly(ctx context.Context, q StatisticsQuery) ([]model.MonthlyCount, error) {
	return c.monthly(ctx, "/statistics/demand/creation/monthly", q)
}

// DemandRespondedMonthly returns demands that received a response, bucketed
// by creation month.
func (c *Client) DemandRespondedMonthly(ctx context.Context, q StatisticsQuery) ([]model.MonthlyCount, error) {
	return c.monthly(ctx, "/statistics/demand/responded/monthly", q)
}

func (c *Client) monthly(ctx context.Context, path string, q StatisticsQuery) ([]model.MonthlyCount, error) {
	raw, err := c.do(ctx, http.MethodGet, path, q.values(), nil)
	if err != nil {
		return nil, err
	}
	var counts []model.MonthlyCount
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}
