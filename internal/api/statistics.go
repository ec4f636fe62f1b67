package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"iserve/internal/service"
)

func (d Dependencies) demandCreationMonthly(w http.ResponseWriter, r *http.Request) {
	query, err := parseStatisticsQuery(r.URL.Query())
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), d.Log)
		return
	}

	counts, err := d.Statistics.MonthlyCreation(r.Context(), query)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "statistics_failed", err.Error(), d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, counts)
}

func (d Dependencies) demandRespondedMonthly(w http.ResponseWriter, r *http.Request) {
	query, err := parseStatisticsQuery(r.URL.Query())
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), d.Log)
		return
	}

	counts, err := d.Statistics.MonthlyResponded(r.Context(), query)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "statistics_failed", err.Error(), d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, counts)
}

func parseStatisticsQuery(q url.Values) (service.StatisticsQuery, error) {
	var out service.StatisticsQuery
	var err error

	if out.LocationIDs, err = parseIntList(q.Get("matchLocationIds")); err != nil {
		return out, err
	}
	if out.ServiceTypeIDs, err = parseIntList(q.Get("matchServiceTypeIds")); err != nil {
		return out, err
	}
	if out.EarliestCreate, err = parseTimeParam(q.Get("earliestCreateTime")); err != nil {
		return out, err
	}
	if out.LatestCreate, err = parseTimeParam(q.Get("latestCreateTime")); err != nil {
		return out, err
	}
	return out, nil
}

func parseIntList(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
