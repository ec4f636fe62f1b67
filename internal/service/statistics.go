package service

import (
	"context"
	"fmt"
	"time"

	"iserve/internal/db"
	"iserve/internal/model"
)

type StatisticsService struct {
	queries *db.Queries
}

func NewStatisticsService(queries *db.Queries) *StatisticsService {
	return &StatisticsService{queries: queries}
}

// StatisticsQuery carries the optional dimension filters shared by both
// monthly series. Empty slices and nil times mean "no restriction".
type StatisticsQuery struct {
	LocationIDs    []int
	ServiceTypeIDs []int
	EarliestCreate *time.Time
	LatestCreate   *time.Time
}

func (q StatisticsQuery) filter() db.StatisticsFilter {
	f := db.StatisticsFilter{
		LocationIDs:    q.LocationIDs,
		ServiceTypeIDs: q.ServiceTypeIDs,
		EarliestCreate: q.EarliestCreate,
		LatestCreate:   q.LatestCreate,
	}
	if f.LocationIDs == nil {
		f.LocationIDs = []int{}
	}
	if f.ServiceTypeIDs == nil {
		f.ServiceTypeIDs = []int{}
	}
	return f
}

// MonthlyCreation returns the number of demands created per month, oldest
// month first.
func (s *StatisticsService) MonthlyCreation(ctx context.Context, q StatisticsQuery) ([]model.MonthlyCount, error) {
	buckets, err := s.queries.MonthlyDemandCreation(ctx, q.filter())
	if err != nil {
		return nil, fmt.Errorf("failed to count demand creation: %w", err)
	}
	return bucketsToCounts(buckets), nil
}

// MonthlyResponded returns the number of demands that received at least one
// response, grouped by the month the demand was created.
func (s *StatisticsService) MonthlyResponded(ctx context.Context, q StatisticsQuery) ([]model.MonthlyCount, error) {
	buckets, err := s.queries.MonthlyDemandResponded(ctx, q.filter())
	if err != nil {
		return nil, fmt.Errorf("failed to count responded demands: %w", err)
	}
	return bucketsToCounts(buckets), nil
}

func bucketsToCounts(buckets []db.MonthlyBucket) []model.MonthlyCount {
	out := make([]model.MonthlyCount, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, model.MonthlyCount{Month: b.Month, Count: b.Count})
	}
	return out
}
