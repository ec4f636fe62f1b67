package service

import (
	"context"
	"fmt"

	"iserve/internal/db"
	"iserve/internal/model"
	"iserve/internal/schema"

	"github.com/oklog/ulid/v2"
)

// EventBus is the subset of the pub/sub bus the services publish on.
type EventBus interface {
	PublishUser(userID string, event map[string]interface{}) error
	PublishDemand(demandID string, event map[string]interface{}) error
}

type DemandService struct {
	queries    *db.Queries
	schemaComp *schema.Compiler
	bus        EventBus
}

func NewDemandService(queries *db.Queries, schemaComp *schema.Compiler, bus EventBus) *DemandService {
	return &DemandService{
		queries:    queries,
		schemaComp: schemaComp,
		bus:        bus,
	}
}

type CreateDemandInput struct {
	Type        string
	LocationID  int
	Title       string
	Description string
	Address     string
	UserID      string
}

func (s *DemandService) CreateDemand(ctx context.Context, input CreateDemandInput) (*model.Demand, error) {
	body := map[string]interface{}{
		"type":       input.Type,
		"locationId": float64(input.LocationID),
		"title":      input.Title,
	}
	if input.Description != "" {
		body["description"] = input.Description
	}
	if input.Address != "" {
		body["address"] = input.Address
	}
	if err := s.schemaComp.ValidateDemandCreate(ctx, body); err != nil {
		return nil, err
	}

	demandID := ulid.Make().String()

	d, err := s.queries.CreateDemand(ctx, db.CreateDemandParams{
		ID:            demandID,
		UserID:        input.UserID,
		ServiceTypeID: model.ServiceTypeID(input.Type),
		Type:          input.Type,
		LocationID:    input.LocationID,
		Title:         input.Title,
		Description:   input.Description,
		Address:       input.Address,
		Status:        string(model.DemandPending),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create demand: %w", err)
	}

	_ = s.bus.PublishUser(input.UserID, map[string]interface{}{
		"type":     "demand.created",
		"demandId": demandID,
	})

	return dbDemandToModel(d), nil
}

func (s *DemandService) GetDemand(ctx context.Context, id string) (*model.Demand, error) {
	d, err := s.queries.GetDemandByID(ctx, id)
	if err != nil {
		if err == db.ErrNotFound {
			return nil, nil // not found is data, not an error
		}
		return nil, fmt.Errorf("failed to get demand: %w", err)
	}
	return dbDemandToModel(d), nil
}

type ListDemandsInput struct {
	Type    string
	UserID  string
	Keyword string
	Limit   int
	Offset  int
}

// ListDemands returns one page of matching demands plus the total count of
// matches across all pages.
func (s *DemandService) ListDemands(ctx context.Context, input ListDemandsInput) ([]*model.Demand, int, error) {
	if input.Limit <= 0 || input.Limit > 200 {
		input.Limit = 50
	}

	params := db.ListDemandsParams{Limit: input.Limit, Offset: input.Offset}
	if input.Type != "" && input.Type != "all" {
		params.Type = &input.Type
	}
	if input.UserID != "" {
		params.UserID = &input.UserID
	}
	if input.Keyword != "" {
		params.Keyword = &input.Keyword
	}

	demands, err := s.queries.ListDemands(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list demands: %w", err)
	}
	total, err := s.queries.CountDemands(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count demands: %w", err)
	}

	result := make([]*model.Demand, 0, len(demands))
	for _, d := range demands {
		result = append(result, dbDemandToModel(d))
	}
	return result, total, nil
}

type UpdateDemandInput struct {
	Title       *string
	Description *string
	Address     *string
	Status      *string
}

func (s *DemandService) UpdateDemand(ctx context.Context, id string, input UpdateDemandInput) (*model.Demand, error) {
	// Status transitions are deliberately unconstrained: review of what a
	// legal transition is belongs to the operators, not this layer.
	d, err := s.queries.UpdateDemand(ctx, id, db.UpdateDemandParams{
		Title:       input.Title,
		Description: input.Description,
		Address:     input.Address,
		Status:      input.Status,
	})
	if err != nil {
		if err == db.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update demand: %w", err)
	}

	_ = s.bus.PublishDemand(id, map[string]interface{}{
		"type":     "demand.updated",
		"demandId": id,
		"status":   d.Status,
	})

	return dbDemandToModel(d), nil
}

func (s *DemandService) DeleteDemand(ctx context.Context, id string) error {
	d, err := s.queries.GetDemandByID(ctx, id)
	if err != nil {
		if err == db.ErrNotFound {
			return nil // deleting a missing demand is a no-op
		}
		return fmt.Errorf("failed to get demand: %w", err)
	}

	if err := s.queries.DeleteDemand(ctx, id); err != nil && err != db.ErrNotFound {
		return fmt.Errorf("failed to delete demand: %w", err)
	}

	_ = s.bus.PublishUser(d.UserID, map[string]interface{}{
		"type":     "demand.deleted",
		"demandId": id,
	})
	_ = s.bus.PublishDemand(id, map[string]interface{}{
		"type":     "demand.deleted",
		"demandId": id,
	})

	return nil
}

func dbDemandToModel(d db.Demand) *model.Demand {
	return &model.Demand{
		ID:          d.ID,
		UserID:      d.UserID,
		Type:        d.Type,
		LocationID:  d.LocationID,
		Title:       d.Title,
		Description: d.Description,
		Address:     d.Address,
		Status:      model.DemandStatus(d.Status),
		CreateTime:  model.FormatTime(d.CreatedAt),
		UpdateTime:  model.FormatTime(d.UpdatedAt),
	}
}
