package service

import (
	"context"
	"fmt"

	"iserve/internal/db"
	"iserve/internal/jobs"
	"iserve/internal/model"
	"iserve/internal/schema"

	"github.com/hibiken/asynq"
	"github.com/oklog/ulid/v2"
)

type ResponseService struct {
	queries    *db.Queries
	schemaComp *schema.Compiler
	bus        EventBus
	jobClient  *asynq.Client
}

func NewResponseService(queries *db.Queries, schemaComp *schema.Compiler, bus EventBus) *ResponseService {
	return &ResponseService{queries: queries, schemaComp: schemaComp, bus: bus}
}

// SetJobClient enables background notification delivery on new responses.
func (s *ResponseService) SetJobClient(client *asynq.Client) {
	s.jobClient = client
}

type CreateResponseInput struct {
	DemandID string
	UserID   string
	Content  string
}

func (s *ResponseService) CreateResponse(ctx context.Context, input CreateResponseInput) (*model.ServiceResponse, error) {
	if err := s.schemaComp.ValidateResponseCreate(ctx, map[string]interface{}{
		"content": input.Content,
	}); err != nil {
		return nil, err
	}

	// The demand must exist at creation time; afterwards the reference is
	// a soft lookup only.
	if _, err := s.queries.GetDemandByID(ctx, input.DemandID); err != nil {
		if err == db.ErrNotFound {
			return nil, fmt.Errorf("demand not found: %s", input.DemandID)
		}
		return nil, fmt.Errorf("failed to get demand: %w", err)
	}

	responseID := ulid.Make().String()
	r, err := s.queries.CreateResponse(ctx, responseID, input.DemandID, input.UserID,
		input.Content, string(model.ResponsePendingReview))
	if err != nil {
		return nil, fmt.Errorf("failed to create response: %w", err)
	}

	_ = s.bus.PublishDemand(input.DemandID, map[string]interface{}{
		"type":       "response.created",
		"demandId":   input.DemandID,
		"responseId": responseID,
	})

	if s.jobClient != nil {
		_ = jobs.EnqueueResponseNotify(s.jobClient, responseID, input.DemandID)
	}

	return s.project(ctx, r), nil
}

func (s *ResponseService) GetResponse(ctx context.Context, id string) (*model.ServiceResponse, error) {
	r, err := s.queries.GetResponseByID(ctx, id)
	if err != nil {
		if err == db.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	return s.project(ctx, r), nil
}

// ListUserResponses returns a user's responses, each carrying a fresh
// projection of its parent demand.
func (s *ResponseService) ListUserResponses(ctx context.Context, userID string) ([]*model.ServiceResponse, error) {
	responses, err := s.queries.ListResponsesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	result := make([]*model.ServiceResponse, 0, len(responses))
	for _, r := range responses {
		result = append(result, s.project(ctx, r))
	}
	return result, nil
}

type UpdateResponseInput struct {
	Content *string
	Status  *string
}

func (s *ResponseService) UpdateResponse(ctx context.Context, id string, input UpdateResponseInput) (*model.ServiceResponse, error) {
	r, err := s.queries.UpdateResponse(ctx, id, db.UpdateResponseParams{
		Content: input.Content,
		Status:  input.Status,
	})
	if err != nil {
		if err == db.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update response: %w", err)
	}

	_ = s.bus.PublishUser(r.UserID, map[string]interface{}{
		"type":       "response.updated",
		"responseId": id,
		"status":     r.Status,
	})

	return s.project(ctx, r), nil
}

func (s *ResponseService) DeleteResponse(ctx context.Context, id string) error {
	r, err := s.queries.GetResponseByID(ctx, id)
	if err != nil {
		if err == db.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to get response: %w", err)
	}

	if err := s.queries.DeleteResponse(ctx, id); err != nil && err != db.ErrNotFound {
		return fmt.Errorf("failed to delete response: %w", err)
	}

	_ = s.bus.PublishUser(r.UserID, map[string]interface{}{
		"type":       "response.deleted",
		"responseId": id,
	})
	return nil
}

// project attaches the parent demand's current title/type/status. The
// denormalized fields are never stored; a vanished demand degrades to
// sentinel values rather than an error.
func (s *ResponseService) project(ctx context.Context, r db.Response) *model.ServiceResponse {
	resp := &model.ServiceResponse{
		ID:           r.ID,
		DemandID:     r.DemandID,
		UserID:       r.UserID,
		Content:      r.Content,
		Status:       model.ResponseStatus(r.Status),
		ResponseTime: model.FormatTime(r.CreatedAt),
		DemandTitle:  model.UnknownDemandTitle,
		ServiceType:  model.UnknownServiceType,
		DemandStatus: model.UnknownDemandStatus,
	}

	if demand, err := s.queries.GetDemandByID(ctx, r.DemandID); err == nil {
		resp.DemandTitle = demand.Title
		resp.ServiceType = demand.Type
		resp.DemandStatus = demand.Status
	}
	return resp
}
