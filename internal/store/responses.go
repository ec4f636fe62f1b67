package store

import (
	"time"

	"iserve/internal/model"

	"github.com/oklog/ulid/v2"
)

// project fills a response's denormalized demand fields from the current
// demand collection, degrading to the unknown sentinels when the parent is
// gone. Callers hold the lock.
func (s *DemandStore) project(r model.ServiceResponse) model.ServiceResponse {
	r.DemandTitle = model.UnknownDemandTitle
	r.ServiceType = model.UnknownServiceType
	r.DemandStatus = model.UnknownDemandStatus

	for i := range s.demands {
		if s.demands[i].ID == r.DemandID {
			r.DemandTitle = s.demands[i].Title
			r.ServiceType = s.demands[i].Type
			r.DemandStatus = string(s.demands[i].Status)
			break
		}
	}
	return r
}

// ListMyResponses returns a user's responses, each carrying a fresh
// projection of its parent demand's title/type/status.
func (s *DemandStore) ListMyResponses(userID string) []model.ServiceResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.ServiceResponse, 0)
	for _, r := range s.responses {
		if r.UserID == userID {
			out = append(out, s.project(r))
		}
	}
	return out
}

// CreateResponseInput carries the caller-supplied fields of a response.
type CreateResponseInput struct {
	DemandID string
	UserID   string
	Content  string
}

// CreateResponse appends a response with a fresh identity, pending-review
// status and current timestamp, then returns it fully projected.
func (s *DemandStore) CreateResponse(input CreateResponseInput) model.ServiceResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := model.ServiceResponse{
		ID:           ulid.Make().String(),
		DemandID:     input.DemandID,
		UserID:       input.UserID,
		Content:      input.Content,
		Status:       model.ResponsePendingReview,
		ResponseTime: model.FormatTime(time.Now()),
	}
	s.responses = append(s.responses, r)
	return s.project(r)
}

// ResponsePatch carries optional response fields; nil leaves a field alone.
type ResponsePatch struct {
	Content *string
	Status  *model.ResponseStatus
}

// UpdateResponse merges the patch and returns the projected result, nil
// when the id is unknown.
func (s *DemandStore) UpdateResponse(id string, patch ResponsePatch) *model.ServiceResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.responses {
		if s.responses[i].ID != id {
			continue
		}
		if patch.Content != nil {
			s.responses[i].Content = *patch.Content
		}
		if patch.Status != nil {
			s.responses[i].Status = *patch.Status
		}
		projected := s.project(s.responses[i])
		return &projected
	}
	return nil
}

// DeleteResponse removes a response. Unknown ids are a no-op.
func (s *DemandStore) DeleteResponse(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.responses {
		if s.responses[i].ID == id {
			s.responses = append(s.responses[:i], s.responses[i+1:]...)
			return
		}
	}
}
