// Package store holds the client-side authoritative in-memory collections
// of demands and responses, the active filter parameters and their derived
// projection. It is seeded with a fixed sample set so the front-end works
// without a live backend, and persists explicitly via Load/Save.
package store

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"iserve/internal/model"
	"iserve/internal/persist"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// FilterTypeAll is the wildcard category matching every demand.
const FilterTypeAll = "all"

// Filter is the three active filter parameters. Setting any one preserves
// the other two.
type Filter struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	Keyword string `json:"keyword"`
}

// Page is the pagination bookkeeping over the filtered view.
type Page struct {
	Number int `json:"number"`
	Size   int `json:"size"`
	Total  int `json:"total"`
}

type DemandStore struct {
	mu        sync.Mutex
	files     *persist.FileStore
	log       *zap.Logger
	demands   []model.Demand
	responses []model.ServiceResponse
	filter    Filter
	filtered  []model.Demand
	page      Page
	current   *model.Demand
}

func New(files *persist.FileStore, log *zap.Logger) *DemandStore {
	s := &DemandStore{
		files: files,
		log:   log,
		page:  Page{Number: 1, Size: 10},
	}
	s.demands, s.responses = sampleData()
	s.applyFilter()
	return s
}

// persistedData is the shape written under the demand-storage key.
type persistedData struct {
	Demands   []model.Demand          `json:"demands"`
	Responses []model.ServiceResponse `json:"responses"`
}

// Load replaces the collections with the persisted dataset when one
// exists. Missing or malformed storage keeps the seeded data.
func (s *DemandStore) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.files.Load(persist.DemandKey)
	if err != nil {
		if err != persist.ErrNotFound {
			s.log.Warn("failed to read demand storage", zap.Error(err))
		}
		return
	}
	var data persistedData
	if err := json.Unmarshal(raw, &data); err != nil {
		s.log.Warn("malformed demand storage, keeping seeded data", zap.Error(err))
		return
	}
	s.demands = data.Demands
	s.responses = data.Responses
	s.applyFilter()
}

// Save writes the current collections to durable storage.
func (s *DemandStore) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(persistedData{Demands: s.demands, Responses: s.responses})
	if err != nil {
		s.log.Error("failed to encode demand storage", zap.Error(err))
		return
	}
	if err := s.files.Save(persist.DemandKey, raw); err != nil {
		s.log.Error("failed to persist demand storage", zap.Error(err))
	}
}

// applyFilter recomputes the filtered view. Predicates apply in order:
// user id (falling back to the unfiltered set when it matches nothing),
// category, then keyword over title/description/address.
func (s *DemandStore) applyFilter() {
	view := s.demands

	if s.filter.UserID != "" {
		byUser := make([]model.Demand, 0, len(view))
		for _, d := range view {
			if d.UserID == s.filter.UserID {
				byUser = append(byUser, d)
			}
		}
		if len(byUser) > 0 {
			view = byUser
		}
	}

	if s.filter.Type != "" && s.filter.Type != FilterTypeAll {
		byType := make([]model.Demand, 0, len(view))
		for _, d := range view {
			if d.Type == s.filter.Type {
				byType = append(byType, d)
			}
		}
		view = byType
	}

	if s.filter.Keyword != "" {
		kw := strings.ToLower(s.filter.Keyword)
		byKeyword := make([]model.Demand, 0, len(view))
		for _, d := range view {
			if strings.Contains(strings.ToLower(d.Title), kw) ||
				strings.Contains(strings.ToLower(d.Description), kw) ||
				strings.Contains(strings.ToLower(d.Address), kw) {
				byKeyword = append(byKeyword, d)
			}
		}
		view = byKeyword
	}

	s.filtered = view
	s.page.Total = len(view)
	if maxPage := (len(view) + s.page.Size - 1) / s.page.Size; s.page.Number > maxPage && maxPage > 0 {
		s.page.Number = maxPage
	}
	if s.page.Number < 1 {
		s.page.Number = 1
	}
}

// FilterByType sets the category predicate and recomputes the view.
func (s *DemandStore) FilterByType(serviceType string) []model.Demand {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.Type = serviceType
	s.applyFilter()
	return s.snapshotFiltered()
}

// FilterByUserID sets the user predicate and recomputes the view.
func (s *DemandStore) FilterByUserID(userID string) []model.Demand {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.UserID = userID
	s.applyFilter()
	return s.snapshotFiltered()
}

// Search sets the keyword and recomputes the view.
func (s *DemandStore) Search(keyword string) []model.Demand {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.Keyword = keyword
	s.applyFilter()
	return s.snapshotFiltered()
}

// Filtered returns the current view.
func (s *DemandStore) Filtered() []model.Demand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotFiltered()
}

// ActiveFilter returns the current filter parameters.
func (s *DemandStore) ActiveFilter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

func (s *DemandStore) snapshotFiltered() []model.Demand {
	out := make([]model.Demand, len(s.filtered))
	copy(out, s.filtered)
	return out
}

// SetPage moves the pagination window over the filtered view.
func (s *DemandStore) SetPage(number, size int) Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	if number > 0 {
		s.page.Number = number
	}
	if size > 0 {
		s.page.Size = size
	}
	s.applyFilter()
	return s.page
}

// PageItems returns the slice of the filtered view for the current page
// plus the bookkeeping.
func (s *DemandStore) PageItems() ([]model.Demand, Page) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := (s.page.Number - 1) * s.page.Size
	if start >= len(s.filtered) {
		return nil, s.page
	}
	end := start + s.page.Size
	if end > len(s.filtered) {
		end = len(s.filtered)
	}
	out := make([]model.Demand, end-start)
	copy(out, s.filtered[start:end])
	return out, s.page
}

// GetByID looks up a demand and caches it as the current selection.
// A missing id returns nil; the caller decides how to render not-found.
func (s *DemandStore) GetByID(id string) *model.Demand {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.demands {
		if s.demands[i].ID == id {
			d := s.demands[i]
			s.current = &d
			return &d
		}
	}
	return nil
}

// Current returns the cached current demand, nil when none is selected.
func (s *DemandStore) Current() *model.Demand {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	d := *s.current
	return &d
}

// CreateInput carries the caller-supplied fields of a new demand.
type CreateInput struct {
	UserID      string
	Type        string
	Title       string
	Description string
	Address     string
}

// Create assigns identity and timestamps, defaults status to pending,
// appends and re-applies the active filter.
func (s *DemandStore) Create(input CreateInput) model.Demand {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := model.FormatTime(time.Now())
	d := model.Demand{
		ID:          ulid.Make().String(),
		UserID:      input.UserID,
		Type:        input.Type,
		LocationID:  model.ServiceTypeID(input.Type),
		Title:       input.Title,
		Description: input.Description,
		Address:     input.Address,
		Status:      model.DemandPending,
		CreateTime:  now,
		UpdateTime:  now,
	}
	s.demands = append(s.demands, d)
	s.applyFilter()
	return d
}

// Patch carries optional demand fields; nil means "leave unchanged".
type Patch struct {
	Type        *string
	Title       *string
	Description *string
	Address     *string
	Status      *model.DemandStatus
}

// Update merges the patch, refreshes the update timestamp and keeps the
// current-demand cache consistent. Returns nil when the id is unknown.
func (s *DemandStore) Update(id string, patch Patch) *model.Demand {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.demands {
		if s.demands[i].ID != id {
			continue
		}
		d := &s.demands[i]
		if patch.Type != nil {
			d.Type = *patch.Type
			d.LocationID = model.ServiceTypeID(*patch.Type)
		}
		if patch.Title != nil {
			d.Title = *patch.Title
		}
		if patch.Description != nil {
			d.Description = *patch.Description
		}
		if patch.Address != nil {
			d.Address = *patch.Address
		}
		if patch.Status != nil {
			d.Status = *patch.Status
		}
		d.UpdateTime = model.FormatTime(time.Now())

		s.applyFilter()
		if s.current != nil && s.current.ID == id {
			refreshed := *d
			s.current = &refreshed
		}
		out := *d
		return &out
	}
	return nil
}

// Delete removes a demand, re-applies the filter and clears the current
// cache if it pointed at the deleted id. Unknown ids are a no-op.
func (s *DemandStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.demands {
		if s.demands[i].ID == id {
			s.demands = append(s.demands[:i], s.demands[i+1:]...)
			break
		}
	}
	s.applyFilter()
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
}
