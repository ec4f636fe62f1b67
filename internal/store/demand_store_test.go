package store

import (
	"testing"

	"iserve/internal/model"
	"iserve/internal/persist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *DemandStore {
	t.Helper()
	files, err := persist.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return New(files, zap.NewNop())
}

func TestFilterByType(t *testing.T) {
	s := newTestStore(t)

	view := s.FilterByType("cleaning")
	require.Len(t, view, 1)
	assert.Equal(t, "d-1003", view[0].ID)

	// "all" is a wildcard back to the full set
	view = s.FilterByType(FilterTypeAll)
	assert.Len(t, view, 6)
}

func TestFilterConjunction(t *testing.T) {
	s := newTestStore(t)

	// u-102 owns d-1002 (elder-care) and d-1005 (meal-delivery)
	s.FilterByUserID("u-102")
	view := s.FilterByType("elder-care")
	require.Len(t, view, 1)
	assert.Equal(t, "d-1002", view[0].ID)

	// setting the keyword preserves both other predicates
	view = s.Search("grandmother")
	require.Len(t, view, 1)
	assert.Equal(t, "d-1002", view[0].ID)

	view = s.Search("no such text anywhere")
	assert.Empty(t, view)

	// every filtered view is a subset of the base collection
	s.Search("")
	for _, d := range s.Filtered() {
		assert.NotNil(t, s.GetByID(d.ID))
	}
}

func TestFilterByUserIDFallsBackWhenEmpty(t *testing.T) {
	s := newTestStore(t)

	// a user with no demands falls back to the unfiltered set, not to empty
	view := s.FilterByUserID("u-nobody")
	assert.Len(t, view, 6)
}

func TestSearchMatchesTitleDescriptionAddress(t *testing.T) {
	s := newTestStore(t)

	byTitle := s.Search("sink")
	require.Len(t, byTitle, 1)
	assert.Equal(t, "d-1001", byTitle[0].ID)

	byDescription := s.Search("retired") // not present in demands
	assert.Empty(t, byDescription)

	byAddress := s.Search("riverside")
	assert.Len(t, byAddress, 2)
}

func TestGetByIDCachesCurrent(t *testing.T) {
	s := newTestStore(t)

	assert.Nil(t, s.Current())
	d := s.GetByID("d-1001")
	require.NotNil(t, d)
	require.NotNil(t, s.Current())
	assert.Equal(t, "d-1001", s.Current().ID)

	assert.Nil(t, s.GetByID("missing"))
}

func TestCreateAppliesDefaultsAndFilter(t *testing.T) {
	s := newTestStore(t)
	s.FilterByType("plumbing-repair")

	d := s.Create(CreateInput{
		UserID: "u-demo",
		Type:   "plumbing-repair",
		Title:  "Bathroom tap replacement",
	})
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, model.DemandPending, d.Status)
	assert.Equal(t, d.CreateTime, d.UpdateTime)
	assert.Equal(t, 1, d.LocationID)

	// the active filter picked the new demand up
	view := s.Filtered()
	assert.Len(t, view, 2)
}

func TestUpdateRefreshesTimestampAndCurrent(t *testing.T) {
	s := newTestStore(t)

	before := s.GetByID("d-1001")
	require.NotNil(t, before)

	title := "Kitchen sink replaced entirely"
	updated := s.Update("d-1001", Patch{Title: &title})
	require.NotNil(t, updated)
	assert.Equal(t, title, updated.Title)
	assert.GreaterOrEqual(t, updated.UpdateTime, before.UpdateTime)

	// the cached current demand follows the patch
	assert.Equal(t, title, s.Current().Title)

	assert.Nil(t, s.Update("missing", Patch{Title: &title}))
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	s := newTestStore(t)

	s.GetByID("d-1003")
	s.Delete("d-1003")
	assert.Nil(t, s.GetByID("d-1003"))
	assert.Nil(t, s.Current())
	assert.Len(t, s.FilterByType(FilterTypeAll), 5)

	// deleting a missing id is a no-op
	s.Delete("d-1003")
	assert.Len(t, s.FilterByType(FilterTypeAll), 5)
}

func TestPagination(t *testing.T) {
	s := newTestStore(t)

	page := s.SetPage(1, 4)
	assert.Equal(t, 6, page.Total)

	items, _ := s.PageItems()
	assert.Len(t, items, 4)

	s.SetPage(2, 4)
	items, _ = s.PageItems()
	assert.Len(t, items, 2)

	// page beyond the view clamps back to the last page
	page = s.SetPage(9, 4)
	assert.Equal(t, 2, page.Number)
}

func TestResponsesProjection(t *testing.T) {
	s := newTestStore(t)

	mine := s.ListMyResponses("u-demo")
	require.Len(t, mine, 2)
	for _, r := range mine {
		assert.NotEqual(t, model.UnknownDemandTitle, r.DemandTitle)
	}

	// deleting the parent degrades the projection to sentinels
	s.Delete("d-1002")
	mine = s.ListMyResponses("u-demo")
	for _, r := range mine {
		if r.DemandID == "d-1002" {
			assert.Equal(t, model.UnknownDemandTitle, r.DemandTitle)
			assert.Equal(t, model.UnknownServiceType, r.ServiceType)
			assert.Equal(t, model.UnknownDemandStatus, r.DemandStatus)
		}
	}
}

func TestCreateAndUpdateResponse(t *testing.T) {
	s := newTestStore(t)

	r := s.CreateResponse(CreateResponseInput{
		DemandID: "d-1001",
		UserID:   "u-demo",
		Content:  "I can fix this on Saturday.",
	})
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, model.ResponsePendingReview, r.Status)
	assert.Equal(t, "Kitchen sink is leaking", r.DemandTitle)

	status := model.ResponseAccepted
	updated := s.UpdateResponse(r.ID, ResponsePatch{Status: &status})
	require.NotNil(t, updated)
	assert.Equal(t, model.ResponseAccepted, updated.Status)

	assert.Nil(t, s.UpdateResponse("missing", ResponsePatch{Status: &status}))

	s.DeleteResponse(r.ID)
	assert.Len(t, s.ListMyResponses("u-demo"), 2)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	files, err := persist.NewFileStore(t.TempDir())
	require.NoError(t, err)

	s := New(files, zap.NewNop())
	created := s.Create(CreateInput{UserID: "u-demo", Type: "cleaning", Title: "Persisted demand"})
	s.Save()

	// a second store over the same directory restores the dataset
	s2 := New(files, zap.NewNop())
	assert.Nil(t, s2.GetByID(created.ID))
	s2.Load()
	require.NotNil(t, s2.GetByID(created.ID))
}

func TestLoadToleratesMalformedStorage(t *testing.T) {
	files, err := persist.NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, files.Save(persist.DemandKey, []byte("{not json")))

	s := New(files, zap.NewNop())
	s.Load()
	assert.Len(t, s.FilterByType(FilterTypeAll), 6)
}
