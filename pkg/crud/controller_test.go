package crud

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/pkg/news"
)

func TestController_OpenCreateThenClose(t *testing.T) {
	api, client := newFakeAPI(t)
	ctrl, _ := newCategories(client, nil)

	ctrl.OpenCreate()
	s := ctrl.State()
	assert.True(t, s.ModalOpen)
	assert.True(t, s.Creating())

	ctrl.Close()
	s = ctrl.State()
	assert.False(t, s.ModalOpen)
	assert.Nil(t, s.Editing)
	assert.Zero(t, api.requests())
}

func TestController_EditSubmitsUpdate(t *testing.T) {
	api, client := newFakeAPI(t, news.Category{ID: "c1", Name: "Harbour", Slug: "harbour"})
	notes := &RecordingNotifier{}
	ctrl, _ := newCategories(client, notes)
	record := news.Category{ID: "c1", Name: "Harbour", Slug: "harbour"}

	ctrl.OpenEdit(record)
	require.NotNil(t, ctrl.State().Editing)
	assert.Equal(t, record, *ctrl.State().Editing)

	saved, err := ctrl.Submit(context.Background(), news.Category{Name: "Harbour Office", Slug: "harbour"})
	require.NoError(t, err)
	assert.Equal(t, "c1", saved.ID)
	assert.Equal(t, int32(1), api.updates.Load())
	assert.Zero(t, api.creates.Load())

	s := ctrl.State()
	assert.False(t, s.ModalOpen)
	assert.Nil(t, s.Editing)
	assert.Equal(t, []Notice{{OK: true, Message: "Category updated"}}, notes.Notices())
}

func TestController_OpenCreateAfterEditForgetsRecord(t *testing.T) {
	_, client := newFakeAPI(t)
	ctrl, _ := newCategories(client, nil)

	ctrl.OpenEdit(news.Category{ID: "c1", Name: "Harbour"})
	ctrl.Close()
	ctrl.OpenCreate()
	assert.Nil(t, ctrl.State().Editing)
}

func TestController_SubmitLatch(t *testing.T) {
	api, client := newFakeAPI(t)
	api.hold = make(chan struct{})
	api.entered = make(chan struct{}, 1)
	ctrl, _ := newCategories(client, nil)
	ctx := context.Background()

	ctrl.OpenCreate()
	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = ctrl.Submit(ctx, news.Category{Name: "Maritime", Slug: "maritime"})
	}()

	<-api.entered
	assert.True(t, ctrl.State().Submitting)

	_, err := ctrl.Submit(ctx, news.Category{Name: "Maritime", Slug: "maritime"})
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(api.hold)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, int32(1), api.creates.Load())
	assert.False(t, ctrl.State().Submitting)
}

func TestController_ValidationSendsNothing(t *testing.T) {
	api, client := newFakeAPI(t)
	ctrl, _ := newCategories(client, nil)

	ctrl.OpenCreate()
	_, err := ctrl.Submit(context.Background(), news.Category{Slug: "nameless"})

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "name", ve.Fields[0].Field)
	assert.Equal(t, "name is required", ve.Fields[0].Message)
	assert.Zero(t, api.requests())
	assert.True(t, ctrl.State().ModalOpen)
}

func TestController_MutationInvalidatesCache(t *testing.T) {
	api, client := newFakeAPI(t, news.Category{ID: "c1", Name: "Harbour", Slug: "harbour"})
	ctrl, _ := newCategories(client, nil)
	ctx := context.Background()

	q := ctrl.Fetch(ctx, nil)
	require.NoError(t, q.Err)
	assert.False(t, q.FromCache)

	q = ctrl.Fetch(ctx, nil)
	assert.True(t, q.FromCache)
	assert.Equal(t, int32(1), api.lists.Load())

	ctrl.OpenCreate()
	_, err := ctrl.Submit(ctx, news.Category{Name: "Tides", Slug: "tides"})
	require.NoError(t, err)
	q = ctrl.Fetch(ctx, nil)
	assert.False(t, q.FromCache)
	assert.Equal(t, int32(2), api.lists.Load())

	ctrl.OpenEdit(q.Data[0])
	_, err = ctrl.Submit(ctx, news.Category{Name: "Harbours", Slug: "harbour"})
	require.NoError(t, err)
	q = ctrl.Fetch(ctx, nil)
	assert.False(t, q.FromCache)
	assert.Equal(t, int32(3), api.lists.Load())

	require.NoError(t, ctrl.Remove(ctx, "c1"))
	q = ctrl.Fetch(ctx, nil)
	assert.False(t, q.FromCache)
	assert.Equal(t, int32(4), api.lists.Load())
	assert.Len(t, q.Data, 1)
}

func TestController_FailedSubmitKeepsModal(t *testing.T) {
	_, client := newFakeAPI(t, news.Category{ID: "c1", Name: "Harbour", Slug: "harbour"})
	notes := &RecordingNotifier{}
	ctrl, cache := newCategories(client, notes)
	ctx := context.Background()

	require.NoError(t, ctrl.Fetch(ctx, nil).Err)
	record := news.Category{ID: "missing", Name: "Ghost", Slug: "ghost"}
	ctrl.OpenEdit(record)

	_, err := ctrl.Submit(ctx, news.Category{Name: "Ghost", Slug: "ghost"})
	var rf *RequestFailure
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, http.StatusNotFound, rf.Status)

	s := ctrl.State()
	assert.True(t, s.ModalOpen)
	require.NotNil(t, s.Editing)
	assert.Equal(t, record, *s.Editing)
	assert.False(t, s.Submitting)
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, []Notice{{Message: "Not found"}}, notes.Notices())
}

func TestController_CreateMaritime(t *testing.T) {
	api, client := newFakeAPI(t)
	ctrl, _ := newCategories(client, nil)
	ctx := context.Background()

	require.Empty(t, ctrl.Fetch(ctx, nil).Data)

	ctrl.OpenCreate()
	created, err := ctrl.Submit(ctx, news.Category{Name: "Maritime", Slug: "maritime"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	s := ctrl.State()
	assert.False(t, s.ModalOpen)
	assert.Nil(t, s.Editing)

	q := ctrl.Fetch(ctx, nil)
	require.NoError(t, q.Err)
	require.Len(t, q.Data, 1)
	assert.Equal(t, "Maritime", q.Data[0].Name)
	assert.Equal(t, int32(2), api.lists.Load())
}

func TestController_FailedDeleteKeepsCache(t *testing.T) {
	api, client := newFakeAPI(t, news.Category{ID: "x1", Name: "Harbour", Slug: "harbour"})
	api.failDelete["x1"] = http.StatusInternalServerError
	notes := &RecordingNotifier{}
	ctrl, cache := newCategories(client, notes)
	ctx := context.Background()

	require.Len(t, ctrl.Fetch(ctx, nil).Data, 1)

	err := ctrl.Remove(ctx, "x1")
	var rf *RequestFailure
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, http.StatusInternalServerError, rf.Status)
	assert.Equal(t, []Notice{{Message: "Internal server error"}}, notes.Notices())

	assert.Equal(t, 1, cache.Len())
	q := ctrl.Fetch(ctx, nil)
	assert.True(t, q.FromCache)
	require.Len(t, q.Data, 1)
	assert.Equal(t, "x1", q.Data[0].ID)
	assert.Equal(t, int32(1), api.lists.Load())
}

func TestController_DeleteConfirmation(t *testing.T) {
	api, client := newFakeAPI(t, news.Category{ID: "c1", Name: "Harbour", Slug: "harbour"})
	ctrl, _ := newCategories(client, nil)
	ctx := context.Background()
	record := news.Category{ID: "c1", Name: "Harbour"}

	assert.Error(t, ctrl.ConfirmDelete(ctx))

	ctrl.RequestDelete(record)
	assert.True(t, ctrl.State().DeleteConfirmOpen)
	ctrl.CancelDelete()
	assert.False(t, ctrl.State().DeleteConfirmOpen)
	assert.Zero(t, api.deletes.Load())

	ctrl.RequestDelete(record)
	require.NoError(t, ctrl.ConfirmDelete(ctx))
	assert.False(t, ctrl.State().DeleteConfirmOpen)
	assert.Equal(t, int32(1), api.deletes.Load())
}

func TestController_Refetch(t *testing.T) {
	api, client := newFakeAPI(t)
	ctrl, _ := newCategories(client, nil)
	ctx := context.Background()

	ctrl.Fetch(ctx, nil)
	q := ctrl.Refetch(ctx, nil)
	assert.False(t, q.FromCache)
	assert.Equal(t, int32(2), api.lists.Load())
	assert.False(t, ctrl.IsLoading(nil))
}

func TestContainer_Endpoints(t *testing.T) {
	_, client := newFakeAPI(t)
	c := NewContainer(client, NewCache(), nil)
	assert.Equal(t, "admin/categories", c.Categories.Endpoint())
	assert.Equal(t, "admin/announcements", c.Announcements.Endpoint())
	assert.Equal(t, "admin/comments", c.Comments.Endpoint())
}
