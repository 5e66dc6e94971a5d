package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ repomanager.RepositoryManager = (*Store)(nil)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, s *Store, id, name string) *models.User {
	t.Helper()
	u, err := s.Users(nil).Create(context.Background(), &models.User{ID: id, UserName: name, ConversationID: "c-" + id, CreatedAt: t0})
	require.NoError(t, err)
	return u
}

func seedTask(t *testing.T, s *Store, id, owner, desc string, created time.Time) {
	t.Helper()
	_, err := s.Tasks(nil).Create(context.Background(), &models.Task{
		ID: id, UserID: owner, Description: desc, CurrentStatus: models.StatusActive,
		CreatedAt: created, ModifiedAt: created, LastStatusChangeAt: created,
	})
	require.NoError(t, err)
}

func TestUsers_UniqueUsername(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "u1", "alice")

	_, err := s.Users(nil).Create(context.Background(), &models.User{ID: "u2", UserName: "alice", ConversationID: "c-u2"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	seedUser(t, s, "u2", "bob")
	_, err = s.Users(nil).UpdateUsername(context.Background(), "u2", "alice")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	u, err := s.Users(nil).UpdateUsername(context.Background(), "u2", "robert")
	require.NoError(t, err)
	assert.Equal(t, "robert", u.UserName)
}

func TestUsers_DeleteCascades(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUser(t, s, "u1", "alice")
	seedUser(t, s, "u2", "bob")
	seedTask(t, s, "t1", "u1", "a", t0)
	seedTask(t, s, "t2", "u2", "b", t0)
	_, err := s.Messages(nil).Create(ctx, &models.Message{ID: "m1", ConversationID: "c-u1", IsUser: true, Content: "hi", CreatedAt: t0})
	require.NoError(t, err)

	require.NoError(t, s.Users(nil).Delete(ctx, "u1"))

	_, err = s.Tasks(nil).GetByID(ctx, "t1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = s.Tasks(nil).GetByID(ctx, "t2")
	assert.NoError(t, err)

	msgs, err := s.Messages(nil).Recent(ctx, "c-u1", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	assert.ErrorIs(t, s.Users(nil).Delete(ctx, "u1"), common.ErrorNotFound)
}

func TestTasks_ReturnsCopies(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "u1", "alice")
	seedTask(t, s, "t1", "u1", "original", t0)

	got, err := s.Tasks(nil).GetByID(context.Background(), "t1")
	require.NoError(t, err)
	got.Description = "mutated"

	again, err := s.Tasks(nil).GetByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Description)
}

func TestTasks_ListSortAndPage(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUser(t, s, "u1", "alice")
	seedUser(t, s, "u2", "bob")
	seedTask(t, s, "t1", "u1", "b", t0)
	seedTask(t, s, "t2", "u1", "c", t0.Add(time.Hour))
	seedTask(t, s, "t3", "u1", "a", t0.Add(2*time.Hour))
	seedTask(t, s, "t4", "u2", "z", t0)

	repo := s.Tasks(nil)

	got, err := repo.List(ctx, models.TaskFilter{UserID: "u1"}, models.TaskSort{Field: models.SortCreatedAt, Desc: true}, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"t3", "t2", "t1"}, ids(got))

	got, err = repo.List(ctx, models.TaskFilter{UserID: "u1"}, models.TaskSort{Field: models.SortDescription}, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, ids(got))

	n, err := repo.Count(ctx, models.TaskFilter{UserID: "u1", CreatedTo: t0.Add(90 * time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestTasks_SelectOwnedAndDelete(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUser(t, s, "u1", "alice")
	seedUser(t, s, "u2", "bob")
	seedTask(t, s, "t1", "u1", "a", t0)
	seedTask(t, s, "t2", "u2", "b", t0)

	owned, err := s.Tasks(nil).SelectOwnedIDs(ctx, "u1", []string{"t1", "t2", "nope"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, owned)

	n, err := s.Tasks(nil).DeleteByIDs(ctx, "u1", []string{"t1", "t2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTasks_MarkBacklog(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUser(t, s, "u1", "alice")
	seedTask(t, s, "old", "u1", "a", t0.Add(-24*time.Hour))
	seedTask(t, s, "new", "u1", "b", t0)

	now := t0.Add(time.Hour)
	n, err := s.Tasks(nil).MarkBacklog(ctx, "u1", t0.Truncate(24*time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	old, err := s.Tasks(nil).GetByID(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, models.StatusBacklog, old.CurrentStatus)
	require.NotNil(t, old.PreviousStatus)
	assert.Equal(t, models.StatusActive, *old.PreviousStatus)
	assert.Equal(t, now, old.LastStatusChangeAt)
}

func TestMessages_RecentIsLatestAscending(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUser(t, s, "u1", "alice")

	for i, content := range []string{"one", "two", "three", "four"} {
		_, err := s.Messages(nil).Create(ctx, &models.Message{
			ID: content, ConversationID: "c-u1", IsUser: i%2 == 0, Content: content, CreatedAt: t0.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	got, err := s.Messages(nil).Recent(ctx, "c-u1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "three", got[0].Content)
	assert.Equal(t, "four", got[1].Content)

	_, err = s.Messages(nil).Create(ctx, &models.Message{ID: "x", ConversationID: "unknown"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestWithTx_PassesErrorThrough(t *testing.T) {
	s := NewStore()
	boom := errors.New("boom")

	err := s.WithTx(context.Background(), func(ctx context.Context, tx dbx.DBTX) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func ids(ts []*models.Task) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}
