package tasks

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

var taskCols = []string{"id", "user_id", "task_description", "current_status", "previous_status", "created_at", "modified_at", "last_status_change_at"}

var day = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	task := &models.Task{ID: "t1", UserID: "u1", Description: "buy milk", CurrentStatus: models.StatusActive,
		CreatedAt: day, ModifiedAt: day, LastStatusChangeAt: day}

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+tasks\s*\(id,\s*user_id,.*last_status_change_at\)\s*VALUES\s*\(\$1,.*\$8\)$`).
		WithArgs("t1", "u1", "buy milk", "active", nil, day, day, day).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), task)
	require.NoError(t, err)
	assert.Same(t, task, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	q := `(?s)^SELECT\s+id,.*FROM\s+tasks\s+WHERE\s+id\s*=\s*\$1$`

	t.Run("found with previous status", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("t1").
			WillReturnRows(sqlmock.NewRows(taskCols).AddRow("t1", "u1", "d", "completed", "active", day, day, day))

		got, err := repo.GetByID(context.Background(), "t1")
		require.NoError(t, err)
		require.NotNil(t, got.PreviousStatus)
		assert.Equal(t, "active", *got.PreviousStatus)
		assert.Equal(t, "completed", got.CurrentStatus)
	})

	t.Run("null previous status", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("t1").
			WillReturnRows(sqlmock.NewRows(taskCols).AddRow("t1", "u1", "d", "active", nil, day, day, day))

		got, err := repo.GetByID(context.Background(), "t1")
		require.NoError(t, err)
		assert.Nil(t, got.PreviousStatus)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("t1").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), "t1")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("t1").WillReturnError(errors.New("db down"))

		_, err := repo.GetByID(context.Background(), "t1")
		require.Error(t, err)
		assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
	})
}

func TestUpdate(t *testing.T) {
	q := `(?s)^UPDATE\s+tasks\s+SET\s+task_description\s*=\s*\$2,.*WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$7$`
	prev := "active"
	task := &models.Task{ID: "t1", UserID: "u1", Description: "d", CurrentStatus: "completed", PreviousStatus: &prev,
		ModifiedAt: day, LastStatusChangeAt: day}

	t.Run("ok", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("t1", "d", "completed", "active", day, day, "u1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		_, err := repo.Update(context.Background(), task)
		require.NoError(t, err)
	})

	t.Run("no rows", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := repo.Update(context.Background(), task)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestDelete(t *testing.T) {
	q := `(?s)^DELETE\s+FROM\s+tasks\s+WHERE\s+id\s*=\s*\$1$`

	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(q).WithArgs("t1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "t1"))

	mock.ExpectExec(q).WithArgs("t2").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "t2"), common.ErrorNotFound)
}

func TestSelectOwnedIDs(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+id\s+FROM\s+tasks\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+id\s+IN\s+\(\$2,\s*\$3,\s*\$4\)\s+FOR\s+UPDATE$`).
		WithArgs("u1", "a", "b", "c").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a").AddRow("c"))

	got, err := repo.SelectOwnedIDs(context.Background(), "u1", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, got)
	require.NoError(t, mock.ExpectationsWereMet())

	none, err := repo.SelectOwnedIDs(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteByIDs(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+tasks\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+id\s+IN\s+\(\$2,\s*\$3\)$`).
		WithArgs("u1", "a", "b").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteByIDs(context.Background(), "u1", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestList_BuildsFilterAndOrder(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	next := day.Add(24 * time.Hour)

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+tasks\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+current_status\s*=\s*\$2\s+AND\s+last_status_change_at\s*>=\s*\$3\s+AND\s+last_status_change_at\s*<\s*\$4\s+ORDER\s+BY\s+task_description\s+DESC,\s*id\s+DESC\s+LIMIT\s+\$5\s+OFFSET\s+\$6$`).
		WithArgs("u1", "completed", day, next, 10, 20).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("t2", "u1", "b", "completed", "active", day, day, day).
			AddRow("t1", "u1", "a", "completed", "active", day, day, day))

	got, err := repo.List(context.Background(),
		models.TaskFilter{UserID: "u1", Status: "completed", ChangedFrom: day, ChangedTo: next},
		models.TaskSort{Field: models.SortDescription, Desc: true}, 10, 20)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t2", got[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_UnknownSortFallsBackToCreatedAt(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)ORDER\s+BY\s+created_at\s+ASC,\s*id\s+ASC\s+LIMIT\s+\$2\s+OFFSET\s+\$3$`).
		WithArgs("u1", 100, 0).
		WillReturnRows(sqlmock.NewRows(taskCols))

	got, err := repo.List(context.Background(), models.TaskFilter{UserID: "u1"}, models.TaskSort{Field: "password"}, 100, 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCount(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	next := day.Add(24 * time.Hour)

	mock.ExpectQuery(`(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+tasks\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+current_status\s*=\s*\$2\s+AND\s+created_at\s*>=\s*\$3\s+AND\s+created_at\s*<\s*\$4$`).
		WithArgs("u1", "active", day, next).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.Count(context.Background(), models.TaskFilter{UserID: "u1", Status: "active", CreatedFrom: day, CreatedTo: next})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestMarkBacklog(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := day.Add(9 * time.Hour)

	mock.ExpectExec(`(?s)^UPDATE\s+tasks\s+SET\s+previous_status\s*=\s*current_status,\s*current_status\s*=\s*'backlog',.*WHERE\s+user_id\s*=\s*\$1\s+AND\s+current_status\s*=\s*'active'\s+AND\s+created_at\s*<\s*\$2$`).
		WithArgs("u1", day, now).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.MarkBacklog(context.Background(), "u1", day, now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
