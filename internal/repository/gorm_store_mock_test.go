package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T, monitorPings bool) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(monitorPings))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:               logger.Discard,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	return NewGormStore(db, nil), mock
}

func TestGormStore_InitializePingFailure(t *testing.T) {
	store, mock := newMockStore(t, true)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	err := store.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CreateTaskInsertFailure(t *testing.T) {
	store, mock := newMockStore(t, false)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "tasks"`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := store.CreateTask(context.Background(), "Title", "", 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CreateTaskUnknownOwner(t *testing.T) {
	store, mock := newMockStore(t, false)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	_, err := store.CreateTask(context.Background(), "Title", "", 9)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_DeleteTaskRollsBack(t *testing.T) {
	store, mock := newMockStore(t, false)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "collaborators"`).
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err := store.DeleteTask(context.Background(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock timeout")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_DeleteTaskRemovesLinksFirst(t *testing.T) {
	store, mock := newMockStore(t, false)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "collaborators" WHERE task_id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "tasks" WHERE "tasks"."id" = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, store.DeleteTask(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ShareTaskIgnoresConflict(t *testing.T) {
	store, mock := newMockStore(t, false)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id" FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "collaborators" .* ON CONFLICT \("task_id","user_id"\) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	assert.NoError(t, store.ShareTask(context.Background(), 5, "bob@example.com"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
