package runtime

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertPostgresReturning(t *testing.T) {
	c, mock := mockConn(t, Postgres)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users" ("login", "country_id") VALUES ($1, $2) RETURNING "id"`)).
		WithArgs("alice", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	id, err := Insert(context.Background(), c, "users",
		[]string{"login", "country_id"}, []any{"alice", int64(3)}, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertMySQLLastInsertID(t *testing.T) {
	c, mock := mockConn(t, MySQL)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users` (`login`) VALUES (?)")).
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := Insert(context.Background(), c, "users", []string{"login"}, []any{"alice"}, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestInsertWithoutGeneratedKey(t *testing.T) {
	c, mock := mockConn(t, Postgres)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "users_roles" ("user_id", "role_id") VALUES ($1, $2)`)).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := Insert(context.Background(), c, "users_roles",
		[]string{"user_id", "role_id"}, []any{int64(1), int64(2)}, "")
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestUpdate(t *testing.T) {
	c, mock := mockConn(t, Postgres)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "login" = $1, "name" = $2 WHERE "id" = $3`)).
		WithArgs("alice", "Alice", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := Update(context.Background(), c, "users",
		[]string{"login", "name"}, []any{"alice", "Alice"},
		[]string{"id"}, []any{int64(1)})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	c, mock := mockConn(t, MySQL)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `users_roles` WHERE `user_id` = ? AND `role_id` = ?")).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := Delete(context.Background(), c, "users_roles",
		[]string{"user_id", "role_id"}, []any{int64(1), int64(2)})
	require.NoError(t, err)
}

func TestSetNull(t *testing.T) {
	c, mock := mockConn(t, Postgres)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "author_id" = NULL WHERE "author_id" = $1`)).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	err := SetNull(context.Background(), c, "posts",
		[]string{"author_id"}, []string{"author_id"}, []any{int64(1)})
	require.NoError(t, err)
}

func TestInsertRunsInTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users` (`login`) VALUES (?)")).
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	c := NewConnection(tx, MySQL)
	_, err = Insert(context.Background(), c, "users", []string{"login"}, []any{"alice"}, "id")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
