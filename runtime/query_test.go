package runtime

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockConn(t *testing.T, d Dialect) (*Connection, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewConnection(db, d), mock
}

func scanPair(rows *sql.Rows) ([2]any, error) {
	var id int64
	var login string
	if err := rows.Scan(&id, &login); err != nil {
		return [2]any{}, err
	}
	return [2]any{id, login}, nil
}

func TestQueryRender(t *testing.T) {
	base := Query{Table: "users", Columns: []string{"id", "login"}}
	joined := Query{
		Table:   "roles",
		Columns: []string{"id", "name"},
		Join: &Join{
			Table: "users_roles",
			On:    []ColumnPair{{Joined: "role_id", Base: "id"}},
		},
	}
	tests := []struct {
		name     string
		dialect  Dialect
		query    Query
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "postgres plain",
			dialect: Postgres,
			query:   base,
			wantSQL: `SELECT t."id", t."login" FROM "users" t`,
		},
		{
			name:     "postgres filters",
			dialect:  Postgres,
			query:    base.Where("login", "alice").Where("id", int64(3)),
			wantSQL:  `SELECT t."id", t."login" FROM "users" t WHERE t."login" = $1 AND t."id" = $2`,
			wantArgs: []any{"alice", int64(3)},
		},
		{
			name:     "mysql filters",
			dialect:  MySQL,
			query:    base.Where("login", "alice"),
			wantSQL:  "SELECT t.`id`, t.`login` FROM `users` t WHERE t.`login` = ?",
			wantArgs: []any{"alice"},
		},
		{
			name:     "sqlite filters",
			dialect:  SQLite,
			query:    base.Where("login", "alice"),
			wantSQL:  `SELECT t."id", t."login" FROM "users" t WHERE t."login" = ?`,
			wantArgs: []any{"alice"},
		},
		{
			name:     "junction join",
			dialect:  Postgres,
			query:    joined.WhereJoined("user_id", int64(7)),
			wantSQL:  `SELECT t."id", t."name" FROM "roles" t JOIN "users_roles" j ON j."role_id" = t."id" WHERE j."user_id" = $1`,
			wantArgs: []any{int64(7)},
		},
		{
			name:    "order by",
			dialect: Postgres,
			query: Query{
				Table: "users", Columns: []string{"id"},
				OrderBy: `t."login" DESC`,
			},
			wantSQL: `SELECT t."id" FROM "users" t ORDER BY t."login" DESC`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Connection{Dialect: tt.dialect}
			stmt, args := tt.query.render(c)
			assert.Equal(t, tt.wantSQL, stmt)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestOne(t *testing.T) {
	ctx := context.Background()
	q := Query{Table: "users", Columns: []string{"id", "login"}}.Where("id", int64(1))
	stmt := `SELECT t."id", t."login" FROM "users" t WHERE t."id" = $1`

	t.Run("found", func(t *testing.T) {
		c, mock := mockConn(t, Postgres)
		mock.ExpectQuery(regexp.QuoteMeta(stmt)).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "login"}).AddRow(1, "alice"))
		v, err := One(ctx, c, q, scanPair)
		require.NoError(t, err)
		assert.Equal(t, [2]any{int64(1), "alice"}, v)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		c, mock := mockConn(t, Postgres)
		mock.ExpectQuery(regexp.QuoteMeta(stmt)).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "login"}))
		_, err := One(ctx, c, q, scanPair)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("too many rows", func(t *testing.T) {
		c, mock := mockConn(t, Postgres)
		mock.ExpectQuery(regexp.QuoteMeta(stmt)).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "login"}).
				AddRow(1, "alice").
				AddRow(2, "bob"))
		_, err := One(ctx, c, q, scanPair)
		assert.ErrorIs(t, err, ErrTooManyRows)
	})
}

func TestMany(t *testing.T) {
	c, mock := mockConn(t, MySQL)
	q := Query{Table: "users", Columns: []string{"id", "login"}}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT t.`id`, t.`login` FROM `users` t")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "login"}).
			AddRow(1, "alice").
			AddRow(2, "bob"))
	out, err := Many(context.Background(), c, q, scanPair)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "bob", out[1][1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIterator(t *testing.T) {
	c, mock := mockConn(t, SQLite)
	q := Query{Table: "users", Columns: []string{"id", "login"}}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT t."id", t."login" FROM "users" t`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "login"}).
			AddRow(1, "alice").
			AddRow(2, "bob"))

	it, err := Iter(context.Background(), c, q, scanPair)
	require.NoError(t, err)

	var logins []string
	for it.Next() {
		logins = append(logins, it.Item()[1].(string))
	}
	require.NoError(t, it.Err())
	require.NoError(t, it.Close())
	assert.Equal(t, []string{"alice", "bob"}, logins)
}

func TestIteratorAll(t *testing.T) {
	c, mock := mockConn(t, SQLite)
	q := Query{Table: "users", Columns: []string{"id", "login"}}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT t."id", t."login" FROM "users" t`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "login"}).AddRow(1, "alice"))

	it, err := Iter(context.Background(), c, q, scanPair)
	require.NoError(t, err)
	out, err := it.All()
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		driver string
		want   Dialect
	}{
		{"mysql", MySQL},
		{"postgres", Postgres},
		{"pgx", Postgres},
		{"sqlite", SQLite},
		{"sqlite3", SQLite},
	}
	for _, tt := range tests {
		d, err := DialectFor(tt.driver)
		require.NoError(t, err, tt.driver)
		assert.Equal(t, tt.want, d)
	}
	_, err := DialectFor("oracle")
	assert.Error(t, err)
}
