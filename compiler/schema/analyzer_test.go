package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usersRolesSchema() *Schema {
	users := &Table{
		Name: "users",
		Columns: []*Column{
			{Name: "id", Type: TypeInt64, AutoIncrement: true},
			{Name: "login", Type: TypeString},
		},
		Indexes: []*Index{{Name: "users_pk", Columns: []string{"id"}, Unique: true, Primary: true}},
	}
	roles := &Table{
		Name: "roles",
		Columns: []*Column{
			{Name: "id", Type: TypeInt64, AutoIncrement: true},
			{Name: "name", Type: TypeString},
		},
		Indexes: []*Index{{Name: "roles_pk", Columns: []string{"id"}, Unique: true, Primary: true}},
	}
	usersRoles := &Table{
		Name: "users_roles",
		Columns: []*Column{
			{Name: "user_id", Type: TypeInt64},
			{Name: "role_id", Type: TypeInt64},
		},
		Indexes: []*Index{{Name: "users_roles_pk", Columns: []string{"user_id", "role_id"}, Unique: true, Primary: true}},
		ForeignKeys: []*ForeignKey{
			{Name: "ur_user", Columns: []string{"user_id"}, RefTable: "users", RefColumns: []string{"id"}},
			{Name: "ur_role", Columns: []string{"role_id"}, RefTable: "roles", RefColumns: []string{"id"}},
		},
	}
	admins := &Table{
		Name: "admins",
		Columns: []*Column{
			{Name: "user_id", Type: TypeInt64},
			{Name: "level", Type: TypeInt},
		},
		Indexes: []*Index{{Name: "admins_pk", Columns: []string{"user_id"}, Unique: true, Primary: true}},
		ForeignKeys: []*ForeignKey{
			{Name: "admins_user", Columns: []string{"user_id"}, RefTable: "users", RefColumns: []string{"id"}},
		},
	}
	return New("test", users, roles, usersRoles, admins)
}

func TestJunctionTableDetection(t *testing.T) {
	a := NewAnalyzer(usersRolesSchema())
	assert.True(t, a.IsJunctionTable("users_roles"))
	assert.False(t, a.IsJunctionTable("users"))
	assert.False(t, a.IsJunctionTable("admins"))
	require.Len(t, a.JunctionTables(), 1)
	assert.Equal(t, "users_roles", a.JunctionTables()[0].Name)
}

func TestJunctionTableWithTechnicalKey(t *testing.T) {
	s := usersRolesSchema()
	ur, ok := s.Table("users_roles")
	require.True(t, ok)
	// A single auto-generated key column does not disqualify the table.
	ur.Columns = append([]*Column{{Name: "id", Type: TypeInt64, AutoIncrement: true}}, ur.Columns...)
	ur.Indexes = []*Index{{Name: "users_roles_pk", Columns: []string{"id"}, Unique: true, Primary: true}}
	assert.True(t, NewAnalyzer(s).IsJunctionTable("users_roles"))

	// A payload column does.
	ur.Columns = append(ur.Columns, &Column{Name: "granted_at", Type: TypeTime})
	assert.False(t, NewAnalyzer(s).IsJunctionTable("users_roles"))
}

func TestParentRelationship(t *testing.T) {
	a := NewAnalyzer(usersRolesSchema())
	fk := a.ParentRelationship("admins")
	require.NotNil(t, fk)
	assert.Equal(t, "users", fk.RefTable)
	assert.Nil(t, a.ParentRelationship("users"))
	// The junction table's keys cover only parts of its primary key.
	assert.Nil(t, a.ParentRelationship("users_roles"))
}

func TestParentRelationshipAmbiguous(t *testing.T) {
	s := usersRolesSchema()
	admins, ok := s.Table("admins")
	require.True(t, ok)
	admins.ForeignKeys = append(admins.ForeignKeys, &ForeignKey{
		Name: "admins_role", Columns: []string{"user_id"}, RefTable: "roles", RefColumns: []string{"id"},
	})
	// Two candidate links make the inheritance ambiguous.
	assert.Nil(t, NewAnalyzer(s).ParentRelationship("admins"))
}

func TestIncomingForeignKeys(t *testing.T) {
	a := NewAnalyzer(usersRolesSchema())
	// Junction constraints and the inheritance link are not incoming
	// relationships.
	assert.Empty(t, a.IncomingForeignKeys("users"))
	assert.Empty(t, a.IncomingForeignKeys("roles"))

	s := usersRolesSchema()
	posts := &Table{
		Name: "posts",
		Columns: []*Column{
			{Name: "id", Type: TypeInt64, AutoIncrement: true},
			{Name: "author_id", Type: TypeInt64},
		},
		Indexes: []*Index{{Name: "posts_pk", Columns: []string{"id"}, Unique: true, Primary: true}},
		ForeignKeys: []*ForeignKey{
			{Name: "posts_author", Columns: []string{"author_id"}, RefTable: "users", RefColumns: []string{"id"}},
		},
	}
	s.Tables = append(s.Tables, posts)
	in := NewAnalyzer(s).IncomingForeignKeys("users")
	require.Len(t, in, 1)
	assert.Equal(t, "posts", in[0].Table.Name)
	assert.Equal(t, "posts_author", in[0].ForeignKey.Name)
}
