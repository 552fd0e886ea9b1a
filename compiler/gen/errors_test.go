package gen

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaIntegrityError(t *testing.T) {
	err := NewSchemaIntegrityError("orphans", "table has no primary key")
	assert.EqualError(t, err, "tdbm: schema integrity violation on table orphans: table has no primary key")
	assert.True(t, errors.Is(err, ErrSchemaIntegrity))
	assert.True(t, IsSchemaIntegrityError(err))
	assert.False(t, IsSchemaIntegrityError(errors.New("other")))
}

func TestNamingConflictError(t *testing.T) {
	err := NewNamingConflictError("users", "GetManager", []string{`column "manager"`, `constraint "users_manager"`})
	assert.EqualError(t, err,
		`tdbm: unsolvable naming conflict on table users: name "GetManager" claimed by column "manager", constraint "users_manager"`)
	assert.True(t, errors.Is(err, ErrNamingConflict))
	assert.True(t, IsNamingConflictError(err))
}

func TestUnsupportedShapeError(t *testing.T) {
	err := NewUnsupportedShapeError("reviews", "reviews_admin_idx", "admin_id", "finders resolve one hop only")
	assert.EqualError(t, err,
		"tdbm: unsupported schema shape on table reviews index reviews_admin_idx column admin_id: finders resolve one hop only")
	assert.True(t, errors.Is(err, ErrUnsupportedShape))
	assert.True(t, IsUnsupportedShapeError(err))

	// Still detectable through wrapping.
	wrapped := fmt.Errorf("resolving finders: %w", err)
	assert.True(t, IsUnsupportedShapeError(wrapped))
	assert.True(t, errors.Is(wrapped, ErrUnsupportedShape))
}

func TestGenerationError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewGenerationError("dao", "user_dao.go", "writing file", cause)
	assert.EqualError(t, err, "tdbm: generation error in phase dao (file: user_dao.go): writing file: disk full")
	assert.True(t, errors.Is(err, ErrGenerationFailed))
	assert.True(t, IsGenerationError(err))
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("Target", nil, "target directory cannot be empty")
	assert.EqualError(t, err, `tdbm: config error for "Target": target directory cannot be empty`)
	assert.True(t, errors.Is(err, ErrMissingConfig))

	withValue := NewConfigError("Workers", -1, "must be positive")
	assert.EqualError(t, withValue, `tdbm: config error for "Workers" (value: -1): must be positive`)

	_, cfgErr := NewConfig(WithPackage(""))
	require.Error(t, cfgErr)
	assert.True(t, errors.Is(cfgErr, ErrMissingConfig))
}
