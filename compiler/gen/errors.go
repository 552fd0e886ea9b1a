// Package gen turns schema facts into a conflict-free, inheritance-aware
// model of bean and DAO classes, and drives its emission as Go source.
package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrSchemaIntegrity indicates a structural defect in the inspected
	// schema, e.g. a table without a primary key.
	ErrSchemaIntegrity = errors.New("tdbm: schema integrity violation")
	// ErrNamingConflict indicates that two members of a generated class
	// resolve to the same name even after alternative naming.
	ErrNamingConflict = errors.New("tdbm: unsolvable naming conflict")
	// ErrUnsupportedShape indicates a schema shape the generator does not
	// support, e.g. foreign-key chains deeper than one hop in finders.
	ErrUnsupportedShape = errors.New("tdbm: unsupported schema shape")
	// ErrGenerationFailed indicates a code emission failure.
	ErrGenerationFailed = errors.New("tdbm: code generation failed")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("tdbm: missing configuration")
)

// SchemaIntegrityError reports a structural defect in the inspected
// schema. It aborts the whole run.
type SchemaIntegrityError struct {
	Table   string
	Message string
}

// Error implements the error interface.
func (e *SchemaIntegrityError) Error() string {
	var b strings.Builder
	b.WriteString("tdbm: schema integrity violation")
	if e.Table != "" {
		b.WriteString(" on table ")
		b.WriteString(e.Table)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for SchemaIntegrityError.
func (e *SchemaIntegrityError) Is(target error) bool {
	return target == ErrSchemaIntegrity
}

// NewSchemaIntegrityError creates a new SchemaIntegrityError.
func NewSchemaIntegrityError(table, message string) *SchemaIntegrityError {
	return &SchemaIntegrityError{Table: table, Message: message}
}

// NamingConflictError reports that two or more properties or methods of
// one generated class resolve to an identical name even after the
// alternative-naming pass. It aborts the whole run.
type NamingConflictError struct {
	Table   string
	Name    string
	Members []string
}

// Error implements the error interface.
func (e *NamingConflictError) Error() string {
	var b strings.Builder
	b.WriteString("tdbm: unsolvable naming conflict")
	if e.Table != "" {
		b.WriteString(" on table ")
		b.WriteString(e.Table)
	}
	if e.Name != "" {
		fmt.Fprintf(&b, ": name %q claimed by %s", e.Name, strings.Join(e.Members, ", "))
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for NamingConflictError.
func (e *NamingConflictError) Is(target error) bool {
	return target == ErrNamingConflict
}

// NewNamingConflictError creates a new NamingConflictError.
func NewNamingConflictError(table, name string, members []string) *NamingConflictError {
	return &NamingConflictError{Table: table, Name: name, Members: members}
}

// UnsupportedShapeError reports a schema shape the generator does not
// support. It is surfaced per finder: the finder is skipped with a
// warning and the run continues.
type UnsupportedShapeError struct {
	Table   string
	Index   string
	Column  string
	Message string
}

// Error implements the error interface.
func (e *UnsupportedShapeError) Error() string {
	var b strings.Builder
	b.WriteString("tdbm: unsupported schema shape")
	if e.Table != "" {
		b.WriteString(" on table ")
		b.WriteString(e.Table)
	}
	if e.Index != "" {
		b.WriteString(" index ")
		b.WriteString(e.Index)
	}
	if e.Column != "" {
		b.WriteString(" column ")
		b.WriteString(e.Column)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for UnsupportedShapeError.
func (e *UnsupportedShapeError) Is(target error) bool {
	return target == ErrUnsupportedShape
}

// NewUnsupportedShapeError creates a new UnsupportedShapeError.
func NewUnsupportedShapeError(table, index, column, message string) *UnsupportedShapeError {
	return &UnsupportedShapeError{Table: table, Index: index, Column: column, Message: message}
}

// GenerationError reports a code emission failure.
type GenerationError struct {
	Phase   string // "bean", "dao", "factory"
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("tdbm: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error { return e.Cause }

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{Phase: phase, File: file, Message: message, Cause: cause}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("tdbm: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("tdbm: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: message}
}

// IsSchemaIntegrityError reports whether the error is a SchemaIntegrityError.
func IsSchemaIntegrityError(err error) bool {
	var e *SchemaIntegrityError
	return errors.As(err, &e)
}

// IsNamingConflictError reports whether the error is a NamingConflictError.
func IsNamingConflictError(err error) bool {
	var e *NamingConflictError
	return errors.As(err, &e)
}

// IsUnsupportedShapeError reports whether the error is an UnsupportedShapeError.
func IsUnsupportedShapeError(err error) bool {
	var e *UnsupportedShapeError
	return errors.As(err, &e)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var e *GenerationError
	return errors.As(err, &e)
}
