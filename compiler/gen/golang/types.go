package golang

import (
	"github.com/dave/jennifer/jen"

	"github.com/moufmouf/tdbm/compiler/gen"
	"github.com/moufmouf/tdbm/compiler/schema"
)

// baseType maps a normalized column type to its Go value type.
func baseType(t schema.Type) *jen.Statement {
	switch t {
	case schema.TypeString:
		return jen.String()
	case schema.TypeBytes:
		return jen.Index().Byte()
	case schema.TypeBool:
		return jen.Bool()
	case schema.TypeInt:
		return jen.Int()
	case schema.TypeInt64:
		return jen.Int64()
	case schema.TypeFloat64:
		return jen.Float64()
	case schema.TypeTime:
		return jen.Qual("time", "Time")
	case schema.TypeUUID:
		return jen.Qual("github.com/google/uuid", "UUID")
	case schema.TypeJSON:
		return jen.Qual("encoding/json", "RawMessage")
	}
	return jen.Any()
}

// naturallyNillable reports if the Go value type carries its own null
// state, so a nullable column needs no pointer wrapping.
func naturallyNillable(t schema.Type) bool {
	return t == schema.TypeBytes || t == schema.TypeJSON
}

// fieldType maps a column to the Go type of its bean field: the value
// type, pointer-wrapped when the column is nullable.
func fieldType(c *schema.Column) *jen.Statement {
	if c.Nullable && !naturallyNillable(c.Type) {
		return jen.Op("*").Add(baseType(c.Type))
	}
	return baseType(c.Type)
}

// propType maps a property to the Go type of its bean field.
func propType(p gen.Property) *jen.Statement {
	switch p := p.(type) {
	case *gen.ScalarProperty:
		return fieldType(p.Column)
	case *gen.ObjectProperty:
		return jen.Op("*").Id(p.Target.Name)
	}
	return jen.Any()
}

// scanType maps a column to the Go type of its row-scan variable. A
// nullable column scans through the matching Null wrapper.
func scanType(c *schema.Column) *jen.Statement {
	if !c.Nullable || naturallyNillable(c.Type) {
		return baseType(c.Type)
	}
	switch c.Type {
	case schema.TypeString:
		return jen.Qual("database/sql", "NullString")
	case schema.TypeBool:
		return jen.Qual("database/sql", "NullBool")
	case schema.TypeInt, schema.TypeInt64:
		return jen.Qual("database/sql", "NullInt64")
	case schema.TypeFloat64:
		return jen.Qual("database/sql", "NullFloat64")
	case schema.TypeTime:
		return jen.Qual("database/sql", "NullTime")
	case schema.TypeUUID:
		return jen.Qual("github.com/google/uuid", "NullUUID")
	}
	return baseType(c.Type)
}

// nullField returns the value field inside the Null wrapper matching a
// column type, and whether the wrapped value needs a narrowing cast.
func nullField(t schema.Type) (field string, narrow bool) {
	switch t {
	case schema.TypeString:
		return "String", false
	case schema.TypeBool:
		return "Bool", false
	case schema.TypeInt:
		return "Int64", true
	case schema.TypeInt64:
		return "Int64", false
	case schema.TypeFloat64:
		return "Float64", false
	case schema.TypeTime:
		return "Time", false
	case schema.TypeUUID:
		return "UUID", false
	}
	return "", false
}

// assignScan appends the statements converting a scanned variable into
// a bean-field assignment. dst is the field expression (e.g. b.Name).
func assignScan(g *jen.Group, dst func() *jen.Statement, c *schema.Column, tmp string) {
	if !c.Nullable || naturallyNillable(c.Type) {
		g.Add(dst()).Op("=").Id(tmp)
		return
	}
	field, narrow := nullField(c.Type)
	inner := jen.Id(tmp).Dot(field)
	var value *jen.Statement
	if narrow {
		value = baseType(c.Type).Call(inner)
	} else {
		value = inner
	}
	g.If(jen.Id(tmp).Dot("Valid")).Block(
		jen.Id("v").Op(":=").Add(value),
		dst().Op("=").Op("&").Id("v"),
	)
}

// scanValue returns the expression extracting the raw filter value from
// a scanned variable, for use in reference lookups.
func scanValue(c *schema.Column, tmp string) *jen.Statement {
	if !c.Nullable || naturallyNillable(c.Type) {
		return jen.Id(tmp)
	}
	field, _ := nullField(c.Type)
	return jen.Id(tmp).Dot(field)
}
