// Package pgm builds pgModeler dbm documents: the model skeleton and
// the element shapes (domains, enum types, trigger functions, check
// constraints) the converter emits, plus loading and merging of
// hand-authored dbm fragments.
package pgm

import (
	"mwb2dbm/internal/xmltree"
)

const (
	// FormatVersion is the pgmodeler-ver the emitted model declares.
	FormatVersion = "0.9.2"
	// DefaultSchema and DefaultOwner qualify every emitted object.
	DefaultSchema = "public"
	DefaultOwner  = "postgres"
)

// Qualified prefixes an object name with the default schema.
func Qualified(name string) string {
	return DefaultSchema + "." + name
}

// SchemaRef returns a <schema name="public"/> reference element.
func SchemaRef() *xmltree.Node {
	return xmltree.Elem("schema", xmltree.Attr{Name: "name", Value: DefaultSchema})
}

// RoleRef returns a <role name="postgres"/> reference element.
func RoleRef() *xmltree.Node {
	return xmltree.Elem("role", xmltree.Attr{Name: "name", Value: DefaultOwner})
}

// NewModel creates the dbmodel root with its database and public
// schema children.
func NewModel(dbName string) *xmltree.Node {
	root := xmltree.Elem("dbmodel",
		xmltree.Attr{Name: "pgmodeler-ver", Value: FormatVersion},
		xmltree.Attr{Name: "last-position", Value: "0,0"},
		xmltree.Attr{Name: "last-zoom", Value: "1"},
		xmltree.Attr{Name: "max-obj-count", Value: "4"},
		xmltree.Attr{Name: "default-schema", Value: DefaultSchema},
		xmltree.Attr{Name: "default-owner", Value: DefaultOwner},
	)

	root.Append(xmltree.Elem("database",
		xmltree.Attr{Name: "name", Value: dbName},
		xmltree.Attr{Name: "is-template", Value: "false"},
		xmltree.Attr{Name: "allow-conns", Value: "true"},
	))
	root.Append(xmltree.Elem("schema",
		xmltree.Attr{Name: "name", Value: DefaultSchema},
		xmltree.Attr{Name: "layer", Value: "0"},
		xmltree.Attr{Name: "fill-color", Value: "#e1e1e1"},
		xmltree.Attr{Name: "sql-disabled", Value: "true"},
	))

	return root
}

// CitextExtension returns the citext extension declaration.
func CitextExtension() *xmltree.Node {
	ext := xmltree.Elem("extension",
		xmltree.Attr{Name: "name", Value: "citext"},
		xmltree.Attr{Name: "handles-type", Value: "true"},
	)
	ext.Append(SchemaRef())
	return ext
}

// Domain builds a named, check-constrained alias of a base type. The
// destination has no unsigned or arbitrary-precision integers, so they
// are emulated with domains.
func Domain(name, baseType, constraintName, constraintExpr string) *xmltree.Node {
	domain := xmltree.Elem("domain",
		xmltree.Attr{Name: "name", Value: name},
		xmltree.Attr{Name: "not-null", Value: "false"},
	)
	domain.Append(SchemaRef(), RoleRef())
	domain.Append(xmltree.Elem("type",
		xmltree.Attr{Name: "name", Value: baseType},
		xmltree.Attr{Name: "length", Value: "0"},
	))

	constraint := xmltree.Elem("constraint",
		xmltree.Attr{Name: "name", Value: constraintName},
		xmltree.Attr{Name: "type", Value: "check"},
	)
	expr := xmltree.Elem("expression")
	expr.Text = constraintExpr
	constraint.Append(expr)
	domain.Append(constraint)

	return domain
}

// EnumType builds a usertype element with an enumeration
// configuration.
func EnumType(name string, values []string) *xmltree.Node {
	ut := xmltree.Elem("usertype",
		xmltree.Attr{Name: "name", Value: name},
		xmltree.Attr{Name: "configuration", Value: "enumeration"},
	)
	ut.Append(SchemaRef(), RoleRef())

	joined := ""
	for i, v := range values {
		if i > 0 {
			joined += ","
		}
		joined += v
	}
	ut.Append(xmltree.Elem("enumeration", xmltree.Attr{Name: "values", Value: joined}))

	return ut
}

// CheckConstraint builds a table-level ck-constr element.
func CheckConstraint(name, table, expr string) *xmltree.Node {
	constraint := xmltree.Elem("constraint",
		xmltree.Attr{Name: "name", Value: name},
		xmltree.Attr{Name: "type", Value: "ck-constr"},
		xmltree.Attr{Name: "table", Value: Qualified(table)},
	)
	exprNode := xmltree.Elem("expression")
	exprNode.Text = expr
	constraint.Append(exprNode)
	return constraint
}

// UpdateTimestampFunction builds the plpgsql trigger function
// emulating ON UPDATE CURRENT_TIMESTAMP for one column name. Columns
// with the same name share the function across tables.
func UpdateTimestampFunction(funcName, colName string) *xmltree.Node {
	fn := xmltree.Elem("function",
		xmltree.Attr{Name: "name", Value: funcName},
		xmltree.Attr{Name: "window-func", Value: "false"},
		xmltree.Attr{Name: "returns-setof", Value: "false"},
		xmltree.Attr{Name: "behavior-type", Value: "CALLED ON NULL INPUT"},
		xmltree.Attr{Name: "function-type", Value: "VOLATILE"},
		xmltree.Attr{Name: "security-type", Value: "SECURITY INVOKER"},
		xmltree.Attr{Name: "execution-cost", Value: "1000"},
		xmltree.Attr{Name: "row-amount", Value: "0"},
	)
	fn.Append(SchemaRef(), RoleRef())

	comment := xmltree.Elem("comment")
	comment.Text = "ON UPDATE CURRENT TIMESTAMP equivalent for column " + colName
	fn.Append(comment)

	fn.Append(xmltree.Elem("language",
		xmltree.Attr{Name: "name", Value: "plpgsql"},
		xmltree.Attr{Name: "sql-disabled", Value: "true"},
	))

	returnType := xmltree.Elem("return-type")
	returnType.Append(xmltree.Elem("type",
		xmltree.Attr{Name: "name", Value: "trigger"},
		xmltree.Attr{Name: "length", Value: "0"},
	))
	fn.Append(returnType)

	definition := xmltree.Elem("definition")
	definition.Text = "BEGIN\n" +
		"    IF (NEW::varchar != OLD::varchar) THEN\n" +
		"        NEW." + colName + " = CURRENT_TIMESTAMP;\n" +
		"        RETURN NEW;\n" +
		"    END IF;\n" +
		"    RETURN OLD;\n" +
		"END;\n"
	fn.Append(definition)

	return fn
}
