package convert

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"mwb2dbm/internal/pgm"
	"mwb2dbm/internal/wb"
	"mwb2dbm/internal/xmltree"
)

// boolAliases are the user-type names mapped to a destination boolean.
var boolAliases = map[string]struct{}{
	"UBOOL":   {},
	"BOOLEAN": {},
	"BOOL":    {},
}

var identityTypes = map[string]struct{}{
	"smallint": {},
	"integer":  {},
	"bigint":   {},
}

// attrList is the ordered attribute set of the column's type element,
// assembled incrementally while the mapping decides on lengths and
// timezone flags.
type attrList []xmltree.Attr

func (al attrList) get(name string) (string, bool) {
	for _, a := range al {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (al *attrList) set(name, value string) {
	for i, a := range *al {
		if a.Name == name {
			(*al)[i].Value = value
			return
		}
	}
	*al = append(*al, xmltree.Attr{Name: name, Value: value})
}

func (al *attrList) remove(name string) {
	for i, a := range *al {
		if a.Name == name {
			*al = append((*al)[:i], (*al)[i+1:]...)
			return
		}
	}
}

// convertColumn emits one column element, plus any table-level check
// constraints the mapping requires. It may also synthesize enum types,
// precision domains and timestamp-emulation artifacts on the
// converter.
func (c *Converter) convertColumn(table *wb.Table, col *wb.Column, aiApplied *bool) (*xmltree.Node, []*xmltree.Node, error) {
	colNode := xmltree.Elem("column", xmltree.Attr{Name: "name", Value: col.Name})
	var constraints []*xmltree.Node

	typeAttrs := attrList{{Name: "length", Value: "0"}}
	flags := slices.Clone(col.Flags)

	if col.AutoIncrement {
		if *aiApplied {
			return nil, nil, fmt.Errorf("table %q: more than one auto-increment column (%q)", table.Name, col.Name)
		}
		*aiApplied = true
	}

	typeName, err := c.mapColumnType(table, col, &typeAttrs)
	if err != nil {
		return nil, nil, err
	}

	if col.NotNull {
		colNode.SetAttr("not-null", "true")
	}

	if col.AutoIncrement {
		if _, ok := identityTypes[typeName]; ok {
			colNode.SetAttr("identity-type", "ALWAYS")
			if table.HasAutoInc {
				colNode.SetAttr("start", strconv.FormatInt(table.NextAutoInc, 10))
			}
		}
	}

	if err := c.applyDefaultValue(table, col, typeName, colNode); err != nil {
		return nil, nil, err
	}

	typeName, err = c.applyNumericSpec(table, col, typeName, &typeAttrs, &flags)
	if err != nil {
		return nil, nil, err
	}

	typeName = c.applyFlags(table, col, typeName, flags, &constraints)

	// Unless disabled, bounded character types become case-insensitive
	// text with an explicit length check, since citext has no native
	// length limit.
	if !c.opts.NoCitext && (typeName == "varchar" || typeName == "char") {
		if _, ok := typeAttrs.get("precision"); ok {
			return nil, nil, fmt.Errorf("table %q column %q: character type with precision", table.Name, col.Name)
		}
		length, ok := typeAttrs.get("length")
		if !ok {
			return nil, nil, fmt.Errorf("table %q column %q: character type without length", table.Name, col.Name)
		}

		op := "<="
		if typeName == "char" {
			op = "="
		}
		constraints = append(constraints, pgm.CheckConstraint(
			table.Name+"_"+col.Name+"_len",
			table.Name,
			fmt.Sprintf("length(%s) %s %s", col.Name, op, length),
		))

		typeName = "citext"
		typeAttrs.remove("length")
	}

	typeNode := xmltree.Elem("type", xmltree.Attr{Name: "name", Value: typeName})
	typeNode.Attrs = append(typeNode.Attrs, typeAttrs...)
	colNode.Append(typeNode)

	if col.Comment != "" {
		comment := xmltree.Elem("comment")
		comment.Text = col.Comment
		colNode.Append(comment)
	}

	return colNode, constraints, nil
}

// mapColumnType translates the source type category into the
// destination base type, synthesizing enum types on the fly. Unknown
// categories degrade to smallint.
func (c *Converter) mapColumnType(table *wb.Table, col *wb.Column, typeAttrs *attrList) (string, error) {
	switch col.Type.Category {
	case "SMALLINT", "JSON", "DECIMAL", "VARCHAR", "BIGINT", "DATE", "CHAR":
		return strings.ToLower(col.Type.Category), nil
	case "INT":
		return "integer", nil
	case "TINYINT":
		if col.Type.Kind == wb.UserType {
			if _, ok := boolAliases[col.Type.Name]; ok {
				return "boolean", nil
			}
		}
		return "smallint", nil
	case "FLOAT":
		return "real", nil
	case "DOUBLE":
		return "double precision", nil
	case "TIMESTAMP", "DATETIME", "TIMESTAMP_F", "DATETIME_F":
		typeAttrs.set("with-timezone", "true")
		return "timestamp with time zone", nil
	case "TIME":
		typeAttrs.set("with-timezone", "true")
		return "time with time zone", nil
	case "TINYTEXT":
		typeAttrs.set("length", "255")
		return "varchar", nil
	case "TEXT":
		typeAttrs.set("length", "65535")
		return "varchar", nil
	case "MEDIUMTEXT", "LONGTEXT":
		return "text", nil
	case "ENUM":
		return c.synthesizeEnum(table, col)
	default:
		log.Warn().
			Str("table", table.Name).
			Str("column", col.Name).
			Str("type", col.Type.Category).
			Msg("unknown type, falling back to smallint")
		return "smallint", nil
	}
}

// synthesizeEnum emits a named enumeration type for the column and
// returns its qualified name. Name collisions within one run get a
// disambiguating ordinal.
func (c *Converter) synthesizeEnum(table *wb.Table, col *wb.Column) (string, error) {
	name := "enum_" + col.Name
	if _, taken := c.enums[name]; taken {
		name = fmt.Sprintf("enum_%d_%s", len(c.enums)+1, col.Name)
		if _, taken := c.enums[name]; taken {
			return "", fmt.Errorf("table %q column %q: enum type name %q still collides", table.Name, col.Name, name)
		}
	}
	c.enums[name] = struct{}{}

	values, err := wb.ParseEnumValues(col.ExplicitParams)
	if err != nil {
		return "", fmt.Errorf("table %q column %q: %w", table.Name, col.Name, err)
	}

	c.root.Append(pgm.EnumType(name, values))
	return "public." + name, nil
}

// applyDefaultValue normalizes the source default and sets it on the
// column. CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP additionally
// triggers the timestamp emulation.
func (c *Converter) applyDefaultValue(table *wb.Table, col *wb.Column, typeName string, colNode *xmltree.Node) error {
	dv := col.DefaultValue
	if dv == "" {
		if col.DefaultIsNull {
			warnUnsupported(table.Name, col.Name, "default", "NULL")
		}
		return nil
	}
	if col.DefaultIsNull {
		return fmt.Errorf("table %q column %q: default value %q contradicts defaultValueIsNull", table.Name, col.Name, dv)
	}

	switch {
	case dv == "1":
		if typeName == "boolean" {
			dv = "TRUE"
		}
	case dv == "0":
		if typeName == "boolean" {
			dv = "FALSE"
		}
	case dv == "TRUE", dv == "FALSE", dv == "CURRENT_TIMESTAMP":
	case strings.HasPrefix(dv, "'") && strings.HasSuffix(dv, "'"):
	case dv == "CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP":
		dv = "CURRENT_TIMESTAMP"
		c.ensureUpdateTimestampTrigger(table, col)
	default:
		warnUnsupported(table.Name, col.Name, "default", dv)
	}

	colNode.SetAttr("default-value", dv)
	return nil
}

// applyNumericSpec applies the mutually exclusive length / precision /
// scale policy. A bare precision becomes a memoized check-constrained
// domain, since the destination has no arbitrary-precision integers.
func (c *Converter) applyNumericSpec(table *wb.Table, col *wb.Column, typeName string, typeAttrs *attrList, flags *[]string) (string, error) {
	length, precision, scale := col.Length, col.Precision, col.Scale
	spec := func() error {
		return fmt.Errorf("table %q column %q: %w (length=%d precision=%d scale=%d)",
			table.Name, col.Name, ErrInvalidNumericSpec, length, precision, scale)
	}

	switch {
	case length > 0:
		if precision >= 0 || scale >= 0 {
			return "", spec()
		}
		if v, _ := typeAttrs.get("length"); v != "0" {
			return "", spec()
		}
		typeAttrs.set("length", strconv.FormatInt(length, 10))

	case precision > 0:
		if length >= 0 {
			return "", spec()
		}
		if scale < 0 {
			unsigned := slices.Contains(*flags, "UNSIGNED")
			name := typeName + strconv.FormatInt(precision, 10)
			if unsigned {
				name = "u" + name
			}
			if _, ok := c.domains[name]; !ok {
				minVal := "0"
				if !unsigned {
					minVal = "-" + strings.Repeat("9", int(precision))
				}
				maxVal := strings.Repeat("9", int(precision))
				c.root.Append(pgm.Domain(name, typeName,
					"range"+strconv.FormatInt(precision, 10),
					fmt.Sprintf("VALUE >= %s AND VALUE <= %s", minVal, maxVal)))
				c.domains[name] = struct{}{}
			}
			typeName = "public." + name
			if unsigned {
				// The domain already covers the unsigned range.
				*flags = slices.DeleteFunc(*flags, func(f string) bool { return f == "UNSIGNED" })
			}
		} else {
			if v, _ := typeAttrs.get("length"); v != "0" {
				return "", spec()
			}
			typeAttrs.set("length", strconv.FormatInt(precision, 10))
			typeAttrs.set("precision", strconv.FormatInt(scale, 10))
		}

	case scale > 0:
		return "", spec()
	}

	return typeName, nil
}

// applyFlags handles the remaining column flags. UNSIGNED on an
// integer type substitutes the matching unsigned domain; on any other
// type it becomes a >= 0 check constraint.
func (c *Converter) applyFlags(table *wb.Table, col *wb.Column, typeName string, flags []string, constraints *[]*xmltree.Node) string {
	for _, flag := range flags {
		if flag != "UNSIGNED" {
			warnUnsupported(table.Name, col.Name, "flag", flag)
			continue
		}

		if _, ok := identityTypes[typeName]; ok {
			if col.AutoIncrement {
				// Identity columns cannot use a domain type.
				log.Info().
					Str("table", table.Name).
					Str("column", col.Name).
					Msg("unsupported unsigned domain on identity column")
			} else {
				typeName = "public.u" + typeName
			}
		} else {
			*constraints = append(*constraints, pgm.CheckConstraint(
				table.Name+"_"+col.Name+"_ge0",
				table.Name,
				col.Name+" >= 0",
			))
		}
	}
	return typeName
}
