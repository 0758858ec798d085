package wb

import (
	"fmt"
	"regexp"
	"strings"

	"mwb2dbm/internal/xmltree"
)

// nativeTypeRE matches the fully qualified name of a Workbench native
// MySQL datatype, e.g. com.mysql.rdbms.mysql.datatype.varchar.
var nativeTypeRE = regexp.MustCompile(`^com\.mysql\.rdbms\.mysql\.datatype\.([a-z_]+)$`)

// TypeKind discriminates the two kinds of datatype declarations the
// catalog holds.
type TypeKind int

const (
	// SimpleType is a built-in type referenced directly by its native
	// name, which doubles as its identifier.
	SimpleType TypeKind = iota
	// UserType is a named alias resolving to exactly one simple type.
	UserType
)

// DataType is the normalized view of one catalog entry.
type DataType struct {
	ID         string
	Kind       TypeKind
	NativeName string // com.mysql.rdbms.mysql.datatype.<category>
	Category   string // upper-cased last segment, e.g. VARCHAR
	Name       string // symbolic name for user types (e.g. UBOOL)
}

// TypeCatalog indexes every datatype declared by the model.
type TypeCatalog struct {
	order []string
	byID  map[string]*DataType
}

// Lookup resolves a type identifier.
func (tc *TypeCatalog) Lookup(id string) (*DataType, bool) {
	dt, ok := tc.byID[id]
	return dt, ok
}

// Len returns the number of catalog entries.
func (tc *TypeCatalog) Len() int { return len(tc.order) }

func (tc *TypeCatalog) add(dt *DataType) error {
	if _, dup := tc.byID[dt.ID]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateTypeID, dt.ID)
	}
	tc.order = append(tc.order, dt.ID)
	tc.byID[dt.ID] = dt
	return nil
}

func categoryOf(nativeName string) (string, error) {
	m := nativeTypeRE.FindStringSubmatch(nativeName)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedNativeType, nativeName)
	}
	return strings.ToUpper(m[1]), nil
}

// buildTypeCatalog scans the catalog's simple-type links and user-type
// values, in that order.
func buildTypeCatalog(simpleTypes, userTypes *xmltree.Node) (*TypeCatalog, error) {
	tc := &TypeCatalog{byID: make(map[string]*DataType)}

	for _, st := range simpleTypes.Children {
		if st.Tag != "link" {
			continue
		}
		category, err := categoryOf(st.Text)
		if err != nil {
			return nil, err
		}
		if err := tc.add(&DataType{
			ID:         st.Text,
			Kind:       SimpleType,
			NativeName: st.Text,
			Category:   category,
		}); err != nil {
			return nil, err
		}
	}

	for _, ut := range userTypes.Children {
		if ut.Tag != "value" {
			continue
		}
		attrs, err := decodeAttrs(ut)
		if err != nil {
			return nil, fmt.Errorf("user type %q: %w", ut.AttrOr("id", ""), err)
		}
		actual := attrs.link("actualType")
		if actual == "" {
			return nil, fmt.Errorf("user type %q: missing actualType link", ut.AttrOr("id", ""))
		}
		category, err := categoryOf(actual)
		if err != nil {
			return nil, fmt.Errorf("user type %q: %w", ut.AttrOr("id", ""), err)
		}
		if err := tc.add(&DataType{
			ID:         ut.AttrOr("id", ""),
			Kind:       UserType,
			NativeName: actual,
			Category:   category,
			Name:       attrs.optStr("name"),
		}); err != nil {
			return nil, err
		}
	}

	return tc, nil
}
