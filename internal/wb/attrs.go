// Package wb reads MySQL Workbench model documents: the zip container,
// the attributed GRT XML inside it, the datatype catalog, and the
// schema graph (tables, columns, indexes, foreign keys, triggers,
// views and the diagram) that the converter consumes.
package wb

import (
	"fmt"
	"strconv"

	"mwb2dbm/internal/xmltree"
)

// attrKind discriminates the decoded value of one GRT attribute.
type attrKind int

const (
	kindString attrKind = iota
	kindInt
	kindReal
	kindLink
	// kindContainer marks list/dict attributes. Their contents are
	// never decoded; only the key's presence is observable.
	kindContainer
)

type attrValue struct {
	kind attrKind
	str  string
	num  int64
	real float64
}

// attrSet is the ordered key → typed value mapping decoded from one
// GRT element's direct value/link children.
type attrSet struct {
	keys []string
	vals map[string]attrValue
}

// decodeAttrs reads the direct value/link children of el. Children
// without both a key and a type attribute are skipped; a duplicate key
// or an unrecognized type attribute is fatal. An empty string or link
// value is treated as absent.
func decodeAttrs(el *xmltree.Node) (*attrSet, error) {
	as := &attrSet{vals: make(map[string]attrValue)}

	for _, child := range el.Children {
		if child.Tag != "value" && child.Tag != "link" {
			continue
		}
		key, ok := child.Attr("key")
		if !ok {
			continue
		}
		typ, ok := child.Attr("type")
		if !ok {
			continue
		}

		if _, seen := as.vals[key]; seen {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, key)
		}

		text := child.Text
		var val attrValue
		switch typ {
		case "string":
			if text == "" {
				continue
			}
			val = attrValue{kind: kindString, str: text}
		case "int":
			n, err := strconv.ParseInt(text, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("attribute %q: invalid int %q", key, text)
			}
			val = attrValue{kind: kindInt, num: n}
		case "real":
			f, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("attribute %q: invalid real %q", key, text)
			}
			val = attrValue{kind: kindReal, real: f}
		case "object":
			if text == "" {
				continue
			}
			val = attrValue{kind: kindLink, str: text}
		case "list", "dict":
			val = attrValue{kind: kindContainer}
		default:
			return nil, fmt.Errorf("%w: %q on key %q", ErrUnsupportedAttributeType, typ, key)
		}

		as.keys = append(as.keys, key)
		as.vals[key] = val
	}

	return as, nil
}

func (as *attrSet) has(key string) bool {
	_, ok := as.vals[key]
	return ok
}

func (as *attrSet) get(key string) (attrValue, error) {
	v, ok := as.vals[key]
	if !ok {
		return attrValue{}, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return v, nil
}

func (as *attrSet) str(key string) (string, error) {
	v, err := as.get(key)
	if err != nil {
		return "", err
	}
	if v.kind != kindString {
		return "", fmt.Errorf("attribute %q: not a string", key)
	}
	return v.str, nil
}

// optStr returns the string value, or "" when the key is absent.
func (as *attrSet) optStr(key string) string {
	if v, ok := as.vals[key]; ok && v.kind == kindString {
		return v.str
	}
	return ""
}

func (as *attrSet) integer(key string) (int64, error) {
	v, err := as.get(key)
	if err != nil {
		return 0, err
	}
	if v.kind != kindInt {
		return 0, fmt.Errorf("attribute %q: not an int", key)
	}
	return v.num, nil
}

// optInt returns the int value and whether the key was present.
func (as *attrSet) optInt(key string) (int64, bool) {
	v, ok := as.vals[key]
	if !ok || v.kind != kindInt {
		return 0, false
	}
	return v.num, true
}

// boolean decodes a GRT boolean-as-int attribute.
func (as *attrSet) boolean(key string) (bool, error) {
	n, err := as.integer(key)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

// float accepts both int and real attributes; diagram coordinates come
// in either flavor depending on the Workbench version.
func (as *attrSet) float(key string) (float64, error) {
	v, err := as.get(key)
	if err != nil {
		return 0, err
	}
	switch v.kind {
	case kindInt:
		return float64(v.num), nil
	case kindReal:
		return v.real, nil
	default:
		return 0, fmt.Errorf("attribute %q: not a number", key)
	}
}

// link returns the referenced object id, or "" when the key is absent.
// Resolution of the id is the caller's job.
func (as *attrSet) link(key string) string {
	if v, ok := as.vals[key]; ok && v.kind == kindLink {
		return v.str
	}
	return ""
}
