package wb

import (
	"fmt"
	"regexp"

	"mwb2dbm/internal/xmltree"
)

// Schema is the typed graph built from one physical model. It owns
// every entity for the duration of a single conversion run.
type Schema struct {
	Name    string
	Types   *TypeCatalog
	Tables  []*Table
	Views   []*View
	Diagram *Diagram
}

// TableByID resolves a table identifier.
func (s *Schema) TableByID(id string) *Table {
	for _, t := range s.Tables {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Column is one table column with its resolved datatype. Foreign-key
// ownership and index memberships are tracked by the owning Table, not
// on the column itself.
type Column struct {
	ID             string
	Name           string
	NotNull        bool
	AutoIncrement  bool
	DefaultValue   string
	DefaultIsNull  bool
	Length         int64
	Precision      int64
	Scale          int64
	ExplicitParams string
	Comment        string
	Flags          []string
	Type           *DataType
}

// IndexType is the Workbench index kind.
type IndexType string

const (
	IndexPrimary IndexType = "PRIMARY"
	IndexUnique  IndexType = "UNIQUE"
	IndexPlain   IndexType = "INDEX"
)

// IndexColumn is one column's membership in an index.
type IndexColumn struct {
	Index   *Index
	Column  *Column
	Descend bool
}

// Index is an ordered set of index columns.
type Index struct {
	ID      string
	Name    string
	Type    IndexType
	Unique  bool
	Columns []*IndexColumn
}

// ForeignKey is a Workbench foreign key. Entries without a referenced
// table are index backing artifacts, not true relationships.
type ForeignKey struct {
	ID                string
	Name              string
	ReferencedTableID string // "" when the entry is index-only
	Many              bool
	Mandatory         bool
	UpdateRule        string
	DeleteRule        string
	Columns           []*Column
	// Primary is true when any member column participates in a
	// PRIMARY index.
	Primary bool
	Table   *Table
}

// Trigger carries only what the converter needs; the procedure body is
// never transpiled, destination triggers are re-synthesized from the
// trigger configuration.
type Trigger struct {
	Name   string
	Timing string
	Event  string
}

// View is carried for figure resolution; views are not emitted.
type View struct {
	ID         string
	Name       string
	Comment    string
	Definition string
}

// Table owns its columns, indexes, foreign keys and triggers, plus the
// back-reference registries linking columns to the structures that use
// them.
type Table struct {
	ID          string
	Name        string
	NextAutoInc int64
	HasAutoInc  bool
	Columns     []*Column
	Indexes     []*Index
	ForeignKeys []*ForeignKey
	Triggers    []*Trigger

	fkOfColumn   map[string]*ForeignKey
	membershipOf map[string][]*IndexColumn
}

// NewTable creates an empty table with initialized registries.
func NewTable(id, name string) *Table {
	return &Table{
		ID:           id,
		Name:         name,
		fkOfColumn:   make(map[string]*ForeignKey),
		membershipOf: make(map[string][]*IndexColumn),
	}
}

// ColumnByID scans the table's columns for the given identifier.
func (t *Table) ColumnByID(id string) *Column {
	for _, c := range t.Columns {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// ForeignKeyOf returns the foreign key owning the column, or nil.
func (t *Table) ForeignKeyOf(c *Column) *ForeignKey {
	return t.fkOfColumn[c.ID]
}

// IndexMembershipsOf returns the index memberships of the column, in
// registration order.
func (t *Table) IndexMembershipsOf(c *Column) []*IndexColumn {
	return t.membershipOf[c.ID]
}

// RegisterForeignKeyColumn records that fk owns the column. A column
// belongs to at most one foreign key.
func (t *Table) RegisterForeignKeyColumn(c *Column, fk *ForeignKey) error {
	if prev, ok := t.fkOfColumn[c.ID]; ok {
		return fmt.Errorf("column %q already belongs to foreign key %q", c.Name, prev.Name)
	}
	t.fkOfColumn[c.ID] = fk
	return nil
}

// RegisterIndexColumn records the column's membership in an index. The
// same membership object must not be registered twice.
func (t *Table) RegisterIndexColumn(c *Column, ic *IndexColumn) error {
	for _, existing := range t.membershipOf[c.ID] {
		if existing == ic {
			return fmt.Errorf("column %q: index membership registered twice", c.Name)
		}
	}
	t.membershipOf[c.ID] = append(t.membershipOf[c.ID], ic)
	return nil
}

func findChildByKey(el *xmltree.Node, key string) *xmltree.Node {
	for _, c := range el.Children {
		if (c.Tag == "value" || c.Tag == "link") && c.AttrOr("key", "") == key {
			return c
		}
	}
	return nil
}

func newColumn(el *xmltree.Node, types *TypeCatalog) (*Column, error) {
	attrs, err := decodeAttrs(el)
	if err != nil {
		return nil, err
	}

	name, err := attrs.str("name")
	if err != nil {
		return nil, err
	}

	col := &Column{
		ID:   el.AttrOr("id", ""),
		Name: name,
	}

	if col.NotNull, err = attrs.boolean("isNotNull"); err != nil {
		return nil, fmt.Errorf("column %q: %w", name, err)
	}
	if col.AutoIncrement, err = attrs.boolean("autoIncrement"); err != nil {
		return nil, fmt.Errorf("column %q: %w", name, err)
	}
	if col.DefaultIsNull, err = attrs.boolean("defaultValueIsNull"); err != nil {
		return nil, fmt.Errorf("column %q: %w", name, err)
	}
	if col.Length, err = attrs.integer("length"); err != nil {
		return nil, fmt.Errorf("column %q: %w", name, err)
	}
	if col.Precision, err = attrs.integer("precision"); err != nil {
		return nil, fmt.Errorf("column %q: %w", name, err)
	}
	if col.Scale, err = attrs.integer("scale"); err != nil {
		return nil, fmt.Errorf("column %q: %w", name, err)
	}
	col.DefaultValue = attrs.optStr("defaultValue")
	col.ExplicitParams = attrs.optStr("datatypeExplicitParams")
	col.Comment = attrs.optStr("comment")

	flagsEl := findChildByKey(el, "flags")
	if flagsEl == nil {
		return nil, fmt.Errorf("column %q: missing flags list", name)
	}
	for _, f := range flagsEl.Children {
		col.Flags = append(col.Flags, f.Text)
	}

	// Every column carries exactly one of a userType or a simpleType
	// link.
	userType := attrs.link("userType")
	simpleType := attrs.link("simpleType")
	switch {
	case userType == "" && simpleType == "":
		return nil, fmt.Errorf("column %q: neither userType nor simpleType", name)
	case userType != "" && simpleType != "":
		return nil, fmt.Errorf("column %q: both userType and simpleType", name)
	}
	typeID := userType
	if typeID == "" {
		typeID = simpleType
	}
	dt, ok := types.Lookup(typeID)
	if !ok {
		return nil, fmt.Errorf("column %q: unknown type id %q", name, typeID)
	}
	col.Type = dt

	return col, nil
}

func newIndex(el *xmltree.Node, t *Table) (*Index, error) {
	attrs, err := decodeAttrs(el)
	if err != nil {
		return nil, err
	}

	name, err := attrs.str("name")
	if err != nil {
		return nil, err
	}
	indexType, err := attrs.str("indexType")
	if err != nil {
		return nil, fmt.Errorf("index %q: %w", name, err)
	}

	idx := &Index{
		ID:   el.AttrOr("id", ""),
		Name: name,
		Type: IndexType(indexType),
	}
	switch idx.Type {
	case IndexPrimary, IndexUnique, IndexPlain:
	default:
		return nil, fmt.Errorf("index %q: unknown index type %q", name, indexType)
	}

	isPrimary, err := attrs.boolean("isPrimary")
	if err != nil {
		return nil, fmt.Errorf("index %q: %w", name, err)
	}
	if isPrimary != (idx.Type == IndexPrimary) {
		return nil, fmt.Errorf("index %q: isPrimary flag contradicts index type %q", name, indexType)
	}
	if idx.Unique, err = attrs.boolean("unique"); err != nil {
		return nil, fmt.Errorf("index %q: %w", name, err)
	}

	columnsEl := findChildByKey(el, "columns")
	if columnsEl == nil || len(columnsEl.Children) == 0 {
		return nil, fmt.Errorf("index %q: empty column list", name)
	}
	for _, icEl := range columnsEl.Children {
		ic, err := newIndexColumn(icEl, idx, t)
		if err != nil {
			return nil, fmt.Errorf("index %q: %w", name, err)
		}
		idx.Columns = append(idx.Columns, ic)
	}

	return idx, nil
}

func newIndexColumn(el *xmltree.Node, idx *Index, t *Table) (*IndexColumn, error) {
	attrs, err := decodeAttrs(el)
	if err != nil {
		return nil, err
	}

	ref := attrs.link("referencedColumn")
	col := t.ColumnByID(ref)
	if col == nil {
		return nil, fmt.Errorf("%w: referenced column %q", ErrColumnNotFound, ref)
	}
	descend, err := attrs.boolean("descend")
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", col.Name, err)
	}

	ic := &IndexColumn{Index: idx, Column: col, Descend: descend}
	if err := t.RegisterIndexColumn(col, ic); err != nil {
		return nil, err
	}
	return ic, nil
}

func newForeignKey(el *xmltree.Node, t *Table) (*ForeignKey, error) {
	attrs, err := decodeAttrs(el)
	if err != nil {
		return nil, err
	}

	name, err := attrs.str("name")
	if err != nil {
		return nil, err
	}

	fk := &ForeignKey{
		ID:                el.AttrOr("id", ""),
		Name:              name,
		Table:             t,
		ReferencedTableID: attrs.link("referencedTable"),
		UpdateRule:        attrs.optStr("updateRule"),
		DeleteRule:        attrs.optStr("deleteRule"),
	}
	if fk.Many, err = attrs.boolean("many"); err != nil {
		return nil, fmt.Errorf("foreign key %q: %w", name, err)
	}
	if fk.Mandatory, err = attrs.boolean("mandatory"); err != nil {
		return nil, fmt.Errorf("foreign key %q: %w", name, err)
	}

	columnsEl := findChildByKey(el, "columns")
	if columnsEl == nil {
		return nil, fmt.Errorf("foreign key %q: missing column list", name)
	}
	for _, colRef := range columnsEl.Children {
		col := t.ColumnByID(colRef.Text)
		if col == nil {
			return nil, fmt.Errorf("foreign key %q: %w: %q", name, ErrColumnNotFound, colRef.Text)
		}
		if err := t.RegisterForeignKeyColumn(col, fk); err != nil {
			return nil, fmt.Errorf("foreign key %q: %w", name, err)
		}
		fk.Columns = append(fk.Columns, col)

		for _, ic := range t.IndexMembershipsOf(col) {
			if ic.Index.Type == IndexPrimary {
				fk.Primary = true
			}
		}
	}

	return fk, nil
}

func newTrigger(el *xmltree.Node) (*Trigger, error) {
	attrs, err := decodeAttrs(el)
	if err != nil {
		return nil, err
	}

	name, err := attrs.str("name")
	if err != nil {
		return nil, err
	}
	timing, err := attrs.str("timing")
	if err != nil {
		return nil, fmt.Errorf("trigger %q: %w", name, err)
	}
	event, err := attrs.str("event")
	if err != nil {
		return nil, fmt.Errorf("trigger %q: %w", name, err)
	}

	return &Trigger{Name: name, Timing: timing, Event: event}, nil
}

func newTable(el *xmltree.Node, types *TypeCatalog) (*Table, error) {
	attrs, err := decodeAttrs(el)
	if err != nil {
		return nil, err
	}

	name, err := attrs.str("name")
	if err != nil {
		return nil, err
	}

	t := NewTable(el.AttrOr("id", ""), name)
	t.NextAutoInc, t.HasAutoInc = attrs.optInt("nextAutoInc")

	columnsEl := findChildByKey(el, "columns")
	if columnsEl == nil || len(columnsEl.Children) == 0 {
		return nil, fmt.Errorf("table %q: no columns", name)
	}
	for _, colEl := range columnsEl.Children {
		col, err := newColumn(colEl, types)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", name, err)
		}
		t.Columns = append(t.Columns, col)
	}

	indicesEl := findChildByKey(el, "indices")
	if indicesEl == nil || len(indicesEl.Children) == 0 {
		return nil, fmt.Errorf("table %q: no indices", name)
	}
	for _, idxEl := range indicesEl.Children {
		idx, err := newIndex(idxEl, t)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", name, err)
		}
		t.Indexes = append(t.Indexes, idx)
	}

	fksEl := findChildByKey(el, "foreignKeys")
	if fksEl == nil {
		return nil, fmt.Errorf("table %q: missing foreignKeys list", name)
	}
	for _, fkEl := range fksEl.Children {
		fk, err := newForeignKey(fkEl, t)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", name, err)
		}
		t.ForeignKeys = append(t.ForeignKeys, fk)
	}

	triggersEl := findChildByKey(el, "triggers")
	if triggersEl == nil {
		return nil, fmt.Errorf("table %q: missing triggers list", name)
	}
	for _, trigEl := range triggersEl.Children {
		trig, err := newTrigger(trigEl)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", name, err)
		}
		t.Triggers = append(t.Triggers, trig)
	}

	return t, nil
}

// viewCleanRE strips the "CREATE VIEW <name> AS" preamble Workbench
// stores in view definitions.
var viewCleanRE = regexp.MustCompile("(CREATE VIEW [\\x{0080}-\\x{FFFF}]+ AS)|(CREATE VIEW [`\"]+[0-9a-zA-Z$_]+[`\"]+ AS)")

func newView(el *xmltree.Node) (*View, error) {
	attrs, err := decodeAttrs(el)
	if err != nil {
		return nil, err
	}

	name, err := attrs.str("name")
	if err != nil {
		return nil, err
	}

	return &View{
		ID:         el.AttrOr("id", ""),
		Name:       name,
		Comment:    attrs.optStr("comment"),
		Definition: viewCleanRE.ReplaceAllString(attrs.optStr("sqlDefinition"), ""),
	}, nil
}
