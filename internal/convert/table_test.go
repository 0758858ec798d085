package convert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mwb2dbm/internal/triggercfg"
	"mwb2dbm/internal/wb"
	"mwb2dbm/internal/xmltree"
)

// fkTablePair builds a parent/child pair where child.parent_id is owned
// by a foreign key to parent.
func fkTablePair(t *testing.T) (*wb.Table, *wb.Table, *wb.ForeignKey) {
	t.Helper()

	parent := wb.NewTable("t-parent", "users")
	parent.Columns = []*wb.Column{col("c-pid", "id", simpleType("INT"))}

	child := wb.NewTable("t-child", "orders")
	id := col("c-cid", "id", simpleType("INT"))
	parentID := col("c-ref", "user_id", simpleType("INT"))
	note := col("c-note", "note", simpleType("MEDIUMTEXT"))
	child.Columns = []*wb.Column{id, parentID, note}

	fk := &wb.ForeignKey{
		ID:                "fk1",
		Name:              "fk_orders_users",
		ReferencedTableID: parent.ID,
		Many:              true,
		Mandatory:         true,
		UpdateRule:        "NO ACTION",
		DeleteRule:        "CASCADE",
		Columns:           []*wb.Column{parentID},
		Table:             child,
	}
	require.NoError(t, child.RegisterForeignKeyColumn(parentID, fk))
	child.ForeignKeys = []*wb.ForeignKey{fk}

	return parent, child, fk
}

func TestConvertSkipsForeignKeyColumns(t *testing.T) {
	parent, child, _ := fkTablePair(t)

	root := convertOne(t, Options{}, parent, child)
	tnode := elemByName(t, root, "table", "orders")

	names := make([]string, 0, 2)
	for _, c := range elemsByTag(tnode, "column") {
		names = append(names, c.AttrOr("name", ""))
	}
	assert.Equal(t, []string{"id", "note"}, names)

	// The skipped column keeps its original position for the
	// destination's column ordering.
	customidxs := tnode.Child("customidxs")
	require.NotNil(t, customidxs)
	assert.Equal(t, "column", customidxs.AttrOr("object-type", ""))
	require.Len(t, customidxs.Children, 1)
	obj := customidxs.Children[0]
	assert.Equal(t, "user_id", obj.AttrOr("name", ""))
	assert.Equal(t, "1", obj.AttrOr("index", ""))
}

func TestConvertNoCustomIdxsWithoutForeignKeys(t *testing.T) {
	table := wb.NewTable("t1", "plain")
	table.Columns = []*wb.Column{col("c1", "v", simpleType("INT"))}

	root := convertOne(t, Options{}, table)

	assert.Nil(t, elemByName(t, root, "table", "plain").Child("customidxs"))
}

func TestConvertTablePositionAndTag(t *testing.T) {
	table := wb.NewTable("t1", "sales_facts")
	table.Columns = []*wb.Column{col("c1", "v", simpleType("INT"))}

	layer := &wb.Layer{ID: "l1", Name: "Sales", Left: 11, Top: 21}
	d := &wb.Diagram{
		Name: "main",
		Figures: []*wb.Figure{{
			ID:         "f1",
			StructName: wb.TableFigureStruct,
			TableID:    table.ID,
			LayerID:    layer.ID,
			Left:       101,
			Top:        61,
			Color:      "#98BFDA",
		}},
		Layers: []*wb.Layer{layer},
	}
	s := &wb.Schema{Name: "testdb", Tables: []*wb.Table{table}, Diagram: d}

	root, err := New(Options{}).Convert(s)
	require.NoError(t, err)

	// The layer becomes a textbox plus a style tag.
	textbox := elemByName(t, root, "textbox", "Sales")
	pos := textbox.Child("position")
	assert.Equal(t, "19", pos.AttrOr("x", ""))
	assert.Equal(t, "25", pos.AttrOr("y", ""))
	assert.Equal(t, "Sales", textbox.Child("comment").Text)

	tag := elemByName(t, root, "tag", "sales")
	var title *string
	for _, style := range elemsByTag(tag, "style") {
		if style.AttrOr("id", "") == "table-title" {
			v := style.AttrOr("colors", "")
			title = &v
		}
	}
	require.NotNil(t, title)
	assert.Equal(t, "#98BFDA,#98BFDA,#7097B2", *title)

	// Table positions are the figure offset by its layer, scaled.
	tnode := elemByName(t, root, "table", "sales_facts")
	assert.Equal(t, "sales", tnode.Child("tag").AttrOr("name", ""))
	pos = tnode.Child("position")
	assert.Equal(t, "201", pos.AttrOr("x", ""))
	assert.Equal(t, "98", pos.AttrOr("y", ""))
}

func TestConvertTableWithoutLayerSitsAtOrigin(t *testing.T) {
	table := wb.NewTable("t1", "floating")
	table.Columns = []*wb.Column{col("c1", "v", simpleType("INT"))}

	root := convertOne(t, Options{}, table)

	tnode := elemByName(t, root, "table", "floating")
	assert.Nil(t, tnode.Child("tag"))
	pos := tnode.Child("position")
	assert.Equal(t, "0", pos.AttrOr("x", ""))
	assert.Equal(t, "0", pos.AttrOr("y", ""))
}

func TestConvertConfiguredTriggers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triggers.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[triggers]
users_bi = "public.check_user()"
`), 0o644))
	cfg, err := triggercfg.Load(path)
	require.NoError(t, err)

	table := wb.NewTable("t1", "users")
	table.Columns = []*wb.Column{col("c1", "v", simpleType("INT"))}
	table.Triggers = []*wb.Trigger{
		{Name: "users_bi", Timing: "BEFORE", Event: "INSERT"},
		{Name: "users_unconfigured", Timing: "AFTER", Event: "DELETE"},
	}

	root := convertOne(t, Options{Triggers: cfg}, table)

	trigs := elemsByTag(root, "trigger")
	require.Len(t, trigs, 1)
	trig := trigs[0]
	assert.Equal(t, "users_bi", trig.AttrOr("name", ""))
	assert.Equal(t, "BEFORE", trig.AttrOr("firing-type", ""))
	assert.Equal(t, "true", trig.AttrOr("ins-event", ""))
	assert.Equal(t, "false", trig.AttrOr("upd-event", ""))
	assert.Equal(t, "public.users", trig.AttrOr("table", ""))
	assert.Equal(t, "public.check_user()", trig.Child("function").AttrOr("signature", ""))
}

func TestConvertTriggersWithoutConfig(t *testing.T) {
	table := wb.NewTable("t1", "users")
	table.Columns = []*wb.Column{col("c1", "v", simpleType("INT"))}
	table.Triggers = []*wb.Trigger{{Name: "users_bi", Timing: "BEFORE", Event: "INSERT"}}

	root := convertOne(t, Options{}, table)

	assert.Empty(t, elemsByTag(root, "trigger"))
}

func TestConvertDeterministic(t *testing.T) {
	build := func() *wb.Schema {
		parent, child, _ := fkTablePair(t)
		status := col("c-status", "status", simpleType("ENUM"))
		status.ExplicitParams = "('a','b')"
		child.Columns = append(child.Columns, status)
		return schemaWith(parent, child)
	}

	first, err := New(Options{}).Convert(build())
	require.NoError(t, err)
	second, err := New(Options{}).Convert(build())
	require.NoError(t, err)

	assert.Equal(t,
		string(xmltree.Serialize(first)),
		string(xmltree.Serialize(second)))
}
