package wb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mwb2dbm/internal/xmltree"
)

func mustParse(t *testing.T, doc string) *xmltree.Node {
	t.Helper()
	root, err := xmltree.Parse([]byte(doc))
	require.NoError(t, err)
	return root
}

func TestDecodeAttrs(t *testing.T) {
	el := mustParse(t, `<value type="object" id="c1">
  <value type="string" key="name">id</value>
  <value type="int" key="length">-1</value>
  <value type="int" key="isNotNull">1</value>
  <value type="real" key="left">12.5</value>
  <link type="object" key="simpleType">com.mysql.rdbms.mysql.datatype.int</link>
  <value type="list" key="flags">
    <value type="string">UNSIGNED</value>
  </value>
  <value type="string" key="comment"></value>
  <value type="string">keyless, skipped</value>
</value>`)

	attrs, err := decodeAttrs(el)
	require.NoError(t, err)

	name, err := attrs.str("name")
	require.NoError(t, err)
	assert.Equal(t, "id", name)

	length, err := attrs.integer("length")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), length)

	notNull, err := attrs.boolean("isNotNull")
	require.NoError(t, err)
	assert.True(t, notNull)

	left, err := attrs.float("left")
	require.NoError(t, err)
	assert.Equal(t, 12.5, left)

	assert.Equal(t, "com.mysql.rdbms.mysql.datatype.int", attrs.link("simpleType"))
	assert.True(t, attrs.has("flags"))

	// Empty string values decode as absent.
	assert.False(t, attrs.has("comment"))
	assert.Equal(t, "", attrs.optStr("comment"))
}

func TestDecodeAttrsDuplicateKey(t *testing.T) {
	el := mustParse(t, `<value type="object">
  <value type="string" key="name">a</value>
  <value type="string" key="name">b</value>
</value>`)

	_, err := decodeAttrs(el)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestDecodeAttrsUnsupportedType(t *testing.T) {
	el := mustParse(t, `<value type="object">
  <value type="blob" key="payload">AAAA</value>
</value>`)

	_, err := decodeAttrs(el)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedAttributeType)
}

func TestDecodeAttrsInvalidNumbers(t *testing.T) {
	el := mustParse(t, `<value type="object">
  <value type="int" key="length">abc</value>
</value>`)
	_, err := decodeAttrs(el)
	assert.Error(t, err)

	el = mustParse(t, `<value type="object">
  <value type="real" key="left">not-a-number</value>
</value>`)
	_, err = decodeAttrs(el)
	assert.Error(t, err)
}

func TestAttrSetMissingKey(t *testing.T) {
	el := mustParse(t, `<value type="object">
  <value type="string" key="name">x</value>
</value>`)

	attrs, err := decodeAttrs(el)
	require.NoError(t, err)

	_, err = attrs.str("nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, ok := attrs.optInt("nope")
	assert.False(t, ok)
	assert.Equal(t, "", attrs.link("nope"))
}
