// Package xmltree provides a small ordered XML document model.
//
// Both the Workbench source document and the pgModeler destination
// document are attributed XML where element order and attribute order
// are meaningful, so the usual encoding/xml struct mapping does not
// fit. This package keeps everything as an explicit tree with
// insertion-ordered attributes and children, parsed from and
// serialized to bytes deterministically.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Attr is a single XML attribute.
type Attr struct {
	Name  string
	Value string
}

// Node is one XML element. Text is only meaningful for elements
// without children (mixed content is not supported).
type Node struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Node
}

// Elem creates a new element with the given attributes.
func Elem(tag string, attrs ...Attr) *Node {
	return &Node{Tag: tag, Attrs: attrs}
}

// Append adds children to the node and returns it.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the value of the named attribute, or def when absent.
func (n *Node) AttrOr(name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// SetAttr replaces the named attribute in place, or appends it.
func (n *Node) SetAttr(name, value string) {
	for i, a := range n.Attrs {
		if a.Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// RemoveAttr deletes the named attribute if present.
func (n *Node) RemoveAttr(name string) {
	for i, a := range n.Attrs {
		if a.Name == name {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			return
		}
	}
}

// Child returns the first child with the given tag, or nil.
func (n *Node) Child(tag string) *Node {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// InsertBefore inserts child immediately before marker. It reports
// whether marker was found among the node's children.
func (n *Node) InsertBefore(marker, child *Node) bool {
	for i, c := range n.Children {
		if c == marker {
			n.Children = append(n.Children, nil)
			copy(n.Children[i+1:], n.Children[i:])
			n.Children[i] = child
			return true
		}
	}
	return false
}

// Parse decodes a complete XML document into its root element.
func Parse(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var root *Node
	var stack []*Node
	var text strings.Builder

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xmltree: parse: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{Tag: t.Name.Local}
			for _, a := range t.Attr {
				node.Attrs = append(node.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("xmltree: parse: multiple root elements")
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
			text.Reset()

		case xml.EndElement:
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(node.Children) == 0 {
				node.Text = text.String()
			}
			text.Reset()

		case xml.CharData:
			if len(stack) > 0 {
				text.Write(t)
			}
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("xmltree: parse: unclosed element %q", stack[len(stack)-1].Tag)
	}
	if root == nil {
		return nil, fmt.Errorf("xmltree: parse: no root element")
	}
	return root, nil
}

// Serialize renders the document with an XML declaration and stable
// two-space indentation. Text content is emitted verbatim (escaped),
// never re-indented, so embedded SQL bodies survive untouched.
func Serialize(root *Node) []byte {
	var b bytes.Buffer
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	writeNode(&b, root, 0)
	return b.Bytes()
}

func writeNode(b *bytes.Buffer, n *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, a := range n.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(escapeAttr(a.Value))
		b.WriteByte('"')
	}

	switch {
	case len(n.Children) > 0:
		b.WriteString(">\n")
		for _, c := range n.Children {
			writeNode(b, c, depth+1)
		}
		b.WriteString(indent)
		b.WriteString("</")
		b.WriteString(n.Tag)
		b.WriteString(">\n")
	case n.Text != "":
		b.WriteByte('>')
		b.WriteString(escapeText(n.Text))
		b.WriteString("</")
		b.WriteString(n.Tag)
		b.WriteString(">\n")
	default:
		b.WriteString("/>\n")
	}
}

var (
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

func escapeAttr(s string) string { return attrEscaper.Replace(s) }
func escapeText(s string) string { return textEscaper.Replace(s) }
