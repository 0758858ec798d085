package wb

import (
	"fmt"

	"mwb2dbm/internal/xmltree"
)

// Workbench figure struct names the converter cares about.
const (
	TableFigureStruct = "workbench.physical.TableFigure"
	ViewFigureStruct  = "workbench.physical.ViewFigure"
)

// Figure is one diagram shape referencing a table or a view.
type Figure struct {
	ID         string
	StructName string
	Name       string
	TableID    string
	ViewID     string
	LayerID    string
	Left       float64
	Top        float64
	Color      string
}

// Layer is a named diagram region with a position.
type Layer struct {
	ID   string
	Name string
	Left float64
	Top  float64
}

// Diagram carries the visual placement data of one Workbench diagram.
type Diagram struct {
	Name    string
	Figures []*Figure
	Layers  []*Layer
}

// TableFigure returns the figure referencing the given table.
func (d *Diagram) TableFigure(t *Table) (*Figure, error) {
	for _, f := range d.Figures {
		if f.StructName == TableFigureStruct && f.TableID == t.ID {
			return f, nil
		}
	}
	return nil, fmt.Errorf("no figure for table %q", t.Name)
}

// ViewFigure returns the figure referencing the given view.
func (d *Diagram) ViewFigure(v *View) (*Figure, error) {
	for _, f := range d.Figures {
		if f.StructName == ViewFigureStruct && f.ViewID == v.ID {
			return f, nil
		}
	}
	return nil, fmt.Errorf("no figure for view %q", v.Name)
}

// FigureLayer returns the figure's layer, or nil when the figure is
// not placed on one.
func (d *Diagram) FigureLayer(f *Figure) *Layer {
	for _, l := range d.Layers {
		if l.ID == f.LayerID {
			return l
		}
	}
	return nil
}

// FirstTableFigureForLayer returns the first table figure placed on
// the layer. Layer styling derives its colors from it.
func (d *Diagram) FirstTableFigureForLayer(l *Layer) (*Figure, error) {
	for _, f := range d.Figures {
		if f.StructName != TableFigureStruct {
			continue
		}
		if d.FigureLayer(f) == l {
			return f, nil
		}
	}
	return nil, fmt.Errorf("layer %q has no table figure", l.Name)
}

func newFigure(el *xmltree.Node) (*Figure, error) {
	attrs, err := decodeAttrs(el)
	if err != nil {
		return nil, err
	}

	f := &Figure{
		ID:         el.AttrOr("id", ""),
		StructName: el.AttrOr("struct-name", ""),
		Name:       attrs.optStr("name"),
		TableID:    attrs.link("table"),
		ViewID:     attrs.link("view"),
		LayerID:    attrs.link("layer"),
		Color:      attrs.optStr("color"),
	}
	if f.Left, err = attrs.float("left"); err != nil {
		return nil, fmt.Errorf("figure %q: %w", f.ID, err)
	}
	if f.Top, err = attrs.float("top"); err != nil {
		return nil, fmt.Errorf("figure %q: %w", f.ID, err)
	}
	return f, nil
}

func newLayer(el *xmltree.Node) (*Layer, error) {
	attrs, err := decodeAttrs(el)
	if err != nil {
		return nil, err
	}

	name, err := attrs.str("name")
	if err != nil {
		return nil, err
	}
	l := &Layer{ID: el.AttrOr("id", ""), Name: name}
	if l.Left, err = attrs.float("left"); err != nil {
		return nil, fmt.Errorf("layer %q: %w", name, err)
	}
	if l.Top, err = attrs.float("top"); err != nil {
		return nil, fmt.Errorf("layer %q: %w", name, err)
	}
	return l, nil
}

func newDiagram(el *xmltree.Node) (*Diagram, error) {
	attrs, err := decodeAttrs(el)
	if err != nil {
		return nil, err
	}

	d := &Diagram{Name: attrs.optStr("name")}

	if findChildByKey(el, "connections") == nil {
		return nil, fmt.Errorf("diagram %q: missing connections list", d.Name)
	}
	figuresEl := findChildByKey(el, "figures")
	if figuresEl == nil {
		return nil, fmt.Errorf("diagram %q: missing figures list", d.Name)
	}
	layersEl := findChildByKey(el, "layers")
	if layersEl == nil {
		return nil, fmt.Errorf("diagram %q: missing layers list", d.Name)
	}

	for _, figEl := range figuresEl.Children {
		f, err := newFigure(figEl)
		if err != nil {
			return nil, fmt.Errorf("diagram %q: %w", d.Name, err)
		}
		d.Figures = append(d.Figures, f)
	}
	for _, layerEl := range layersEl.Children {
		l, err := newLayer(layerEl)
		if err != nil {
			return nil, fmt.Errorf("diagram %q: %w", d.Name, err)
		}
		d.Layers = append(d.Layers, l)
	}

	return d, nil
}
