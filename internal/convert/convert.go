// Package convert synthesizes a pgModeler model from a Workbench
// schema graph. One Converter carries the options and the run-scoped
// synthesis state (seen enum names, memoized domains, and the
// relationship/index/trigger elements held back until every table
// exists).
package convert

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"mwb2dbm/internal/pgm"
	"mwb2dbm/internal/triggercfg"
	"mwb2dbm/internal/wb"
	"mwb2dbm/internal/xmltree"
)

// Diagram positions are scaled from Workbench to pgModeler
// coordinates.
const (
	posScaleX = 1.8
	posScaleY = 1.2
)

// maxIdentLen is the destination's identifier length limit.
const maxIdentLen = 63

// layerShadeDelta darkens the layer color for the table title border.
const layerShadeDelta = -40

// ErrInvalidNumericSpec marks a contradictory length/precision/scale
// combination on a column.
var ErrInvalidNumericSpec = errors.New("invalid length/precision/scale combination")

// Options control the synthesis.
type Options struct {
	// PrefixIndexNames prepends the table name to index names that do
	// not already contain it.
	PrefixIndexNames bool
	// NoCitext disables the case-insensitive text conversion of
	// varchar/char columns.
	NoCitext bool
	// NoFKIndexes drops non-unique indexes composed entirely of
	// foreign-key columns.
	NoFKIndexes bool
	// Triggers is the optional trigger definition lookup. When nil,
	// source triggers are not converted.
	Triggers *triggercfg.Config
}

// Converter synthesizes one destination model per Convert call.
type Converter struct {
	opts Options

	root *xmltree.Node

	enums   map[string]struct{}
	domains map[string]struct{}

	// Held back for ordered emission after all tables exist.
	fks        []*wb.ForeignKey
	indexes    []*xmltree.Node
	tsFuncs    map[string]struct{}
	tsFuncList []*xmltree.Node
	tsTriggers []*xmltree.Node
	triggers   []*xmltree.Node

	warnedNoTriggerConfig bool
}

// New creates a converter with the given options.
func New(opts Options) *Converter {
	return &Converter{opts: opts}
}

// Convert builds the destination document. The emission order is
// load-bearing for the destination's own reader: enums, domains and
// tables first, then relationships, then indexes, then the timestamp
// emulation functions and triggers, then configured triggers.
func (c *Converter) Convert(s *wb.Schema) (*xmltree.Node, error) {
	c.root = pgm.NewModel(s.Name)
	c.enums = make(map[string]struct{})
	c.domains = make(map[string]struct{})
	c.fks = nil
	c.indexes = nil
	c.tsFuncs = make(map[string]struct{})
	c.tsFuncList = nil
	c.tsTriggers = nil
	c.triggers = nil
	c.warnedNoTriggerConfig = false

	if !c.opts.NoCitext {
		c.root.Append(pgm.CitextExtension())
	}

	if err := c.convertLayers(s.Diagram); err != nil {
		return nil, err
	}

	// Base domains emulating the unsigned integer types.
	for _, it := range []string{"smallint", "integer", "bigint"} {
		name := "u" + it
		c.domains[name] = struct{}{}
		c.root.Append(pgm.Domain(name, it, "ge0", "VALUE >= 0"))
	}

	for _, table := range s.Tables {
		if err := c.convertTable(s, table); err != nil {
			return nil, err
		}
	}

	if err := c.emitRelationships(s); err != nil {
		return nil, err
	}

	c.root.Append(c.indexes...)
	c.root.Append(c.tsFuncList...)
	c.root.Append(c.tsTriggers...)
	c.root.Append(c.triggers...)

	return c.root, nil
}

// convertLayers emits a textbox and a style tag per diagram layer. The
// tag's title colors come from the first table figure on the layer,
// with a darker shade for the border.
func (c *Converter) convertLayers(d *wb.Diagram) error {
	for _, layer := range d.Layers {
		firstFigure, err := d.FirstTableFigureForLayer(layer)
		if err != nil {
			return err
		}
		color, err := pgm.ParseColor(firstFigure.Color)
		if err != nil {
			return fmt.Errorf("layer %q: %w", layer.Name, err)
		}
		border := color.Shift(layerShadeDelta)

		textbox := xmltree.Elem("textbox",
			xmltree.Attr{Name: "name", Value: layer.Name},
			xmltree.Attr{Name: "layer", Value: "0"},
			xmltree.Attr{Name: "font-size", Value: "9"},
		)
		textbox.Append(xmltree.Elem("position",
			xmltree.Attr{Name: "x", Value: scalePos(layer.Left, posScaleX)},
			xmltree.Attr{Name: "y", Value: scalePos(layer.Top, posScaleY)},
		))
		comment := xmltree.Elem("comment")
		comment.Text = layer.Name
		textbox.Append(comment)
		c.root.Append(textbox)

		tag := xmltree.Elem("tag", xmltree.Attr{Name: "name", Value: strings.ToLower(layer.Name)})
		for _, id := range []string{"table-body", "table-ext-body"} {
			tag.Append(xmltree.Elem("style",
				xmltree.Attr{Name: "id", Value: id},
				xmltree.Attr{Name: "colors", Value: "#fcfcfc,#fcfcfc,#808080"},
			))
		}
		for _, id := range []string{"table-name", "table-schema-name"} {
			tag.Append(xmltree.Elem("style",
				xmltree.Attr{Name: "id", Value: id},
				xmltree.Attr{Name: "colors", Value: "#000000"},
			))
		}
		tag.Append(xmltree.Elem("style",
			xmltree.Attr{Name: "id", Value: "table-title"},
			xmltree.Attr{Name: "colors", Value: fmt.Sprintf("%s,%s,%s", color, color, border)},
		))
		tagComment := xmltree.Elem("comment")
		tagComment.Text = layer.Name
		tag.Append(tagComment)
		c.root.Append(tag)
	}
	return nil
}

func scalePos(v, scale float64) string {
	return strconv.Itoa(int(v * scale))
}

func warnUnsupported(table, column, what, value string) {
	log.Warn().
		Str("table", table).
		Str("column", column).
		Str(what, value).
		Msgf("unsupported %s", what)
}
