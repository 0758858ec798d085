package convert

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"mwb2dbm/internal/pgm"
	"mwb2dbm/internal/wb"
	"mwb2dbm/internal/xmltree"
)

// customIdx records the original position of a column skipped during
// emission, so the destination can restore the source column order.
type customIdx struct {
	pos  int
	name string
}

func (c *Converter) convertTable(s *wb.Schema, table *wb.Table) error {
	figure, err := s.Diagram.TableFigure(table)
	if err != nil {
		return err
	}
	layer := s.Diagram.FigureLayer(figure)

	tnode := xmltree.Elem("table",
		xmltree.Attr{Name: "name", Value: table.Name},
		xmltree.Attr{Name: "layer", Value: "0"},
		xmltree.Attr{Name: "collapse-mode", Value: "2"},
		xmltree.Attr{Name: "max-obj-count", Value: "0"},
	)
	tnode.Append(pgm.SchemaRef(), pgm.RoleRef())

	if layer != nil {
		tnode.Append(xmltree.Elem("tag",
			xmltree.Attr{Name: "name", Value: strings.ToLower(layer.Name)}))
	}

	// Figures without a layer sit at the origin.
	x, y := "0", "0"
	if layer != nil {
		x = scalePos(figure.Left+layer.Left, posScaleX)
		y = scalePos(figure.Top+layer.Top, posScaleY)
	}
	tnode.Append(xmltree.Elem("position",
		xmltree.Attr{Name: "x", Value: x},
		xmltree.Attr{Name: "y", Value: y},
	))

	var customIdxs []customIdx
	var colConstraints []*xmltree.Node
	aiApplied := false

	for pos, col := range table.Columns {
		// Foreign-key columns are regenerated by the relationship
		// synthesis; only their original position is kept.
		if table.ForeignKeyOf(col) != nil {
			customIdxs = append(customIdxs, customIdx{pos: pos, name: col.Name})
			continue
		}

		colNode, constraints, err := c.convertColumn(table, col, &aiApplied)
		if err != nil {
			return err
		}
		tnode.Append(colNode)
		colConstraints = append(colConstraints, constraints...)
	}

	tnode.Append(colConstraints...)

	// Enum types synthesized by the column pass must precede the
	// table in the document.
	c.root.Append(tnode)

	if err := c.convertIndexes(table, tnode); err != nil {
		return err
	}

	c.fks = append(c.fks, table.ForeignKeys...)

	if len(customIdxs) > 0 {
		idxNode := xmltree.Elem("customidxs",
			xmltree.Attr{Name: "object-type", Value: "column"})
		for _, ci := range customIdxs {
			idxNode.Append(xmltree.Elem("object",
				xmltree.Attr{Name: "name", Value: ci.name},
				xmltree.Attr{Name: "index", Value: strconv.Itoa(ci.pos)},
			))
		}
		tnode.Append(idxNode)
	}

	c.convertTriggers(table)

	return nil
}

// convertTriggers re-synthesizes the table's triggers from the trigger
// configuration. Triggers absent from the configuration are skipped.
func (c *Converter) convertTriggers(table *wb.Table) {
	if c.opts.Triggers == nil {
		if !c.warnedNoTriggerConfig {
			log.Warn().Msg("no trigger config file provided, skipping trigger generation")
			c.warnedNoTriggerConfig = true
		}
		return
	}

	for _, trig := range table.Triggers {
		signature, ok := c.opts.Triggers.Lookup(trig.Name)
		if !ok {
			log.Warn().Str("trigger", trig.Name).Msg("trigger not present in trigger config, skipping")
			continue
		}

		node := xmltree.Elem("trigger",
			xmltree.Attr{Name: "name", Value: trig.Name},
			xmltree.Attr{Name: "firing-type", Value: trig.Timing},
			xmltree.Attr{Name: "per-line", Value: "true"},
			xmltree.Attr{Name: "constraint", Value: "false"},
			xmltree.Attr{Name: "ins-event", Value: boolAttr(trig.Event == "INSERT")},
			xmltree.Attr{Name: "del-event", Value: boolAttr(trig.Event == "DELETE")},
			xmltree.Attr{Name: "upd-event", Value: boolAttr(trig.Event == "UPDATE")},
			xmltree.Attr{Name: "trunc-event", Value: "false"},
			xmltree.Attr{Name: "table", Value: pgm.Qualified(table.Name)},
		)
		node.Append(xmltree.Elem("function",
			xmltree.Attr{Name: "signature", Value: signature}))
		c.triggers = append(c.triggers, node)
	}
}

// ensureUpdateTimestampTrigger emulates ON UPDATE CURRENT_TIMESTAMP:
// one shared function per column name, one BEFORE UPDATE trigger per
// table.
func (c *Converter) ensureUpdateTimestampTrigger(table *wb.Table, col *wb.Column) {
	funcName := fmt.Sprintf("update_%s_on_update", col.Name)
	if _, ok := c.tsFuncs[funcName]; !ok {
		c.tsFuncs[funcName] = struct{}{}
		c.tsFuncList = append(c.tsFuncList, pgm.UpdateTimestampFunction(funcName, col.Name))
	}

	trigger := xmltree.Elem("trigger",
		xmltree.Attr{Name: "name", Value: table.Name + "_t_update_" + col.Name},
		xmltree.Attr{Name: "firing-type", Value: "BEFORE"},
		xmltree.Attr{Name: "per-line", Value: "true"},
		xmltree.Attr{Name: "constraint", Value: "false"},
		xmltree.Attr{Name: "ins-event", Value: "false"},
		xmltree.Attr{Name: "del-event", Value: "false"},
		xmltree.Attr{Name: "upd-event", Value: "true"},
		xmltree.Attr{Name: "trunc-event", Value: "false"},
		xmltree.Attr{Name: "table", Value: pgm.Qualified(table.Name)},
	)
	trigger.Append(xmltree.Elem("function",
		xmltree.Attr{Name: "signature", Value: pgm.Qualified(funcName) + "()"}))
	c.tsTriggers = append(c.tsTriggers, trigger)
}

func boolAttr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
