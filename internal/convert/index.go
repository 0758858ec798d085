package convert

import (
	"fmt"
	"strings"

	"mwb2dbm/internal/pgm"
	"mwb2dbm/internal/wb"
	"mwb2dbm/internal/xmltree"
)

// convertIndexes turns the table's PRIMARY index into a pk constraint
// on the table element and queues the remaining indexes for emission
// after the relationships.
func (c *Converter) convertIndexes(table *wb.Table, tnode *xmltree.Node) error {
	for _, idx := range table.Indexes {
		// An index composed entirely of foreign-key columns is
		// superfluous: the relationship synthesis re-adds those
		// columns and indexes them itself.
		var ownColumns []*wb.IndexColumn
		for _, ic := range idx.Columns {
			if table.ForeignKeyOf(ic.Column) == nil {
				ownColumns = append(ownColumns, ic)
			}
		}

		keep := idx.Type == wb.IndexUnique
		if !c.opts.NoFKIndexes {
			keep = keep || idx.Type == wb.IndexPlain
		}
		if len(ownColumns) == 0 && !keep {
			continue
		}

		switch idx.Type {
		case wb.IndexPrimary:
			// Primary keys are implicitly indexed; only the
			// constraint is needed.
			names := make([]string, 0, len(ownColumns))
			for _, ic := range ownColumns {
				names = append(names, ic.Column.Name)
			}
			constraint := xmltree.Elem("constraint",
				xmltree.Attr{Name: "name", Value: table.Name + "_pk"},
				xmltree.Attr{Name: "type", Value: "pk-constr"},
				xmltree.Attr{Name: "table", Value: pgm.Qualified(table.Name)},
			)
			constraint.Append(xmltree.Elem("columns",
				xmltree.Attr{Name: "names", Value: strings.Join(names, ",")},
				xmltree.Attr{Name: "ref-type", Value: "src-columns"},
			))
			tnode.Append(constraint)

		case wb.IndexUnique, wb.IndexPlain:
			name, err := c.indexName(table, idx)
			if err != nil {
				return err
			}
			node := xmltree.Elem("index",
				xmltree.Attr{Name: "name", Value: name},
				xmltree.Attr{Name: "table", Value: pgm.Qualified(table.Name)},
				xmltree.Attr{Name: "concurrent", Value: "false"},
				xmltree.Attr{Name: "unique", Value: boolAttr(idx.Unique)},
				xmltree.Attr{Name: "fast-update", Value: "false"},
				xmltree.Attr{Name: "buffering", Value: "false"},
				xmltree.Attr{Name: "index-type", Value: "btree"},
				xmltree.Attr{Name: "factor", Value: "0"},
			)
			for _, ic := range idx.Columns {
				el := xmltree.Elem("idxelement",
					xmltree.Attr{Name: "use-sorting", Value: "true"},
					xmltree.Attr{Name: "nulls-first", Value: "false"},
					xmltree.Attr{Name: "asc-order", Value: boolAttr(!ic.Descend)},
				)
				el.Append(xmltree.Elem("column",
					xmltree.Attr{Name: "name", Value: ic.Column.Name}))
				node.Append(el)
			}
			c.indexes = append(c.indexes, node)

		default:
			return fmt.Errorf("table %q: unsupported index type %q", table.Name, idx.Type)
		}
	}

	return nil
}

// indexName prefixes the table name when requested and the index name
// does not already contain it, then fits the result into the
// identifier limit while preserving the _idx suffix.
func (c *Converter) indexName(table *wb.Table, idx *wb.Index) (string, error) {
	name := idx.Name
	if c.opts.PrefixIndexNames && !strings.Contains(name, table.Name) {
		name = table.Name + "_" + name
	}

	if len(name) > maxIdentLen {
		if !strings.HasSuffix(name, "_idx") {
			return "", fmt.Errorf("table %q: index name %q exceeds %d characters and has no _idx suffix to preserve",
				table.Name, name, maxIdentLen)
		}
		name = name[:maxIdentLen-len("_idx")] + "_idx"
	}

	return name, nil
}
