package convert

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"mwb2dbm/internal/pgm"
	"mwb2dbm/internal/wb"
	"mwb2dbm/internal/xmltree"
)

// emitRelationships synthesizes a 1-to-many relationship per foreign
// key, after every table exists. Identifying relationships (those
// whose columns participate in a primary key) go first, since the
// destination resolves primary keys before anything referencing them.
func (c *Converter) emitRelationships(s *wb.Schema) error {
	fks := make([]*wb.ForeignKey, len(c.fks))
	copy(fks, c.fks)
	sort.SliceStable(fks, func(i, j int) bool {
		return fks[i].Primary && !fks[j].Primary
	})

	for _, fk := range fks {
		if fk.ReferencedTableID == "" {
			// Some foreign-key entries only back an index and carry no
			// referenced table; they are not relationships.
			log.Warn().
				Str("table", fk.Table.Name).
				Str("foreignKey", fk.Name).
				Msg("foreign key has no referenced table, skipping")
			continue
		}

		if !fk.Many {
			return fmt.Errorf("table %q foreign key %q: unsupported cardinality (only 1-to-many is supported)",
				fk.Table.Name, fk.Name)
		}
		if len(fk.Columns) != 1 {
			return fmt.Errorf("table %q foreign key %q: unsupported multi-column foreign key (%d columns)",
				fk.Table.Name, fk.Name, len(fk.Columns))
		}

		refTable := s.TableByID(fk.ReferencedTableID)
		if refTable == nil {
			return fmt.Errorf("table %q foreign key %q: referenced table %q not found",
				fk.Table.Name, fk.Name, fk.ReferencedTableID)
		}

		srcCol := fk.Columns[0]
		node := xmltree.Elem("relationship",
			xmltree.Attr{Name: "name", Value: fk.Name},
			xmltree.Attr{Name: "type", Value: "rel1n"},
			xmltree.Attr{Name: "layer", Value: "0"},
			xmltree.Attr{Name: "src-col-pattern", Value: srcCol.Name},
			xmltree.Attr{Name: "pk-pattern", Value: "{dt}_pk"},
			xmltree.Attr{Name: "uq-pattern", Value: "{dt}_uq"},
			xmltree.Attr{Name: "src-fk-pattern", Value: "{st}_fk"},
			xmltree.Attr{Name: "src-table", Value: pgm.Qualified(refTable.Name)},
			xmltree.Attr{Name: "dst-table", Value: pgm.Qualified(fk.Table.Name)},
			xmltree.Attr{Name: "src-required", Value: boolAttr(fk.Mandatory && srcCol.NotNull)},
			xmltree.Attr{Name: "dst-required", Value: "false"},
			xmltree.Attr{Name: "identifier", Value: boolAttr(fk.Primary)},
			xmltree.Attr{Name: "upd-action", Value: fk.UpdateRule},
			xmltree.Attr{Name: "del-action", Value: fk.DeleteRule},
		)

		label := xmltree.Elem("label", xmltree.Attr{Name: "ref-type", Value: "name-label"})
		label.Append(xmltree.Elem("position",
			xmltree.Attr{Name: "x", Value: "0"},
			xmltree.Attr{Name: "y", Value: "0"},
		))
		node.Append(label)

		c.root.Append(node)
	}

	return nil
}
