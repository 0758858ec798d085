package wb

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"mwb2dbm/internal/xmltree"
)

const (
	grtFormatVersion = "2.0"
	documentType     = "MySQL Workbench Model"

	documentStruct = "workbench.Document"
	modelStruct    = "workbench.physical.Model"
	schemaStruct   = "db.mysql.Schema"
	diagramStruct  = "workbench.physical.Diagram"
)

// BuildSchema validates the parsed GRT document and builds the schema
// graph from its first physical model.
func BuildSchema(root *xmltree.Node) (*Schema, error) {
	if v := root.AttrOr("grt_format", ""); v != grtFormatVersion {
		return nil, fmt.Errorf("%w: grt_format %q, want %q", ErrInvalidFileFormat, v, grtFormatVersion)
	}
	if v := root.AttrOr("document_type", ""); v != documentType {
		return nil, fmt.Errorf("%w: document_type %q, want %q", ErrInvalidFileFormat, v, documentType)
	}

	if len(root.Children) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidFileFormat)
	}
	document := root.Children[0]
	if document.Tag != "value" || document.AttrOr("struct-name", "") != documentStruct {
		return nil, fmt.Errorf("%w: first element is not a %s", ErrInvalidFileFormat, documentStruct)
	}

	modelsEl := findChildByKey(document, "physicalModels")
	if modelsEl == nil {
		return nil, fmt.Errorf("%w: missing physicalModels list", ErrInvalidFileFormat)
	}
	var models []*xmltree.Node
	for _, m := range modelsEl.Children {
		if m.AttrOr("struct-name", "") == modelStruct {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: no physical model", ErrInvalidFileFormat)
	}
	if len(models) > 1 {
		log.Info().Int("models", len(models)).Msg("multiple physical models, using the first")
	}

	return buildModel(models[0])
}

func buildModel(model *xmltree.Node) (*Schema, error) {
	catalog := findChildByKey(model, "catalog")
	if catalog == nil {
		return nil, fmt.Errorf("%w: model has no catalog", ErrInvalidFileFormat)
	}

	schemataEl := findChildByKey(catalog, "schemata")
	if schemataEl == nil {
		return nil, fmt.Errorf("%w: catalog has no schemata", ErrInvalidFileFormat)
	}
	var schemaEl *xmltree.Node
	for _, s := range schemataEl.Children {
		if s.AttrOr("struct-name", "") == schemaStruct {
			schemaEl = s
			break
		}
	}
	if schemaEl == nil {
		return nil, fmt.Errorf("%w: no %s in catalog", ErrInvalidFileFormat, schemaStruct)
	}

	schemaAttrs, err := decodeAttrs(schemaEl)
	if err != nil {
		return nil, err
	}
	name, err := schemaAttrs.str("name")
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	simpleTypesEl := findChildByKey(catalog, "simpleDatatypes")
	if simpleTypesEl == nil {
		return nil, fmt.Errorf("%w: catalog has no simpleDatatypes", ErrInvalidFileFormat)
	}
	userTypesEl := findChildByKey(catalog, "userDatatypes")
	if userTypesEl == nil {
		return nil, fmt.Errorf("%w: catalog has no userDatatypes", ErrInvalidFileFormat)
	}
	types, err := buildTypeCatalog(simpleTypesEl, userTypesEl)
	if err != nil {
		return nil, err
	}

	s := &Schema{Name: name, Types: types}

	tablesEl := findChildByKey(schemaEl, "tables")
	if tablesEl == nil || len(tablesEl.Children) == 0 {
		return nil, fmt.Errorf("%w: schema %q has no tables", ErrInvalidFileFormat, name)
	}
	for _, tableEl := range tablesEl.Children {
		t, err := newTable(tableEl, types)
		if err != nil {
			return nil, err
		}
		s.Tables = append(s.Tables, t)
	}

	// Views are carried for figure resolution only.
	if viewsEl := findChildByKey(schemaEl, "views"); viewsEl != nil {
		for _, viewEl := range viewsEl.Children {
			v, err := newView(viewEl)
			if err != nil {
				return nil, err
			}
			s.Views = append(s.Views, v)
		}
	}

	diagramsEl := findChildByKey(model, "diagrams")
	if diagramsEl == nil || len(diagramsEl.Children) == 0 {
		return nil, fmt.Errorf("%w: model has no diagrams", ErrInvalidFileFormat)
	}
	var diagrams []*Diagram
	for _, diagramEl := range diagramsEl.Children {
		if diagramEl.AttrOr("struct-name", "") != diagramStruct {
			return nil, fmt.Errorf("%w: unexpected diagram struct %q", ErrInvalidFileFormat, diagramEl.AttrOr("struct-name", ""))
		}
		d, err := newDiagram(diagramEl)
		if err != nil {
			return nil, err
		}
		diagrams = append(diagrams, d)
	}

	s.Diagram = diagrams[0]
	log.Info().Str("diagram", s.Diagram.Name).Msg("using diagram")

	return s, nil
}
