package compiler

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/splitkeeper/internal/ir"
	"github.com/roach88/splitkeeper/internal/route"
)

// routeDoc is the YAML form written by Encode and ImportLegacy.
type routeDoc struct {
	Version      int        `yaml:"version"`
	Name         string     `yaml:"name"`
	TimeField    string     `yaml:"time_field"`
	LevelNames   []string   `yaml:"level_names,omitempty"`
	ResetTrigger *pieceDoc  `yaml:"reset_trigger,omitempty"`
	Pieces       []pieceDoc `yaml:"pieces"`
}

type pieceDoc struct {
	Type   string           `yaml:"type,omitempty"`
	Name   string           `yaml:"name,omitempty"`
	Names  []string         `yaml:"names,omitempty"`
	ID     string           `yaml:"id,omitempty"`
	Level  int              `yaml:"level,omitempty"`
	Fields map[string]any   `yaml:"fields,omitempty"`
	Below  map[string]int64 `yaml:"below,omitempty"`
	Expr   string           `yaml:"expr,omitempty"`
	Pieces []pieceDoc       `yaml:"pieces,omitempty"`
}

// Encode writes r as a version 2 YAML route document. Splits are written
// flat with explicit levels and identities, so Compile(Encode(r)) rebuilds
// the same pieces with the same split IDs.
func Encode(r *route.Route) ([]byte, error) {
	doc := routeDoc{
		Version:    ir.RouteVersion,
		Name:       r.Name,
		TimeField:  string(r.TimeField),
		LevelNames: r.LevelNames,
		Pieces:     make([]pieceDoc, 0, r.Len()),
	}
	if r.ResetTrigger != nil {
		rt := encodeTrigger(r.ResetTrigger)
		rt.Type = ""
		doc.ResetTrigger = &rt
	}

	for _, p := range r.Pieces() {
		switch piece := p.(type) {
		case *route.Split:
			doc.Pieces = append(doc.Pieces, pieceDoc{
				Type:  "split",
				Name:  piece.Name(),
				Names: piece.Names[1:],
				ID:    piece.ID.String(),
				Level: piece.Level,
			})
		case *route.Trigger:
			doc.Pieces = append(doc.Pieces, encodeTrigger(piece))
		case route.StartTimer:
			doc.Pieces = append(doc.Pieces, pieceDoc{Type: "start_timer"})
		default:
			return nil, fmt.Errorf("encode route: unknown piece type %T", p)
		}
	}

	return yaml.Marshal(doc)
}

func encodeTrigger(t *route.Trigger) pieceDoc {
	d := pieceDoc{Type: "trigger", Name: t.Name}
	if t.Condition.IsExpression() {
		d.Expr = t.Condition.Source
		return d
	}
	if len(t.Condition.Equals) > 0 {
		d.Fields = make(map[string]any, len(t.Condition.Equals))
		for k, v := range t.Condition.Equals {
			d.Fields[k] = ir.ToAny(v)
		}
	}
	if len(t.Condition.Below) > 0 {
		d.Below = t.Condition.Below
	}
	return d
}
