package compiler

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/splitkeeper/internal/ir"
)

// The unversioned JSON route format predates the version 2 schema. This
// file converts it and is not used when loading current documents.

type legacyRoute struct {
	Name         string          `json:"name"`
	TimeField    string          `json:"time_field"`
	ResetTrigger json.RawMessage `json:"reset_trigger"`
	LevelNames   []string        `json:"level_names"`
	Pieces       []legacyPiece   `json:"pieces"`
}

type legacyPiece struct {
	Type    string          `json:"type"`
	Name    string          `json:"name"`
	Pieces  []legacyPiece   `json:"pieces"`
	Trigger json.RawMessage `json:"trigger"`
}

// ImportLegacy converts an unversioned JSON route into a version 2 YAML
// document. Triggers given as strings become expression triggers, which
// must be allowed when the result is loaded; triggers given as objects
// become structured field triggers.
func ImportLegacy(data []byte) ([]byte, error) {
	var old legacyRoute
	if err := json.Unmarshal(data, &old); err != nil {
		return nil, &ir.FormatError{Message: "cannot parse legacy route", Err: err}
	}
	if _, hasVersion := probeVersion(data); hasVersion {
		return nil, &ir.FormatError{Message: "document is already versioned, nothing to import"}
	}

	doc := routeDoc{
		Version:    ir.RouteVersion,
		Name:       old.Name,
		TimeField:  old.TimeField,
		LevelNames: old.LevelNames,
	}

	if len(old.ResetTrigger) > 0 && string(old.ResetTrigger) != "null" {
		rt, err := legacyCondition(old.ResetTrigger)
		if err != nil {
			return nil, &ir.FormatError{Message: "reset_trigger", Err: err}
		}
		doc.ResetTrigger = &rt
	}

	pieces, err := convertLegacyPieces(old.Pieces, "pieces")
	if err != nil {
		return nil, err
	}
	doc.Pieces = pieces

	return yaml.Marshal(doc)
}

func probeVersion(data []byte) (int, bool) {
	var probe struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil || probe.Version == nil {
		return 0, false
	}
	return *probe.Version, true
}

func convertLegacyPieces(pieces []legacyPiece, field string) ([]pieceDoc, error) {
	out := make([]pieceDoc, 0, len(pieces))
	for i, p := range pieces {
		itemField := fmt.Sprintf("%s[%d]", field, i)
		switch p.Type {
		case "split":
			d := pieceDoc{Type: "split", Name: p.Name}
			if len(p.Pieces) > 0 {
				children, err := convertLegacyPieces(p.Pieces, itemField+".pieces")
				if err != nil {
					return nil, err
				}
				d.Pieces = children
			}
			out = append(out, d)
		case "trigger":
			d, err := legacyCondition(p.Trigger)
			if err != nil {
				return nil, &ir.FormatError{Message: itemField, Err: err}
			}
			d.Type = "trigger"
			d.Name = p.Name
			out = append(out, d)
		default:
			return nil, &ir.FormatError{Message: fmt.Sprintf("%s: unknown piece type %q", itemField, p.Type)}
		}
	}
	return out, nil
}

// legacyCondition accepts either an expression string or an object of
// field values. An "eval" key inside an object holds an expression.
func legacyCondition(raw json.RawMessage) (pieceDoc, error) {
	var expr string
	if err := json.Unmarshal(raw, &expr); err == nil {
		return pieceDoc{Expr: expr}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return pieceDoc{}, fmt.Errorf("trigger must be a string or an object")
	}

	d := pieceDoc{}
	if ev, ok := fields["eval"]; ok {
		if err := json.Unmarshal(ev, &d.Expr); err != nil {
			return pieceDoc{}, fmt.Errorf("eval must be a string")
		}
		delete(fields, "eval")
		if len(fields) > 0 {
			return pieceDoc{}, fmt.Errorf("eval cannot be combined with field values")
		}
		return d, nil
	}

	d.Fields = make(map[string]any, len(fields))
	for k, v := range fields {
		val, err := ir.UnmarshalIRValue(v)
		if err != nil {
			return pieceDoc{}, fmt.Errorf("field %q: %w", k, err)
		}
		d.Fields[k] = ir.ToAny(val)
	}
	return d, nil
}
