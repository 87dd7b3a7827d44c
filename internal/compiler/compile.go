package compiler

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
	"github.com/google/uuid"

	"github.com/roach88/splitkeeper/internal/condition"
	"github.com/roach88/splitkeeper/internal/ir"
	"github.com/roach88/splitkeeper/internal/route"
)

//go:embed schema.cue
var schemaSource string

// splitNamespace seeds identities derived for splits that carry no id.
var splitNamespace = uuid.MustParse("6f1c5f0e-8a57-4c3e-9a59-3b1f2f6c9d10")

// Options controls route compilation.
type Options struct {
	// AllowExpressions permits free-form expression triggers.
	AllowExpressions bool

	// Fields is the snapshot schema trigger fields are checked against.
	// When nil, field names are not checked.
	Fields ir.FieldSet
}

// Load reads and compiles the route document at path. The format follows
// the extension: .cue, .json, or .yaml/.yml.
func Load(path string, opts Options) (*route.Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(data, path, opts)
}

// Compile compiles a route document.
//
// Errors:
//   - *ir.FormatError: unparseable document, missing or unsupported
//     version, or a document that does not match the route schema
//   - ValidationErrors: authoring errors such as unknown trigger fields or
//     a final piece that is not a level 0 split
func Compile(data []byte, filename string, opts Options) (*route.Route, error) {
	r, _, err := compile(data, filename, opts)
	return r, err
}

// DerivedID is the identity derived for a split declared without an id.
// Path indexes the split in the document: its position in the top-level
// pieces, then in each nested pieces list.
type DerivedID struct {
	Path []int
	ID   uuid.UUID
}

func compile(data []byte, filename string, opts Options) (*route.Route, []DerivedID, error) {
	ctx := cuecontext.New()

	doc, err := buildDocument(ctx, data, filename)
	if err != nil {
		return nil, nil, &ir.FormatError{Path: filename, Message: "cannot parse route document", Err: formatCUEError(err)}
	}
	if err := checkVersion(doc, filename); err != nil {
		return nil, nil, err
	}

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, nil, fmt.Errorf("route schema: %w", formatCUEError(err))
	}
	unified := schema.LookupPath(cue.ParsePath("#Route")).Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, nil, &ir.FormatError{
			Path:    filename,
			Version: ir.RouteVersion,
			Message: "route does not match schema",
			Err:     formatCUEError(err),
		}
	}

	c := &routeCompiler{
		opts: condition.Options{AllowExpressions: opts.AllowExpressions, Fields: opts.Fields},
		seen: make(map[string]int),
	}
	r, err := c.compile(unified, filename)
	if err != nil {
		return nil, nil, err
	}
	return r, c.derived, nil
}

func buildDocument(ctx *cue.Context, data []byte, filename string) (cue.Value, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		f, err := yaml.Extract(filename, data)
		if err != nil {
			return cue.Value{}, err
		}
		v := ctx.BuildFile(f)
		return v, v.Err()
	default:
		// JSON is a subset of CUE.
		v := ctx.CompileBytes(data, cue.Filename(filename))
		return v, v.Err()
	}
}

func checkVersion(doc cue.Value, filename string) error {
	v := doc.LookupPath(cue.ParsePath("version"))
	if !v.Exists() {
		return &ir.FormatError{Path: filename, Message: "route document has no version"}
	}
	n, err := v.Int64()
	if err != nil {
		return &ir.FormatError{Path: filename, Message: "route version must be an integer", Err: err}
	}
	if n != ir.RouteVersion {
		return &ir.FormatError{
			Path:    filename,
			Version: int(n),
			Message: fmt.Sprintf("unsupported route version, want %d", ir.RouteVersion),
		}
	}
	return nil
}

// routeCompiler accumulates validation errors while walking a document.
type routeCompiler struct {
	opts     condition.Options
	errs     ValidationErrors
	seen     map[string]int // derived-identity key -> occurrences so far
	unnamed  int
	derived  []DerivedID
}

func (c *routeCompiler) add(code, field, msg string, v cue.Value) {
	c.errs = append(c.errs, ValidationError{Field: field, Message: msg, Code: code, Line: lineOf(v.Pos())})
}

func (c *routeCompiler) compile(v cue.Value, filename string) (*route.Route, error) {
	name, _ := v.LookupPath(cue.ParsePath("name")).String()
	timeField, _ := v.LookupPath(cue.ParsePath("time_field")).String()
	levelNames := lookupStrings(v, "level_names")

	var reset *route.Trigger
	if rv := v.LookupPath(cue.ParsePath("reset_trigger")); rv.Exists() {
		reset = c.trigger(rv, "reset_trigger", "reset")
	}

	piecesVal := v.LookupPath(cue.ParsePath("pieces"))
	pieces, _ := c.flatten(piecesVal, 0, "pieces", nil)

	if len(pieces) > 0 {
		if last, ok := pieces[len(pieces)-1].(*route.Split); !ok || last.Level != 0 {
			c.add(ErrLastPieceNotRoot, "pieces", "last piece of route must be a level 0 split", piecesVal)
		}
	}
	if len(c.errs) > 0 {
		return nil, c.errs
	}

	r, err := route.New(name, route.TimeField(timeField), pieces, levelNames, reset)
	if err != nil {
		var fe *ir.FormatError
		if errors.As(err, &fe) && fe.Path == "" {
			fe.Path = filename
		}
		return nil, err
	}
	return r, nil
}

// flatten walks a piece list at nesting depth level. A split's nested
// pieces come before it in the flattened route. Within a nested list the
// last split is not emitted on its own: it ends at the same moment as its
// parent, so its names are returned for the parent to append.
// at is the index path of list's parent split in the document.
func (c *routeCompiler) flatten(list cue.Value, level int, field string, at []int) ([]route.Piece, []string) {
	iter, err := list.List()
	if err != nil {
		c.add(ErrMalformedPiece, field, "pieces must be a list", list)
		return nil, nil
	}
	var items []cue.Value
	for iter.Next() {
		items = append(items, iter.Value())
	}

	var pieces []route.Piece
	var lastNames []string
	for i, item := range items {
		itemField := fmt.Sprintf("%s[%d]", field, i)
		itemAt := append(slices.Clone(at), i)
		typ, _ := item.LookupPath(cue.ParsePath("type")).String()

		switch typ {
		case "split":
			name, _ := item.LookupPath(cue.ParsePath("name")).String()
			names := append([]string{name}, lookupStrings(item, "names")...)

			lv := level
			if lvVal := item.LookupPath(cue.ParsePath("level")); lvVal.Exists() {
				n, _ := lvVal.Int64()
				if int(n) < level {
					c.add(ErrMalformedPiece, itemField+".level",
						fmt.Sprintf("level %d is shallower than its nesting depth %d", n, level), lvVal)
				}
				lv = max(int(n), level)
			}

			if sub := item.LookupPath(cue.ParsePath("pieces")); sub.Exists() {
				childPieces, childNames := c.flatten(sub, lv+1, itemField+".pieces", itemAt)
				pieces = append(pieces, childPieces...)
				names = append(names, childNames...)
			}

			if i == len(items)-1 && level > 0 {
				lastNames = names
				continue
			}
			pieces = append(pieces, route.NewSplitWithID(c.splitID(item, itemField, itemAt, lv, names), lv, names...))

		case "trigger":
			var defaultName string
			if name, _ := item.LookupPath(cue.ParsePath("name")).String(); name == "" {
				c.unnamed++
				defaultName = fmt.Sprintf("trigger %d", c.unnamed)
			}
			if t := c.trigger(item, itemField, defaultName); t != nil {
				pieces = append(pieces, t)
			}

		case "start_timer":
			pieces = append(pieces, route.StartTimer{})

		default:
			c.add(ErrMalformedPiece, itemField+".type", fmt.Sprintf("unknown piece type %q", typ), item)
		}
	}
	return pieces, lastNames
}

// splitID returns the split's declared id, or derives one from its level
// and names. Derived ids are remembered so PinIDs can write them back.
func (c *routeCompiler) splitID(item cue.Value, field string, at []int, level int, names []string) uuid.UUID {
	if idVal := item.LookupPath(cue.ParsePath("id")); idVal.Exists() {
		s, _ := idVal.String()
		id, err := uuid.Parse(s)
		if err != nil {
			c.add(ErrMalformedPiece, field+".id", fmt.Sprintf("invalid split id %q", s), idVal)
			return uuid.New()
		}
		return id
	}
	key := fmt.Sprintf("%d:%s", level, strings.Join(names, "/"))
	n := c.seen[key]
	c.seen[key]++
	id := uuid.NewSHA1(splitNamespace, []byte(fmt.Sprintf("%s#%d", key, n)))
	c.derived = append(c.derived, DerivedID{Path: at, ID: id})
	return id
}

func (c *routeCompiler) trigger(v cue.Value, field, defaultName string) *route.Trigger {
	name, err := v.LookupPath(cue.ParsePath("name")).String()
	if err != nil || name == "" {
		name = defaultName
	}

	exprVal := v.LookupPath(cue.ParsePath("expr"))
	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	belowVal := v.LookupPath(cue.ParsePath("below"))

	var cond condition.Condition
	switch {
	case exprVal.Exists() && (fieldsVal.Exists() || belowVal.Exists()):
		c.add(ErrMalformedPiece, field, "trigger has both expr and fields", v)
		return nil

	case exprVal.Exists():
		src, _ := exprVal.String()
		cond, err = condition.Compile(src, c.opts)
		if err != nil {
			c.addProblems(err, field+".expr", exprVal)
			return nil
		}

	default:
		equals := c.scalarMap(fieldsVal, field+".fields")
		below := c.intMap(belowVal, field+".below")
		cond, err = condition.CompileStructured(equals, below, c.opts)
		if err != nil {
			c.addProblems(err, field, v)
			return nil
		}
	}
	return route.NewTrigger(name, cond)
}

func (c *routeCompiler) addProblems(err error, field string, v cue.Value) {
	var problems condition.Problems
	if !errors.As(err, &problems) {
		c.add(ErrGeneric, field, err.Error(), v)
		return
	}
	for _, p := range problems {
		f := field
		if p.Field != "" {
			f = field + "." + p.Field
		}
		c.add(p.Code, f, p.Message, v)
	}
}

func (c *routeCompiler) scalarMap(v cue.Value, field string) map[string]ir.IRValue {
	if !v.Exists() {
		return nil
	}
	out := make(map[string]ir.IRValue)
	iter, err := v.Fields()
	if err != nil {
		c.add(ErrMalformedPiece, field, "fields must be a map", v)
		return out
	}
	for iter.Next() {
		val := iter.Value()
		switch val.Kind() {
		case cue.IntKind:
			n, _ := val.Int64()
			out[iter.Label()] = ir.IRInt(n)
		case cue.BoolKind:
			b, _ := val.Bool()
			out[iter.Label()] = ir.IRBool(b)
		case cue.StringKind:
			s, _ := val.String()
			out[iter.Label()] = ir.IRString(s)
		default:
			c.add(ErrMalformedPiece, field+"."+iter.Label(), "value must be int, bool or string", val)
		}
	}
	return out
}

func (c *routeCompiler) intMap(v cue.Value, field string) map[string]int64 {
	if !v.Exists() {
		return nil
	}
	out := make(map[string]int64)
	iter, err := v.Fields()
	if err != nil {
		c.add(ErrMalformedPiece, field, "below must be a map", v)
		return out
	}
	for iter.Next() {
		n, err := iter.Value().Int64()
		if err != nil {
			c.add(ErrMalformedPiece, field+"."+iter.Label(), "bound must be an integer", iter.Value())
			continue
		}
		out[iter.Label()] = n
	}
	return out
}

func lookupStrings(v cue.Value, path string) []string {
	lv := v.LookupPath(cue.ParsePath(path))
	if !lv.Exists() {
		return nil
	}
	iter, err := lv.List()
	if err != nil {
		return nil
	}
	var out []string
	for iter.Next() {
		if s, err := iter.Value().String(); err == nil {
			out = append(out, s)
		}
	}
	return out
}
