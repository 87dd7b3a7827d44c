package condition

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/splitkeeper/internal/ir"
)

// Problem codes reported by Check and Compile. The route compiler surfaces
// them unchanged as validation error codes.
const (
	CodeUnknownField = "E102"
	CodeKindMismatch = "E103"
	CodeNotAllowed   = "E104"
	CodeSyntax       = "E106"
)

// Problem is one validation failure in a trigger condition.
type Problem struct {
	Code    string
	Field   string
	Message string
}

func (p Problem) Error() string {
	return fmt.Sprintf("%s: %s", p.Code, p.Message)
}

// Problems is the list of failures for one condition.
type Problems []Problem

func (ps Problems) Error() string {
	msgs := make([]string, len(ps))
	for i, p := range ps {
		msgs[i] = p.Error()
	}
	return strings.Join(msgs, "; ")
}

// Options controls how authored conditions are compiled.
type Options struct {
	// AllowExpressions permits free-form expression triggers.
	AllowExpressions bool

	// Fields is the snapshot schema. When nil, field names are not checked.
	Fields ir.FieldSet
}

// Condition is a compiled trigger predicate.
//
// Structured conditions keep their field maps so they can be written back
// in the same form; expression conditions keep their source text.
type Condition struct {
	Expr   Expr
	Equals map[string]ir.IRValue // structured: field == value
	Below  map[string]int64      // structured: field < bound
	Source string                // expression source, "" when structured
}

// Eval reports whether the condition holds for snap.
func (c Condition) Eval(snap ir.Snapshot) bool {
	if c.Expr == nil {
		return false
	}
	return Eval(c.Expr, snap)
}

// IsExpression reports whether c was compiled from free-form source.
func (c Condition) IsExpression() bool {
	return c.Source != ""
}

func (c Condition) String() string {
	if c.Source != "" {
		return c.Source
	}
	if c.Expr == nil {
		return "false"
	}
	return Format(c.Expr)
}

// Structured builds a condition from field == value pairs and field < bound
// pairs. Keys are sorted so equal maps produce equal trees.
func Structured(equals map[string]ir.IRValue, below map[string]int64) Condition {
	var terms []Expr
	for _, k := range sortedKeys(equals) {
		terms = append(terms, Compare{Op: OpEq, Left: Field{Name: k}, Right: Literal{Value: equals[k]}})
	}
	for _, k := range sortedKeys(below) {
		terms = append(terms, Compare{Op: OpLt, Left: Field{Name: k}, Right: Literal{Value: ir.IRInt(below[k])}})
	}
	return Condition{Expr: And{Terms: terms}, Equals: equals, Below: below}
}

// FromExpr wraps a programmatically built tree. The source is its
// formatted text.
func FromExpr(e Expr) Condition {
	return Condition{Expr: e, Source: Format(e)}
}

// CompileStructured validates a structured condition against opts.Fields.
func CompileStructured(equals map[string]ir.IRValue, below map[string]int64, opts Options) (Condition, error) {
	c := Structured(equals, below)
	if err := Check(c, opts); err != nil {
		return Condition{}, err
	}
	return c, nil
}

// Compile parses and validates a free-form expression. It fails with
// CodeNotAllowed unless opts.AllowExpressions is set.
func Compile(src string, opts Options) (Condition, error) {
	if !opts.AllowExpressions {
		return Condition{}, Problems{{
			Code:    CodeNotAllowed,
			Message: fmt.Sprintf("expression trigger %q requires expressions to be allowed", src),
		}}
	}
	e, err := Parse(src)
	if err != nil {
		var se *SyntaxError
		if errors.As(err, &se) {
			return Condition{}, Problems{{Code: CodeSyntax, Message: fmt.Sprintf("%q: %s", src, se.Error())}}
		}
		return Condition{}, err
	}
	c := Condition{Expr: e, Source: src}
	if err := Check(c, opts); err != nil {
		return Condition{}, err
	}
	return c, nil
}

// Check validates field references and literal kinds in c. It returns nil
// or a Problems error listing every failure.
func Check(c Condition, opts Options) error {
	v := &checker{fields: opts.Fields}
	for _, k := range sortedKeys(c.Equals) {
		v.checkKind(k, ir.KindOf(c.Equals[k]))
	}
	for _, k := range sortedKeys(c.Below) {
		v.checkKind(k, ir.KindInt)
	}
	if c.Equals == nil && c.Below == nil && c.Expr != nil {
		v.checkExpr(c.Expr)
	}
	if len(v.problems) == 0 {
		return nil
	}
	return v.problems
}

// checker accumulates problems during traversal.
type checker struct {
	fields   ir.FieldSet
	problems Problems
}

func (v *checker) add(code, field, format string, args ...any) {
	v.problems = append(v.problems, Problem{Code: code, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *checker) known(name string) bool {
	if v.fields == nil || v.fields.Has(name) {
		return true
	}
	v.add(CodeUnknownField, name, "unknown snapshot field %q", name)
	return false
}

func (v *checker) checkKind(name string, got ir.Kind) {
	if !v.known(name) || v.fields == nil {
		return
	}
	if want := v.fields[name]; want != got {
		v.add(CodeKindMismatch, name, "field %q is %s, compared with %s", name, want, got)
	}
}

func (v *checker) checkExpr(e Expr) {
	switch n := e.(type) {
	case Field:
		v.known(n.Name)
	case Literal:
	case Compare:
		v.checkExpr(n.Left)
		v.checkExpr(n.Right)
		v.checkCompareKinds(n)
	case And:
		for _, t := range n.Terms {
			v.checkExpr(t)
		}
	case Or:
		for _, t := range n.Terms {
			v.checkExpr(t)
		}
	case Not:
		v.checkExpr(n.Term)
	default:
		v.add(CodeSyntax, "", "unknown expression node %T", e)
	}
}

// checkCompareKinds flags field-versus-literal comparisons whose kinds can
// never match, such as chapter == "1".
func (v *checker) checkCompareKinds(c Compare) {
	if v.fields == nil {
		return
	}
	f, lit, ok := fieldAndLiteral(c)
	if !ok || !v.fields.Has(f.Name) {
		return
	}
	if want, got := v.fields[f.Name], ir.KindOf(lit.Value); want != got {
		v.add(CodeKindMismatch, f.Name, "field %q is %s, compared with %s", f.Name, want, got)
	}
}

func fieldAndLiteral(c Compare) (Field, Literal, bool) {
	if f, ok := c.Left.(Field); ok {
		if lit, ok := c.Right.(Literal); ok {
			return f, lit, true
		}
	}
	if f, ok := c.Right.(Field); ok {
		if lit, ok := c.Left.(Literal); ok {
			return f, lit, true
		}
	}
	return Field{}, Literal{}, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
