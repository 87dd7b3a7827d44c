package condition

import (
	"fmt"
	"strings"

	"github.com/roach88/splitkeeper/internal/ir"
)

// Expr is the sealed interface for predicate expression nodes.
// Only Field, Literal, Compare, And, Or, and Not implement it.
type Expr interface {
	exprNode()
}

// Field references a snapshot field by name.
// A field missing from the snapshot evaluates to an absent value; every
// comparison against an absent value is false.
type Field struct {
	Name string
}

func (Field) exprNode() {}

// Literal is a constant scalar.
type Literal struct {
	Value ir.IRValue
}

func (Literal) exprNode() {}

// Op is a comparison operator.
type Op string

const (
	OpEq Op = "=="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// Compare compares two operands.
//
// Semantics:
//   - == and != use exact typed equality (ir.Equal)
//   - ordering operators apply only to two ints or two strings; any other
//     pairing is false
//   - any absent operand makes the comparison false, including !=
type Compare struct {
	Op    Op
	Left  Expr
	Right Expr
}

func (Compare) exprNode() {}

// And is true when every term is truthy. Empty And is true.
type And struct {
	Terms []Expr
}

func (And) exprNode() {}

// Or is true when any term is truthy. Empty Or is false.
type Or struct {
	Terms []Expr
}

func (Or) exprNode() {}

// Not negates the truthiness of its term.
type Not struct {
	Term Expr
}

func (Not) exprNode() {}

// Eval evaluates e against snap and reports its truthiness.
func Eval(e Expr, snap ir.Snapshot) bool {
	return truthy(eval(e, snap))
}

// eval returns nil for an absent value.
func eval(e Expr, snap ir.Snapshot) ir.IRValue {
	switch n := e.(type) {
	case Field:
		return snap[n.Name]
	case Literal:
		return n.Value
	case Compare:
		return ir.IRBool(compare(n.Op, eval(n.Left, snap), eval(n.Right, snap)))
	case And:
		for _, t := range n.Terms {
			if !truthy(eval(t, snap)) {
				return ir.IRBool(false)
			}
		}
		return ir.IRBool(true)
	case Or:
		for _, t := range n.Terms {
			if truthy(eval(t, snap)) {
				return ir.IRBool(true)
			}
		}
		return ir.IRBool(false)
	case Not:
		return ir.IRBool(!truthy(eval(n.Term, snap)))
	default:
		return nil
	}
}

func compare(op Op, l, r ir.IRValue) bool {
	if l == nil || r == nil {
		return false
	}
	switch op {
	case OpEq:
		return ir.Equal(l, r)
	case OpNe:
		return !ir.Equal(l, r)
	}

	var c int
	switch lv := l.(type) {
	case ir.IRInt:
		rv, ok := r.(ir.IRInt)
		if !ok {
			return false
		}
		c = cmpOrdered(lv, rv)
	case ir.IRString:
		rv, ok := r.(ir.IRString)
		if !ok {
			return false
		}
		c = cmpOrdered(lv, rv)
	default:
		return false
	}

	switch op {
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	case OpGt:
		return c > 0
	case OpGe:
		return c >= 0
	default:
		return false
	}
}

func cmpOrdered[T ir.IRInt | ir.IRString](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func truthy(v ir.IRValue) bool {
	switch val := v.(type) {
	case ir.IRBool:
		return bool(val)
	case ir.IRInt:
		return val != 0
	case ir.IRString:
		return val != ""
	default:
		return false
	}
}

// Format renders e as expression source. The output parses back to an
// equivalent tree.
func Format(e Expr) string {
	switch n := e.(type) {
	case Field:
		return n.Name
	case Literal:
		return ir.Format(n.Value)
	case Compare:
		return fmt.Sprintf("%s %s %s", formatOperand(n.Left), n.Op, formatOperand(n.Right))
	case And:
		return formatTerms(n.Terms, " and ", "true")
	case Or:
		return formatTerms(n.Terms, " or ", "false")
	case Not:
		return "not " + formatTerm(n.Term)
	default:
		return fmt.Sprintf("<%T>", e)
	}
}

func formatTerms(terms []Expr, sep, empty string) string {
	if len(terms) == 0 {
		return empty
	}
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = formatTerm(t)
	}
	return strings.Join(parts, sep)
}

func formatTerm(e Expr) string {
	switch e.(type) {
	case And, Or:
		return "(" + Format(e) + ")"
	default:
		return Format(e)
	}
}

func formatOperand(e Expr) string {
	switch e.(type) {
	case And, Or, Compare, Not:
		return "(" + Format(e) + ")"
	default:
		return Format(e)
	}
}

// Fields returns the names of every field e references, in first-use order.
func Fields(e Expr) []string {
	var names []string
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case Field:
			if !seen[n.Name] {
				seen[n.Name] = true
				names = append(names, n.Name)
			}
		case Compare:
			walk(n.Left)
			walk(n.Right)
		case And:
			for _, t := range n.Terms {
				walk(t)
			}
		case Or:
			for _, t := range n.Terms {
				walk(t)
			}
		case Not:
			walk(n.Term)
		}
	}
	walk(e)
	return names
}
