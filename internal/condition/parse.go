package condition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/splitkeeper/internal/ir"
)

// SyntaxError reports an expression that does not parse.
type SyntaxError struct {
	Offset  int // byte offset into the source
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Message)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokString
	tokOp
	tokAnd
	tokOr
	tokNot
	tokMinus
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// fieldPrefix is accepted in front of field names for compatibility with
// routes written against the autosplitter object ("asi.chapter").
const fieldPrefix = "asi."

// Parse parses an expression such as
//
//	chapter == 1 and (mode == 0 or mode == 1) and not in_cutscene
//
// Comparisons chain like "0 < file_time < 1000", meaning
// "0 < file_time and file_time < 1000". Precedence from loosest: or, and,
// not, comparison.
func Parse(src string) (Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &SyntaxError{Offset: t.pos, Message: fmt.Sprintf("unexpected %q", t.text)}
	}
	return e, nil
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == '-':
			toks = append(toks, token{tokMinus, "-", i})
			i++
		case strings.HasPrefix(src[i:], "&&"):
			toks = append(toks, token{tokAnd, "&&", i})
			i += 2
		case strings.HasPrefix(src[i:], "||"):
			toks = append(toks, token{tokOr, "||", i})
			i += 2
		case strings.HasPrefix(src[i:], "=="), strings.HasPrefix(src[i:], "!="),
			strings.HasPrefix(src[i:], "<="), strings.HasPrefix(src[i:], ">="):
			toks = append(toks, token{tokOp, src[i : i+2], i})
			i += 2
		case c == '<' || c == '>':
			toks = append(toks, token{tokOp, string(c), i})
			i++
		case c == '!':
			toks = append(toks, token{tokNot, "!", i})
			i++
		case c == '=':
			return nil, &SyntaxError{Offset: i, Message: "use == for comparison"}
		case c == '"' || c == '\'':
			s, n, err := lexString(src[i:])
			if err != nil {
				return nil, &SyntaxError{Offset: i, Message: err.Error()}
			}
			toks = append(toks, token{tokString, s, i})
			i += n
		case c >= '0' && c <= '9':
			j := i
			for j < len(src) && src[j] >= '0' && src[j] <= '9' {
				j++
			}
			toks = append(toks, token{tokInt, src[i:j], i})
			i = j
		case isIdentStart(c):
			j := i
			for j < len(src) && (isIdentStart(src[j]) || src[j] == '.' || (src[j] >= '0' && src[j] <= '9')) {
				j++
			}
			word := src[i:j]
			switch word {
			case "and":
				toks = append(toks, token{tokAnd, word, i})
			case "or":
				toks = append(toks, token{tokOr, word, i})
			case "not":
				toks = append(toks, token{tokNot, word, i})
			default:
				toks = append(toks, token{tokIdent, word, i})
			}
			i = j
		default:
			return nil, &SyntaxError{Offset: i, Message: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	return append(toks, token{tokEOF, "", len(src)}), nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// lexString reads a quoted string at the start of s and returns its value
// and the number of bytes consumed.
func lexString(s string) (string, int, error) {
	quote := s[0]
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case quote:
			return b.String(), i + 1, nil
		case '\\':
			if i+1 >= len(s) {
				return "", 0, fmt.Errorf("unterminated string")
			}
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
		default:
			b.WriteByte(s[i])
		}
	}
	return "", 0, fmt.Errorf("unterminated string")
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseOr() (Expr, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	terms := []Expr{first}
	for p.peek().kind == tokOr {
		p.next()
		t, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return Or{Terms: terms}, nil
}

func (p *parser) parseAnd() (Expr, error) {
	first, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	terms := []Expr{first}
	for p.peek().kind == tokAnd {
		p.next()
		t, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return And{Terms: terms}, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.peek().kind == tokNot {
		p.next()
		t, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return Not{Term: t}, nil
	}
	return p.parseCompare()
}

func (p *parser) parseCompare() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	var links []Expr
	for p.peek().kind == tokOp {
		op := Op(p.next().text)
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		links = append(links, Compare{Op: op, Left: left, Right: right})
		left = right
	}
	switch len(links) {
	case 0:
		return left, nil
	case 1:
		return links[0], nil
	default:
		return And{Terms: links}, nil
	}
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokLParen:
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, &SyntaxError{Offset: closing.pos, Message: "expected )"}
		}
		return e, nil
	case tokMinus:
		n := p.next()
		if n.kind != tokInt {
			return nil, &SyntaxError{Offset: n.pos, Message: "expected integer after -"}
		}
		return parseInt("-"+n.text, t.pos)
	case tokInt:
		return parseInt(t.text, t.pos)
	case tokString:
		return Literal{Value: ir.IRString(t.text)}, nil
	case tokIdent:
		switch t.text {
		case "true", "True":
			return Literal{Value: ir.IRBool(true)}, nil
		case "false", "False":
			return Literal{Value: ir.IRBool(false)}, nil
		}
		return Field{Name: strings.TrimPrefix(t.text, fieldPrefix)}, nil
	case tokEOF:
		return nil, &SyntaxError{Offset: t.pos, Message: "unexpected end of expression"}
	default:
		return nil, &SyntaxError{Offset: t.pos, Message: fmt.Sprintf("unexpected %q", t.text)}
	}
}

func parseInt(text string, pos int) (Expr, error) {
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, &SyntaxError{Offset: pos, Message: fmt.Sprintf("invalid integer %s", text)}
	}
	return Literal{Value: ir.IRInt(n)}, nil
}
