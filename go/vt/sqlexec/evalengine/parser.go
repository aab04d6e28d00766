/*
Copyright 2026 The Gridsql Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package evalengine

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"gridsql.io/gridsql/go/sqltypes"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

// The textual expression form accepted by ParsePredicate and
// ParseProjections:
//
//	predicate  := or
//	or         := and { OR and }
//	and        := not { AND not }
//	not        := NOT not | comparison
//	comparison := sum [ cmpop sum | IS [NOT] NULL ]
//	sum        := product { (+|-) product }
//	product    := operand { (*|/) operand }
//	operand    := literal | $n[:TYPE] | path[:TYPE] | ( predicate )
//
// Paths are attribute paths as understood by the extractors, for example
// __key, this, this.amount or items[0].sku. Keywords are case-insensitive.

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokArg
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type tokenizer struct {
	src string
	pos int
}

func isIdentStart(r byte) bool {
	return r == '_' || unicode.IsLetter(rune(r))
}

func isIdentPart(r byte) bool {
	return isIdentStart(r) || unicode.IsDigit(rune(r)) || r == '.' || r == '[' || r == ']'
}

func (t *tokenizer) next() (token, error) {
	for t.pos < len(t.src) && unicode.IsSpace(rune(t.src[t.pos])) {
		t.pos++
	}
	if t.pos >= len(t.src) {
		return token{kind: tokEOF, pos: t.pos}, nil
	}

	start := t.pos
	c := t.src[t.pos]
	switch {
	case isIdentStart(c):
		for t.pos < len(t.src) && isIdentPart(t.src[t.pos]) {
			t.pos++
		}
		return token{kind: tokIdent, text: t.src[start:t.pos], pos: start}, nil
	case c >= '0' && c <= '9':
		for t.pos < len(t.src) && (t.src[t.pos] >= '0' && t.src[t.pos] <= '9' || t.src[t.pos] == '.') {
			t.pos++
		}
		return token{kind: tokNumber, text: t.src[start:t.pos], pos: start}, nil
	case c == '\'':
		var sb strings.Builder
		t.pos++
		for {
			if t.pos >= len(t.src) {
				return token{}, syntaxError(t.src, start, "unterminated string")
			}
			if t.src[t.pos] == '\'' {
				if t.pos+1 < len(t.src) && t.src[t.pos+1] == '\'' {
					sb.WriteByte('\'')
					t.pos += 2
					continue
				}
				t.pos++
				return token{kind: tokString, text: sb.String(), pos: start}, nil
			}
			sb.WriteByte(t.src[t.pos])
			t.pos++
		}
	case c == '$':
		t.pos++
		for t.pos < len(t.src) && t.src[t.pos] >= '0' && t.src[t.pos] <= '9' {
			t.pos++
		}
		if t.pos == start+1 {
			return token{}, syntaxError(t.src, start, "expected argument number after $")
		}
		return token{kind: tokArg, text: t.src[start+1 : t.pos], pos: start}, nil
	}

	for _, op := range []string{"<=", ">=", "!=", "<>", "=", "<", ">", "+", "-", "*", "/", "(", ")", ",", ":"} {
		if strings.HasPrefix(t.src[t.pos:], op) {
			t.pos += len(op)
			return token{kind: tokOp, text: op, pos: start}, nil
		}
	}
	return token{}, syntaxError(t.src, start, "unexpected character %q", c)
}

func syntaxError(src string, pos int, format string, args ...any) error {
	args = append(args, pos, src)
	return vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.WrongValue, "syntax error: "+format+" at position %d in %q", args...)
}

type parser struct {
	src    string
	tokens []token
	pos    int
}

func newParser(src string) (*parser, error) {
	t := &tokenizer{src: src}
	p := &parser{src: src}
	for {
		tok, err := t.next()
		if err != nil {
			return nil, err
		}
		p.tokens = append(p.tokens, tok)
		if tok.kind == tokEOF {
			return p, nil
		}
	}
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) isKeyword(kw string) bool {
	tok := p.peek()
	return tok.kind == tokIdent && strings.EqualFold(tok.text, kw)
}

func (p *parser) isOp(op string) bool {
	tok := p.peek()
	return tok.kind == tokOp && tok.text == op
}

func (p *parser) expectOp(op string) error {
	if !p.isOp(op) {
		return p.unexpected("expected %q", op)
	}
	p.advance()
	return nil
}

func (p *parser) unexpected(format string, args ...any) error {
	tok := p.peek()
	if tok.kind == tokEOF {
		return syntaxError(p.src, tok.pos, format+", found end of input", args...)
	}
	return syntaxError(p.src, tok.pos, format+", found %q", append(args, tok.text)...)
}

// ParsePredicate parses a filter expression such as
// "this.amount > 100 AND status = 'open'".
func ParsePredicate(src string) (Expr, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, p.unexpected("expected end of predicate")
	}
	if t := e.Type(); t != sqltypes.Boolean && t != sqltypes.Object {
		return nil, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.WrongTypeForVar, "predicate %s has type %s, expected BOOLEAN", e, t)
	}
	return e, nil
}

// ParseProjections parses a comma separated list of projections such as
// "__key, this.amount:BIGINT, this.amount * 2".
func ParseProjections(src string) ([]Expr, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	var exprs []Expr
	for {
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if p.isOp(",") {
			p.advance()
			continue
		}
		if p.peek().kind != tokEOF {
			return nil, p.unexpected("expected \",\" or end of projections")
		}
		return exprs, nil
	}
}

// ParseProjection parses a single projection.
func ParseProjection(src string) (Expr, error) {
	exprs, err := ParseProjections(src)
	if err != nil {
		return nil, err
	}
	if len(exprs) != 1 {
		return nil, vterrors.Errorf(vtrpc.Code_INVALID_ARGUMENT, "expected a single projection, got %d", len(exprs))
	}
	return exprs[0], nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("OR") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = NewOr(left, right)
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("AND") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = NewAnd(left, right)
	}
	return left, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.isKeyword("NOT") {
		p.advance()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return NewNot(inner), nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]ComparisonOp{
	"=":  Equal,
	"!=": NotEqual,
	"<>": NotEqual,
	"<":  Less,
	"<=": LessEqual,
	">":  Greater,
	">=": GreaterEqual,
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}

	if p.isKeyword("IS") {
		p.advance()
		negate := false
		if p.isKeyword("NOT") {
			p.advance()
			negate = true
		}
		if !p.isKeyword("NULL") {
			return nil, p.unexpected("expected NULL")
		}
		p.advance()
		return NewIsNull(left, negate), nil
	}

	tok := p.peek()
	if tok.kind != tokOp {
		return left, nil
	}
	op, ok := comparisonOps[tok.text]
	if !ok {
		return left, nil
	}
	p.advance()
	right, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	return NewComparison(op, left, right), nil
}

func (p *parser) parseSum() (Expr, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		op := Add
		if p.advance().text == "-" {
			op = Sub
		}
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = NewArithmetic(op, left, right)
	}
	return left, nil
}

func (p *parser) parseProduct() (Expr, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	for p.isOp("*") || p.isOp("/") {
		op := Mul
		if p.advance().text == "/" {
			op = Div
		}
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		left = NewArithmetic(op, left, right)
	}
	return left, nil
}

func (p *parser) parseOperand() (Expr, error) {
	tok := p.peek()
	switch tok.kind {
	case tokNumber:
		p.advance()
		return parseNumber(p.src, tok)
	case tokString:
		p.advance()
		return NewLiteral(tok.text), nil
	case tokArg:
		p.advance()
		n, err := strconv.Atoi(tok.text)
		if err != nil || n < 1 {
			return nil, syntaxError(p.src, tok.pos, "bad argument number %q", tok.text)
		}
		typ, err := p.parseTypeSuffix()
		if err != nil {
			return nil, err
		}
		return NewArgument(n-1, typ), nil
	case tokIdent:
		switch strings.ToUpper(tok.text) {
		case "NULL":
			p.advance()
			return NewLiteral(nil), nil
		case "TRUE":
			p.advance()
			return NewLiteral(true), nil
		case "FALSE":
			p.advance()
			return NewLiteral(false), nil
		case "AND", "OR", "NOT", "IS":
			return nil, p.unexpected("expected an operand")
		}
		p.advance()
		typ, err := p.parseTypeSuffix()
		if err != nil {
			return nil, err
		}
		return NewColumn(tok.text, typ), nil
	case tokOp:
		switch tok.text {
		case "(":
			p.advance()
			e, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return e, nil
		case "-":
			p.advance()
			inner, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			if lit, ok := inner.(*Literal); ok {
				return negateLiteral(p.src, tok.pos, lit)
			}
			return NewArithmetic(Sub, NewLiteral(int64(0)), inner), nil
		}
	}
	return nil, p.unexpected("expected an operand")
}

func (p *parser) parseTypeSuffix() (sqltypes.Type, error) {
	if !p.isOp(":") {
		return sqltypes.Object, nil
	}
	p.advance()
	tok := p.peek()
	if tok.kind != tokIdent {
		return 0, p.unexpected("expected a type name")
	}
	typ, ok := sqltypes.TypeByName(strings.ToUpper(tok.text))
	if !ok {
		return 0, syntaxError(p.src, tok.pos, "unknown type %q", tok.text)
	}
	p.advance()
	return typ, nil
}

func parseNumber(src string, tok token) (Expr, error) {
	if !strings.Contains(tok.text, ".") {
		if i, err := strconv.ParseInt(tok.text, 10, 64); err == nil {
			return NewLiteral(i), nil
		}
	}
	d, err := decimal.NewFromString(tok.text)
	if err != nil {
		return nil, syntaxError(src, tok.pos, "bad number %q", tok.text)
	}
	return NewLiteral(d), nil
}

func negateLiteral(src string, pos int, lit *Literal) (Expr, error) {
	switch v := lit.Val.(type) {
	case int64:
		return NewLiteral(-v), nil
	case decimal.Decimal:
		return NewLiteral(v.Neg()), nil
	}
	return nil, syntaxError(src, pos, "cannot negate %s", lit)
}
