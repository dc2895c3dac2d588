// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

package dsl

import "strconv"

// Parse parses a policy expression's S-expression source text into a
// Value tree. It returns (nil, nil) iff the input is empty or contains
// only whitespace/comments.
func Parse(text string) (*Value, error) {
	l := newLexer(text)
	if l.atEnd() {
		return nil, nil
	}

	p := &parser{lex: l}
	if err := p.advance(); err != nil {
		return nil, err
	}

	v, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if p.tok.kind != tokEOF {
		return nil, newParseError(Unbalanced, p.tok.offset, "trailing input after expression")
	}

	return &v, nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) parseExpr() (Value, error) {
	switch p.tok.kind {
	case tokEOF:
		return Value{}, newParseError(UnexpectedEof, p.tok.offset, "expected an expression")
	case tokLParen:
		return p.parseList()
	case tokString:
		v := Str(p.tok.text)
		return v, p.advance()
	case tokNumber:
		return p.parseNumber()
	case tokTrue:
		v := Bool(true)
		return v, p.advance()
	case tokFalse:
		v := Bool(false)
		return v, p.advance()
	case tokIdent:
		v := Ident(p.tok.text)
		return v, p.advance()
	case tokRParen:
		return Value{}, newParseError(Unbalanced, p.tok.offset, "unexpected ')'")
	default:
		return Value{}, newParseError(UnexpectedChar, p.tok.offset, "unexpected token")
	}
}

func (p *parser) parseNumber() (Value, error) {
	text := p.tok.text
	offset := p.tok.offset
	if containsByte(text, '.') {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, newParseError(InvalidNumber, offset, "invalid float literal")
		}
		return Float(f), p.advance()
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Value{}, newParseError(InvalidNumber, offset, "invalid integer literal")
	}
	return Int(i), p.advance()
}

func containsByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}

// parseList parses '(' head arg* ')'. The reserved head "list" produces
// a Seq rather than a List — folded in at parse time since a literal
// sequence has no operator semantics to defer.
func (p *parser) parseList() (Value, error) {
	lparenOffset := p.tok.offset
	if err := p.advance(); err != nil { // consume '('
		return Value{}, err
	}

	if p.tok.kind == tokRParen {
		return Value{}, newParseError(EmptyList, lparenOffset, "empty list")
	}

	head, err := p.parseHead()
	if err != nil {
		return Value{}, err
	}

	var args []Value
	for p.tok.kind != tokRParen {
		if p.tok.kind == tokEOF {
			return Value{}, newParseError(Unbalanced, p.tok.offset, "unbalanced '('")
		}
		arg, err := p.parseExpr()
		if err != nil {
			return Value{}, err
		}
		args = append(args, arg)
	}

	if err := p.advance(); err != nil { // consume ')'
		return Value{}, err
	}

	if head == "list" {
		return Seq(args...), nil
	}
	return List(head, args...), nil
}

// parseHead consumes the IDENT in head position. true/false are lexed as
// separate token kinds, not tokIdent, so they cannot appear as a head;
// that surfaces as UnexpectedChar via the default case below.
func (p *parser) parseHead() (string, error) {
	switch p.tok.kind {
	case tokIdent:
		head := p.tok.text
		return head, p.advance()
	case tokEOF:
		return "", newParseError(UnexpectedEof, p.tok.offset, "expected a list head")
	default:
		return "", newParseError(UnexpectedChar, p.tok.offset, "list head must be an identifier")
	}
}
