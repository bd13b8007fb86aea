package main

import (
	"strconv"

	"github.com/lasarus/atasm/internal/objfile"
)

// StmtKind tags one parsed top-level construct.
type StmtKind int

const (
	StmtLabel StmtKind = iota
	StmtDirective
	StmtInstruction
)

// Directive is one assembler directive's parsed arguments.
type Directive struct {
	Kind    string // "section", "global", "string", "zero", "quad", "byte"
	StrArg  string
	IntArg  int64
	Operand objfile.Operand // .quad / .byte numeric-or-symbol value
}

// Statement is one parsed line: a label definition, a directive, or an
// instruction with its operands still in AT&T source order (mnemonic
// operand, ..., destination last) — the driver reverses them before
// handing them to the encoder.
type Statement struct {
	Kind      StmtKind
	Line, Col int

	Label string

	Directive Directive

	Mnemonic string
	Operands []objfile.Operand
}

// Parser is a hand-written recursive-descent parser over the Lexer's
// token stream, grounded on parser.c's parse_instruction/parse_directive
// family: one token of lookahead, first error terminates parsing.
type Parser struct {
	lex *Lexer
	cur Token
}

func NewParser(input string) *Parser {
	p := &Parser{lex: NewLexer(input)}
	p.next()
	return p
}

func (p *Parser) next() { p.cur = p.lex.NextToken() }

// ParseProgram consumes the whole input and returns every statement in
// source order.
func (p *Parser) ParseProgram() ([]Statement, error) {
	var stmts []Statement
	for {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt == nil {
			break
		}
		stmts = append(stmts, *stmt)
	}
	return stmts, nil
}

func (p *Parser) parseStatement() (*Statement, error) {
	for p.cur.Type == TOKEN_NEWLINE {
		p.next()
	}
	if p.cur.Type == TOKEN_EOF && p.cur.Value == "" {
		return nil, nil
	}

	tok := p.cur
	switch tok.Type {
	case TOKEN_DIRECTIVE:
		return p.parseDirective()
	case TOKEN_IDENT:
		name := tok.Value
		p.next()
		if p.cur.Type == TOKEN_COLON {
			p.next()
			return &Statement{Kind: StmtLabel, Line: tok.Line, Col: tok.Column, Label: name}, nil
		}
		return p.parseInstruction(tok, name)
	default:
		return nil, errAt(tok, "expected a label, directive or instruction, found %q", tok.Value)
	}
}

func (p *Parser) expectLineEnd() error {
	if p.cur.Type != TOKEN_NEWLINE && (p.cur.Type != TOKEN_EOF || p.cur.Value != "") {
		return errAt(p.cur, "expected end of line, found %q", p.cur.Value)
	}
	if p.cur.Type == TOKEN_NEWLINE {
		p.next()
	}
	return nil
}

func (p *Parser) parseInstruction(tok Token, mnemonic string) (*Statement, error) {
	var ops []objfile.Operand
	if p.cur.Type != TOKEN_NEWLINE && p.cur.Type != TOKEN_EOF {
		for {
			op, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
			if p.cur.Type == TOKEN_COMMA {
				p.next()
				continue
			}
			break
		}
	}
	if len(ops) > 4 {
		return nil, errAt(tok, "%s: too many operands", mnemonic)
	}
	if err := p.expectLineEnd(); err != nil {
		return nil, err
	}
	return &Statement{Kind: StmtInstruction, Line: tok.Line, Col: tok.Column, Mnemonic: mnemonic, Operands: ops}, nil
}

func (p *Parser) parseDirective() (*Statement, error) {
	tok := p.cur
	name := tok.Value
	p.next()

	switch name {
	case "section":
		var secName string
		switch p.cur.Type {
		case TOKEN_DIRECTIVE:
			secName = "." + p.cur.Value
			p.next()
		case TOKEN_IDENT:
			secName = p.cur.Value
			p.next()
		default:
			return nil, errAt(p.cur, "expected a section name after .section")
		}
		if err := p.expectLineEnd(); err != nil {
			return nil, err
		}
		return &Statement{Kind: StmtDirective, Line: tok.Line, Col: tok.Column,
			Directive: Directive{Kind: "section", StrArg: secName}}, nil

	case "global", "globl":
		if p.cur.Type != TOKEN_IDENT {
			return nil, errAt(p.cur, "expected a symbol name after .%s", name)
		}
		sym := p.cur.Value
		p.next()
		if err := p.expectLineEnd(); err != nil {
			return nil, err
		}
		return &Statement{Kind: StmtDirective, Line: tok.Line, Col: tok.Column,
			Directive: Directive{Kind: "global", StrArg: sym}}, nil

	case "string", "asciz", "ascii":
		if p.cur.Type != TOKEN_STRING {
			return nil, errAt(p.cur, "expected a string literal after .%s", name)
		}
		s := p.cur.Value
		p.next()
		if err := p.expectLineEnd(); err != nil {
			return nil, err
		}
		return &Statement{Kind: StmtDirective, Line: tok.Line, Col: tok.Column,
			Directive: Directive{Kind: "string", StrArg: s}}, nil

	case "zero":
		if p.cur.Type != TOKEN_NUMBER {
			return nil, errAt(p.cur, "expected a byte count after .zero")
		}
		n, err := parseIntLiteral(p.cur.Value)
		if err != nil {
			return nil, errAt(p.cur, "%v", err)
		}
		p.next()
		if err := p.expectLineEnd(); err != nil {
			return nil, err
		}
		return &Statement{Kind: StmtDirective, Line: tok.Line, Col: tok.Column,
			Directive: Directive{Kind: "zero", IntArg: n}}, nil

	case "quad":
		op, err := p.parseQuadOrByteOperand()
		if err != nil {
			return nil, err
		}
		if err := p.expectLineEnd(); err != nil {
			return nil, err
		}
		return &Statement{Kind: StmtDirective, Line: tok.Line, Col: tok.Column,
			Directive: Directive{Kind: "quad", Operand: op}}, nil

	case "byte":
		op, err := p.parseQuadOrByteOperand()
		if err != nil {
			return nil, err
		}
		if op.Symbol != "" {
			return nil, errAt(tok, ".byte does not accept a symbolic operand")
		}
		if err := p.expectLineEnd(); err != nil {
			return nil, err
		}
		return &Statement{Kind: StmtDirective, Line: tok.Line, Col: tok.Column,
			Directive: Directive{Kind: "byte", Operand: op}}, nil

	default:
		return nil, errAt(tok, "unknown directive .%s", name)
	}
}

func (p *Parser) parseQuadOrByteOperand() (objfile.Operand, error) {
	neg := false
	if p.cur.Type == TOKEN_MINUS {
		neg = true
		p.next()
	}
	switch p.cur.Type {
	case TOKEN_NUMBER:
		v, err := parseIntLiteral(p.cur.Value)
		if err != nil {
			return objfile.Operand{}, errAt(p.cur, "%v", err)
		}
		p.next()
		if neg {
			v = -v
		}
		return objfile.ImmOperand(uint64(v), ""), nil
	case TOKEN_IDENT:
		name := p.cur.Value
		p.next()
		return objfile.ImmOperand(0, name), nil
	default:
		return objfile.Operand{}, errAt(p.cur, "expected a number or symbol")
	}
}

func (p *Parser) expectRegister() (objfile.Register, error) {
	if p.cur.Type != TOKEN_REGISTER {
		return objfile.Register{}, errAt(p.cur, "expected a register, found %q", p.cur.Value)
	}
	name := p.cur.Value
	reg, ok := objfile.LookupRegister(name)
	if !ok {
		return objfile.Register{}, errAt(p.cur, "unknown register %%%s", name)
	}
	p.next()
	return reg, nil
}

func (p *Parser) parseOperand() (objfile.Operand, error) {
	tok := p.cur
	switch tok.Type {
	case TOKEN_DOLLAR:
		p.next()
		return p.parseImmediate()

	case TOKEN_STAR:
		p.next()
		reg, err := p.expectRegister()
		if err != nil {
			return objfile.Operand{}, err
		}
		return objfile.RegIndirectOperand(reg), nil

	case TOKEN_REGISTER:
		reg, err := p.expectRegister()
		if err != nil {
			return objfile.Operand{}, err
		}
		return objfile.RegOperand(reg), nil

	case TOKEN_NUMBER, TOKEN_MINUS, TOKEN_LPAREN:
		return p.parseMemOperand()

	case TOKEN_IDENT:
		name := tok.Value
		p.next()
		if p.cur.Type == TOKEN_LPAREN {
			return objfile.Operand{}, errAt(tok, "a symbolic displacement in a memory operand is not supported")
		}
		return objfile.RelImmOperand(0, name), nil

	default:
		return objfile.Operand{}, errAt(tok, "expected an operand, found %q", tok.Value)
	}
}

func (p *Parser) parseImmediate() (objfile.Operand, error) {
	neg := false
	if p.cur.Type == TOKEN_MINUS {
		neg = true
		p.next()
	}
	switch p.cur.Type {
	case TOKEN_NUMBER:
		v, err := parseIntLiteral(p.cur.Value)
		if err != nil {
			return objfile.Operand{}, errAt(p.cur, "%v", err)
		}
		p.next()
		if neg {
			v = -v
		}
		return objfile.ImmOperand(uint64(v), ""), nil
	case TOKEN_IDENT:
		name := p.cur.Value
		p.next()
		return objfile.ImmOperand(0, name), nil
	default:
		return objfile.Operand{}, errAt(p.cur, "expected a number or symbol after '$'")
	}
}

func (p *Parser) parseMemOperand() (objfile.Operand, error) {
	var disp int64
	if p.cur.Type == TOKEN_MINUS || p.cur.Type == TOKEN_NUMBER {
		neg := false
		if p.cur.Type == TOKEN_MINUS {
			neg = true
			p.next()
		}
		if p.cur.Type != TOKEN_NUMBER {
			return objfile.Operand{}, errAt(p.cur, "expected a displacement number")
		}
		v, err := parseIntLiteral(p.cur.Value)
		if err != nil {
			return objfile.Operand{}, errAt(p.cur, "%v", err)
		}
		p.next()
		if neg {
			v = -v
		}
		disp = v
	}

	if p.cur.Type != TOKEN_LPAREN {
		return objfile.MemOperandOf(objfile.MemOperand{Base: objfile.RegNone, Index: objfile.RegNone, Disp: disp}), nil
	}
	p.next()

	base := objfile.RegNone
	if p.cur.Type == TOKEN_REGISTER {
		r, err := p.expectRegister()
		if err != nil {
			return objfile.Operand{}, err
		}
		if r.Width != 8 {
			return objfile.Operand{}, errAt(p.cur, "a memory base register must be 64-bit")
		}
		base = r.Reg
	}

	index := objfile.RegNone
	var scale uint8 = 1
	if p.cur.Type == TOKEN_COMMA {
		p.next()
		if p.cur.Type == TOKEN_REGISTER {
			r, err := p.expectRegister()
			if err != nil {
				return objfile.Operand{}, err
			}
			if r.Width != 8 {
				return objfile.Operand{}, errAt(p.cur, "a memory index register must be 64-bit")
			}
			index = r.Reg
		}
		if p.cur.Type == TOKEN_COMMA {
			p.next()
			if p.cur.Type != TOKEN_NUMBER {
				return objfile.Operand{}, errAt(p.cur, "expected a scale of 1, 2, 4 or 8")
			}
			s, err := parseIntLiteral(p.cur.Value)
			if err != nil {
				return objfile.Operand{}, errAt(p.cur, "%v", err)
			}
			p.next()
			scale = uint8(s)
		}
	}

	if p.cur.Type != TOKEN_RPAREN {
		return objfile.Operand{}, errAt(p.cur, "expected ')'")
	}
	p.next()

	return objfile.MemOperandOf(objfile.MemOperand{Base: base, Index: index, Scale: scale, Disp: disp}), nil
}

func parseIntLiteral(s string) (int64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}
