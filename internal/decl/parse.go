package decl

import (
	"fmt"
	"strings"
)

var predeclared = map[string]bool{
	"any": true, "bool": true, "byte": true, "complex64": true, "complex128": true,
	"error": true, "float32": true, "float64": true, "int": true, "int8": true,
	"int16": true, "int32": true, "int64": true, "rune": true, "string": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"uintptr": true,
}

// ParseType parses a type expression written with full import paths:
//
//	*example.com/app.DB
//	[]example.com/app.Plugin
//	map[string]func() example.com/app.Handler
//	func(string, int) (*example.com/app.User, error)
//	example.com/box.Box[string]
func ParseType(s string) (*Type, error) {
	p := &typeParser{src: s}
	t, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("parse type %q: %w", s, err)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("parse type %q: unexpected %q at offset %d", s, p.src[p.pos:], p.pos)
	}
	return t, nil
}

// MustParseType is ParseType for fixtures and tests.
func MustParseType(s string) *Type {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) consume(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *typeParser) expect(tok string) error {
	if !p.consume(tok) {
		return fmt.Errorf("expected %q at offset %d", tok, p.pos)
	}
	return nil
}

func (p *typeParser) parse() (*Type, error) {
	p.skipSpace()
	switch {
	case p.consume("*"):
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		return PointerTo(elem), nil
	case p.consume("[]"):
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		return SliceOf(elem), nil
	case p.consume("map["):
		key, err := p.parse()
		if err != nil {
			return nil, err
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		return MapOf(key, elem), nil
	case p.consume("func("):
		return p.parseFunc()
	}
	return p.parseNamed()
}

func (p *typeParser) parseFunc() (*Type, error) {
	params, err := p.parseList(")")
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos == len(p.src) || strings.ContainsRune(",])", rune(p.src[p.pos])) {
		return FuncOf(params, nil), nil
	}
	if p.consume("(") {
		results, err := p.parseList(")")
		if err != nil {
			return nil, err
		}
		return FuncOf(params, results), nil
	}
	result, err := p.parse()
	if err != nil {
		return nil, err
	}
	return FuncOf(params, []*Type{result}), nil
}

// parseList reads comma separated types up to and including the closing token.
func (p *typeParser) parseList(closing string) ([]*Type, error) {
	var list []*Type
	if p.consume(closing) {
		return list, nil
	}
	for {
		t, err := p.parse()
		if err != nil {
			return nil, err
		}
		list = append(list, t)
		if p.consume(closing) {
			return list, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}

func (p *typeParser) parseNamed() (*Type, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("[](),* ", rune(p.src[p.pos])) {
		p.pos++
	}
	word := p.src[start:p.pos]
	if word == "" {
		return nil, fmt.Errorf("expected type name at offset %d", start)
	}
	if word == "interface{}" {
		return BasicType("any"), nil
	}

	dot := strings.LastIndex(word, ".")
	if dot < 0 {
		if predeclared[word] {
			return BasicType(word), nil
		}
		return NamedType("", word), nil
	}
	t := NamedType(word[:dot], word[dot+1:])
	if p.pos < len(p.src) && p.src[p.pos] == '[' && !strings.HasPrefix(p.src[p.pos:], "[]") {
		p.pos++
		args, err := p.parseList("]")
		if err != nil {
			return nil, err
		}
		t.Args = args
	}
	return t, nil
}
