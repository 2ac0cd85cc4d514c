package lpc

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// restoreParser is the hand-written recursive-descent reader for the
// rvalue grammar of spec.md §4.4, carrying a shared depth counter the
// way the teacher's own grammar_parser.go/base_parser.go walk their
// grammar text: a cursor over the input plus position-local helpers,
// no separate lexer pass.
type restoreParser struct {
	s     string
	pos   int
	depth int
}

func (p *restoreParser) eof() bool { return p.pos >= len(p.s) }
func (p *restoreParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.s[p.pos]
}
func (p *restoreParser) advance() byte {
	c := p.s[p.pos]
	p.pos++
	return c
}

func (p *restoreParser) expect(c byte) error {
	if p.eof() || p.peek() != c {
		return fmt.Errorf("restore: expected %q at offset %d", c, p.pos)
	}
	p.pos++
	return nil
}

// parseValue parses one rvalue per the grammar in spec.md §4.4,
// refusing to recurse past maxSaveSvalueDepth (spec.md "exceeding it
// raises an error").
func (p *restoreParser) parseValue() (Value, error) {
	if p.depth > maxSaveSvalueDepth {
		return nil, errTooDeep
	}
	if p.eof() {
		return nil, fmt.Errorf("restore: unexpected end of value")
	}
	switch c := p.peek(); {
	case c == '"':
		return p.parseString()
	case c == '(' && p.at("({"):
		return p.parseArray()
	case c == '(' && p.at("(["):
		return p.parseMapping()
	case c == '(' && p.at("(/"):
		return p.parseClass()
	case c == '-' || isDigit(c):
		return p.parseNumber()
	default:
		return nil, fmt.Errorf("restore: unexpected character %q at offset %d", c, p.pos)
	}
}

func (p *restoreParser) at(prefix string) bool {
	return strings.HasPrefix(p.s[p.pos:], prefix)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (p *restoreParser) parseString() (Value, error) {
	if err := p.expect('"'); err != nil {
		return nil, err
	}
	var b strings.Builder
	for {
		if p.eof() {
			return nil, fmt.Errorf("restore: unterminated string")
		}
		c := p.advance()
		switch c {
		case '"':
			return NewMallocString(b.String()), nil
		case '\\':
			if p.eof() {
				return nil, fmt.Errorf("restore: dangling escape")
			}
			esc := p.advance()
			switch esc {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 'n', 'r':
				// on-disk "\r" stands for an embedded newline
				// (spec.md §4.4 escaping table); accept a literal
				// "\n" too so hand-written fixtures round-trip.
				b.WriteByte('\n')
			default:
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(c)
		}
	}
}

func (p *restoreParser) parseNumber() (Value, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for !p.eof() && isDigit(p.peek()) {
		p.pos++
	}
	isReal := false
	if !p.eof() && p.peek() == '.' {
		isReal = true
		p.pos++
		for !p.eof() && isDigit(p.peek()) {
			p.pos++
		}
	}
	if !p.eof() && (p.peek() == 'e' || p.peek() == 'E') {
		isReal = true
		p.pos++
		if !p.eof() && (p.peek() == '+' || p.peek() == '-') {
			p.pos++
		}
		for !p.eof() && isDigit(p.peek()) {
			p.pos++
		}
	}
	text := p.s[start:p.pos]
	if isReal {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("restore: bad real literal %q: %w", text, err)
		}
		return NewFloat(f), nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("restore: bad int literal %q: %w", text, err)
	}
	return NewInt(i), nil
}

func (p *restoreParser) skipSpace() {
	for !p.eof() && (p.peek() == ' ' || p.peek() == '\t') {
		p.pos++
	}
}

func (p *restoreParser) parseArray() (Value, error) {
	p.pos += 2 // "({"
	p.depth++
	defer func() { p.depth-- }()
	var items []Value
	p.skipSpace()
	for !p.at("})") {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		RefValue(v)
		items = append(items, v)
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			p.skipSpace()
			continue
		}
		break
	}
	if !p.at("})") {
		return nil, fmt.Errorf("restore: expected '})' at offset %d", p.pos)
	}
	p.pos += 2
	return NewArray(items), nil
}

func (p *restoreParser) parseMapping() (Value, error) {
	p.pos += 2 // "(["
	p.depth++
	defer func() { p.depth-- }()
	m := NewMapping(0)
	p.skipSpace()
	for !p.at("])") {
		k, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		p.skipSpace()
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if err := m.Set(k, v); err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			p.skipSpace()
			continue
		}
		break
	}
	if !p.at("])") {
		return nil, fmt.Errorf("restore: expected '])' at offset %d", p.pos)
	}
	p.pos += 2
	return m, nil
}

func (p *restoreParser) parseClass() (Value, error) {
	p.pos += 2 // "(/"
	p.depth++
	defer func() { p.depth-- }()
	var items []Value
	p.skipSpace()
	for !p.at("/)") {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		RefValue(v)
		items = append(items, v)
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			p.skipSpace()
			continue
		}
		break
	}
	if !p.at("/)") {
		return nil, fmt.Errorf("restore: expected '/)' at offset %d", p.pos)
	}
	p.pos += 2
	return NewClass(nil, items), nil
}

// parsedVar is one "name rvalue" line read from a save file, kept
// distinct from the variable's eventual slot so RestoreObject can
// apply the noclear==1 atomic-replace-on-success rule.
type parsedVar struct {
	name string
	val  Value
}

// parseSaveFile reads the "#/program-path" header plus every "name
// rvalue" line, matching spec.md §6.3 exactly: unknown variable names
// are not resolved here (RestoreObject does that against the live
// program) and "#" comment lines are skipped.
func parseSaveFile(path string, maxBytes int) (header string, vars []parsedVar, err error) {
	if maxBytes > 0 {
		if fi, statErr := os.Stat(path); statErr == nil && fi.Size() > int64(maxBytes) {
			return "", nil, fmt.Errorf("restore: save file exceeds __MAX_READ_FILE_SIZE__ (%d > %d)", fi.Size(), maxBytes)
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if lineNo == 1 {
			if !strings.HasPrefix(line, "#") {
				return "", nil, fmt.Errorf("restore: missing header line")
			}
			header = strings.TrimPrefix(line, "#")
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			continue // malformed line, skip it like an unknown variable
		}
		name := line[:sp]
		rp := &restoreParser{s: line[sp+1:]}
		v, perr := rp.parseValue()
		if perr != nil {
			// a single bad value leaves the corresponding slot
			// untouched (noclear==1) or 0u (noclear==0) rather than
			// failing the whole restore.
			continue
		}
		vars = append(vars, parsedVar{name: name, val: v})
	}
	if err := sc.Err(); err != nil {
		return "", nil, err
	}
	return header, vars, nil
}

// RestoreObject deserializes path (with the configured save-file
// extension appended) into ob's non-static variables, per spec.md
// §4.4/§6.2.
//
// noclear == false: every non-static variable is reset to 0u before
// parsing, so a variable missing from the file ends up 0u.
// noclear == true: values are parsed directly into the existing slot,
// and a single variable whose value fails to parse keeps its original
// value (spec.md "a single-slot atomic replace that preserves the
// original value on parse failure").
func (vm *VM) RestoreObject(ob *Object, path string, noclear bool) error {
	real, err := vm.Sandbox.Resolve(path + vm.Config.GetString(ConfigSaveFileExtension))
	if err != nil {
		return err
	}
	_, vars, err := parseSaveFile(real, vm.Config.GetInt(ConfigMaxReadFileSize))
	if err != nil {
		return err
	}

	if !noclear {
		for i := range ob.Vars {
			if i < len(ob.Program.Variables) && ob.Program.Statics[ob.Program.Variables[i]] {
				continue
			}
			UnrefValue(ob.Vars[i])
			ob.Vars[i] = UndefinedZero()
		}
	}

	for _, pv := range vars {
		idx, ok := ob.Program.VariableByName(pv.name)
		if !ok {
			continue // unknown variable names are silently ignored
		}
		if ob.Program.Statics[pv.name] {
			continue
		}
		old := ob.Vars[idx]
		UnrefValue(old)
		RefValue(pv.val)
		ob.Vars[idx] = pv.val
	}
	return nil
}
