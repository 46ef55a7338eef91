package engine

import (
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites layout script source into something zygomys
// reads:
//
//   - :keyword becomes the string literal "__kw_keyword", so keywords never
//     collide with user variables of the same name. := is left alone.
//   - ; and ;; line comments become // comments.
//   - kebab-case identifiers become snake_case (pin-row -> pin_row), since
//     zygomys reads a bare hyphen as subtraction.
//
// String literals, both "..." and `...`, pass through untouched.
func preprocessSource(source string) string {
	p := preprocessor{src: source}
	p.out.Grow(len(source) + len(source)/4)
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == '"':
			p.quoted('"', true)
		case c == '`':
			p.quoted('`', false)
		case c == ';':
			p.comment()
		case c == ':' && p.peek(1) == '=':
			p.copy(2)
		case c == ':' && isLetter(p.peek(1)):
			p.keyword()
		case c == '-' && p.pos > 0 && isIdentChar(p.src[p.pos-1]) && isLetter(p.peek(1)):
			p.out.WriteByte('_')
			p.pos++
		default:
			p.copy(1)
		}
	}
	return p.out.String()
}

type preprocessor struct {
	src string
	pos int
	out strings.Builder
}

// peek returns the byte n ahead of the cursor, or 0 past the end.
func (p *preprocessor) peek(n int) byte {
	if p.pos+n < len(p.src) {
		return p.src[p.pos+n]
	}
	return 0
}

func (p *preprocessor) copy(n int) {
	end := min(p.pos+n, len(p.src))
	p.out.WriteString(p.src[p.pos:end])
	p.pos = end
}

// quoted copies a literal through its closing delimiter. An unterminated
// literal runs to the end of the source.
func (p *preprocessor) quoted(delim byte, escapes bool) {
	start := p.pos
	p.pos++
	for p.pos < len(p.src) && p.src[p.pos] != delim {
		if escapes && p.src[p.pos] == '\\' && p.pos+1 < len(p.src) {
			p.pos++
		}
		p.pos++
	}
	if p.pos < len(p.src) {
		p.pos++
	}
	p.out.WriteString(p.src[start:p.pos])
}

// comment rewrites a run of semicolons as //. The rest of the line is
// copied; the newline is left for the main loop.
func (p *preprocessor) comment() {
	for p.pos < len(p.src) && p.src[p.pos] == ';' {
		p.pos++
	}
	p.out.WriteString("//")
	end := strings.IndexByte(p.src[p.pos:], '\n')
	if end < 0 {
		end = len(p.src) - p.pos
	}
	p.copy(end)
}

func (p *preprocessor) keyword() {
	start := p.pos + 1
	end := start
	for end < len(p.src) && isKWChar(p.src[end]) {
		end++
	}
	p.out.WriteByte('"')
	p.out.WriteString(kwPrefix)
	p.out.WriteString(p.src[start:end])
	p.out.WriteByte('"')
	p.pos = end
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}

func isKWChar(c byte) bool {
	return isIdentChar(c) || c == '-'
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwArgs holds a builtin's arguments split into keyword and positional.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// keywordName reports whether s is a preprocessed keyword and returns its
// name without the prefix.
func keywordName(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	return strings.CutPrefix(str.S, kwPrefix)
}

// parseArgs pairs each keyword with the argument after it. A keyword in
// last position maps to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	pa := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := keywordName(args[i])
		if !ok {
			pa.positional = append(pa.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			pa.kw[name] = args[i+1]
			i++
		} else {
			pa.kw[name] = zygo.SexpNull
		}
	}
	return pa
}
