package gputest

import (
	"fmt"
	"regexp"
	"strings"
)

// declarations are the interface names that survive preprocessing.
type declarations struct {
	uniforms []string
	ins      []string
	outs     []string
}

var (
	uniformDecl = regexp.MustCompile(`^\s*uniform\s+\w+\s+(\w+)\s*(\[\s*\d+\s*\])?\s*;`)
	inDecl      = regexp.MustCompile(`^\s*(?:layout\s*\([^)]*\)\s*)?(?:flat\s+|smooth\s+|noperspective\s+)?in\s+\w+\s+(\w+)\s*;`)
	outDecl     = regexp.MustCompile(`^\s*(?:layout\s*\([^)]*\)\s*)?(?:flat\s+|smooth\s+|noperspective\s+)?out\s+\w+\s+(\w+)\s*;`)
)

type cond struct {
	parentActive bool
	taken        bool
	active       bool
	sawElse      bool
}

// preprocess evaluates the conditional directives of src and returns the
// active source lines.
func preprocess(src string) ([]string, error) {
	defines := map[string]string{}
	var stack []cond
	active := func() bool {
		if len(stack) == 0 {
			return true
		}
		return stack[len(stack)-1].active
	}
	var out []string
	for n, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(raw)
		if !strings.HasPrefix(line, "#") {
			if active() {
				out = append(out, raw)
			}
			continue
		}
		directive, rest, _ := strings.Cut(strings.TrimSpace(line[1:]), " ")
		rest = strings.TrimSpace(rest)
		switch directive {
		case "version", "extension", "pragma", "line":
		case "define":
			if active() {
				name, value, _ := strings.Cut(rest, " ")
				if name == "" {
					return nil, fmt.Errorf("%d: #define without name", n+1)
				}
				defines[name] = strings.TrimSpace(value)
			}
		case "undef":
			if active() {
				delete(defines, rest)
			}
		case "error":
			if active() {
				return nil, fmt.Errorf("%d: #error %s", n+1, rest)
			}
		case "ifdef", "ifndef", "if":
			parent := active()
			var ok bool
			switch directive {
			case "ifdef":
				_, ok = defines[rest]
			case "ifndef":
				_, ok = defines[rest]
				ok = !ok
			default:
				v, err := evalCondition(rest, defines)
				if err != nil {
					return nil, fmt.Errorf("%d: %w", n+1, err)
				}
				ok = v
			}
			stack = append(stack, cond{parentActive: parent, taken: ok, active: parent && ok})
		case "elif":
			if len(stack) == 0 {
				return nil, fmt.Errorf("%d: #elif without #if", n+1)
			}
			top := &stack[len(stack)-1]
			if top.sawElse {
				return nil, fmt.Errorf("%d: #elif after #else", n+1)
			}
			if top.taken {
				top.active = false
				continue
			}
			v, err := evalCondition(rest, defines)
			if err != nil {
				return nil, fmt.Errorf("%d: %w", n+1, err)
			}
			top.taken = v
			top.active = top.parentActive && v
		case "else":
			if len(stack) == 0 {
				return nil, fmt.Errorf("%d: #else without #if", n+1)
			}
			top := &stack[len(stack)-1]
			if top.sawElse {
				return nil, fmt.Errorf("%d: duplicate #else", n+1)
			}
			top.sawElse = true
			top.active = top.parentActive && !top.taken
			top.taken = true
		case "endif":
			if len(stack) == 0 {
				return nil, fmt.Errorf("%d: #endif without #if", n+1)
			}
			stack = stack[:len(stack)-1]
		default:
			return nil, fmt.Errorf("%d: unknown directive #%s", n+1, directive)
		}
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("unterminated #if")
	}
	return out, nil
}

func scanDeclarations(lines []string) declarations {
	var d declarations
	for _, l := range lines {
		if m := uniformDecl.FindStringSubmatch(l); m != nil {
			d.uniforms = append(d.uniforms, m[1])
		} else if m := inDecl.FindStringSubmatch(l); m != nil {
			d.ins = append(d.ins, m[1])
		} else if m := outDecl.FindStringSubmatch(l); m != nil {
			d.outs = append(d.outs, m[1])
		}
	}
	return d
}

var condToken = regexp.MustCompile(`\s*(defined|\|\||&&|!|\(|\)|[A-Za-z_]\w*|\d+)`)

type condParser struct {
	toks    []string
	pos     int
	defines map[string]string
}

// evalCondition handles the subset of #if expressions the shaders use:
// defined(NAME), defined NAME, integer literals, macro names, !, && and ||.
func evalCondition(expr string, defines map[string]string) (bool, error) {
	var toks []string
	rest := expr
	for strings.TrimSpace(rest) != "" {
		loc := condToken.FindStringSubmatchIndex(rest)
		if loc == nil || loc[0] != 0 {
			return false, fmt.Errorf("bad #if expression %q", expr)
		}
		toks = append(toks, rest[loc[2]:loc[3]])
		rest = rest[loc[1]:]
	}
	p := &condParser{toks: toks, defines: defines}
	v, err := p.or()
	if err != nil {
		return false, err
	}
	if p.pos != len(p.toks) {
		return false, fmt.Errorf("trailing tokens in #if expression %q", expr)
	}
	return v, nil
}

func (p *condParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *condParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *condParser) or() (bool, error) {
	v, err := p.and()
	if err != nil {
		return false, err
	}
	for p.peek() == "||" {
		p.next()
		r, err := p.and()
		if err != nil {
			return false, err
		}
		v = v || r
	}
	return v, nil
}

func (p *condParser) and() (bool, error) {
	v, err := p.unary()
	if err != nil {
		return false, err
	}
	for p.peek() == "&&" {
		p.next()
		r, err := p.unary()
		if err != nil {
			return false, err
		}
		v = v && r
	}
	return v, nil
}

func (p *condParser) unary() (bool, error) {
	switch t := p.next(); {
	case t == "!":
		v, err := p.unary()
		return !v, err
	case t == "(":
		v, err := p.or()
		if err != nil {
			return false, err
		}
		if p.next() != ")" {
			return false, fmt.Errorf("missing )")
		}
		return v, nil
	case t == "defined":
		paren := p.peek() == "("
		if paren {
			p.next()
		}
		name := p.next()
		if paren && p.next() != ")" {
			return false, fmt.Errorf("missing ) after defined")
		}
		_, ok := p.defines[name]
		return ok, nil
	case t == "":
		return false, fmt.Errorf("unexpected end of #if expression")
	case t[0] >= '0' && t[0] <= '9':
		return t != "0", nil
	default:
		v, ok := p.defines[t]
		return ok && v != "" && v != "0", nil
	}
}
