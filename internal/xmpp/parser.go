package xmpp

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadFrame wraps every parse failure so callers can map any malformed
// inbound frame to a stream-level bad-format close.
var ErrBadFrame = errors.New("malformed frame")

// Parse parses one frame of text into a stanza tree. The grammar is a
// small recursive descent over the subset the protocol uses: one root
// element, name="value" attributes, self-closing tags, nested children
// and entity-escaped text. Comments, processing instructions, CDATA and
// anything else XML allows are out of subset and fail the parse.
func Parse(frame string) (*Stanza, error) {
	p := &parser{src: frame}
	p.skipSpace()
	st, err := p.element()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.failf("trailing data after root element")
	}
	return st, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) failf(format string, args ...any) error {
	return fmt.Errorf("%w: %s (offset %d)", ErrBadFrame, fmt.Sprintf(format, args...), p.pos)
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '-' || c == '_' || c == ':' || c == '.'
}

func (p *parser) name() (string, error) {
	start := p.pos
	for !p.eof() && isNameByte(p.peek()) {
		p.pos++
	}
	if p.pos == start {
		return "", p.failf("expected name")
	}
	return p.src[start:p.pos], nil
}

// element parses one element starting at '<'.
func (p *parser) element() (*Stanza, error) {
	if p.eof() || p.peek() != '<' {
		return nil, p.failf("expected element start")
	}
	p.pos++

	name, err := p.name()
	if err != nil {
		return nil, err
	}
	st := NewStanza(name)

	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.failf("unterminated element <%s>", name)
		}
		switch p.peek() {
		case '/':
			p.pos++
			if p.eof() || p.peek() != '>' {
				return nil, p.failf("expected '>' after '/'")
			}
			p.pos++
			return st, nil
		case '>':
			p.pos++
			if err := p.content(st); err != nil {
				return nil, err
			}
			return st, nil
		default:
			key, err := p.name()
			if err != nil {
				return nil, err
			}
			if p.eof() || p.peek() != '=' {
				return nil, p.failf("expected '=' after attribute %q", key)
			}
			p.pos++
			val, err := p.attrValue()
			if err != nil {
				return nil, err
			}
			if _, dup := st.Attrs[key]; dup {
				return nil, p.failf("duplicate attribute %q", key)
			}
			st.Attrs[key] = val
		}
	}
}

func (p *parser) attrValue() (string, error) {
	if p.eof() || p.peek() != '"' {
		return "", p.failf("expected '\"' to open attribute value")
	}
	p.pos++
	start := p.pos
	for !p.eof() {
		switch p.peek() {
		case '"':
			val, err := p.unescape(p.src[start:p.pos])
			if err != nil {
				return "", err
			}
			p.pos++
			return val, nil
		case '<':
			return "", p.failf("'<' inside attribute value")
		default:
			p.pos++
		}
	}
	return "", p.failf("unterminated attribute value")
}

// content parses text and child elements up to the matching close tag.
func (p *parser) content(parent *Stanza) error {
	var text strings.Builder
	for {
		if p.eof() {
			return p.failf("unterminated element <%s>", parent.Name)
		}
		if p.peek() == '<' {
			if strings.HasPrefix(p.src[p.pos:], "</") {
				p.pos += 2
				name, err := p.name()
				if err != nil {
					return err
				}
				if name != parent.Name {
					return p.failf("close tag </%s> does not match <%s>", name, parent.Name)
				}
				p.skipSpace()
				if p.eof() || p.peek() != '>' {
					return p.failf("expected '>' in close tag")
				}
				p.pos++
				parent.Text = text.String()
				return nil
			}
			child, err := p.element()
			if err != nil {
				return err
			}
			parent.Children = append(parent.Children, child)
			continue
		}
		start := p.pos
		for !p.eof() && p.peek() != '<' {
			p.pos++
		}
		chunk, err := p.unescape(p.src[start:p.pos])
		if err != nil {
			return err
		}
		text.WriteString(chunk)
	}
}

var entities = map[string]string{
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"quot": `"`,
	"apos": "'",
}

// unescape resolves the five predefined entities. Numeric references and
// unknown entities are out of subset.
func (p *parser) unescape(s string) (string, error) {
	if !strings.ContainsRune(s, '&') {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c != '&' {
			b.WriteByte(c)
			i++
			continue
		}
		end := strings.IndexByte(s[i:], ';')
		if end < 0 {
			return "", p.failf("unterminated entity")
		}
		rep, ok := entities[s[i+1:i+end]]
		if !ok {
			return "", p.failf("unsupported entity %q", s[i:i+end+1])
		}
		b.WriteString(rep)
		i += end + 1
	}
	return b.String(), nil
}
