package xmpp

// Package xmpp implements the constrained stanza codec spoken by the
// presence gateway. It is intentionally not a general XML parser: the wire
// format is a finite vocabulary of framing, SASL, IQ, message and presence
// elements, and anything outside that shape is a fatal parse failure.

import (
	"sort"
	"strings"
)

// Stanza is one parsed or built protocol frame: a named element with
// attributes, optional text content and child elements. Stanzas are
// transient; they are produced per frame and discarded after handling.
type Stanza struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*Stanza
}

// NewStanza creates a stanza with the given element name.
func NewStanza(name string) *Stanza {
	return &Stanza{Name: name, Attrs: map[string]string{}}
}

// Attr sets an attribute and returns the stanza for chaining.
func (s *Stanza) Attr(key, value string) *Stanza {
	s.Attrs[key] = value
	return s
}

// SetText sets the text content and returns the stanza for chaining.
func (s *Stanza) SetText(text string) *Stanza {
	s.Text = text
	return s
}

// Child appends a child element and returns the parent for chaining.
func (s *Stanza) Child(c *Stanza) *Stanza {
	s.Children = append(s.Children, c)
	return s
}

// GetAttr returns the attribute value, or "" when absent.
func (s *Stanza) GetAttr(key string) string {
	return s.Attrs[key]
}

// ChildNamed returns the first child with the given name, or nil.
func (s *Stanza) ChildNamed(name string) *Stanza {
	for _, c := range s.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// HasChild reports whether a child with the given name exists.
func (s *Stanza) HasChild(name string) bool {
	return s.ChildNamed(name) != nil
}

// String serializes the stanza to frame text. Attributes are emitted in
// sorted key order so output is deterministic.
func (s *Stanza) String() string {
	var b strings.Builder
	s.write(&b)
	return b.String()
}

func (s *Stanza) write(b *strings.Builder) {
	b.WriteByte('<')
	b.WriteString(s.Name)

	keys := make([]string, 0, len(s.Attrs))
	for k := range s.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(escapeText(s.Attrs[k]))
		b.WriteByte('"')
	}

	if s.Text == "" && len(s.Children) == 0 {
		b.WriteString("/>")
		return
	}

	b.WriteByte('>')
	b.WriteString(escapeText(s.Text))
	for _, c := range s.Children {
		c.write(b)
	}
	b.WriteString("</")
	b.WriteString(s.Name)
	b.WriteByte('>')
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeText(s string) string {
	return escaper.Replace(s)
}
