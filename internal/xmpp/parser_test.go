package xmpp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelfClosing(t *testing.T) {
	st, err := Parse(`<open to="chat.lumenplay.net" version="1.0"/>`)
	require.NoError(t, err)
	assert.Equal(t, "open", st.Name)
	assert.Equal(t, "chat.lumenplay.net", st.GetAttr("to"))
	assert.Equal(t, "1.0", st.GetAttr("version"))
	assert.Empty(t, st.Children)
	assert.Empty(t, st.Text)
}

func TestParseNestedChildren(t *testing.T) {
	frame := `<iq id="b1" type="set">` +
		`<bind xmlns="urn:ietf:params:xml:ns:xmpp-bind"><resource>PC</resource></bind>` +
		`</iq>`
	st, err := Parse(frame)
	require.NoError(t, err)
	require.Equal(t, "iq", st.Name)

	bind := st.ChildNamed("bind")
	require.NotNil(t, bind)
	res := bind.ChildNamed("resource")
	require.NotNil(t, res)
	assert.Equal(t, "PC", res.Text)
}

func TestParseTextContent(t *testing.T) {
	st, err := Parse(`<auth mechanism="PLAIN">AGFiYwB0b2tlbg==</auth>`)
	require.NoError(t, err)
	assert.Equal(t, "AGFiYwB0b2tlbg==", st.Text)
	assert.Equal(t, "PLAIN", st.GetAttr("mechanism"))
}

func TestParseEntities(t *testing.T) {
	st, err := Parse(`<message to="u2@d"><body>&lt;hi&gt; &amp; &quot;bye&quot; &apos;s</body></message>`)
	require.NoError(t, err)
	body := st.ChildNamed("body")
	require.NotNil(t, body)
	assert.Equal(t, `<hi> & "bye" 's`, body.Text)
}

func TestParseSurroundingWhitespace(t *testing.T) {
	st, err := Parse("\n  <presence/>  \n")
	require.NoError(t, err)
	assert.Equal(t, "presence", st.Name)
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"not an element", "hello"},
		{"unterminated open", "<open"},
		{"unterminated element", "<message><body>x</body>"},
		{"mismatched close", "<message><body>x</wrong></message>"},
		{"wrong root close", "<message>x</presence>"},
		{"bare ampersand", "<body>a & b</body>"},
		{"numeric entity", "<body>&#65;</body>"},
		{"unterminated attr", `<open to="x`},
		{"unquoted attr", `<open to=x/>`},
		{"angle in attr", `<open to="<x"/>`},
		{"duplicate attr", `<open to="a" to="b"/>`},
		{"two roots", "<a/><b/>"},
		{"trailing garbage", "<a/>junk"},
		{"comment", "<!-- hi --><a/>"},
		{"processing instruction", `<?xml version="1.0"?><a/>`},
		{"cdata", "<a><![CDATA[x]]></a>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.frame)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrBadFrame)
		})
	}
}

// Every stanza shape the gateway emits must survive a serialize/parse
// round trip with the same names, attributes, text and children.
func TestRoundTrip(t *testing.T) {
	stanzas := []*Stanza{
		NewStanza("open").Attr("from", "chat.lumenplay.net").Attr("id", "abc").Attr("version", "1.0"),
		NewStanza("success").Attr("xmlns", "urn:ietf:params:xml:ns:xmpp-sasl"),
		NewStanza("failure").Attr("xmlns", "urn:ietf:params:xml:ns:xmpp-sasl").
			Child(NewStanza("not-authorized")),
		NewStanza("iq").Attr("id", "b1").Attr("type", "result").
			Child(NewStanza("bind").Attr("xmlns", "urn:ietf:params:xml:ns:xmpp-bind").
				Child(NewStanza("jid").SetText("u1@chat.lumenplay.net/PC"))),
		NewStanza("message").Attr("from", "u1@d/PC").Attr("to", "u2@d").Attr("type", "chat").
			Child(NewStanza("body").SetText(`hello & <goodbye> "quoted"`)),
		NewStanza("presence").Attr("from", "u1@d/PC").Attr("type", "available").
			Child(NewStanza("show").SetText("away")).
			Child(NewStanza("status").SetText(`{"online":true}`)),
		NewStanza("close").Attr("xmlns", "urn:ietf:params:xml:ns:xmpp-framing"),
	}

	for _, want := range stanzas {
		t.Run(want.Name, func(t *testing.T) {
			got, err := Parse(want.String())
			require.NoError(t, err)
			assertStanzaEqual(t, want, got)
		})
	}
}

func assertStanzaEqual(t *testing.T, want, got *Stanza) {
	t.Helper()
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Attrs, got.Attrs)
	assert.Equal(t, want.Text, got.Text)
	require.Len(t, got.Children, len(want.Children))
	for i := range want.Children {
		assertStanzaEqual(t, want.Children[i], got.Children[i])
	}
}
