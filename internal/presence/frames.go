package presence

import (
	"fmt"

	"github.com/lumenplay/presenced/internal/xmpp"
)

// Protocol namespaces for the stanza subset in use.
const (
	nsFraming = "urn:ietf:params:xml:ns:xmpp-framing"
	nsSASL    = "urn:ietf:params:xml:ns:xmpp-sasl"
	nsBind    = "urn:ietf:params:xml:ns:xmpp-bind"
	nsSession = "urn:ietf:params:xml:ns:xmpp-session"
	nsStreams = "urn:ietf:params:xml:ns:xmpp-streams"
)

// saslCondition is a SASL failure condition sent before closing.
type saslCondition string

const (
	condMalformedRequest   saslCondition = "malformed-request"
	condIncorrectEncoding  saslCondition = "incorrect-encoding"
	condNotAuthorized      saslCondition = "not-authorized"
	condResourceConstraint saslCondition = "resource-constraint"
	condAccountDisabled    saslCondition = "account-disabled"
)

// streamCondition is a stream-level error condition sent before closing.
type streamCondition string

const (
	streamBadFormat             streamCondition = "bad-format"
	streamInternalServerError   streamCondition = "internal-server-error"
	streamFeatureNotImplemented streamCondition = "feature-not-implemented"
	streamNotAuthorized         streamCondition = "not-authorized"
)

// frame is the tagged variant a parsed stanza is classified into, so the
// stream and router switch exhaustively over frame kinds instead of
// comparing name strings in every handler.
type frame interface{ isFrame() }

type openFrame struct {
	to string
}

type authFrame struct {
	mechanism string
	payload   string
}

type bindRequest struct {
	resource string
}

// iqFrame covers bind, session establishment and generic get/set queries.
type iqFrame struct {
	id      string
	typ     string
	bind    *bindRequest
	session bool
}

type messageFrame struct {
	to   string
	id   string
	typ  string
	body string
}

type presenceFrame struct {
	away   bool
	status string
}

type closeFrame struct{}

func (openFrame) isFrame()     {}
func (authFrame) isFrame()     {}
func (*iqFrame) isFrame()      {}
func (messageFrame) isFrame()  {}
func (presenceFrame) isFrame() {}
func (closeFrame) isFrame()    {}

// classify decodes a stanza tree into its frame variant once, at the
// parse boundary. Stanza names outside the subset are an error the
// caller maps to feature-not-implemented.
func classify(st *xmpp.Stanza) (frame, error) {
	switch st.Name {
	case "open":
		return openFrame{to: st.GetAttr("to")}, nil
	case "close":
		return closeFrame{}, nil
	case "auth":
		return authFrame{mechanism: st.GetAttr("mechanism"), payload: st.Text}, nil
	case "iq":
		f := &iqFrame{id: st.GetAttr("id"), typ: st.GetAttr("type")}
		if bind := st.ChildNamed("bind"); bind != nil {
			req := &bindRequest{}
			if res := bind.ChildNamed("resource"); res != nil {
				req.resource = res.Text
			}
			f.bind = req
		} else if st.HasChild("session") {
			f.session = true
		}
		return f, nil
	case "message":
		f := messageFrame{
			to:  st.GetAttr("to"),
			id:  st.GetAttr("id"),
			typ: st.GetAttr("type"),
		}
		if body := st.ChildNamed("body"); body != nil {
			f.body = body.Text
		}
		return f, nil
	case "presence":
		f := presenceFrame{away: st.HasChild("show")}
		if status := st.ChildNamed("status"); status != nil {
			f.status = status.Text
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported stanza %q", st.Name)
	}
}
