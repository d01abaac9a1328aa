package xmpp

import (
	"fmt"
	"strings"
)

// JID is the addressable identity of a connection:
// {accountId}@{domain}[/{resource}].
type JID struct {
	Account  string
	Domain   string
	Resource string
}

// NewJID builds a full JID from its parts.
func NewJID(account, domain, resource string) JID {
	return JID{Account: account, Domain: domain, Resource: resource}
}

// ParseJID parses "account@domain" or "account@domain/resource".
func ParseJID(s string) (JID, error) {
	at := strings.IndexByte(s, '@')
	if at <= 0 {
		return JID{}, fmt.Errorf("invalid jid %q: missing account part", s)
	}
	account := s[:at]
	rest := s[at+1:]

	var domain, resource string
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		domain = rest[:slash]
		resource = rest[slash+1:]
		if resource == "" {
			return JID{}, fmt.Errorf("invalid jid %q: empty resource", s)
		}
	} else {
		domain = rest
	}
	if domain == "" {
		return JID{}, fmt.Errorf("invalid jid %q: missing domain part", s)
	}
	return JID{Account: account, Domain: domain, Resource: resource}, nil
}

// Bare returns the JID without its resource part.
func (j JID) Bare() JID {
	return JID{Account: j.Account, Domain: j.Domain}
}

// IsFull reports whether the JID carries a resource.
func (j JID) IsFull() bool { return j.Resource != "" }

// IsZero reports whether the JID is unset.
func (j JID) IsZero() bool { return j.Account == "" && j.Domain == "" }

func (j JID) String() string {
	if j.Resource == "" {
		return j.Account + "@" + j.Domain
	}
	return j.Account + "@" + j.Domain + "/" + j.Resource
}
