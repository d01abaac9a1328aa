package model

import "encoding/json"

// NotificationKind classifies the JSON message bodies the gateway is
// willing to relay between friends. Anything outside this set is echoed
// back to its sender only, never forwarded.
type NotificationKind string

const (
	NotificationPartyInvite        NotificationKind = "party.invite"
	NotificationPartyUpdate        NotificationKind = "party.update"
	NotificationPartyMemberChanged NotificationKind = "party.memberchanged"
	NotificationPartyPing          NotificationKind = "party.ping"
	NotificationFriendRequest      NotificationKind = "friend.request"

	// NotificationUnknown marks a well-formed JSON body whose type is not
	// in the relay allow-list.
	NotificationUnknown NotificationKind = ""
)

var relayableKinds = map[NotificationKind]bool{
	NotificationPartyInvite:        true,
	NotificationPartyUpdate:        true,
	NotificationPartyMemberChanged: true,
	NotificationPartyPing:          true,
	NotificationFriendRequest:      true,
}

// Relayable reports whether the kind may be forwarded to another account.
func (k NotificationKind) Relayable() bool { return relayableKinds[k] }

// Notification is a decoded JSON message body.
type Notification struct {
	Kind NotificationKind
	// Raw is the original body text, forwarded verbatim on delivery.
	Raw string
}

type notificationEnvelope struct {
	Type string `json:"type"`
}

// ParseNotification decodes a message body as a JSON notification.
// The boolean result is false when the body is not valid JSON at all,
// which callers treat as "not a notification" and ignore.
func ParseNotification(body string) (Notification, bool) {
	var env notificationEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return Notification{}, false
	}
	return Notification{Kind: NotificationKind(env.Type), Raw: body}, true
}
