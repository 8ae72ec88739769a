package moderation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxPayloadLen is Telegram's callback data limit in bytes.
const MaxPayloadLen = 64

var (
	// ErrMalformedPayload reports a decision payload that does not decode
	// to exactly one action, user id and event id.
	ErrMalformedPayload = errors.New("moderation: malformed decision payload")
	// ErrPayloadTooLong reports a decision that cannot fit in callback data.
	ErrPayloadTooLong = errors.New("moderation: decision payload too long")
)

// Action is the moderator's verdict.
type Action int

const (
	Approve Action = iota + 1
	Reject
)

func (a Action) String() string {
	switch a {
	case Approve:
		return "approve"
	case Reject:
		return "reject"
	}
	return "unknown"
}

// Decision is what a moderation button carries: the verdict and which
// user's registration for which event it concerns.
type Decision struct {
	Action  Action
	UserID  int64
	EventID string
}

// Encode renders d as "<action>_<userID>_<eventID>". The event id is the
// remainder of the payload, so it may itself contain underscores.
func Encode(d Decision) (string, error) {
	if d.Action != Approve && d.Action != Reject {
		return "", fmt.Errorf("%w: unknown action %d", ErrMalformedPayload, d.Action)
	}
	if d.EventID == "" {
		return "", fmt.Errorf("%w: empty event id", ErrMalformedPayload)
	}
	payload := d.Action.String() + "_" + strconv.FormatInt(d.UserID, 10) + "_" + d.EventID
	if len(payload) > MaxPayloadLen {
		return "", fmt.Errorf("%w: %d bytes", ErrPayloadTooLong, len(payload))
	}
	return payload, nil
}

// Decode is the inverse of Encode. Only canonical payloads are accepted,
// so Decode(p) succeeding implies Encode of the result yields p again.
func Decode(payload string) (Decision, error) {
	parts := strings.SplitN(payload, "_", 3)
	if len(parts) != 3 {
		return Decision{}, fmt.Errorf("%w: %q", ErrMalformedPayload, payload)
	}

	var d Decision
	switch parts[0] {
	case "approve":
		d.Action = Approve
	case "reject":
		d.Action = Reject
	default:
		return Decision{}, fmt.Errorf("%w: unknown action %q", ErrMalformedPayload, parts[0])
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || strconv.FormatInt(id, 10) != parts[1] {
		return Decision{}, fmt.Errorf("%w: user id %q", ErrMalformedPayload, parts[1])
	}
	d.UserID = id

	if parts[2] == "" {
		return Decision{}, fmt.Errorf("%w: empty event id", ErrMalformedPayload)
	}
	d.EventID = parts[2]
	return d, nil
}
