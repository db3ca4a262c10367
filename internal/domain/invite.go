package domain

import (
	"crypto/subtle"
	"net/url"
	"strings"
	"time"
)

// Invite is a time-limited join token issued for a space
type Invite struct {
	SpaceID   string    `json:"spaceId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	URL       string    `json:"url"`
}

// ValidAt reports whether the stored settings accept token at the given instant.
// The token is valid strictly before its expiry.
func (s Settings) ValidAt(token string, now time.Time) bool {
	if !s.HasInvite() || token == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(s.InviteToken), []byte(token)) != 1 {
		return false
	}
	return now.Before(*s.InviteExpiresAt)
}

// BuildInviteURL returns the canonical join URL: <origin>/spaces/<id>/join?token=<token>
func BuildInviteURL(origin, spaceID, token string) string {
	origin = strings.TrimRight(origin, "/")
	return origin + "/spaces/" + url.PathEscape(spaceID) + "/join?token=" + url.QueryEscape(token)
}

// ParseInviteURL extracts the space id and token from a join URL. It accepts
// the canonical /spaces/<id>/join form and the legacy /spaces/join/<id> form.
func ParseInviteURL(raw string) (spaceID, token string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", NewValidationError("malformed invite url", "url")
	}
	parts := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	switch {
	case len(parts) == 3 && parts[0] == "spaces" && parts[2] == "join":
		spaceID = parts[1]
	case len(parts) == 3 && parts[0] == "spaces" && parts[1] == "join":
		spaceID = parts[2]
	default:
		return "", "", NewValidationError("unrecognised invite url", "url")
	}
	spaceID, err = url.PathUnescape(spaceID)
	if err != nil || spaceID == "" {
		return "", "", NewValidationError("unrecognised invite url", "url")
	}
	return spaceID, u.Query().Get("token"), nil
}
