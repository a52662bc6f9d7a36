package models

import "strings"

// Visibility is the read-access tier of a post or story.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityFriends Visibility = "friends"
	VisibilityPublic  Visibility = "public"
)

// ParseVisibility accepts only the three lower-case tiers. Values are trimmed
// but never case-folded: "Friends" is rejected rather than silently stored.
func ParseVisibility(s string) (Visibility, bool) {
	switch v := Visibility(strings.TrimSpace(s)); v {
	case VisibilityPrivate, VisibilityFriends, VisibilityPublic:
		return v, true
	}
	return "", false
}

func (v Visibility) Valid() bool {
	_, ok := ParseVisibility(string(v))
	return ok
}
