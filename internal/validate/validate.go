// Package validate provides the pure predicates used by entity-write
// paths: slug format, title year range, username format, and email sanity.
package validate

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Field length limits, matching the column definitions in the schema.
const (
	MaxSlugLen     = 50
	MaxUsernameLen = 150
	MaxEmailLen    = 254
	MaxNameLen     = 256
)

var (
	// slugPattern is the full set of characters a slug may contain.
	slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	// usernamePattern mirrors the signup contract: word characters plus
	// the common email punctuation.
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

// Slug reports whether s is a non-empty URL-safe slug within the length
// limit.
func Slug(s string) bool {
	if s == "" || utf8.RuneCountInString(s) > MaxSlugLen {
		return false
	}
	return slugPattern.MatchString(s)
}

// Year reports whether y is a plausible title year. Only the upper bound
// is checked: works cannot be dated after the current calendar year, but
// arbitrarily old works are fine.
func Year(y int) bool {
	return y <= time.Now().Year()
}

// Username reports whether s is a non-empty username matching the allowed
// pattern and length limit.
func Username(s string) bool {
	if s == "" || utf8.RuneCountInString(s) > MaxUsernameLen {
		return false
	}
	return usernamePattern.MatchString(s)
}

// Email reports whether s looks like a deliverable address: non-empty,
// within the length limit, with a non-empty local part and domain.
func Email(s string) bool {
	if s == "" || utf8.RuneCountInString(s) > MaxEmailLen {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && at < len(s)-1
}
