// Package langtag compares BCP 47 language tags on their base language.
package langtag

import (
	"strings"

	"golang.org/x/text/language"
)

// Base returns the base language subtag of tag ("en-US" -> "en").
// Tags that cannot be parsed fall back to their lower-cased first subtag.
func Base(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	if t, err := language.Parse(tag); err == nil {
		if b, conf := t.Base(); conf != language.No {
			return b.String()
		}
	}
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}

// Same reports whether a and b name the same base language.
// An empty tag matches anything.
func Same(a, b string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return true
	}
	return Base(a) == Base(b)
}

// Matches reports whether have satisfies the requested language want.
// An empty want accepts any tag; an empty have never satisfies a
// non-empty want.
func Matches(want, have string) bool {
	if strings.TrimSpace(want) == "" {
		return true
	}
	if strings.TrimSpace(have) == "" {
		return false
	}
	return Base(want) == Base(have)
}

// Normalize returns the canonical form of tag, or tag unchanged when it
// cannot be parsed.
func Normalize(tag string) string {
	t, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return strings.TrimSpace(tag)
	}
	return t.String()
}
