package route

import (
	"regexp"
	"strings"
)

// localeSegment matches a language tag used as a website path prefix,
// e.g. "de" or "en-us".
var localeSegment = regexp.MustCompile(`(?i)^[a-z]{2}(-[a-z0-9]{2,3})?$`)

// notLocale lists two-letter first segments that are real website paths.
var notLocale = map[string]bool{
	"my": true,
	"js": true,
}

// collapseSlashes replaces runs of '/' with a single '/'.
func collapseSlashes(p string) string {
	if !strings.Contains(p, "//") {
		return p
	}
	var b strings.Builder
	b.Grow(len(p))
	prevSlash := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' && prevSlash {
			continue
		}
		prevSlash = c == '/'
		b.WriteByte(c)
	}
	return b.String()
}

// NormalizeWebsitePath prepares a website path for matching: it ensures a
// leading slash, collapses duplicate slashes, strips a trailing slash and
// removes a leading locale segment.
//
//	NormalizeWebsitePath("/en-us/users/123/")  // "/users/123"
//	NormalizeWebsitePath("//games//42")        // "/games/42"
//	NormalizeWebsitePath("/my/avatar")         // "/my/avatar"
func NormalizeWebsitePath(p string) string {
	p = collapseSlashes("/" + p)
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}

	first, rest, _ := strings.Cut(p[1:], "/")
	if first != "" && localeSegment.MatchString(first) && !notLocale[strings.ToLower(first)] {
		p = "/" + rest
		if len(p) > 1 {
			p = strings.TrimSuffix(p, "/")
		}
	}

	return p
}

// NormalizeProtocolPath prepares the path of a protocol URL (the part after
// "scheme://") for matching. The result carries no leading or trailing slash.
//
//	NormalizeProtocolPath("navigation//home/")  // "navigation/home"
func NormalizeProtocolPath(p string) string {
	p = collapseSlashes(p)
	p = strings.TrimPrefix(p, "/")
	return strings.TrimSuffix(p, "/")
}
