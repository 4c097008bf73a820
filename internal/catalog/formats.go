package catalog

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	digits = regexp.MustCompile(`^\d+$`)
	locale = regexp.MustCompile(`(?i)^[a-z]{2}(-[a-z0-9]{2,3})?$`)
)

// uuidFormat accepts the canonical lowercase 8-4-4-4-12 spelling only.
// uuid.Validate alone would also accept braces, urn: prefixes and upper case.
type uuidFormat struct{}

func (uuidFormat) MatchString(s string) bool {
	if len(s) != 36 || s != strings.ToLower(s) {
		return false
	}
	return uuid.Validate(s) == nil
}

// rx compiles a case-sensitive pattern.
func rx(expr string) *regexp.Regexp {
	return regexp.MustCompile(expr)
}

// rxi compiles a case-insensitive pattern.
func rxi(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}
