package route

import (
	"net/url"
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{[A-Za-z0-9_]+\}`)

// Render produces the surface-relative reference of a link: the template path
// with placeholders substituted, followed by the query string and fragment.
// It returns false when the definition has no template for s.
//
// Each parameter whose placeholder appears in the template is consumed by the
// substitution. Every other parameter is appended to the query string when its
// visibility allows s. Query keys are sorted. Placeholders without a value
// render as the empty string.
func Render(def *Definition, s Surface, params Params) (string, bool) {
	tpl := def.Template(s)
	if tpl == nil {
		return "", false
	}

	ref := tpl(params)
	query := url.Values{}

	for _, key := range params.SortedKeys() {
		value := params[key]
		token := "{" + key + "}"
		if strings.Contains(ref, token) {
			ref = strings.ReplaceAll(ref, token, url.PathEscape(value))
			continue
		}
		if !def.Visibility(key).Allows(s) {
			continue
		}
		query.Set(key, value)
	}
	ref = placeholder.ReplaceAllString(ref, "")

	path, fragment, hasFragment := strings.Cut(ref, "#")

	var b strings.Builder
	b.WriteString(path)
	if len(query) > 0 {
		b.WriteByte('?')
		b.WriteString(query.Encode())
	}
	if hasFragment {
		b.WriteByte('#')
		b.WriteString(fragment)
	}
	return b.String(), true
}
