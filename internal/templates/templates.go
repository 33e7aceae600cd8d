// Package templates renders the embedded HTML email and page templates.
//
// Substitution is textual: every {{key}} occurrence is replaced with the
// matching value, and placeholders without a matching key are left verbatim.
// That pass-through is load-bearing: broadcast bodies keep Resend macros such
// as {{{FIRST_NAME|Subscriber}}} and {{{RESEND_UNSUBSCRIBE_URL}}} for the
// provider to expand per recipient. No HTML escaping is performed; callers
// are responsible for the safety of the values they embed.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed *.html
var files embed.FS

// ErrNotFound is returned when the named template does not exist.
var ErrNotFound = errors.New("template not found")

// Render loads the named template (without the .html suffix) and substitutes
// the given variables.
func Render(name string, vars map[string]string) (string, error) {
	b, err := files.ReadFile(name + ".html")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("read template %s: %w", name, err)
	}
	return Expand(string(b), vars), nil
}

// Expand substitutes every {{key}} occurrence in s for each provided key.
// Placeholders without a matching key are untouched.
func Expand(s string, vars map[string]string) string {
	for k, v := range vars {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s
}
