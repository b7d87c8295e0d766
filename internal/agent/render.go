package agent

import (
	"fmt"
	"regexp"

	"github.com/fleetline/rentassist/internal/models"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// RenderTemplate substitutes every {placeholder} in tmpl with the matching
// context value. A placeholder without a context entry fails the whole
// render; callers fall back to fresh generation.
func RenderTemplate(tmpl string, context map[string]string) (string, error) {
	var missing string
	out := placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		key := match[1 : len(match)-1]
		value, ok := context[key]
		if !ok {
			if missing == "" {
				missing = key
			}
			return match
		}
		return value
	})
	if missing != "" {
		return "", fmt.Errorf("placeholder %q: %w", missing, models.ErrMissingTemplatePlacehold)
	}
	return out, nil
}
