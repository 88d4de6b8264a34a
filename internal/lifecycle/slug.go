package lifecycle

import (
	"strings"

	"github.com/google/uuid"
)

// generateSlug builds a URL-stable slug from a title, suffixed with a
// creation-time token so two listings with the same title never
// collide. Generated once at create, never regenerated.
func generateSlug(title string) string {
	base := slugify(title)
	if base == "" {
		base = "listing"
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return base + "-" + token
}

// slugify lowercases and reduces a string to [a-z0-9-].
func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > 120 {
		out = strings.Trim(out[:120], "-")
	}
	return out
}
