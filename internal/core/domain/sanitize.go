package domain

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// SanitizeResult is the outcome of mapping a free-form profile name to a
// gcloud configuration identifier.
type SanitizeResult struct {
	ID string
	// FellBack is set when the input contained no usable characters and a
	// hash-derived identifier was substituted. A warning, not a failure.
	FellBack bool
}

// Sanitize maps an arbitrary profile label to a configuration id matching
// ^[a-z0-9-]+$. It is total and deterministic: any input yields the same
// non-empty identifier every time, so a profile re-applied later resolves
// to the same underlying gcloud configuration.
func Sanitize(raw string) SanitizeResult {
	s := strings.ToLower(strings.TrimSpace(raw))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}

	id := collapseHyphens(b.String())
	id = strings.Trim(id, "-")
	if id != "" {
		return SanitizeResult{ID: id}
	}

	// Nothing usable survived. Derive a stable token from the raw input so
	// distinct unsanitizable names still map to distinct configurations.
	h := fnv.New64a()
	_, _ = h.Write([]byte(raw))
	return SanitizeResult{ID: fmt.Sprintf("p-%08x", uint32(h.Sum64())), FellBack: true}
}

func collapseHyphens(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prev := false
	for _, r := range s {
		if r == '-' {
			if prev {
				continue
			}
			prev = true
		} else {
			prev = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
