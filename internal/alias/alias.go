// Package alias validates user supplied aliases and generates random ones.
package alias

import (
	"fmt"
	"regexp"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Alphabet is the set of characters generated aliases are built from.
	Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	MinLength     = 4
	MaxLength     = 32
	DefaultLength = 7

	maxAliasLength = 64
)

var aliasRe = regexp.MustCompile(fmt.Sprintf(`^[a-z0-9_-]{1,%d}$`, maxAliasLength))

// reserved holds the path segments taken by the service's own routes.
var reserved = map[string]struct{}{
	"qr":         {},
	"api":        {},
	"static":     {},
	"manage":     {},
	"delete":     {},
	"update":     {},
	"stats":      {},
	"export_csv": {},
}

// Normalize trims surrounding whitespace and lowercases a candidate alias.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsValid reports whether candidate may be used as an alias. The check is
// case-sensitive, so callers must Normalize first.
func IsValid(candidate string) bool {
	if !aliasRe.MatchString(candidate) {
		return false
	}

	return !IsReserved(candidate)
}

// IsReserved reports whether s is a path segment used by the service itself.
func IsReserved(s string) bool {
	_, ok := reserved[s]
	return ok
}

// ClampLength bounds a configured alias length to [MinLength, MaxLength].
func ClampLength(n int) int {
	switch {
	case n < MinLength:
		return MinLength
	case n > MaxLength:
		return MaxLength
	default:
		return n
	}
}

// Generate returns a random alias of the clamped length drawn from Alphabet
// using a cryptographically secure source.
func Generate(length int) (string, error) {
	const op = "alias.Generate"

	a, err := gonanoid.Generate(Alphabet, ClampLength(length))
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate alias: %w", op, err)
	}

	return a, nil
}
