package utils

import (
	"strconv"
	"strings"

	"github.com/gosimple/slug"
)

const fallbackSlug = "incident"

// reservedSlugs are first path segments owned by fixed routes. An incident
// slug equal to one of them would be shadowed by that route.
var reservedSlugs = map[string]bool{
	"notifications":     true,
	"new-incident":      true,
	"my-incidents":      true,
	"manager-dashboard": true,
	"home":              true,
	"users":             true,
	"metrics":           true,
	"api":               true,
	"ws":                true,
}

// IsReservedSlug reports whether s collides with a fixed route.
func IsReservedSlug(s string) bool {
	return reservedSlugs[s]
}

// SlugBase normalizes a title into a URL-safe token. Titles with no usable
// characters fall back to "incident".
func SlugBase(title string) string {
	s := slug.Make(title)
	if s == "" {
		return fallbackSlug
	}
	return s
}

// NextFreeSlug returns base if it is neither taken nor reserved, otherwise
// base-N for the smallest N >= 1 not present in taken.
func NextFreeSlug(base string, taken []string) string {
	used := make(map[int]bool, len(taken))
	baseTaken := IsReservedSlug(base)

	prefix := base + "-"
	for _, s := range taken {
		if s == base {
			baseTaken = true
			continue
		}
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(s, prefix))
		if err == nil && n > 0 {
			used[n] = true
		}
	}

	if !baseTaken {
		return base
	}

	for n := 1; ; n++ {
		if !used[n] {
			return prefix + strconv.Itoa(n)
		}
	}
}
