package handlers

import (
	"net/url"
	"strings"
)

// Landing page after login or logout
const DefaultNext = "/index"

// SafeNext returns next if it is a same-site relative URL, DefaultNext otherwise
// Browsers treat '//host' and '/\host' as network locations. Backslashes are rejected anywhere
// as http.Redirect cleans the path and '/./\host' becomes '/\host'
func SafeNext(next string) string {
	if next == "" {
		return DefaultNext
	}
	if strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return DefaultNext
	}

	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return DefaultNext
	}

	return next
}
