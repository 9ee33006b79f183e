package utils

import (
	"net/url"
	"strings"
)

// SafeNext returns next when it is a local path, otherwise fallback.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return next
}

// LoginRedirect builds the login URL carrying the page to return to.
func LoginRedirect(loginURL, next string) string {
	if next == "" {
		return loginURL
	}
	return loginURL + "?next=" + url.QueryEscape(next)
}
