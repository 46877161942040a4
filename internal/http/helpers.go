package http

import (
	"net/http"
	"net/url"
	"strings"
)

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func isBoosted(r *http.Request) bool {
	return r.Header.Get("HX-Boosted") == "true"
}

// redirect navigates the browser to path, through HX-Redirect for htmx
// requests and a 303 otherwise.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect(path).Write(w)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// localReferer returns the path of the Referer header when it points back to
// this site, and "/" otherwise.
func localReferer(r *http.Request) string {
	u, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || (u.Host != "" && u.Host != r.Host) {
		return "/"
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return "/"
	}
	return u.Path
}
