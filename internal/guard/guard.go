// Package guard decides which page a visitor may open given their login and
// onboarding state.
package guard

import (
	"net/url"
	"strings"
)

const (
	LoginPath      = "/login"
	OnboardingPath = "/onboarding"
	ProfilePath    = "/profile"
)

var publicPaths = map[string]bool{"/": true, LoginPath: true}

type Decision struct {
	Path     string `json:"path"`
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
}

// Decide applies the navigation rules to fullPath, which may carry a query
// string. Anonymous visitors only reach public pages, logged-in visitors are
// held on the onboarding page until they finish it, and finished users are
// sent from onboarding to their profile.
func Decide(fullPath string, loggedIn, onboarded bool) Decision {
	if fullPath == "" {
		fullPath = "/"
	}
	path := fullPath
	if u, err := url.Parse(fullPath); err == nil && u.Path != "" {
		path = u.Path
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	d := Decision{Path: path}
	switch {
	case !loggedIn:
		if publicPaths[path] {
			d.Allow = true
			return d
		}
		d.Redirect = LoginPath + "?" + url.Values{"redirect": {fullPath}}.Encode()
	case !onboarded:
		if path == OnboardingPath {
			d.Allow = true
			return d
		}
		d.Redirect = OnboardingPath
	case path == OnboardingPath:
		d.Redirect = ProfilePath
	default:
		d.Allow = true
	}
	return d
}
