// Package routing maps application paths to the (resource, action, params)
// triple that describes a view, and builds the paths commands redirect to.
//
// The mapping is a static pattern table; recognition walks it in order and
// the first pattern whose segments match wins.
package routing

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"cmdbar/internal/tracker"
)

// Resources and actions referenced outside this package.
const (
	ResourceItems           = "items"
	ResourceSearchResults   = "search-results"
	ResourceUsers           = "users"
	ResourceCollections     = "collections"
	ResourceAccountSettings = "account-settings"
	ResourceHome            = "home"

	ActionIndex = "index"
	ActionShow  = "show"
	ActionEdit  = "edit"
)

// Route is a recognized view.
type Route struct {
	Resource string
	Action   string
	Params   url.Values
}

type pattern struct {
	path     string
	resource string
	action   string
}

var table = []pattern{
	{"/", ResourceHome, ActionShow},
	{"/items", ResourceItems, ActionIndex},
	{"/items/:id", ResourceItems, ActionShow},
	{"/collections/:collection_id/items", ResourceItems, ActionIndex},
	{"/collections/:collection_id/items/:id", ResourceItems, ActionShow},
	{"/collections/:id", ResourceCollections, ActionShow},
	{"/search", ResourceSearchResults, ActionShow},
	{"/users/:id", ResourceUsers, ActionShow},
	{"/users/:id/edit", ResourceUsers, ActionEdit},
	{"/account/settings", ResourceAccountSettings, ActionShow},
}

// Recognize matches a path (no query, no prefix) against the table.
func Recognize(path string) (Route, bool) {
	segments := split(path)
	for _, p := range table {
		params, ok := match(split(p.path), segments)
		if ok {
			return Route{Resource: p.resource, Action: p.action, Params: params}, true
		}
	}
	return Route{}, false
}

// RecognizeURL strips prefix from the URL's path, recognizes the remainder
// and merges path parameters over the query parameters.
func RecognizeURL(rawURL, prefix string) (Route, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Route{}, fmt.Errorf("parse url %q: %w", rawURL, err)
	}

	path := u.Path
	if prefix = strings.TrimSuffix(prefix, "/"); prefix != "" {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			path = path[len(prefix):]
		}
	}
	if path == "" {
		path = "/"
	}

	route, ok := Recognize(path)
	if !ok {
		return Route{}, fmt.Errorf("no route matches %q", path)
	}

	merged := u.Query()
	for k, v := range route.Params {
		merged[k] = v
	}
	route.Params = merged
	return route, nil
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func match(pattern, segments []string) (url.Values, bool) {
	if len(pattern) != len(segments) {
		return nil, false
	}
	params := url.Values{}
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			value, err := url.PathUnescape(segments[i])
			if err != nil || value == "" {
				return nil, false
			}
			params.Set(seg[1:], value)
			continue
		}
		if seg != segments[i] {
			return nil, false
		}
	}
	return params, true
}

// WithPrefix prepends the tenant path prefix to an application path. Paths
// that already carry the prefix, and absolute URLs, are returned unchanged.
func WithPrefix(prefix, path string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" || !strings.HasPrefix(path, "/") {
		return path
	}
	if path == prefix || strings.HasPrefix(path, prefix+"/") || strings.HasPrefix(path, prefix+"?") {
		return path
	}
	return prefix + path
}

// ItemsPath is the list view filtered by f.
func ItemsPath(f tracker.Filter) string {
	params := f.AsParams()
	if len(params) == 0 {
		return "/items"
	}
	return "/items?" + params.Encode()
}

// ItemPath is the single-item view.
func ItemPath(id int) string {
	return "/items/" + strconv.Itoa(id)
}

// UserPath is a person's profile.
func UserPath(id string) string {
	return "/users/" + url.PathEscape(id)
}

// EditUserPath is a person's profile editor.
func EditUserPath(id string) string {
	return UserPath(id) + "/edit"
}

// SearchPath shows search results for q.
func SearchPath(q string) string {
	return "/search?" + url.Values{"q": {q}}.Encode()
}

// AccountSettingsPath is the account administration screen.
func AccountSettingsPath() string {
	return "/account/settings"
}
