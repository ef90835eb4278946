// Package routes classifies request paths into the categories the
// gatekeeper's checks key off. Classification is pure string matching:
// no I/O, no allocation beyond the inputs, total over all strings.
package routes

import "strings"

// Category is the route class of a request path.
type Category int

const (
	// General is everything that matches no other category, including the
	// empty path.
	General Category = iota
	// StaticAsset paths bypass every check; throttling asset delivery
	// breaks caching under load.
	StaticAsset
	// AdminArea paths are subject to the admin authorization gate.
	AdminArea
	// APIEndpoint paths consume the api-scoped rate budget.
	APIEndpoint
)

// String returns the category name for logs and telemetry.
func (c Category) String() string {
	switch c {
	case StaticAsset:
		return "static"
	case AdminArea:
		return "admin"
	case APIEndpoint:
		return "api"
	default:
		return "general"
	}
}

// Classifier maps paths to categories using configured prefixes.
type Classifier struct {
	adminPrefix    string
	apiPrefix      string
	staticPrefixes []string
}

// NewClassifier creates a classifier. Empty prefixes fall back to the
// defaults of the property this fronts: /admin, /api, /_next and /static.
func NewClassifier(adminPrefix, apiPrefix string, staticPrefixes []string) *Classifier {
	if adminPrefix == "" {
		adminPrefix = "/admin"
	}
	if apiPrefix == "" {
		apiPrefix = "/api"
	}
	if len(staticPrefixes) == 0 {
		staticPrefixes = []string{"/_next", "/static"}
	}
	return &Classifier{
		adminPrefix:    adminPrefix,
		apiPrefix:      apiPrefix,
		staticPrefixes: staticPrefixes,
	}
}

// Classify returns the category of a path. Priority order: static asset
// (framework prefix or a file extension in the last segment), admin area,
// API endpoint, general.
func (c *Classifier) Classify(path string) Category {
	for _, prefix := range c.staticPrefixes {
		if strings.HasPrefix(path, prefix) {
			return StaticAsset
		}
	}
	if hasFileExtension(path) {
		return StaticAsset
	}
	if strings.HasPrefix(path, c.adminPrefix) {
		return AdminArea
	}
	if strings.HasPrefix(path, c.apiPrefix) {
		return APIEndpoint
	}
	return General
}

// hasFileExtension reports whether the last path segment contains a dot,
// i.e. the path names a file rather than a page route.
func hasFileExtension(path string) bool {
	lastSlash := strings.LastIndexByte(path, '/')
	return strings.IndexByte(path[lastSlash+1:], '.') >= 0
}
