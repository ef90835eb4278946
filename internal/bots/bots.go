// Package bots recognizes known crawler and link-preview user agents.
// Recognized bots are exempt from rate limiting so legitimate crawling is
// never throttled; the match is deliberately permissive (case-insensitive
// substring) because vendor user-agent formats vary over time. A false
// positive only skips throttling, it never grants privilege.
package bots

import "strings"

// DefaultSignatures is the stock list of crawler, search-engine, and
// social-preview identifiers.
var DefaultSignatures = []string{
	"googlebot",
	"bingbot",
	"slurp",
	"duckduckbot",
	"baiduspider",
	"yandexbot",
	"facebookexternalhit",
	"twitterbot",
	"rogerbot",
	"linkedinbot",
	"embedly",
	"quora link preview",
	"showyoubot",
	"outbrain",
	"pinterest",
	"slackbot",
	"vkshare",
	"w3c_validator",
	"whatsapp",
}

// Detector matches user agents against a fixed signature set. Immutable
// after construction; safe for concurrent use.
type Detector struct {
	signatures []string
}

// NewDetector creates a detector over the default signatures plus any
// operator-supplied extras. Signatures are lowercased once at startup.
func NewDetector(extra ...string) *Detector {
	signatures := make([]string, 0, len(DefaultSignatures)+len(extra))
	signatures = append(signatures, DefaultSignatures...)
	for _, s := range extra {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			signatures = append(signatures, s)
		}
	}
	return &Detector{signatures: signatures}
}

// IsBot reports whether the user agent contains any known bot signature.
// An empty user agent is not a bot.
func (d *Detector) IsBot(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	ua := strings.ToLower(userAgent)
	for _, sig := range d.signatures {
		if strings.Contains(ua, sig) {
			return true
		}
	}
	return false
}
