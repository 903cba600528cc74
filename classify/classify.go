// Package classify routes a user submission to an evidence-acquisition
// strategy based on the first URL found in it.
package classify

import (
	"regexp"
	"strings"
)

// Kind is the evidence-acquisition route for a submission.
type Kind int

const (
	// NoURL means the input is a plain text claim (or media only);
	// it goes straight to the reasoning model.
	NoURL Kind = iota

	// PublicIndexable means the URL is on a platform reliably covered by
	// general web search, so search-grounded reasoning can reach it
	// without a browser.
	PublicIndexable

	// BrowserRequired means the URL needs a real browser session to
	// yield any content.
	BrowserRequired
)

func (k Kind) String() string {
	switch k {
	case PublicIndexable:
		return "public_indexable"
	case BrowserRequired:
		return "browser_required"
	default:
		return "no_url"
	}
}

// Classification is the deterministic routing decision for one input.
type Classification struct {
	Kind Kind

	// URL is the first http(s) token found in the input. Empty for NoURL.
	URL string

	// Gated is true when the URL's host is on the known login-wall /
	// anti-scraping list. Gated extraction runs with stealth enabled and
	// failures produce the login-wall advisory.
	Gated bool
}

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// indexableMarkers are substrings of URLs whose content general web search
// indexes well enough that browser extraction is wasted work. Heuristic:
// misclassification costs latency, not correctness.
var indexableMarkers = []string{
	"youtube.com",
	"youtu.be",
	"reddit.com",
	"news.",
	".gov",
	"bbc.",
	"reuters.",
	"apnews.",
}

// gatedMarkers are substrings of URLs known to sit behind authentication
// or aggressive anti-scraping.
var gatedMarkers = []string{
	"facebook.com",
	"instagram.com",
	"twitter.com",
	"x.com",
	"tiktok.com",
	"nytimes.com",
	"wsj.com",
	"washingtonpost.com",
}

// Classify maps free text to a routing decision. Pure and total: any string
// without an http(s) URL yields NoURL.
func Classify(input string) Classification {
	u := urlPattern.FindString(input)
	if u == "" {
		return Classification{Kind: NoURL}
	}

	lower := strings.ToLower(u)

	if isPublicIndexable(lower) {
		return Classification{Kind: PublicIndexable, URL: u}
	}

	// Everything else defaults to a real extraction attempt.
	return Classification{
		Kind:  BrowserRequired,
		URL:   u,
		Gated: isGated(lower),
	}
}

func isPublicIndexable(u string) bool {
	// TikTok photo posts are gated even though videos are indexed.
	if strings.Contains(u, "tiktok.com") && !strings.Contains(u, "/photo/") {
		return true
	}
	for _, m := range indexableMarkers {
		if strings.Contains(u, m) {
			return true
		}
	}
	return false
}

func isGated(u string) bool {
	for _, m := range gatedMarkers {
		if strings.Contains(u, m) {
			return true
		}
	}
	return false
}
