// Package cleaner turns raw page HTML into the bounded metadata + text
// snippet the verification pipeline feeds to the reasoning model. It is
// shared by the browser and plain-HTTP fetch paths.
package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/truther/models"
)

// ExtractMetadata pulls document metadata out of raw HTML.
//
// Precedence per field: Open Graph > Twitter Card > generic meta > <title>.
// Missing fields stay empty; the prompt builder renders them as-is.
func ExtractMetadata(rawHTML string) models.PageMetadata {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return models.PageMetadata{}
	}

	meta := collectMeta(doc)

	md := models.PageMetadata{
		Title:       firstOf(meta, "og:title", "twitter:title"),
		Description: firstOf(meta, "og:description", "twitter:description", "description"),
		SiteName:    firstOf(meta, "og:site_name"),
		Author:      firstOf(meta, "author", "article:author"),
		Published:   firstOf(meta, "article:published_time", "date"),
	}

	if md.Title == "" {
		md.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if md.Author == "" {
		md.Author = md.SiteName
	}
	return md
}

// collectMeta indexes all <meta> tags by property/name attribute.
// First occurrence wins, matching document order.
func collectMeta(doc *goquery.Document) map[string]string {
	meta := make(map[string]string)
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok || content == "" {
			return
		}
		key, ok := s.Attr("property")
		if !ok {
			key, ok = s.Attr("name")
		}
		if !ok || key == "" {
			return
		}
		if _, seen := meta[key]; !seen {
			meta[key] = strings.TrimSpace(content)
		}
	})
	return meta
}

func firstOf(meta map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := meta[k]; v != "" {
			return v
		}
	}
	return ""
}
