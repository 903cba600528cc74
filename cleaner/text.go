package cleaner

import (
	"bytes"
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// minContentLength is the minimum TextContent length (in characters) for
// readability output to be considered valid. Below this threshold we assume
// the algorithm failed to locate the main content and fall back to the full
// stripped body.
const minContentLength = 50

// noiseSelector matches nodes that carry no verifiable signal: code,
// styling, embeds, and chrome (navigation, footers).
var noiseSelector = cascadia.MustCompile("script, style, noscript, iframe, svg, nav, footer, header[role=banner], aside")

// Cleaner converts raw page HTML into a bounded plain-text snippet.
// The markdown converter is created once and reused across requests
// (goroutine-safe).
type Cleaner struct {
	mdConverter *converter.Converter
}

// NewCleaner initialises the Cleaner with a pre-configured converter.
//
//   - base plugin: strips script, style, head, meta, comments.
//   - commonmark plugin: standard Markdown rendering, which preserves the
//     page's heading/list/link structure through the text cap better than
//     flat innerText.
func NewCleaner() *Cleaner {
	return &Cleaner{
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// Text runs the extraction pipeline on raw HTML and returns the evidence
// snippet: noise nodes removed, main content isolated, whitespace collapsed,
// truncated to capLen characters.
//
// The pipeline never fails: each stage falls back to the previous stage's
// output, and the worst case is the stripped, collapsed full body.
func (c *Cleaner) Text(rawHTML, sourceURL string, capLen int) string {
	stripped := StripNoise(rawHTML)

	content := stripped
	if article, ok := extractArticle(stripped, sourceURL); ok {
		if md, err := c.mdConverter.ConvertString(article.Content, converter.WithDomain(sourceURL)); err == nil && strings.TrimSpace(md) != "" {
			content = md
		} else {
			content = article.TextContent
		}
	} else {
		// Readability gave up; fall back to visible text of the whole body.
		content = visibleText(stripped)
	}

	return Truncate(CollapseWhitespace(content), capLen)
}

// extractArticle runs the Mozilla Readability algorithm.
// Returns ok=false when the result is unusable and the caller should fall
// back to the raw body.
func extractArticle(rawHTML, sourceURL string) (readability.Article, bool) {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Warn("readability: invalid source URL, falling back to raw body",
			"url", sourceURL, "error", err,
		)
		return readability.Article{}, false
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Warn("readability: extraction failed, falling back to raw body",
			"url", sourceURL, "error", err,
		)
		return readability.Article{}, false
	}

	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		return readability.Article{}, false
	}

	return article, true
}

// StripNoise removes noise nodes (scripts, styles, embeds, nav, footer)
// from an HTML document and re-renders it. On parse failure the input is
// returned unchanged so downstream stages still have something to work with.
func StripNoise(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	for _, node := range cascadia.QueryAll(doc, noiseSelector) {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return rawHTML
	}
	return buf.String()
}

// visibleText parses an HTML fragment and concatenates its text nodes.
func visibleText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return sb.String()
}

// CollapseWhitespace folds every run of whitespace into a single space and
// trims the ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate bounds s to at most capLen runes. capLen <= 0 means no cap.
func Truncate(s string, capLen int) string {
	if capLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= capLen {
		return s
	}
	return string(runes[:capLen])
}
