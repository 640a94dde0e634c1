package fetch

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// invisibleSelector matches elements whose content never renders as text.
const invisibleSelector = "script, style, noscript, template"

// chromeSelector matches page furniture dropped when only the main content is wanted.
const chromeSelector = "nav, footer, header, aside, .ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup"

// blockElements get a separating space around their text so adjacent
// paragraphs or cells do not run into each other.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Figcaption: true, atom.Figure: true, atom.Footer: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Td: true, atom.Th: true, atom.Title: true, atom.Tr: true, atom.Ul: true,
}

// ExtractText strips all markup from content and returns its visible text
// with whitespace runs collapsed to single spaces. Content may be a full page
// or a fragment; plain text comes back unchanged apart from whitespace.
func ExtractText(content string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find(invisibleSelector).Remove()

	return selectionText(doc.Selection), nil
}

// ExtractMainText parses a full page and returns the text of its main content.
// Page chrome is removed first, then the first element matching one of
// contentSelectors is used. If no content selectors match, it falls back to the body element.
func ExtractMainText(content string, contentSelectors []string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find(invisibleSelector).Remove()
	doc.Find(chromeSelector).Remove()

	var mainContent *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}
	if mainContent == nil {
		mainContent = doc.Find("body")
	}

	return selectionText(mainContent), nil
}

// DefaultTextSelectors returns standard selectors for general web content.
func DefaultTextSelectors() []string {
	return []string{
		"main",
		"article",
		".entry-content",
		".post-content",
		".content",
		"#content",
		".main-content",
		"#main-content",
	}
}

// HasHTMLRoot reports whether content contains an <html> element, i.e. it is
// an HTML document rather than a fragment or some other format.
// The tokenizer is used because the HTML parser synthesizes <html> for any input.
func HasHTMLRoot(content string) bool {
	z := html.NewTokenizer(strings.NewReader(content))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// end of input or a tokenizer failure; either way no <html> was seen
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.Html {
				return true
			}
		}
	}
}

// CollapseWhitespace trims s and replaces every whitespace run with one space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func selectionText(sel *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range sel.Nodes {
		writeText(&sb, n)
	}
	return CollapseWhitespace(sb.String())
}

func writeText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		sb.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}
	if block {
		sb.WriteByte(' ')
	}
}
