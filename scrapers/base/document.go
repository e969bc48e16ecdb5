package base

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is the query capability field cascades run against: find a node
// by selector, read its text, read an attribute. Keeping the surface this
// small lets tests feed synthetic pages without a renderer.
type Document struct {
	doc     *goquery.Document
	pageURL *url.URL
}

// NewDocument parses HTML from r. pageURL, when non-empty, is used to
// absolutize relative attribute URLs.
func NewDocument(r io.Reader, pageURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	d := &Document{doc: doc}
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			d.pageURL = u
		}
	}
	return d, nil
}

// ParseDocument parses HTML from a string. Convenience for tests and the
// browser fetch strategies, which hold the page as a string already.
func ParseDocument(html, pageURL string) (*Document, error) {
	return NewDocument(strings.NewReader(html), pageURL)
}

// Node is one matched element.
type Node struct {
	sel *goquery.Selection
	doc *Document
}

// First returns the first node matching selector, or nil when nothing matches.
func (d *Document) First(selector string) *Node {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}
	return &Node{sel: sel, doc: d}
}

// Each walks every node matching selector in document order. Returning false
// from fn stops the walk.
func (d *Document) Each(selector string, fn func(*Node) bool) {
	d.doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		return fn(&Node{sel: s, doc: d})
	})
}

// Title returns the page <title> text, trimmed.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Text returns the node's text content, trimmed.
func (n *Node) Text() string {
	return strings.TrimSpace(n.sel.Text())
}

// Attr returns the named attribute, trimmed and absolutized against the page
// URL when it looks like a relative link. Empty string when absent.
func (n *Node) Attr(name string) string {
	v := strings.TrimSpace(n.sel.AttrOr(name, ""))
	if v == "" || n.doc.pageURL == nil {
		return v
	}
	// Leave data URIs and already-absolute values alone.
	if strings.HasPrefix(v, "data:") || strings.Contains(v, "://") {
		return v
	}
	if ref, err := url.Parse(v); err == nil {
		return n.doc.pageURL.ResolveReference(ref).String()
	}
	return v
}
