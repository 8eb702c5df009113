// Package dom holds the live page the engine reconciles into.
//
// The live page is an HTML document parsed with goquery. All reads and
// mutations go through Page.Do, which serializes them the way a browser
// event loop would: fragment fetches run concurrently, but only one
// callback touches the document at a time.
package dom

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Page is the live document plus the state a browser keeps beside it.
type Page struct {
	mu  sync.Mutex
	doc *Doc
}

// Doc is the document as seen from inside Page.Do.
type Doc struct {
	*goquery.Document
	focus *html.Node
}

// NewPage wraps an already parsed document.
func NewPage(doc *goquery.Document) *Page {
	return &Page{doc: &Doc{Document: doc}}
}

// LoadPage parses r as the live document.
func LoadPage(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return NewPage(doc), nil
}

// ParsePage parses an HTML string as the live document.
func ParsePage(body string) (*Page, error) {
	return LoadPage(strings.NewReader(body))
}

// Do runs fn with exclusive access to the document.
func (p *Page) Do(fn func(d *Doc)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.doc)
}

// HTML renders the whole document.
func (p *Page) HTML() (string, error) {
	var out string
	var err error
	p.Do(func(d *Doc) {
		out, err = goquery.OuterHtml(d.Selection)
	})
	return out, err
}

// ParseFragment parses a fetched fragment into its own document.
func ParseFragment(body string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	return doc, nil
}

// ByID returns the element under root whose id equals id, or an empty
// selection. Facet ids contain dots and other characters that are not
// valid in a CSS id selector, so the match is done on the attribute value.
func ByID(root *goquery.Selection, id string) *goquery.Selection {
	if id == "" {
		return root.Slice(0, 0)
	}
	return root.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("id", "") == id
	}).First()
}

// ByID looks up an element of the live document.
func (d *Doc) ByID(id string) *goquery.Selection {
	return ByID(d.Selection, id)
}

// Focus moves focus to the first node of sel.
func (d *Doc) Focus(sel *goquery.Selection) {
	if sel == nil || sel.Length() == 0 {
		return
	}
	d.focus = sel.Get(0)
}

// Blur clears focus.
func (d *Doc) Blur() {
	d.focus = nil
}

// Focused returns the focused element, or an empty selection when nothing
// is focused or the focused node has been detached by a later patch.
func (d *Doc) Focused() *goquery.Selection {
	if d.focus == nil || !attached(d.Document.Selection.Get(0), d.focus) {
		return d.Selection.Slice(0, 0)
	}
	return d.FindNodes(d.focus)
}

func attached(root, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

// InnerHTML renders the children of the first node of s.
func InnerHTML(s *goquery.Selection) string {
	out, err := s.Html()
	if err != nil {
		return ""
	}
	return out
}

// OuterHTML renders the first node of s including itself.
func OuterHTML(s *goquery.Selection) string {
	out, err := goquery.OuterHtml(s.First())
	if err != nil {
		return ""
	}
	return out
}
