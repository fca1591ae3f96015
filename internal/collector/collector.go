// Package collector derives content features from a page's HTML. It reads
// inline styles and attributes only; layout that depends on stylesheets or
// script is seen as rendered by the chromedp backend, not computed here.
package collector

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/raysh454/nyxguard/internal/domains"
	"github.com/raysh454/nyxguard/internal/model"
)

var loginKeywords = []string{
	"login",
	"log in",
	"sign in",
	"verify",
	"bank",
	"wallet",
	"account",
	"iniciar sesion",
	"acceder",
	"verificar",
	"banco",
	"cartera",
	"cuenta",
}

var notificationKeywords = []string{
	"enable notifications",
	"click allow",
	"tap allow",
	"press allow",
	"allow to continue",
	"enable to continue",
	"habilitar notificaciones",
	"permitir notificaciones",
	"haz clic en permitir",
	"to continue allow",
	"para continuar",
}

// buttonWords are matched inside button-like labels.
var buttonWords = []string{"allow", "enable", "notifications", "continue"}

var adToken = regexp.MustCompile(`\b(ad|ads|sponsor|sponsored|promoted|taboola|outbrain)\b`)

var whitespace = regexp.MustCompile(`\s+`)

type Options struct {
	// TextSample enables PageTextSample.
	TextSample         bool
	TextSampleLength   int
	MaxOverlayElements int
	MaxAdElements      int
}

func DefaultOptions() Options {
	return Options{
		TextSample:         false,
		TextSampleLength:   2000,
		MaxOverlayElements: 2000,
		MaxAdElements:      200,
	}
}

// Extract inspects body, the HTML served for pageURL.
func Extract(pageURL string, body []byte, opts Options) (model.ContentFeatures, error) {
	def := DefaultOptions()
	if opts.TextSampleLength <= 0 {
		opts.TextSampleLength = def.TextSampleLength
	}
	if opts.MaxOverlayElements <= 0 {
		opts.MaxOverlayElements = def.MaxOverlayElements
	}
	if opts.MaxAdElements <= 0 {
		opts.MaxAdElements = def.MaxAdElements
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return model.ContentFeatures{}, fmt.Errorf("parse html: %w", err)
	}

	text := collapse(visibleText(doc.Find("body")))
	lower := strings.ToLower(text)

	f := model.ContentFeatures{
		URL:                             pageURL,
		Domain:                          pageDomain(pageURL),
		HasPasswordForm:                 hasPasswordField(doc),
		SuspiciousLoginKeywordsFound:    []string{},
		NotificationDarkPatternKeywords: notificationHits(doc, lower),
		AdLikeElementsCount:             countAdLike(doc, opts.MaxAdElements),
		IframeHiddenCount:               countHiddenIframes(doc),
	}
	if f.HasPasswordForm {
		f.SuspiciousLoginKeywordsFound = findKeywords(lower, loginKeywords)
	}
	f.OverlayCount, f.HasBlockingOverlay = detectOverlays(doc, opts.MaxOverlayElements)

	if opts.TextSample {
		f.PageTextSample = truncateRunes(text, opts.TextSampleLength)
	}
	return f, nil
}

func pageDomain(pageURL string) string {
	if d, ok := domains.NormalizeDomain(pageURL); ok {
		return d
	}
	if u, err := url.Parse(pageURL); err == nil {
		return strings.ToLower(u.Hostname())
	}
	return ""
}

func hasPasswordField(doc *goquery.Document) bool {
	found := false
	doc.Find("input").EachWithBreak(func(_ int, in *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(in.AttrOr("type", "")), "password") {
			found = true
		}
		return !found
	})
	return found
}

// visibleText concatenates text nodes, skipping non-rendered elements and
// elements hidden inline.
func visibleText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template", "head":
				return
			}
			if hiddenInline(n) {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}

func hiddenInline(n *html.Node) bool {
	style := ""
	for _, a := range n.Attr {
		if a.Key == "hidden" {
			return true
		}
		if a.Key == "style" {
			style = a.Val
		}
	}
	if style == "" {
		return false
	}
	decl := parseStyle(style)
	return decl["display"] == "none" || decl["visibility"] == "hidden"
}

// findKeywords returns the keywords contained in lowerText, in list order.
func findKeywords(lowerText string, keywords []string) []string {
	hits := []string{}
	for _, k := range keywords {
		if strings.Contains(lowerText, k) {
			hits = append(hits, k)
		}
	}
	return hits
}

func notificationHits(doc *goquery.Document, lowerText string) []string {
	set := newOrderedSet()
	for _, k := range findKeywords(lowerText, notificationKeywords) {
		set.add(k)
	}

	doc.Find("button, a, input[type=button], input[type=submit]").Each(func(_ int, s *goquery.Selection) {
		label := strings.TrimSpace(s.Text())
		if label == "" && goquery.NodeName(s) == "input" {
			label = strings.TrimSpace(s.AttrOr("value", ""))
		}
		label = strings.ToLower(label)
		if label == "" {
			return
		}
		for _, w := range buttonWords {
			if strings.Contains(label, w) {
				set.add(w)
			}
		}
	})
	return set.items
}

func countAdLike(doc *goquery.Document, limit int) int {
	count := 0
	doc.Find("[id], [class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		id := strings.ToLower(s.AttrOr("id", ""))
		class := strings.ToLower(s.AttrOr("class", ""))
		if adToken.MatchString(id) || adToken.MatchString(class) {
			count++
		}
		return count < limit
	})
	return count
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: map[string]struct{}{}, items: []string{}}
}

func (o *orderedSet) add(v string) {
	if _, ok := o.seen[v]; ok {
		return
	}
	o.seen[v] = struct{}{}
	o.items = append(o.items, v)
}
