package collector

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	overlayMinZIndex   = 1000
	overlayMinCoverage = 0.8
	blockingCoverage   = 0.9

	// Browsers render an iframe without explicit size at 300x150.
	defaultIframeWidth  = 300
	defaultIframeHeight = 150
)

// parseStyle splits an inline style attribute into lower-cased
// property/value pairs.
func parseStyle(style string) map[string]string {
	out := map[string]string{}
	for _, decl := range strings.Split(style, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.ToLower(strings.TrimSpace(val))
		val = strings.TrimSpace(strings.TrimSuffix(val, "!important"))
		if prop != "" {
			out[prop] = val
		}
	}
	return out
}

func styleOf(s *goquery.Selection) map[string]string {
	return parseStyle(s.AttrOr("style", ""))
}

// detectOverlays counts fixed or sticky elements with a high z-index that
// cover at least 80% of the viewport in both directions. An overlay is
// blocking when it covers 90% and either scrolling is disabled on the page
// or it declares itself a modal dialog.
func detectOverlays(doc *goquery.Document, limit int) (int, bool) {
	scrollLocked := overflowHidden(doc.Find("body").First()) || overflowHidden(doc.Find("html").First())

	count := 0
	blocking := false
	doc.Find("body *").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= limit {
			return false
		}
		decl := styleOf(s)
		if pos := decl["position"]; pos != "fixed" && pos != "sticky" {
			return true
		}
		z, err := strconv.Atoi(decl["z-index"])
		if err != nil || z < overlayMinZIndex {
			return true
		}
		w, h := viewportCoverage(decl)
		if w < overlayMinCoverage || h < overlayMinCoverage {
			return true
		}

		count++
		if w >= blockingCoverage && h >= blockingCoverage {
			modal := s.AttrOr("aria-modal", "") == "true" || s.AttrOr("role", "") == "dialog"
			if scrollLocked || modal {
				blocking = true
			}
		}
		return true
	})
	return count, blocking
}

func overflowHidden(s *goquery.Selection) bool {
	if s.Length() == 0 {
		return false
	}
	return styleOf(s)["overflow"] == "hidden"
}

// viewportCoverage estimates the fraction of the viewport width and height
// an element covers from its inline declarations.
func viewportCoverage(decl map[string]string) (float64, float64) {
	top, right, bottom, left := insets(decl)
	w := relativeSize(decl["width"], "vw")
	if w == 0 && left && right {
		w = 1
	}
	h := relativeSize(decl["height"], "vh")
	if h == 0 && top && bottom {
		h = 1
	}
	return w, h
}

// insets reports which sides are pinned to the viewport edge.
func insets(decl map[string]string) (top, right, bottom, left bool) {
	if v, ok := decl["inset"]; ok {
		parts := strings.Fields(v)
		zero := make([]bool, len(parts))
		for i, p := range parts {
			zero[i] = isZeroLength(p)
		}
		switch len(parts) {
		case 1:
			top, right, bottom, left = zero[0], zero[0], zero[0], zero[0]
		case 2:
			top, bottom, right, left = zero[0], zero[0], zero[1], zero[1]
		case 3:
			top, right, left, bottom = zero[0], zero[1], zero[1], zero[2]
		case 4:
			top, right, bottom, left = zero[0], zero[1], zero[2], zero[3]
		}
	}
	top = top || isZeroLength(decl["top"])
	right = right || isZeroLength(decl["right"])
	bottom = bottom || isZeroLength(decl["bottom"])
	left = left || isZeroLength(decl["left"])
	return
}

// relativeSize converts "95%" or "95vw" style values to a fraction.
func relativeSize(v, viewportUnit string) float64 {
	for _, unit := range []string{"%", viewportUnit} {
		if strings.HasSuffix(v, unit) {
			n, err := strconv.ParseFloat(strings.TrimSuffix(v, unit), 64)
			if err != nil {
				return 0
			}
			return n / 100
		}
	}
	return 0
}

func isZeroLength(v string) bool {
	switch v {
	case "0", "0px", "0%", "0vw", "0vh", "0em", "0rem":
		return true
	}
	return false
}

// pixels parses "12", "12px" or "12.5px". Other units are unknown.
func pixels(v string) (float64, bool) {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// countHiddenIframes counts iframes hidden by style, shrunk to at most one
// pixel, or pushed entirely off the top or left of the page.
func countHiddenIframes(doc *goquery.Document) int {
	count := 0
	doc.Find("iframe").Each(func(_ int, s *goquery.Selection) {
		if iframeHidden(s) {
			count++
		}
	})
	return count
}

func iframeHidden(s *goquery.Selection) bool {
	decl := styleOf(s)

	if _, ok := s.Attr("hidden"); ok {
		return true
	}
	if decl["display"] == "none" || decl["visibility"] == "hidden" {
		return true
	}
	if op, err := strconv.ParseFloat(decl["opacity"], 64); err == nil && op == 0 {
		return true
	}

	width := dimension(s, decl, "width", defaultIframeWidth)
	height := dimension(s, decl, "height", defaultIframeHeight)
	if width <= 1 || height <= 1 {
		return true
	}

	if left, ok := pixels(decl["left"]); ok && left+width < 0 {
		return true
	}
	if top, ok := pixels(decl["top"]); ok && top+height < 0 {
		return true
	}
	return false
}

// dimension prefers the inline style, then the attribute, then the default.
func dimension(s *goquery.Selection, decl map[string]string, name string, fallback float64) float64 {
	if v, ok := pixels(decl[name]); ok {
		return v
	}
	if v, ok := pixels(s.AttrOr(name, "")); ok {
		return v
	}
	return fallback
}
