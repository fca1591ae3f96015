// Package domains canonicalizes hostnames so allow/deny lists, reputation
// cache keys and page features all compare the same way.
package domains

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// NormalizeDomain reduces a URL or bare hostname to a comparable domain key:
// lowercase, no scheme, port, path or userinfo, IDN labels in punycode form,
// no leading "www.". It returns false when the input cannot be turned into a
// usable domain.
//
// Examples:
//
//	NormalizeDomain("HTTPS://WWW.Example.com/path") → "example.com", true
//	NormalizeDomain("shop.example.com:8443")        → "shop.example.com", true
//	NormalizeDomain("not a domain")                 → "", false
func NormalizeDomain(input string) (string, bool) {
	raw := strings.ToLower(strings.TrimSpace(input))
	if raw == "" {
		return "", false
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	host := strings.ToLower(strings.TrimSpace(u.Hostname()))
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		host = ascii
	}
	host = strings.TrimPrefix(host, "www.")

	if host == "" || strings.ContainsFunc(host, unicode.IsSpace) {
		return "", false
	}
	return host, true
}

// IsPunycodeDomain reports whether any dot-separated label of domain is an
// IDNA A-label ("xn--" prefix).
func IsPunycodeDomain(domain string) bool {
	for _, label := range strings.Split(domain, ".") {
		if strings.HasPrefix(label, "xn--") {
			return true
		}
	}
	return false
}

// IsHTTPURL reports whether rawURL uses the http or https scheme.
func IsHTTPURL(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// TruncateMiddle shortens value to at most maxLength runes by replacing its
// middle with "...".
func TruncateMiddle(value string, maxLength int) string {
	if utf8.RuneCountInString(value) <= maxLength {
		return value
	}
	if maxLength <= 3 {
		return string([]rune(value)[:max(maxLength, 0)])
	}

	runes := []rune(value)
	head := (maxLength - 3) / 2
	tail := maxLength - 3 - head
	return string(runes[:head]) + "..." + string(runes[len(runes)-tail:])
}
