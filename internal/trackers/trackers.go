// Package trackers recognizes requests to known advertising and analytics
// hosts.
package trackers

import (
	"net/url"
	"strings"

	"github.com/raysh454/nyxguard/internal/domains"
)

// DefaultHosts is the built-in tracker vocabulary. A request matches when
// its host equals an entry or is a subdomain of one.
var DefaultHosts = []string{
	"doubleclick.net",
	"google-analytics.com",
	"googletagmanager.com",
	"googletagservices.com",
	"googlesyndication.com",
	"googleadservices.com",
	"adservice.google.com",
	"facebook.net",
	"connect.facebook.net",
	"scorecardresearch.com",
	"quantserve.com",
	"adnxs.com",
	"criteo.com",
	"criteo.net",
	"taboola.com",
	"outbrain.com",
	"hotjar.com",
	"mixpanel.com",
	"segment.io",
	"segment.com",
	"amplitude.com",
	"adsrvr.org",
	"rubiconproject.com",
	"pubmatic.com",
	"openx.net",
	"moatads.com",
	"chartbeat.com",
	"chartbeat.net",
	"amazon-adsystem.com",
	"bat.bing.com",
	"ads-twitter.com",
	"analytics.twitter.com",
	"ads.linkedin.com",
	"snap.licdn.com",
	"clarity.ms",
	"mc.yandex.ru",
	"hs-analytics.net",
	"newrelic.com",
	"nr-data.net",
}

// Matcher matches request URLs against a host-suffix list.
type Matcher struct {
	hosts map[string]struct{}
}

// NewMatcher builds a Matcher over hosts. Entries are normalized; entries
// that are not plain hosts are ignored.
func NewMatcher(hosts []string) *Matcher {
	m := &Matcher{hosts: make(map[string]struct{}, len(hosts))}
	for _, h := range hosts {
		if strings.Contains(h, "/") {
			continue
		}
		h = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h)), ".")
		if h != "" {
			m.hosts[h] = struct{}{}
		}
	}
	return m
}

// NewDefaultMatcher uses DefaultHosts.
func NewDefaultMatcher() *Matcher {
	return NewMatcher(DefaultHosts)
}

// Match reports whether rawURL targets a tracker host. Non-HTTP URLs never
// match.
func (m *Matcher) Match(rawURL string) bool {
	if !domains.IsHTTPURL(rawURL) {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	for host != "" {
		if _, ok := m.hosts[host]; ok {
			return true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			return false
		}
		host = host[i+1:]
	}
	return false
}

// Count returns how many of urls are tracker requests.
func (m *Matcher) Count(urls []string) int {
	n := 0
	for _, u := range urls {
		if m.Match(u) {
			n++
		}
	}
	return n
}
