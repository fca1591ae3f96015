package server

// TrackerHitsRequest reports tracker activity for a session. Either give
// the number of hits directly or the request URLs to classify.
type TrackerHitsRequest struct {
	Hits int      `json:"hits" example:"3"`
	URLs []string `json:"urls" example:"[\"https://www.google-analytics.com/collect\"]"`
}

// TrackerHitsResponse reports how many hits were recorded.
type TrackerHitsResponse struct {
	Recorded int `json:"recorded" example:"3"`
}

// NavigateRequest announces that a session moved to a new page.
type NavigateRequest struct {
	URL string `json:"url" example:"https://example.com/"`
}

// ScanRequest asks the server to fetch and evaluate a page.
type ScanRequest struct {
	URL string `json:"url" example:"https://example.com/login"`
}

// AddDomainRequest adds one domain to a list.
type AddDomainRequest struct {
	Domain string `json:"domain" example:"example.com"`
}

// ImportDomainsRequest replaces a list with newline-separated domains.
type ImportDomainsRequest struct {
	Text string `json:"text" example:"example.com\nshop.example.org"`
}

// ImportDomainsResponse reports an import outcome with a display message.
type ImportDomainsResponse struct {
	List     string   `json:"list" example:"deny"`
	Imported []string `json:"imported"`
	Invalid  []string `json:"invalid"`
	Message  string   `json:"message" example:"Saved 2 domains to the denylist."`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status        string `json:"status" example:"ok"`
	EngineVersion string `json:"engine_version" example:"0.1.0"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
