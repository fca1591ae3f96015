package webclient_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/nyxguard/internal/logging"
	"github.com/raysh454/nyxguard/internal/webclient"
)

// Chrome may be missing in CI; every test here skips when the browser
// cannot start.
func newChromedp(t *testing.T) *webclient.ChromeDPClient {
	t.Helper()
	cfg := webclient.DefaultConfig()
	cfg.Client = webclient.ClientChromedp
	cfg.IdleAfter = 300 * time.Millisecond
	cfg.Timeout = 20 * time.Second

	client, err := webclient.NewChromedpClient(cfg, logging.NewNopLogger())
	if err != nil {
		t.Skipf("chromedp unavailable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestChromedpClient_RejectsNonGET(t *testing.T) {
	t.Parallel()
	client := newChromedp(t)

	_, err := client.Do(context.Background(), &webclient.Request{Method: "POST", URL: "http://example.com"})
	if err == nil || !strings.Contains(err.Error(), "not supported") {
		t.Fatalf("expected method not supported error, got %v", err)
	}
}

func TestChromedpClient_RendersAndReportsSubrequests(t *testing.T) {
	t.Parallel()
	client := newChromedp(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><body><div id="x">static</div>
			<img src="/pixel.gif">
			<script>document.getElementById("x").textContent = "rendered";</script>
			</body></html>`)
	})
	mux.HandleFunc("/pixel.gif", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/gif")
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	resp, err := client.Get(context.Background(), ts.URL+"/")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(resp.Body), "rendered") {
		t.Errorf("expected script-rendered DOM, got %q", resp.Body)
	}

	found := false
	for _, u := range resp.Subrequests {
		if strings.HasSuffix(u, "/pixel.gif") {
			found = true
		}
		if u == ts.URL+"/" {
			t.Errorf("top-level document should not be listed as subrequest")
		}
	}
	if !found {
		t.Errorf("pixel request missing from %v", resp.Subrequests)
	}
}
