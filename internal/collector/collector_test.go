package collector_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/raysh454/nyxguard/internal/collector"
)

func extract(t *testing.T, url, page string, opts collector.Options) (f struct {
	hasPassword bool
	login       []string
	notify      []string
	overlays    int
	blocking    bool
	ads         int
	iframes     int
	sample      string
	domain      string
}) {
	t.Helper()
	got, err := collector.Extract(url, []byte(page), opts)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.URL != url {
		t.Fatalf("URL = %q", got.URL)
	}
	f.hasPassword = got.HasPasswordForm
	f.login = got.SuspiciousLoginKeywordsFound
	f.notify = got.NotificationDarkPatternKeywords
	f.overlays = got.OverlayCount
	f.blocking = got.HasBlockingOverlay
	f.ads = got.AdLikeElementsCount
	f.iframes = got.IframeHiddenCount
	f.sample = got.PageTextSample
	f.domain = got.Domain
	return f
}

func TestExtract_PhishingLogin(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>Sign in</title><script>var login = "bank";</script></head>
	<body>
		<h1>Verify your Account</h1>
		<form><input type="email" name="u"><input type="PASSWORD" name="p"><button>Sign
		in</button></form>
	</body></html>`

	f := extract(t, "https://www.Secure-Login.example/auth", page, collector.DefaultOptions())

	if f.domain != "secure-login.example" {
		t.Errorf("domain = %q", f.domain)
	}
	if !f.hasPassword {
		t.Fatalf("password field not detected")
	}
	want := []string{"sign in", "verify", "account"}
	if !reflect.DeepEqual(f.login, want) {
		t.Errorf("login keywords = %v, want %v", f.login, want)
	}
	if f.sample != "" {
		t.Errorf("text sample collected while disabled")
	}
}

func TestExtract_LoginKeywordsNeedPasswordField(t *testing.T) {
	t.Parallel()

	f := extract(t, "https://example.com/", `<body><p>Login to your bank account</p></body>`, collector.DefaultOptions())
	if f.hasPassword || len(f.login) != 0 {
		t.Fatalf("expected no login signal, got %v %v", f.hasPassword, f.login)
	}
	if f.login == nil {
		t.Fatalf("keyword slice should be empty, not nil")
	}
}

func TestExtract_NotificationPressure(t *testing.T) {
	t.Parallel()

	page := `<body>
		<p>Click Allow to continue watching. Click allow!</p>
		<button>Allow</button>
		<a href="#">Enable notifications</a>
		<input type="submit" value="Continue">
	</body>`

	f := extract(t, "https://example.com/", page, collector.DefaultOptions())

	want := []string{"enable notifications", "click allow", "allow to continue", "allow", "enable", "notifications", "continue"}
	if !reflect.DeepEqual(f.notify, want) {
		t.Fatalf("notification keywords = %v\nwant %v", f.notify, want)
	}
}

func TestExtract_Overlays(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		page         string
		wantCount    int
		wantBlocking bool
	}{
		{
			name:      "fixed full-screen",
			page:      `<body><div style="position:fixed; z-index:9999; width:100%; height:100vh"></div></body>`,
			wantCount: 1,
		},
		{
			name:         "modal dialog via inset",
			page:         `<body><div role="dialog" style="position: fixed; inset: 0; z-index: 2147483647"></div></body>`,
			wantCount:    1,
			wantBlocking: true,
		},
		{
			name:         "scroll locked",
			page:         `<body style="overflow:hidden"><div style="position:sticky;top:0;left:0;right:0;bottom:0;z-index:1000"></div></body>`,
			wantCount:    1,
			wantBlocking: true,
		},
		{
			name:      "large but not blocking coverage",
			page:      `<body style="overflow:hidden"><div aria-modal="true" style="position:fixed;z-index:5000;width:85%;height:85%"></div></body>`,
			wantCount: 1,
		},
		{
			name: "low z-index and small banners ignored",
			page: `<body>
				<div style="position:fixed;z-index:10;width:100%;height:100%"></div>
				<div style="position:fixed;z-index:9999;width:100%;height:60px"></div>
				<div style="position:absolute;z-index:9999;width:100%;height:100%"></div>
			</body>`,
		},
		{
			name: "two overlays",
			page: `<body>
				<div style="position:fixed;z-index:1000;width:90vw;height:90vh"></div>
				<div style="POSITION: FIXED; Z-INDEX: 1001 !important; inset: 0px"></div>
			</body>`,
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := extract(t, "https://example.com/", tt.page, collector.DefaultOptions())
			if f.overlays != tt.wantCount || f.blocking != tt.wantBlocking {
				t.Fatalf("overlays=%d blocking=%v, want %d %v", f.overlays, f.blocking, tt.wantCount, tt.wantBlocking)
			}
		})
	}
}

func TestExtract_AdLikeElements(t *testing.T) {
	t.Parallel()

	page := `<body>
		<div id="ad-top"></div>
		<div class="sidebar ads"></div>
		<div class="Sponsored-content"></div>
		<div class="taboola-feed"></div>
		<section class="promoted"></section>
		<div class="header"></div>
		<div class="loading"></div>
		<div id="add_to_cart"></div>
		<div class="ad_slot"></div>
	</body>`

	f := extract(t, "https://example.com/", page, collector.DefaultOptions())
	if f.ads != 5 {
		t.Fatalf("ad-like count = %d, want 5", f.ads)
	}

	many := "<body>" + strings.Repeat(`<div class="ad"></div>`, 300) + "</body>"
	opts := collector.DefaultOptions()
	if f := extract(t, "https://example.com/", many, opts); f.ads != 200 {
		t.Fatalf("ad-like count should cap at 200, got %d", f.ads)
	}
}

func TestExtract_HiddenIframes(t *testing.T) {
	t.Parallel()

	page := `<body>
		<iframe src="https://a.test" style="display:none"></iframe>
		<iframe src="https://b.test" style="visibility: hidden"></iframe>
		<iframe src="https://c.test" style="opacity:0"></iframe>
		<iframe src="https://d.test" width="1" height="1"></iframe>
		<iframe src="https://e.test" style="width:0px;height:0px"></iframe>
		<iframe src="https://f.test" style="position:absolute;left:-9999px"></iframe>
		<iframe src="https://g.test" hidden></iframe>
		<iframe src="https://visible.test" width="640" height="360"></iframe>
		<iframe src="https://partly.test" style="position:absolute;left:-20px"></iframe>
		<iframe src="https://default.test"></iframe>
	</body>`

	f := extract(t, "https://example.com/", page, collector.DefaultOptions())
	if f.iframes != 7 {
		t.Fatalf("hidden iframes = %d, want 7", f.iframes)
	}
}

func TestExtract_TextSample(t *testing.T) {
	t.Parallel()

	page := `<body><p>Hello   world</p><script>ignored()</script><div style="display:none">secret</div>
	<p>second
	line</p></body>`

	opts := collector.DefaultOptions()
	opts.TextSample = true
	f := extract(t, "https://example.com/", page, opts)
	if f.sample != "Hello world second line" {
		t.Fatalf("sample = %q", f.sample)
	}

	opts.TextSampleLength = 5
	if f := extract(t, "https://example.com/", page, opts); f.sample != "Hello" {
		t.Fatalf("truncated sample = %q", f.sample)
	}
}
