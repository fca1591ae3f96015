package webclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/raysh454/nyxguard/internal/logging"
)

// ChromeDPClient renders pages in a shared headless browser. Each Do opens a
// fresh tab, waits for the network to go idle and returns the rendered DOM.
type ChromeDPClient struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	timeout       time.Duration
	idleAfter     time.Duration
	logger        logging.Logger
}

// NewChromedpClient starts the browser. It fails when Chrome cannot be
// launched in this environment.
func NewChromedpClient(cfg Config, logger logging.Logger) (*ChromeDPClient, error) {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = def.IdleAfter
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Run with no actions launches the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	componentLogger := logger.With(logging.Field{Key: "backend", Value: string(ClientChromedp)})
	componentLogger.Debug("created chromedp webclient",
		logging.Field{Key: "idle_after", Value: cfg.IdleAfter.String()},
		logging.Field{Key: "headless", Value: cfg.Headless})

	return &ChromeDPClient{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		timeout:       cfg.Timeout,
		idleAfter:     cfg.IdleAfter,
		logger:        componentLogger,
	}, nil
}

// Do navigates a new tab to req.URL. Only GET is supported.
func (c *ChromeDPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if m := strings.ToUpper(req.Method); m != "" && m != http.MethodGet {
		return nil, fmt.Errorf("method %s not supported by chromedp backend", m)
	}

	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	watch := waitNetworkIdle(tabCtx, c.idleAfter)

	actions := []chromedp.Action{network.Enable()}
	if len(req.Headers) > 0 {
		headers := network.Headers{}
		for k := range req.Headers {
			headers[k] = req.Headers.Get(k)
		}
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}
	actions = append(actions, chromedp.Navigate(req.URL))

	c.logger.Debug("navigating", logging.Field{Key: "url", Value: req.URL})
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", req.URL, err)
	}
	watch.kick()

	select {
	case <-watch.idle:
	case <-tabCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("wait for network idle %s: %w", req.URL, tabCtx.Err())
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("read document %s: %w", req.URL, err)
	}

	status, headers, subrequests := watch.snapshot()
	return &Response{
		Request:     req,
		Headers:     headers,
		Body:        []byte(html),
		StatusCode:  status,
		FetchedAt:   time.Now(),
		Subrequests: subrequests,
	}, nil
}

func (c *ChromeDPClient) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, URL: url})
}

func (c *ChromeDPClient) Close() error {
	c.browserCancel()
	c.allocCancel()
	return nil
}

// networkWatch tracks in-flight requests of one tab and signals idle once
// none have been active for idleAfter.
type networkWatch struct {
	idle      chan struct{}
	idleAfter time.Duration

	mu          sync.Mutex
	once        sync.Once
	timer       *time.Timer
	inflight    map[network.RequestID]struct{}
	status      int
	headers     http.Header
	subrequests []string
	seen        map[string]struct{}
}

func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) *networkWatch {
	w := &networkWatch{
		idle:      make(chan struct{}),
		idleAfter: idleAfter,
		inflight:  make(map[network.RequestID]struct{}),
		headers:   http.Header{},
		seen:      make(map[string]struct{}),
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			w.started(e)
		case *network.EventResponseReceived:
			w.response(e)
		case *network.EventLoadingFinished:
			w.finished(e.RequestID)
		case *network.EventLoadingFailed:
			w.finished(e.RequestID)
		}
	})

	return w
}

func (w *networkWatch) started(e *network.EventRequestWillBeSent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.inflight[e.RequestID] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	// The top-level navigation itself is not a sub-request.
	if e.Request == nil || string(e.RequestID) == string(e.LoaderID) {
		return
	}
	if _, ok := w.seen[e.Request.URL]; ok {
		return
	}
	w.seen[e.Request.URL] = struct{}{}
	w.subrequests = append(w.subrequests, e.Request.URL)
}

func (w *networkWatch) response(e *network.EventResponseReceived) {
	if e.Type != network.ResourceTypeDocument || e.Response == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status != 0 {
		return
	}
	w.status = int(e.Response.Status)
	for k, v := range e.Response.Headers {
		w.headers.Set(k, fmt.Sprint(v))
	}
}

func (w *networkWatch) finished(id network.RequestID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inflight, id)
	if len(w.inflight) == 0 {
		w.startTimerLocked()
	}
}

// kick arms the idle timer after navigation in case the page made no
// further requests.
func (w *networkWatch) kick() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.inflight) == 0 {
		w.startTimerLocked()
	}
}

func (w *networkWatch) startTimerLocked() {
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.idleAfter, func() {
		w.mu.Lock()
		quiet := len(w.inflight) == 0
		w.mu.Unlock()
		if quiet {
			w.once.Do(func() { close(w.idle) })
		}
	})
}

func (w *networkWatch) snapshot() (int, http.Header, []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status, w.headers.Clone(), append([]string(nil), w.subrequests...)
}
