package webclient

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/raysh454/nyxguard/internal/logging"
)

// ErrUnknownBackend is returned by NewWebClient for an unregistered name.
var ErrUnknownBackend = errors.New("webclient backend not registered")

// BackendConstructor builds a WebClient from the shared config.
type BackendConstructor func(cfg Config, logger logging.Logger) (WebClient, error)

var backends = struct {
	sync.RWMutex
	ctors map[Client]BackendConstructor
}{ctors: map[Client]BackendConstructor{
	ClientNetHTTP: func(cfg Config, logger logging.Logger) (WebClient, error) {
		return NewNetHTTPClient(cfg, logger, nil)
	},
	ClientChromedp: func(cfg Config, logger logging.Logger) (WebClient, error) {
		return NewChromedpClient(cfg, logger)
	},
}}

func canonical(name Client) Client {
	return Client(strings.ToLower(strings.TrimSpace(string(name))))
}

// RegisterBackend adds or replaces a backend. Names are case-insensitive.
func RegisterBackend(name Client, ctor BackendConstructor) {
	name = canonical(name)
	if name == "" || ctor == nil {
		return
	}
	backends.Lock()
	defer backends.Unlock()
	backends.ctors[name] = ctor
}

// NewWebClient builds the backend named by cfg.Client, nethttp when empty.
func NewWebClient(cfg Config, logger logging.Logger) (WebClient, error) {
	name := canonical(cfg.Client)
	if name == "" {
		name = ClientNetHTTP
	}

	backends.RLock()
	ctor := backends.ctors[name]
	backends.RUnlock()
	if ctor == nil {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownBackend, name, ListBackends())
	}

	cfg.Client = name
	wc, err := ctor(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("construct %s webclient: %w", name, err)
	}
	if wc == nil {
		return nil, fmt.Errorf("construct %s webclient: constructor returned nil", name)
	}
	return wc, nil
}

// ListBackends returns the registered backend names, sorted.
func ListBackends() []Client {
	backends.RLock()
	defer backends.RUnlock()
	out := make([]Client, 0, len(backends.ctors))
	for name := range backends.ctors {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
