// Package navigation moves the client between views. Internal routes change
// the router's location; absolute URLs leave the application and open in the
// system browser.
package navigation

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/pkg/browser"
)

const (
	RouteLogin    = "/login"
	RouteCallback = "/callback"
	RouteAgenda   = "/agenda"
	RouteChat     = "/chat"
)

// Navigator performs a hard navigation to target.
type Navigator interface {
	Navigate(target string) error
}

// Opener hands an external URL to something outside the process.
type Opener func(rawURL string) error

// OpenInBrowser is the default Opener.
func OpenInBrowser(rawURL string) error {
	return browser.OpenURL(rawURL)
}

// Router is the process-wide Navigator. It keeps the current route, the full
// navigation history and a list of observers. Safe for concurrent use.
type Router struct {
	open Opener

	mu        sync.Mutex
	location  string
	history   []string
	observers []func(target string)
}

// NewRouter creates a Router starting at initial. A nil opener uses
// OpenInBrowser.
func NewRouter(initial string, open Opener) *Router {
	if open == nil {
		open = OpenInBrowser
	}
	return &Router{open: open, location: initial}
}

// Navigate opens absolute http(s) URLs externally and moves to any other
// target as an internal route. Observers see both kinds.
func (r *Router) Navigate(target string) error {
	external, err := isExternal(target)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.history = append(r.history, target)
	if !external {
		r.location = target
	}
	observers := append([]func(string){}, r.observers...)
	r.mu.Unlock()

	for _, fn := range observers {
		fn(target)
	}

	if external {
		if err := r.open(target); err != nil {
			return fmt.Errorf("open %s: %w", target, err)
		}
	}
	return nil
}

// Location returns the current internal route.
func (r *Router) Location() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.location
}

// History returns every target navigated to, oldest first.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

// Count reports how many times target was navigated to.
func (r *Router) Count(target string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, h := range r.history {
		if h == target {
			n++
		}
	}
	return n
}

// OnNavigate registers fn for every navigation. fn must not block.
func (r *Router) OnNavigate(fn func(target string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

func isExternal(target string) (bool, error) {
	if target == "" {
		return false, fmt.Errorf("empty navigation target")
	}
	u, err := url.Parse(target)
	if err != nil {
		return false, fmt.Errorf("invalid navigation target %q: %w", target, err)
	}
	return u.Scheme == "http" || u.Scheme == "https", nil
}
