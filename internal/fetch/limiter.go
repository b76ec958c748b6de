package fetch

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// hostLimiters hands out one rate.Limiter per hostname (boards.greenhouse.io,
// api.lever.co, ...) so tenants on different hosts never throttle each other.
type hostLimiters struct {
	mu    sync.Mutex
	lims  map[string]*rate.Limiter
	rps   rate.Limit
	burst int
}

func newHostLimiters(reqPerSec float64, burst int) *hostLimiters {
	return &hostLimiters{
		lims:  make(map[string]*rate.Limiter),
		rps:   rate.Limit(reqPerSec),
		burst: burst,
	}
}

func (h *hostLimiters) forHost(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	if lim, ok := h.lims[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(h.rps, h.burst)
	h.lims[host] = lim
	return lim
}

func (h *hostLimiters) wait(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return h.forHost("_").Wait(ctx)
	}
	return h.forHost(u.Host).Wait(ctx)
}
