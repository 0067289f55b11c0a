// Package keepalive pings a URL on a fixed interval so hosting platforms
// that idle out quiet services keep this one warm.
package keepalive

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/scmmishra/linklog/internal/metrics"
)

type Pinger struct {
	url      string
	interval time.Duration
	client   *http.Client
	logger   *slog.Logger

	once sync.Once
	stop chan struct{}
	done chan struct{}
}

func New(url string, interval time.Duration, timeout time.Duration, logger *slog.Logger) *Pinger {
	return &Pinger{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the loop. It ends when ctx is cancelled or Shutdown is
// called. Calling Start more than once has no effect.
func (p *Pinger) Start(ctx context.Context) {
	started := false
	p.once.Do(func() {
		started = true
		go p.run(ctx)
	})
	if !started {
		p.logger.Warn("keepalive already started")
	}
}

// Shutdown stops the loop and waits for it to exit. Safe to call when the
// loop was never started.
func (p *Pinger) Shutdown() {
	p.once.Do(func() { close(p.done) })
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
	<-p.done
}

func (p *Pinger) run(ctx context.Context) {
	defer close(p.done)
	p.logger.Info("keepalive started", "url", p.url, "interval", p.interval)

	p.ping(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.ping(ctx)
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		}
	}
}

func (p *Pinger) ping(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		metrics.KeepalivePings.WithLabelValues("error").Inc()
		p.logger.Error("keepalive request", "error", err)
		return
	}
	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.KeepalivePings.WithLabelValues("error").Inc()
		p.logger.Warn("keepalive ping failed", "error", err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.KeepalivePings.WithLabelValues("status").Inc()
		p.logger.Warn("keepalive ping returned non-200", "status", resp.StatusCode)
		return
	}
	metrics.KeepalivePings.WithLabelValues("ok").Inc()
}
