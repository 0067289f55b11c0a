// Package capture turns an incoming redirect request into a visit record,
// honoring the link's capture preferences.
package capture

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"github.com/scmmishra/linklog/internal/geo"
	"github.com/scmmishra/linklog/internal/models"
)

// Resolver does reverse DNS. *net.Resolver satisfies it.
type Resolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// ProxyChecker flags datacenter, Tor and blocklisted addresses.
type ProxyChecker interface {
	IsProxy(ip string) bool
}

type Capturer struct {
	Geo        geo.Provider
	Proxies    ProxyChecker // optional
	Resolver   Resolver
	DNSTimeout time.Duration
	Logger     *slog.Logger
}

func New(geoProvider geo.Provider, proxies ProxyChecker, timeout time.Duration, logger *slog.Logger) *Capturer {
	return &Capturer{
		Geo:        geoProvider,
		Proxies:    proxies,
		Resolver:   net.DefaultResolver,
		DNSTimeout: timeout,
		Logger:     logger,
	}
}

// ClientIP picks the first X-Forwarded-For entry, then X-Real-IP, then the
// socket address. Headers are taken at face value.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); xr != "" {
		return xr
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// Visit builds the server-side part of a visit with a fresh token.
// Attributes the link did not opt into stay zero. Lookups are best-effort
// and never fail the call.
func (c *Capturer) Visit(ctx context.Context, r *http.Request, link *models.Link) *models.Visit {
	p := link.Capture
	ip := ClientIP(r)
	raw := r.UserAgent()

	v := &models.Visit{
		LinkID:    link.ID,
		Token:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	if p.IP {
		v.IP = ip
	}
	if p.UserAgent {
		v.UserAgent = raw
	}
	if p.Referrer {
		v.Referrer = r.Referer()
	}
	if p.Cookies {
		v.CookiesEnabled = r.Header.Get("Cookie") != ""
	}
	if p.Browser || p.OS {
		ua := useragent.New(raw)
		bot := isBot(ua, raw)
		v.IsBot = bot
		v.DeviceType = deviceType(ua, bot)
		if p.Browser {
			v.Browser, v.BrowserVersion = ua.Browser()
		}
		if p.OS {
			v.OS = ua.OS()
		}
	}

	var wg sync.WaitGroup
	if p.Host {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.Host = c.reverseDNS(ctx, ip)
		}()
	}
	if p.NeedsGeo() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.applyGeo(ctx, v, p, ip)
		}()
	}
	wg.Wait()

	return v
}

func (c *Capturer) reverseDNS(ctx context.Context, ip string) string {
	if c.Resolver == nil || net.ParseIP(ip) == nil {
		return ""
	}
	if c.DNSTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.DNSTimeout)
		defer cancel()
	}
	names, err := c.Resolver.LookupAddr(ctx, ip)
	if err != nil || len(names) == 0 {
		c.Logger.Debug("reverse dns failed", "ip", ip, "error", err)
		return ""
	}
	return strings.TrimSuffix(names[0], ".")
}

func (c *Capturer) applyGeo(ctx context.Context, v *models.Visit, p models.CapturePrefs, ip string) {
	var res geo.Result
	if c.Geo != nil {
		var err error
		res, err = c.Geo.Lookup(ctx, ip)
		if err != nil {
			c.Logger.Debug("geo lookup failed", "ip", ip, "error", err)
		}
	}

	if p.Provider {
		v.Provider = res.Provider
	}
	if p.Proxy {
		v.Proxy = res.Proxy || (c.Proxies != nil && c.Proxies.IsProxy(ip))
	}
	if p.Continent {
		v.Continent = res.Continent
	}
	if p.Country {
		v.Country = res.Country
	}
	if p.Region {
		v.Region = res.Region
	}
	if p.City {
		v.City = res.City
	}
	if p.LatLong {
		v.Latitude = res.Latitude
		v.Longitude = res.Longitude
	}
}
