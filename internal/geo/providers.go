package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/scmmishra/linklog/internal/metrics"
)

const (
	ipapiCoURL  = "https://ipapi.co"
	ipapiComURL = "http://ip-api.com"
)

var (
	ErrInvalidIP = errors.New("geo: invalid ip")
	ErrPrivateIP = errors.New("geo: private or loopback ip")
)

// Provider resolves an IP address to a Result.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, ip string) (Result, error)
}

// IPAPICo queries ipapi.co.
type IPAPICo struct {
	BaseURL string
	Client  *http.Client
}

func NewIPAPICo(timeout time.Duration) *IPAPICo {
	return &IPAPICo{BaseURL: ipapiCoURL, Client: &http.Client{Timeout: timeout}}
}

func (p *IPAPICo) Name() string { return "ipapi.co" }

func (p *IPAPICo) Lookup(ctx context.Context, ip string) (Result, error) {
	var data struct {
		Error       bool    `json:"error"`
		Reason      string  `json:"reason"`
		City        string  `json:"city"`
		Region      string  `json:"region"`
		CountryName string  `json:"country_name"`
		Continent   string  `json:"continent_code"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		Org         string  `json:"org"`
	}
	endpoint := p.BaseURL + "/" + url.PathEscape(ip) + "/json/"
	if err := getJSON(ctx, p.Client, endpoint, &data); err != nil {
		return Result{}, err
	}
	if data.Error {
		return Result{}, fmt.Errorf("ipapi.co: %s", data.Reason)
	}
	return Result{
		Continent: continentName(data.Continent),
		Country:   data.CountryName,
		Region:    data.Region,
		City:      data.City,
		Latitude:  data.Latitude,
		Longitude: data.Longitude,
		Provider:  data.Org,
	}, nil
}

// IPAPICom queries ip-api.com; it is the only provider that reports proxies.
type IPAPICom struct {
	BaseURL string
	Client  *http.Client
}

func NewIPAPICom(timeout time.Duration) *IPAPICom {
	return &IPAPICom{BaseURL: ipapiComURL, Client: &http.Client{Timeout: timeout}}
}

func (p *IPAPICom) Name() string { return "ip-api.com" }

func (p *IPAPICom) Lookup(ctx context.Context, ip string) (Result, error) {
	var data struct {
		Status     string  `json:"status"`
		Message    string  `json:"message"`
		Continent  string  `json:"continent"`
		Country    string  `json:"country"`
		RegionName string  `json:"regionName"`
		City       string  `json:"city"`
		Lat        float64 `json:"lat"`
		Lon        float64 `json:"lon"`
		ISP        string  `json:"isp"`
		Org        string  `json:"org"`
		Proxy      bool    `json:"proxy"`
		Hosting    bool    `json:"hosting"`
	}
	endpoint := p.BaseURL + "/json/" + url.PathEscape(ip) +
		"?fields=status,message,continent,country,regionName,city,lat,lon,isp,org,proxy,hosting"
	if err := getJSON(ctx, p.Client, endpoint, &data); err != nil {
		return Result{}, err
	}
	if data.Status != "success" {
		return Result{}, fmt.Errorf("ip-api.com: %s", data.Message)
	}
	provider := data.ISP
	if provider == "" {
		provider = data.Org
	}
	return Result{
		Continent: data.Continent,
		Country:   data.Country,
		Region:    data.RegionName,
		City:      data.City,
		Latitude:  data.Lat,
		Longitude: data.Lon,
		Provider:  provider,
		Proxy:     data.Proxy || data.Hosting,
	}, nil
}

// Chain tries each provider in order and returns the first success.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain skips nil providers and MaxMind readers without a database.
func NewChain(logger *slog.Logger, providers ...Provider) *Chain {
	c := &Chain{logger: logger}
	for _, p := range providers {
		if p == nil {
			continue
		}
		if r, ok := p.(*Reader); ok && !r.Loaded() {
			continue
		}
		c.providers = append(c.providers, p)
	}
	return c
}

func (c *Chain) Name() string { return "chain" }

// Lookup returns ErrPrivateIP for loopback, private and link-local
// addresses without calling any provider.
func (c *Chain) Lookup(ctx context.Context, ip string) (Result, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Result{}, ErrInvalidIP
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast() || parsed.IsUnspecified() {
		return Result{}, ErrPrivateIP
	}

	err := errors.New("geo: no providers configured")
	for _, p := range c.providers {
		start := time.Now()
		var res Result
		res, err = p.Lookup(ctx, ip)
		metrics.GeoLookupDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
		if err == nil {
			metrics.GeoLookups.WithLabelValues(p.Name(), "ok").Inc()
			return res, nil
		}
		metrics.GeoLookups.WithLabelValues(p.Name(), "error").Inc()
		c.logger.Debug("geo provider failed", "provider", p.Name(), "ip", ip, "error", err)
		if ctx.Err() != nil {
			break
		}
	}
	return Result{}, err
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "linklog/1.0")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

var continents = map[string]string{
	"AF": "Africa",
	"AN": "Antarctica",
	"AS": "Asia",
	"EU": "Europe",
	"NA": "North America",
	"OC": "Oceania",
	"SA": "South America",
}

func continentName(code string) string {
	if name, ok := continents[code]; ok {
		return name
	}
	return code
}
