// Package ipcheck flags visitor IPs that come from datacenters, Tor exit
// nodes or public threat blocklists. Lists live in memory and are refreshed
// in the background.
package ipcheck

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	DefaultRefresh = 24 * time.Hour
	fetchTimeout   = 30 * time.Second
)

// Format selects the parser for a list.
type Format int

const (
	CIDRLines Format = iota // one CIDR per line
	IPLines                 // one IP per line
	IpsumLines              // "ip<whitespace>score"
	OCIJSON                 // Oracle Cloud public_ip_ranges.json
	GeofeedCSV              // CIDR in the first CSV column
)

// Source is one remote list. Static sources carry their CIDRs inline.
type Source struct {
	Name   string
	URL    string
	Format Format
	Static []string
}

// DefaultSources are the public lists used in production.
var DefaultSources = []Source{
	{Name: "datacenters", URL: "https://raw.githubusercontent.com/jhassine/server-ip-addresses/master/data/datacenters.txt", Format: CIDRLines},
	{Name: "oci", URL: "https://docs.cloud.oracle.com/en-us/iaas/tools/public_ip_ranges.json", Format: OCIJSON},
	{Name: "digitalocean", URL: "https://www.digitalocean.com/geo/google.csv", Format: GeofeedCSV},
	{Name: "vultr", URL: "https://geofeed.constant.com/?text", Format: CIDRLines},
	{Name: "tor", URL: "https://check.torproject.org/torbulkexitlist", Format: IPLines},
	{Name: "ipsum", URL: "https://raw.githubusercontent.com/stamparm/ipsum/master/ipsum.txt", Format: IpsumLines},
	{Name: "greensnow", URL: "https://blocklist.greensnow.co/greensnow.txt", Format: IPLines},
	{Name: "akamai", Format: CIDRLines, Static: []string{
		"23.32.0.0/11", "23.192.0.0/11", "2.16.0.0/13", "104.64.0.0/10",
		"184.24.0.0/13", "23.0.0.0/12", "95.100.0.0/15", "92.122.0.0/15",
		"184.50.0.0/15", "88.221.0.0/16", "23.64.0.0/14", "72.246.0.0/15",
		"96.16.0.0/15", "96.6.0.0/15", "69.192.0.0/16", "23.72.0.0/13",
		"173.222.0.0/15", "118.214.0.0/16", "184.84.0.0/14",
	}},
	{Name: "scaleway", Format: CIDRLines, Static: []string{
		"62.210.0.0/16", "195.154.0.0/16", "212.129.0.0/18", "62.4.0.0/19",
		"212.83.128.0/19", "212.83.160.0/19", "212.47.224.0/19", "163.172.0.0/16",
		"51.15.0.0/16", "151.115.0.0/16", "51.158.0.0/15",
	}},
}

// Checker answers IsProxy from the last successful refresh. Safe for
// concurrent use.
type Checker struct {
	sources  []Source
	interval time.Duration
	client   *http.Client
	logger   *slog.Logger

	mu     sync.RWMutex
	ranges []*net.IPNet
	ips    map[string]struct{}

	once sync.Once
	stop chan struct{}
	done chan struct{}
}

func New(logger *slog.Logger, sources []Source, interval time.Duration) *Checker {
	if interval <= 0 {
		interval = DefaultRefresh
	}
	return &Checker{
		sources:  sources,
		interval: interval,
		client:   &http.Client{Timeout: fetchTimeout},
		logger:   logger,
		ips:      make(map[string]struct{}),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start loads every source once and then refreshes on the interval until
// Shutdown.
func (c *Checker) Start() {
	c.once.Do(func() { go c.run() })
}

// Shutdown stops the refresh loop and waits for it to exit. Safe to call
// when the loop was never started.
func (c *Checker) Shutdown() {
	c.once.Do(func() { close(c.done) })
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
	<-c.done
}

// IsProxy reports whether ip is in a loaded range or list. A nil Checker
// never matches.
func (c *Checker) IsProxy(ip string) bool {
	if c == nil {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.ips[parsed.String()]; ok {
		return true
	}
	for _, n := range c.ranges {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}

func (c *Checker) run() {
	defer close(c.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	c.Refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Refresh(ctx)
		case <-c.stop:
			return
		}
	}
}

// Refresh fetches all sources concurrently. A kind of list (ranges or IPs)
// is only replaced when the new load produced at least one entry, so a
// failed refresh keeps the previous data.
func (c *Checker) Refresh(ctx context.Context) {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		errs      []string
		newRanges []*net.IPNet
	)
	newIPs := make(map[string]struct{})

	for _, src := range c.sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			ranges, ips, err := c.load(ctx, src)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", src.Name, err))
			}
			newRanges = append(newRanges, ranges...)
			for _, ip := range ips {
				newIPs[ip] = struct{}{}
			}
		}(src)
	}
	wg.Wait()

	if len(errs) > 0 {
		c.logger.Warn("ipcheck partial refresh", "errors", strings.Join(errs, "; "))
	}

	c.mu.Lock()
	if len(newRanges) > 0 {
		c.ranges = newRanges
	}
	if len(newIPs) > 0 {
		c.ips = newIPs
	}
	c.mu.Unlock()

	c.logger.Info("ipcheck lists loaded", "ranges", len(newRanges), "ips", len(newIPs))
}

func (c *Checker) load(ctx context.Context, src Source) ([]*net.IPNet, []string, error) {
	if len(src.Static) > 0 {
		return parseCIDRs(src.Static), nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	switch src.Format {
	case IPLines:
		ips, err := parseIPLines(resp.Body, false)
		return nil, ips, err
	case IpsumLines:
		ips, err := parseIPLines(resp.Body, true)
		return nil, ips, err
	case OCIJSON:
		ranges, err := parseOCI(resp.Body)
		return ranges, nil, err
	case GeofeedCSV:
		ranges, err := parseGeofeed(resp.Body)
		return ranges, nil, err
	default:
		ranges, err := parseCIDRLines(resp.Body)
		return ranges, nil, err
	}
}
