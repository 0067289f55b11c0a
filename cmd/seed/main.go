package main

import (
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/scmmishra/linklog/internal/db"
	"github.com/scmmishra/linklog/internal/models"
)

type seedLink struct {
	code    string
	target  string
	title   string
	capture models.CapturePrefs
	// weight controls relative visit volume (higher = more visits)
	weight float64
}

var (
	everything = models.CapturePrefs{
		IP: true, Host: true, Provider: true, Proxy: true,
		Continent: true, Country: true, Region: true, City: true, LatLong: true,
		Browser: true, OS: true, UserAgent: true, Referrer: true, Cookies: true,
		Screen: true, Viewport: true, ColorDepth: true, DeviceMemory: true,
		CPUCores: true, Connection: true, Battery: true, Timezone: true,
		LocalTime: true, Language: true, Plugins: true,
	}
	serverOnly = models.CapturePrefs{
		IP: true, Country: true, City: true, Browser: true, OS: true, Referrer: true,
	}
	locationOnly = models.CapturePrefs{Continent: true, Country: true, Region: true}
)

var seedLinks = []seedLink{
	{"docs", "https://go.dev/doc/", "Documentation", everything, 5.0},
	{"tour", "https://go.dev/tour/welcome/1", "A Tour of Go", serverOnly, 4.0},
	{"pkgs", "https://pkg.go.dev/", "Go Packages", locationOnly, 3.5},
	{"blog", "https://go.dev/blog/", "The Go Blog", everything, 2.5},
	{"play", "https://go.dev/play/", "Go Playground", serverOnly, 2.0},
	{"chi", "https://github.com/go-chi/chi", "chi router", models.CapturePrefs{}, 1.5},
}

type weighted struct {
	value  string
	weight float64
}

var referrers = []weighted{
	{"https://www.google.com/", 30},
	{"", 20}, // direct traffic
	{"https://github.com/", 15},
	{"https://news.ycombinator.com/", 6},
	{"https://www.reddit.com/", 5},
	{"https://t.co/", 2},
}

type place struct {
	continent, country, region, city string
	lat, lon                         float64
}

var places = []struct {
	p      place
	weight float64
}{
	{place{"North America", "United States", "California", "San Francisco", 37.77, -122.42}, 25},
	{place{"Asia", "India", "Karnataka", "Bengaluru", 12.97, 77.59}, 20},
	{place{"Europe", "Germany", "Berlin", "Berlin", 52.52, 13.40}, 8},
	{place{"Europe", "United Kingdom", "England", "London", 51.51, -0.13}, 7},
	{place{"South America", "Brazil", "Sao Paulo", "Sao Paulo", -23.55, -46.63}, 6},
	{place{"Oceania", "Australia", "New South Wales", "Sydney", -33.87, 151.21}, 3},
	{place{"Asia", "Japan", "Tokyo", "Tokyo", 35.68, 139.69}, 3},
}

var agents = []struct {
	browser, version, os, device, ua string
	weight                           float64
}{
	{"Chrome", "120.0.0.0", "Windows 10", "desktop",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", 40},
	{"Safari", "17.1", "iPhone OS 17_1", "mobile",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1", 20},
	{"Firefox", "121.0", "Linux x86_64", "desktop",
		"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0", 15},
	{"Chrome", "120.0.6099.144", "Android 14", "mobile",
		"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.144 Mobile Safari/537.36", 15},
	{"Googlebot", "2.1", "", "bot",
		"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", 3},
}

func pick(items []weighted, rng *rand.Rand) string {
	var total float64
	for _, it := range items {
		total += it.weight
	}
	v := rng.Float64() * total
	for _, it := range items {
		v -= it.weight
		if v <= 0 {
			return it.value
		}
	}
	return items[0].value
}

// pickIndex draws an index from n weights returned by w.
func pickIndex(n int, w func(int) float64, rng *rand.Rand) int {
	var total float64
	for i := 0; i < n; i++ {
		total += w(i)
	}
	v := rng.Float64() * total
	for i := 0; i < n; i++ {
		v -= w(i)
		if v <= 0 {
			return i
		}
	}
	return 0
}

func main() {
	dbPath := os.Getenv("LINKLOG_DB_PATH")
	if dbPath == "" {
		dbPath = "./linklog.db"
	}

	database, err := db.Open(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close()

	rng := rand.New(rand.NewSource(42)) // deterministic seed
	total, err := seed(database, rng, time.Now().UTC())
	if err != nil {
		log.Fatalf("seed: %v", err)
	}

	fmt.Printf("\nDone! Created %d links with %d total visits.\n", len(seedLinks), total)
	fmt.Printf("Database: %s\n", dbPath)
}

// seed inserts the demo links with 30 days of visits ending at now and
// returns the number of visits written.
func seed(database *sql.DB, rng *rand.Rand, now time.Time) (int, error) {
	start := now.AddDate(0, 0, -30)

	fmt.Println("Seeding links...")

	created := make([]models.Link, 0, len(seedLinks))
	for i, sl := range seedLinks {
		link := models.Link{
			Code:      sl.code,
			Target:    sl.target,
			OGTitle:   sl.title,
			Capture:   sl.capture,
			CreatedAt: start.Add(time.Duration(i) * 24 * time.Hour),
		}
		if err := models.CreateLink(database, &link); err != nil {
			return 0, fmt.Errorf("create link %q: %w", sl.code, err)
		}
		created = append(created, link)
		fmt.Printf("  [%2d] /%s -> %s\n", link.ID, sl.code, sl.target)
	}

	fmt.Println("\nGenerating visits...")

	total := 0
	for i, sl := range seedLinks {
		link := created[i]
		perDay := sl.weight * 3

		for day := link.CreatedAt; day.Before(now); day = day.Add(24 * time.Hour) {
			n := int(perDay * (0.5 + rng.Float64()))
			if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
				n /= 2
			}
			for i := 0; i < n; i++ {
				at := day.Add(time.Duration(rng.Intn(86400)) * time.Second)
				if at.After(now) {
					continue
				}
				v := fakeVisit(rng, &link, at)
				if err := models.InsertVisit(database, v); err != nil {
					return total, fmt.Errorf("insert visit for %s: %w", sl.code, err)
				}
				if link.Capture.NeedsClient() && v.DeviceType != "bot" {
					report := fakeReport(rng, v).Allowed(link.Capture)
					if _, err := models.ApplyClientReport(database, link.ID, v.Token, report); err != nil {
						return total, fmt.Errorf("report for %s: %w", sl.code, err)
					}
				}
				total++
			}
		}
		fmt.Printf("  /%-6s visits generated\n", sl.code)
	}
	return total, nil
}

func fakeVisit(rng *rand.Rand, link *models.Link, at time.Time) *models.Visit {
	p := link.Capture
	v := &models.Visit{LinkID: link.ID, Token: uuid.NewString(), CreatedAt: at}

	ip := fmt.Sprintf("%d.%d.%d.%d", rng.Intn(223)+1, rng.Intn(256), rng.Intn(256), rng.Intn(256))
	if p.IP {
		v.IP = ip
	}
	if p.Host {
		v.Host = "host-" + ip + ".example.net"
	}
	if p.Provider {
		v.Provider = "Example Telecom"
	}
	if p.Proxy {
		v.Proxy = rng.Float64() < 0.05
	}

	loc := places[pickIndex(len(places), func(i int) float64 { return places[i].weight }, rng)].p
	if p.Continent {
		v.Continent = loc.continent
	}
	if p.Country {
		v.Country = loc.country
	}
	if p.Region {
		v.Region = loc.region
	}
	if p.City {
		v.City = loc.city
	}
	if p.LatLong {
		v.Latitude, v.Longitude = loc.lat, loc.lon
	}

	a := agents[pickIndex(len(agents), func(i int) float64 { return agents[i].weight }, rng)]
	if p.Browser {
		v.Browser, v.BrowserVersion = a.browser, a.version
	}
	if p.OS {
		v.OS = a.os
	}
	if p.Browser || p.OS {
		v.DeviceType = a.device
		v.IsBot = a.device == "bot"
	}
	if p.UserAgent {
		v.UserAgent = a.ua
	}
	if p.Referrer {
		v.Referrer = pick(referrers, rng)
	}
	if p.Cookies {
		v.CookiesEnabled = rng.Float64() < 0.95
	}
	return v
}

func fakeReport(rng *rand.Rand, v *models.Visit) models.ClientReport {
	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }

	screen, viewport := "1920x1080", "1903x961"
	if v.DeviceType == "mobile" {
		screen, viewport = "390x844", "390x664"
	}
	mem := float64(int(4) << rng.Intn(2))
	return models.ClientReport{
		Screen:       str(screen),
		Viewport:     str(viewport),
		ColorDepth:   num(24),
		DeviceMemory: &mem,
		CPUCores:     num(4 << rng.Intn(2)),
		Connection:   str("4g"),
		Battery:      str(fmt.Sprintf("%d%% discharging", 20+rng.Intn(80))),
		Timezone:     str("UTC"),
		LocalTime:    str(v.CreatedAt.Format(time.RFC1123)),
		Language:     str("en-US"),
		Plugins:      str("PDF Viewer"),
	}
}
