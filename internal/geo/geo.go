package geo

import (
	"context"
	"errors"
	"net"

	"github.com/oschwald/maxminddb-golang"
)

// Result is what any provider can tell about an IP. Fields a provider does
// not know stay empty.
type Result struct {
	Continent string  `json:"continent"`
	Country   string  `json:"country"`
	Region    string  `json:"region"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Provider  string  `json:"provider"`
	Proxy     bool    `json:"proxy"`
}

// ErrNoDatabase is returned by a Reader opened without a database file.
var ErrNoDatabase = errors.New("geo: no database loaded")

// Reader resolves IPs against a local MaxMind City database.
type Reader struct {
	db *maxminddb.Reader
}

// Open opens a MaxMind .mmdb file. Returns a no-op Reader if path is empty.
func Open(path string) (*Reader, error) {
	if path == "" {
		return &Reader{}, nil
	}
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() {
	if r != nil && r.db != nil {
		r.db.Close()
	}
}

// Loaded reports whether a database file backs the reader.
func (r *Reader) Loaded() bool {
	return r != nil && r.db != nil
}

func (r *Reader) Name() string { return "maxmind" }

// Lookup resolves an IP to geo data. The context is accepted for the
// Provider interface; local lookups do not block.
func (r *Reader) Lookup(_ context.Context, ipStr string) (Result, error) {
	if !r.Loaded() {
		return Result{}, ErrNoDatabase
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return Result{}, ErrInvalidIP
	}

	var record struct {
		Continent struct {
			Names map[string]string `maxminddb:"names"`
		} `maxminddb:"continent"`
		Country struct {
			ISOCode string            `maxminddb:"iso_code"`
			Names   map[string]string `maxminddb:"names"`
		} `maxminddb:"country"`
		City struct {
			Names map[string]string `maxminddb:"names"`
		} `maxminddb:"city"`
		Subdivisions []struct {
			Names map[string]string `maxminddb:"names"`
		} `maxminddb:"subdivisions"`
		Location struct {
			Latitude  float64 `maxminddb:"latitude"`
			Longitude float64 `maxminddb:"longitude"`
		} `maxminddb:"location"`
		Traits struct {
			IsAnonymousProxy bool `maxminddb:"is_anonymous_proxy"`
		} `maxminddb:"traits"`
	}

	if err := r.db.Lookup(ip, &record); err != nil {
		return Result{}, err
	}

	res := Result{
		Continent: record.Continent.Names["en"],
		Country:   record.Country.Names["en"],
		City:      record.City.Names["en"],
		Latitude:  record.Location.Latitude,
		Longitude: record.Location.Longitude,
		Proxy:     record.Traits.IsAnonymousProxy,
	}
	if res.Country == "" {
		res.Country = record.Country.ISOCode
	}
	if len(record.Subdivisions) > 0 {
		res.Region = record.Subdivisions[0].Names["en"]
	}
	return res, nil
}
