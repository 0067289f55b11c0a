package models

import "net/url"

// CapturePrefs records which visitor attributes a link owner opted into.
// Fields are fixed; every flag maps to one capture_* column.
type CapturePrefs struct {
	// Server-side
	IP        bool `json:"ip"`
	Host      bool `json:"host"`
	Provider  bool `json:"provider"`
	Proxy     bool `json:"proxy"`
	Continent bool `json:"continent"`
	Country   bool `json:"country"`
	Region    bool `json:"region"`
	City      bool `json:"city"`
	LatLong   bool `json:"latlong"`
	Browser   bool `json:"browser"`
	OS        bool `json:"os"`
	UserAgent bool `json:"user_agent"`
	Referrer  bool `json:"referrer"`
	Cookies   bool `json:"cookies"`

	// Client-side, reported by the interstitial
	Screen       bool `json:"screen"`
	Viewport     bool `json:"viewport"`
	ColorDepth   bool `json:"color_depth"`
	DeviceMemory bool `json:"device_memory"`
	CPUCores     bool `json:"cpu_cores"`
	Connection   bool `json:"connection"`
	Battery      bool `json:"battery"`
	Timezone     bool `json:"timezone"`
	LocalTime    bool `json:"local_time"`
	Language     bool `json:"language"`
	Plugins      bool `json:"plugins"`
}

// CaptureFlag names a preference for forms and templates.
type CaptureFlag struct {
	Name   string
	Label  string
	Client bool
}

// CaptureFlags lists every preference in form order.
var CaptureFlags = []CaptureFlag{
	{"ip", "IP address", false},
	{"host", "Hostname (reverse DNS)", false},
	{"provider", "ISP / provider", false},
	{"proxy", "Proxy / datacenter", false},
	{"continent", "Continent", false},
	{"country", "Country", false},
	{"region", "Region", false},
	{"city", "City", false},
	{"latlong", "Latitude / longitude", false},
	{"browser", "Browser", false},
	{"os", "Operating system", false},
	{"user_agent", "User agent", false},
	{"referrer", "Referrer", false},
	{"cookies", "Cookies enabled", false},
	{"screen", "Screen size", true},
	{"viewport", "Viewport size", true},
	{"color_depth", "Color depth", true},
	{"device_memory", "Device memory", true},
	{"cpu_cores", "CPU cores", true},
	{"connection", "Connection type", true},
	{"battery", "Battery state", true},
	{"timezone", "Timezone", true},
	{"local_time", "Local time", true},
	{"language", "Language", true},
	{"plugins", "Plugins", true},
}

func (p *CapturePrefs) flag(name string) *bool {
	switch name {
	case "ip":
		return &p.IP
	case "host":
		return &p.Host
	case "provider":
		return &p.Provider
	case "proxy":
		return &p.Proxy
	case "continent":
		return &p.Continent
	case "country":
		return &p.Country
	case "region":
		return &p.Region
	case "city":
		return &p.City
	case "latlong":
		return &p.LatLong
	case "browser":
		return &p.Browser
	case "os":
		return &p.OS
	case "user_agent":
		return &p.UserAgent
	case "referrer":
		return &p.Referrer
	case "cookies":
		return &p.Cookies
	case "screen":
		return &p.Screen
	case "viewport":
		return &p.Viewport
	case "color_depth":
		return &p.ColorDepth
	case "device_memory":
		return &p.DeviceMemory
	case "cpu_cores":
		return &p.CPUCores
	case "connection":
		return &p.Connection
	case "battery":
		return &p.Battery
	case "timezone":
		return &p.Timezone
	case "local_time":
		return &p.LocalTime
	case "language":
		return &p.Language
	case "plugins":
		return &p.Plugins
	}
	return nil
}

// Enabled reports whether the named preference is on. Unknown names are off.
func (p CapturePrefs) Enabled(name string) bool {
	if f := p.flag(name); f != nil {
		return *f
	}
	return false
}

// CapturePrefsFromForm reads capture_<name> checkboxes. Any non-empty value
// counts as checked.
func CapturePrefsFromForm(form url.Values) CapturePrefs {
	var p CapturePrefs
	for _, f := range CaptureFlags {
		if form.Get("capture_"+f.Name) != "" {
			*p.flag(f.Name) = true
		}
	}
	return p
}

// NeedsGeo reports whether any attribute requires an IP geolocation lookup.
func (p CapturePrefs) NeedsGeo() bool {
	return p.Provider || p.Proxy || p.Continent || p.Country || p.Region || p.City || p.LatLong
}

// NeedsClient reports whether the visitor's browser has to report anything,
// which means the redirect goes through the interstitial.
func (p CapturePrefs) NeedsClient() bool {
	return p.Screen || p.Viewport || p.ColorDepth || p.DeviceMemory || p.CPUCores ||
		p.Connection || p.Battery || p.Timezone || p.LocalTime || p.Language || p.Plugins
}

// ClientFlags returns the enabled client-side preference names.
func (p CapturePrefs) ClientFlags() []string {
	var names []string
	for _, f := range CaptureFlags {
		if f.Client && p.Enabled(f.Name) {
			names = append(names, f.Name)
		}
	}
	return names
}
