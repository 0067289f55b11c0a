package web

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

func templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"timeAgo":   timeAgo,
		"formatNum": formatNum,
		"truncate":  truncate,
		"hostname":  hostname,
		"coords":    coords,
		"orDash":    orDash,
		"title":     titleCase,
		"percent":   percent,
	}
}

func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	case d < 30*24*time.Hour:
		return plural(int(d.Hours()/24), "day")
	default:
		months := int(d.Hours() / (24 * 30))
		if months < 1 {
			months = 1
		}
		return plural(months, "month")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func formatNum(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1_000_000 {
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}

func hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// coords formats a latitude/longitude pair; 0,0 means unknown.
func coords(lat, lon float64) string {
	if lat == 0 && lon == 0 {
		return "-"
	}
	return fmt.Sprintf("%.4f, %.4f", lat, lon)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return part * 100 / total
}
