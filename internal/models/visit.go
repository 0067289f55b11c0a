package models

import (
	"database/sql"
	"fmt"
	"time"
	"unicode/utf8"
)

type Visit struct {
	ID             int64      `json:"id"`
	LinkID         int64      `json:"link_id"`
	Token          string     `json:"-"`
	IP             string     `json:"ip"`
	Host           string     `json:"host"`
	Provider       string     `json:"provider"`
	Proxy          bool       `json:"proxy"`
	Continent      string     `json:"continent"`
	Country        string     `json:"country"`
	Region         string     `json:"region"`
	City           string     `json:"city"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	Browser        string     `json:"browser"`
	BrowserVersion string     `json:"browser_version"`
	OS             string     `json:"os"`
	DeviceType     string     `json:"device_type"`
	IsBot          bool       `json:"is_bot"`
	UserAgent      string     `json:"user_agent"`
	Referrer       string     `json:"referrer"`
	CookiesEnabled bool       `json:"cookies_enabled"`
	Screen         string     `json:"screen"`
	Viewport       string     `json:"viewport"`
	ColorDepth     int        `json:"color_depth"`
	DeviceMemory   float64    `json:"device_memory"`
	CPUCores       int        `json:"cpu_cores"`
	Connection     string     `json:"connection"`
	Battery        string     `json:"battery"`
	Timezone       string     `json:"timezone"`
	LocalTime      string     `json:"local_time"`
	Language       string     `json:"language"`
	Plugins        string     `json:"plugins"`
	CreatedAt      time.Time  `json:"created_at"`
	ReportedAt     *time.Time `json:"reported_at,omitempty"`
}

// ClientReport carries the attributes only a browser can observe. A nil
// field was not reported and leaves the stored value untouched.
type ClientReport struct {
	Screen       *string  `json:"screen"`
	Viewport     *string  `json:"viewport"`
	ColorDepth   *int     `json:"color_depth"`
	DeviceMemory *float64 `json:"device_memory"`
	CPUCores     *int     `json:"cpu_cores"`
	Connection   *string  `json:"connection"`
	Battery      *string  `json:"battery"`
	Timezone     *string  `json:"timezone"`
	LocalTime    *string  `json:"local_time"`
	Language     *string  `json:"language"`
	Plugins      *string  `json:"plugins"`
}

const maxClientValueLen = 512

// Allowed drops every field the link did not opt into and clips long strings.
func (r ClientReport) Allowed(p CapturePrefs) ClientReport {
	var out ClientReport
	if p.Screen {
		out.Screen = clip(r.Screen)
	}
	if p.Viewport {
		out.Viewport = clip(r.Viewport)
	}
	if p.ColorDepth {
		out.ColorDepth = r.ColorDepth
	}
	if p.DeviceMemory {
		out.DeviceMemory = r.DeviceMemory
	}
	if p.CPUCores {
		out.CPUCores = r.CPUCores
	}
	if p.Connection {
		out.Connection = clip(r.Connection)
	}
	if p.Battery {
		out.Battery = clip(r.Battery)
	}
	if p.Timezone {
		out.Timezone = clip(r.Timezone)
	}
	if p.LocalTime {
		out.LocalTime = clip(r.LocalTime)
	}
	if p.Language {
		out.Language = clip(r.Language)
	}
	if p.Plugins {
		out.Plugins = clip(r.Plugins)
	}
	return out
}

// Empty reports whether no field is set.
func (r ClientReport) Empty() bool {
	return r == ClientReport{}
}

func clip(s *string) *string {
	if s == nil || len(*s) <= maxClientValueLen {
		return s
	}
	n := maxClientValueLen
	for n > 0 && !utf8.RuneStart((*s)[n]) {
		n--
	}
	v := (*s)[:n]
	return &v
}

const visitColumns = `id, link_id, token, ip, host, provider, proxy, continent, country, region, city,
	latitude, longitude, browser, browser_version, os, device_type, is_bot, user_agent, referrer,
	cookies_enabled, screen, viewport, color_depth, device_memory, cpu_cores, connection, battery,
	timezone, local_time, language, plugins, created_at, reported_at`

func InsertVisit(db *sql.DB, v *Visit) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	res, err := db.Exec(
		`INSERT INTO visits (link_id, token, ip, host, provider, proxy, continent, country, region, city,
			latitude, longitude, browser, browser_version, os, device_type, is_bot, user_agent, referrer,
			cookies_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.LinkID, v.Token, v.IP, v.Host, v.Provider, v.Proxy, v.Continent, v.Country, v.Region, v.City,
		v.Latitude, v.Longitude, v.Browser, v.BrowserVersion, v.OS, v.DeviceType, v.IsBot, v.UserAgent, v.Referrer,
		v.CookiesEnabled, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	id, _ := res.LastInsertId()
	v.ID = id
	return nil
}

// ApplyClientReport updates the visit identified by token, provided it
// belongs to linkID. It reports whether a row was updated.
func ApplyClientReport(db *sql.DB, linkID int64, token string, r ClientReport) (bool, error) {
	res, err := db.Exec(
		`UPDATE visits SET
			screen        = COALESCE(?, screen),
			viewport      = COALESCE(?, viewport),
			color_depth   = COALESCE(?, color_depth),
			device_memory = COALESCE(?, device_memory),
			cpu_cores     = COALESCE(?, cpu_cores),
			connection    = COALESCE(?, connection),
			battery       = COALESCE(?, battery),
			timezone      = COALESCE(?, timezone),
			local_time    = COALESCE(?, local_time),
			language      = COALESCE(?, language),
			plugins       = COALESCE(?, plugins),
			reported_at   = ?
		WHERE token = ? AND link_id = ?`,
		r.Screen, r.Viewport, r.ColorDepth, r.DeviceMemory, r.CPUCores, r.Connection,
		r.Battery, r.Timezone, r.LocalTime, r.Language, r.Plugins,
		time.Now().UTC(), token, linkID,
	)
	if err != nil {
		return false, fmt.Errorf("apply client report: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func GetVisitByToken(db *sql.DB, token string) (*Visit, error) {
	row := db.QueryRow(`SELECT `+visitColumns+` FROM visits WHERE token = ?`, token)
	v := &Visit{}
	if err := scanVisit(row, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ListVisitsForLink returns every visit for a link, newest first.
func ListVisitsForLink(db *sql.DB, linkID int64) ([]Visit, error) {
	rows, err := db.Query(
		`SELECT `+visitColumns+` FROM visits WHERE link_id = ? ORDER BY created_at DESC, id DESC`,
		linkID,
	)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		if err := scanVisit(rows, &v); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVisit(s scanner, v *Visit) error {
	var reportedAt sql.NullTime
	err := s.Scan(
		&v.ID, &v.LinkID, &v.Token, &v.IP, &v.Host, &v.Provider, &v.Proxy, &v.Continent, &v.Country, &v.Region, &v.City,
		&v.Latitude, &v.Longitude, &v.Browser, &v.BrowserVersion, &v.OS, &v.DeviceType, &v.IsBot, &v.UserAgent, &v.Referrer,
		&v.CookiesEnabled, &v.Screen, &v.Viewport, &v.ColorDepth, &v.DeviceMemory, &v.CPUCores, &v.Connection, &v.Battery,
		&v.Timezone, &v.LocalTime, &v.Language, &v.Plugins, &v.CreatedAt, &reportedAt,
	)
	if err != nil {
		return err
	}
	if reportedAt.Valid {
		t := reportedAt.Time
		v.ReportedAt = &t
	}
	return nil
}
