package models

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCodeTaken is returned by CreateLink when the code already exists.
var ErrCodeTaken = errors.New("code already taken")

type Link struct {
	ID            int64        `json:"id"`
	Code          string       `json:"code"`
	Target        string       `json:"target"`
	Email         string       `json:"email,omitempty"`
	OGTitle       string       `json:"og_title"`
	OGDescription string       `json:"og_description"`
	OGImage       string       `json:"og_image"`
	CreatedAt     time.Time    `json:"created_at"`
	Capture       CapturePrefs `json:"capture"`
}

const linkColumns = `id, code, target, email, og_title, og_description, og_image, created_at,
	capture_ip, capture_host, capture_provider, capture_proxy, capture_continent,
	capture_country, capture_region, capture_city, capture_latlong,
	capture_browser, capture_os, capture_user_agent, capture_referrer, capture_cookies,
	capture_screen, capture_viewport, capture_color_depth, capture_device_memory,
	capture_cpu_cores, capture_connection, capture_battery, capture_timezone,
	capture_local_time, capture_language, capture_plugins`

func CreateLink(db *sql.DB, l *Link) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	p := &l.Capture
	res, err := db.Exec(
		`INSERT INTO links (code, target, email, og_title, og_description, og_image, created_at,
			capture_ip, capture_host, capture_provider, capture_proxy, capture_continent,
			capture_country, capture_region, capture_city, capture_latlong,
			capture_browser, capture_os, capture_user_agent, capture_referrer, capture_cookies,
			capture_screen, capture_viewport, capture_color_depth, capture_device_memory,
			capture_cpu_cores, capture_connection, capture_battery, capture_timezone,
			capture_local_time, capture_language, capture_plugins)
		VALUES (?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Code, l.Target, l.Email, l.OGTitle, l.OGDescription, l.OGImage, l.CreatedAt,
		p.IP, p.Host, p.Provider, p.Proxy, p.Continent,
		p.Country, p.Region, p.City, p.LatLong,
		p.Browser, p.OS, p.UserAgent, p.Referrer, p.Cookies,
		p.Screen, p.Viewport, p.ColorDepth, p.DeviceMemory,
		p.CPUCores, p.Connection, p.Battery, p.Timezone,
		p.LocalTime, p.Language, p.Plugins,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeTaken
		}
		return fmt.Errorf("insert link: %w", err)
	}
	id, _ := res.LastInsertId()
	l.ID = id
	return nil
}

func GetLinkByCode(db *sql.DB, code string) (*Link, error) {
	l := &Link{}
	row := db.QueryRow(`SELECT `+linkColumns+` FROM links WHERE code = ?`, code)
	if err := scanLink(row, l); err != nil {
		return nil, err
	}
	return l, nil
}

func GetLinkByID(db *sql.DB, id int64) (*Link, error) {
	l := &Link{}
	row := db.QueryRow(`SELECT `+linkColumns+` FROM links WHERE id = ?`, id)
	if err := scanLink(row, l); err != nil {
		return nil, err
	}
	return l, nil
}

func CodeExists(db *sql.DB, code string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM links WHERE code = ?`, code).Scan(&count)
	return count > 0, err
}

func scanLink(row *sql.Row, l *Link) error {
	p := &l.Capture
	return row.Scan(
		&l.ID, &l.Code, &l.Target, &l.Email, &l.OGTitle, &l.OGDescription, &l.OGImage, &l.CreatedAt,
		&p.IP, &p.Host, &p.Provider, &p.Proxy, &p.Continent,
		&p.Country, &p.Region, &p.City, &p.LatLong,
		&p.Browser, &p.OS, &p.UserAgent, &p.Referrer, &p.Cookies,
		&p.Screen, &p.Viewport, &p.ColorDepth, &p.DeviceMemory,
		&p.CPUCores, &p.Connection, &p.Battery, &p.Timezone,
		&p.LocalTime, &p.Language, &p.Plugins,
	)
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
