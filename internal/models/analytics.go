package models

import (
	"database/sql"
	"fmt"
)

type CountryCount struct {
	Country string
	Count   int
}

type BrowserCount struct {
	Browser string
	Count   int
}

type DeviceCount struct {
	DeviceType string
	Count      int
}

// VisitSummary is the header block of the tracking page.
type VisitSummary struct {
	Total     int
	Today     int
	Reported  int
	Bots      int
	Countries []CountryCount
	Browsers  []BrowserCount
	Devices   []DeviceCount
}

func VisitCountForLink(db *sql.DB, linkID int64) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM visits WHERE link_id = ?`, linkID).Scan(&count)
	return count, err
}

func VisitsTodayForLink(db *sql.DB, linkID int64) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM visits WHERE link_id = ? AND date(created_at) = date('now')`, linkID).Scan(&count)
	return count, err
}

// ReportedVisitsForLink counts visits whose browser sent a client report.
func ReportedVisitsForLink(db *sql.DB, linkID int64) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM visits WHERE link_id = ? AND reported_at IS NOT NULL`, linkID).Scan(&count)
	return count, err
}

func BotVisitsForLink(db *sql.DB, linkID int64) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM visits WHERE link_id = ? AND is_bot = 1`, linkID).Scan(&count)
	return count, err
}

func TopCountriesForLink(db *sql.DB, linkID int64, limit int) ([]CountryCount, error) {
	rows, err := db.Query(
		`SELECT country, COUNT(*) as cnt FROM visits WHERE link_id = ? AND country != '' GROUP BY country ORDER BY cnt DESC, country LIMIT ?`,
		linkID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("top countries: %w", err)
	}
	defer rows.Close()

	var results []CountryCount
	for rows.Next() {
		var c CountryCount
		if err := rows.Scan(&c.Country, &c.Count); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

func TopBrowsersForLink(db *sql.DB, linkID int64, limit int) ([]BrowserCount, error) {
	rows, err := db.Query(
		`SELECT browser, COUNT(*) as cnt FROM visits WHERE link_id = ? AND browser != '' GROUP BY browser ORDER BY cnt DESC, browser LIMIT ?`,
		linkID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("top browsers: %w", err)
	}
	defer rows.Close()

	var results []BrowserCount
	for rows.Next() {
		var b BrowserCount
		if err := rows.Scan(&b.Browser, &b.Count); err != nil {
			return nil, fmt.Errorf("scan browser: %w", err)
		}
		results = append(results, b)
	}
	return results, rows.Err()
}

func DeviceBreakdownForLink(db *sql.DB, linkID int64) ([]DeviceCount, error) {
	rows, err := db.Query(
		`SELECT device_type, COUNT(*) as cnt FROM visits WHERE link_id = ? AND device_type != '' GROUP BY device_type ORDER BY cnt DESC, device_type`,
		linkID,
	)
	if err != nil {
		return nil, fmt.Errorf("device breakdown: %w", err)
	}
	defer rows.Close()

	var results []DeviceCount
	for rows.Next() {
		var d DeviceCount
		if err := rows.Scan(&d.DeviceType, &d.Count); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		results = append(results, d)
	}
	return results, rows.Err()
}

// SummaryForLink collects the tracking page header. Individual query
// failures leave their field zero.
func SummaryForLink(db *sql.DB, linkID int64) VisitSummary {
	var s VisitSummary
	s.Total, _ = VisitCountForLink(db, linkID)
	s.Today, _ = VisitsTodayForLink(db, linkID)
	s.Reported, _ = ReportedVisitsForLink(db, linkID)
	s.Bots, _ = BotVisitsForLink(db, linkID)
	s.Countries, _ = TopCountriesForLink(db, linkID, 5)
	s.Browsers, _ = TopBrowsersForLink(db, linkID, 5)
	s.Devices, _ = DeviceBreakdownForLink(db, linkID)
	return s
}
