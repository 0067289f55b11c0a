package db

import "database/sql"

func Migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// Every capture preference is a fixed column; statements never name
// columns chosen at runtime.
const schema = `
CREATE TABLE IF NOT EXISTS links (
    id                    INTEGER PRIMARY KEY AUTOINCREMENT,
    code                  TEXT    NOT NULL UNIQUE,
    target                TEXT    NOT NULL,
    email                 TEXT    NOT NULL DEFAULT '',
    og_title              TEXT    NOT NULL DEFAULT '',
    og_description        TEXT    NOT NULL DEFAULT '',
    og_image              TEXT    NOT NULL DEFAULT '',
    created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,

    capture_ip            INTEGER NOT NULL DEFAULT 0,
    capture_host          INTEGER NOT NULL DEFAULT 0,
    capture_provider      INTEGER NOT NULL DEFAULT 0,
    capture_proxy         INTEGER NOT NULL DEFAULT 0,
    capture_continent     INTEGER NOT NULL DEFAULT 0,
    capture_country       INTEGER NOT NULL DEFAULT 0,
    capture_region        INTEGER NOT NULL DEFAULT 0,
    capture_city          INTEGER NOT NULL DEFAULT 0,
    capture_latlong       INTEGER NOT NULL DEFAULT 0,
    capture_browser       INTEGER NOT NULL DEFAULT 0,
    capture_os            INTEGER NOT NULL DEFAULT 0,
    capture_user_agent    INTEGER NOT NULL DEFAULT 0,
    capture_referrer      INTEGER NOT NULL DEFAULT 0,
    capture_cookies       INTEGER NOT NULL DEFAULT 0,

    capture_screen        INTEGER NOT NULL DEFAULT 0,
    capture_viewport      INTEGER NOT NULL DEFAULT 0,
    capture_color_depth   INTEGER NOT NULL DEFAULT 0,
    capture_device_memory INTEGER NOT NULL DEFAULT 0,
    capture_cpu_cores     INTEGER NOT NULL DEFAULT 0,
    capture_connection    INTEGER NOT NULL DEFAULT 0,
    capture_battery       INTEGER NOT NULL DEFAULT 0,
    capture_timezone      INTEGER NOT NULL DEFAULT 0,
    capture_local_time    INTEGER NOT NULL DEFAULT 0,
    capture_language      INTEGER NOT NULL DEFAULT 0,
    capture_plugins       INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS visits (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    link_id         INTEGER NOT NULL,
    token           TEXT    NOT NULL UNIQUE,
    ip              TEXT    NOT NULL DEFAULT '',
    host            TEXT    NOT NULL DEFAULT '',
    provider        TEXT    NOT NULL DEFAULT '',
    proxy           INTEGER NOT NULL DEFAULT 0,
    continent       TEXT    NOT NULL DEFAULT '',
    country         TEXT    NOT NULL DEFAULT '',
    region          TEXT    NOT NULL DEFAULT '',
    city            TEXT    NOT NULL DEFAULT '',
    latitude        REAL    NOT NULL DEFAULT 0,
    longitude       REAL    NOT NULL DEFAULT 0,
    browser         TEXT    NOT NULL DEFAULT '',
    browser_version TEXT    NOT NULL DEFAULT '',
    os              TEXT    NOT NULL DEFAULT '',
    device_type     TEXT    NOT NULL DEFAULT '',
    is_bot          INTEGER NOT NULL DEFAULT 0,
    user_agent      TEXT    NOT NULL DEFAULT '',
    referrer        TEXT    NOT NULL DEFAULT '',
    cookies_enabled INTEGER NOT NULL DEFAULT 0,

    screen          TEXT    NOT NULL DEFAULT '',
    viewport        TEXT    NOT NULL DEFAULT '',
    color_depth     INTEGER NOT NULL DEFAULT 0,
    device_memory   REAL    NOT NULL DEFAULT 0,
    cpu_cores       INTEGER NOT NULL DEFAULT 0,
    connection      TEXT    NOT NULL DEFAULT '',
    battery         TEXT    NOT NULL DEFAULT '',
    timezone        TEXT    NOT NULL DEFAULT '',
    local_time      TEXT    NOT NULL DEFAULT '',
    language        TEXT    NOT NULL DEFAULT '',
    plugins         TEXT    NOT NULL DEFAULT '',

    created_at      DATETIME NOT NULL,
    reported_at     DATETIME,
    FOREIGN KEY (link_id) REFERENCES links(id)
);

CREATE INDEX IF NOT EXISTS idx_visits_link_id_created_at ON visits(link_id, created_at);
`
