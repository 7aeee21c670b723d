package database

// schema holds the full table set. Statements are idempotent so
// Migrate can run on every start.
const schema = `
CREATE TABLE IF NOT EXISTS contributors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	nickname TEXT NOT NULL,
	external_id TEXT NOT NULL UNIQUE,
	provider_access_token TEXT NOT NULL,
	provider_refresh_token TEXT NOT NULL,
	session_token TEXT,
	last_active_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS roles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT
);

CREATE TABLE IF NOT EXISTS titles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	catalog_id INTEGER NOT NULL UNIQUE,
	native_name TEXT NOT NULL DEFAULT '',
	localized_name TEXT NOT NULL DEFAULT '',
	original_name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS chapter_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title_id INTEGER NOT NULL REFERENCES titles(id),
	chapter REAL NOT NULL,
	role_id INTEGER NOT NULL REFERENCES roles(id),
	contributor_id INTEGER NOT NULL REFERENCES contributors(id)
);

CREATE INDEX IF NOT EXISTS idx_chapter_records_title ON chapter_records(title_id);
CREATE INDEX IF NOT EXISTS idx_titles_names ON titles(native_name, original_name);
`
