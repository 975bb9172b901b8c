package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection of the local conversation archive.
type DB struct {
	*sql.DB
	path string
}

// Counts is the size of the archive.
type Counts struct {
	Chats    int `json:"chats"`
	Messages int `json:"messages"`
}

// Open connects to the archive at path in WAL mode. Search needs a
// go-sqlite3 build with the sqlite_fts5 tag.
func Open(path string) (*DB, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping archive %s: %w", path, err)
	}
	return &DB{DB: conn, path: path}, nil
}

// Path returns the file the archive was opened from.
func (db *DB) Path() string { return db.path }

// Counts returns the number of archived chats and messages.
func (db *DB) Counts() (Counts, error) {
	var c Counts
	err := db.QueryRow(`SELECT (SELECT COUNT(*) FROM chats), (SELECT COUNT(*) FROM messages)`).
		Scan(&c.Chats, &c.Messages)
	if err != nil {
		return Counts{}, fmt.Errorf("count archive: %w", err)
	}
	return c, nil
}
