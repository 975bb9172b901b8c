package store

import (
	"fmt"
	"strings"
)

const defaultSearchLimit = 50

// SearchMessages runs a full-text query over archived message bodies,
// optionally restricted to one partner. Every word of query must match;
// the last one also matches as a prefix.
func (db *DB) SearchMessages(query string, partnerID string, limit int) ([]SearchResult, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	q := `
		SELECT m.id, m.partner_id, m.msg_id, m.body, m.kind, m.is_own, m.timestamp,
		       snippet(messages_fts, 0, '<<', '>>', '...', 12)
		FROM messages_fts
		JOIN messages m ON m.id = messages_fts.rowid
		WHERE messages_fts MATCH ?`
	args := []any{match}
	if partnerID != "" {
		q += ` AND m.partner_id = ?`
		args = append(args, partnerID)
	}
	q += ` ORDER BY bm25(messages_fts), m.timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		m := &r.Message
		if err := rows.Scan(&m.ID, &m.PartnerID, &m.MsgID, &m.Body, &m.Kind, &m.IsOwn, &m.Timestamp, &r.Snippet); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ftsQuery quotes each word of a user query so FTS5 operators and
// punctuation are matched literally.
func ftsQuery(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		words[i] = `"` + strings.ReplaceAll(w, `"`, `""`) + `"`
	}
	if n := len(words); n > 0 {
		words[n-1] += "*"
	}
	return strings.Join(words, " ")
}
