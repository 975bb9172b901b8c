package store

import (
	"fmt"
	"time"
)

// UpsertMessages stores msgs in one transaction. Messages already archived
// are updated in place, so replaying a history is idempotent.
func (db *DB) UpsertMessages(msgs []Message) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO messages (partner_id, msg_id, body, kind, is_own, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(partner_id, msg_id) DO UPDATE SET
			body = excluded.body,
			kind = excluded.kind,
			is_own = excluded.is_own,
			timestamp = excluded.timestamp
		WHERE messages.body != excluded.body
		   OR messages.kind != excluded.kind
		   OR messages.is_own != excluded.is_own
		   OR messages.timestamp != excluded.timestamp`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UnixMilli()
	written := 0
	for _, m := range msgs {
		res, err := stmt.Exec(m.PartnerID, m.MsgID, m.Body, m.Kind, m.IsOwn, m.Timestamp, now)
		if err != nil {
			return 0, fmt.Errorf("upsert message %s/%d: %w", m.PartnerID, m.MsgID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			written += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit messages: %w", err)
	}
	return written, nil
}

// ListMessages returns up to limit messages of a partner older than
// beforeID, newest first. A beforeID of zero starts from the newest message.
func (db *DB) ListMessages(partnerID string, beforeID int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `
		SELECT id, partner_id, msg_id, body, kind, is_own, timestamp
		FROM messages
		WHERE partner_id = ?`
	args := []any{partnerID}
	if beforeID > 0 {
		q += " AND msg_id < ?"
		args = append(args, beforeID)
	}
	q += " ORDER BY msg_id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.PartnerID, &m.MsgID, &m.Body, &m.Kind, &m.IsOwn, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
