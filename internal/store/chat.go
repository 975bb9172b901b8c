package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ReplaceChats swaps the archived chat list for chats in one transaction.
func (db *DB) ReplaceChats(chats []Chat) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM chats`); err != nil {
		return fmt.Errorf("clear chats: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO chats (partner_id, name, emoji, last_message_preview, last_message_at, last_message_own, unread_count, position, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(partner_id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UnixMilli()
	for i, c := range chats {
		if _, err := stmt.Exec(c.PartnerID, c.Name, c.Emoji, c.LastMessagePreview, c.LastMessageAt, c.LastMessageOwn, c.UnreadCount, i, now); err != nil {
			return fmt.Errorf("insert chat %s: %w", c.PartnerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chats: %w", err)
	}
	return nil
}

// ListChats returns chats in the order of the last refresh.
func (db *DB) ListChats() ([]Chat, error) {
	rows, err := db.Query(`
		SELECT partner_id, name, emoji, last_message_preview, last_message_at, last_message_own, unread_count, position
		FROM chats
		ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var chats []Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.PartnerID, &c.Name, &c.Emoji, &c.LastMessagePreview, &c.LastMessageAt, &c.LastMessageOwn, &c.UnreadCount, &c.Position); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// GetChat returns a single chat, or nil when it is not archived.
func (db *DB) GetChat(partnerID string) (*Chat, error) {
	var c Chat
	err := db.QueryRow(`
		SELECT partner_id, name, emoji, last_message_preview, last_message_at, last_message_own, unread_count, position
		FROM chats
		WHERE partner_id = ?`, partnerID).
		Scan(&c.PartnerID, &c.Name, &c.Emoji, &c.LastMessagePreview, &c.LastMessageAt, &c.LastMessageOwn, &c.UnreadCount, &c.Position)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteConversation removes a chat and all of its messages.
func (db *DB) DeleteConversation(partnerID string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM messages WHERE partner_id = ?`, partnerID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM chats WHERE partner_id = ?`, partnerID); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	return tx.Commit()
}
