package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
-- Conversations, one per verification session
CREATE TABLE IF NOT EXISTS chats (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    title TEXT NOT NULL,
    created_at TEXT NOT NULL
);

-- Conversation turns; debug carries the analysis payload for the
-- assistant turn
CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    chat_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT,
    image_url TEXT,
    debug TEXT,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chats_user ON chats(user_id);
CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id);
`

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(schema)
	if err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Chat is one persisted conversation record.
type Chat struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one persisted conversation turn.
type Message struct {
	ID        int64     `json:"id"`
	ChatID    string    `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	Debug     string    `json:"debug,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateChat creates a new conversation and returns its id.
func (db *DB) CreateChat(userID, title string) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(`
		INSERT INTO chats (id, user_id, title, created_at)
		VALUES (?, ?, ?, ?)
	`, id, userID, title, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("creating chat: %w", err)
	}
	return id, nil
}

// ChatExists reports whether a chat id refers to a stored conversation.
func (db *DB) ChatExists(chatID string) (bool, error) {
	var one int
	err := db.conn.QueryRow(`SELECT 1 FROM chats WHERE id = ?`, chatID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddMessage records one conversation turn.
func (db *DB) AddMessage(chatID, role, content, imageURL, debug string) error {
	_, err := db.conn.Exec(`
		INSERT INTO messages (chat_id, role, content, image_url, debug, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, chatID, role, content, imageURL, debug, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("adding message: %w", err)
	}
	return nil
}

// GetChats returns a user's conversations, newest first.
func (db *DB) GetChats(userID string) ([]Chat, error) {
	rows, err := db.conn.Query(`
		SELECT id, user_id, title, created_at
		FROM chats
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		var c Chat
		var createdStr string
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &createdStr); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// GetMessages returns a conversation's turns in insertion order.
func (db *DB) GetMessages(chatID string) ([]Message, error) {
	rows, err := db.conn.Query(`
		SELECT id, chat_id, role, content, image_url, debug, created_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY id ASC
	`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var content, imageURL, debug sql.NullString
		var createdStr string
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &content, &imageURL, &debug, &createdStr); err != nil {
			return nil, err
		}
		m.Content = content.String
		m.ImageURL = imageURL.String
		m.Debug = debug.String
		m.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
