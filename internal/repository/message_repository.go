package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/giveaway-market/internal/model"
)

// MessageRepo provides data access to the `messages` table.  Messages
// are append-only; the single mutation is the read-flag update when a
// receiver opens a conversation.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo returns a new MessageRepo bound to the provided database.
func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

const messageCols = `id, listing_id, request_id, sender_id, sender_name,
	receiver_id, receiver_name, content, is_read, created_at`

// Create appends a message to the log.
func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	var requestID interface{}
	if m.RequestID != nil {
		requestID = *m.RequestID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages
		 (id, listing_id, request_id, sender_id, sender_name, receiver_id, receiver_name, content)
		 VALUES (?,?,?,?,?,?,?,?)`,
		m.ID, m.ListingID, requestID, m.SenderID, m.SenderName,
		m.ReceiverID, m.ReceiverName, m.Content)
	return err
}

// ListForUser returns every message the user sent or received, newest
// first.  The handler folds these into per-conversation summaries.
func (r *MessageRepo) ListForUser(ctx context.Context, userID string) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+messageCols+` FROM messages
		 WHERE sender_id = ? OR receiver_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

// Conversation returns the messages between two users about one
// listing, oldest first, the order a chat screen renders them in.
func (r *MessageRepo) Conversation(ctx context.Context, listingID, userA, userB string) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+messageCols+` FROM messages
		 WHERE listing_id = ?
		   AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
		 ORDER BY created_at ASC, id ASC`,
		listingID, userA, userB, userB, userA)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

// MarkRead flags every unread message from sender to receiver about the
// listing as read.  Returns the number of rows updated.
func (r *MessageRepo) MarkRead(ctx context.Context, listingID, senderID, receiverID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_read = TRUE
		 WHERE listing_id = ? AND sender_id = ? AND receiver_id = ? AND is_read = FALSE`,
		listingID, senderID, receiverID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func collectMessages(rows *sql.Rows) ([]model.Message, error) {
	var out []model.Message
	for rows.Next() {
		var (
			m         model.Message
			requestID sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.ListingID, &requestID, &m.SenderID, &m.SenderName,
			&m.ReceiverID, &m.ReceiverName, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		if requestID.Valid {
			m.RequestID = &requestID.String
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
