package model

import "time"

// Message is one chat message between two users about a listing, as
// stored in the `messages` table.  Messages are append-only; the only
// mutation is flipping IsRead when the receiver opens the conversation.
//
// Fields:
//  ID           – ULID primary key.
//  ListingID    – listing the conversation is about.
//  RequestID    – originating pickup request, when the chat was opened
//                 from one (nullable).
//  SenderID     – author of the message.
//  SenderName   – denormalized display name of the sender.
//  ReceiverID   – recipient of the message.
//  ReceiverName – denormalized display name of the recipient.
//  Content      – message text.
//  IsRead       – whether the receiver has seen the message.
//  CreatedAt    – creation timestamp.
type Message struct {
	ID           string    `json:"id"`
	ListingID    string    `json:"listingId"`
	RequestID    *string   `json:"requestId,omitempty"`
	SenderID     string    `json:"senderId"`
	SenderName   string    `json:"senderName"`
	ReceiverID   string    `json:"receiverId"`
	ReceiverName string    `json:"receiverName"`
	Content      string    `json:"content"`
	IsRead       bool      `json:"isRead"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Conversation is a read model grouping a user's messages by listing
// and counterpart.  It is assembled in memory from the message log and
// never persisted.
type Conversation struct {
	ListingID       string    `json:"listingId"`
	ListingTitle    string    `json:"listingTitle"`
	ListingImage    string    `json:"listingImage"`
	OtherUserID     string    `json:"otherUserId"`
	OtherUserName   string    `json:"otherUserName"`
	LastMessage     string    `json:"lastMessage"`
	LastMessageTime time.Time `json:"lastMessageTime"`
	UnreadCount     int       `json:"unreadCount"`
}
