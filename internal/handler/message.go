package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/giveaway-market/internal/model"
	"github.com/iliyamo/giveaway-market/internal/repository"
	"github.com/iliyamo/giveaway-market/internal/utils"
)

// MessageHandler serves the chat endpoints.  Messages are an append-only
// log; conversations are a read model folded out of it per request, the
// client polls rather than receiving pushes.
type MessageHandler struct {
	Messages *repository.MessageRepo
	Listings *repository.ListingRepo
	Users    *repository.UserRepo
}

func NewMessageHandler(messages *repository.MessageRepo, listings *repository.ListingRepo, users *repository.UserRepo) *MessageHandler {
	if messages == nil || listings == nil || users == nil {
		panic("nil repository passed to NewMessageHandler")
	}
	return &MessageHandler{Messages: messages, Listings: listings, Users: users}
}

type sendMessageReq struct {
	ListingID  string  `json:"listingId"`
	ReceiverID string  `json:"receiverId"`
	Content    string  `json:"content"`
	RequestID  *string `json:"requestId,omitempty"`
}

// Send handles POST /api/messages.
func (h *MessageHandler) Send(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req sendMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message content is required"})
	}
	if req.ListingID == "" || req.ReceiverID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "listingId and receiverId are required"})
	}

	ctx := c.Request().Context()
	sender, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	receiver, err := h.Users.GetByID(ctx, req.ReceiverID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "receiver not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load receiver failed"})
	}

	m := &model.Message{
		ID:           utils.NewID(),
		ListingID:    req.ListingID,
		RequestID:    req.RequestID,
		SenderID:     sender.ID,
		SenderName:   sender.DisplayName(),
		ReceiverID:   receiver.ID,
		ReceiverName: receiver.DisplayName(),
		Content:      content,
	}
	if err := h.Messages.Create(ctx, m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error sending message"})
	}
	return c.JSON(http.StatusCreated, m)
}

// Conversations handles GET /api/messages/conversations: one summary per
// (listing, counterpart) pair the caller has chatted in, newest first.
func (h *MessageHandler) Conversations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()

	msgs, err := h.Messages.ListForUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error fetching conversations"})
	}

	// Messages arrive newest first, so the first message seen for a key
	// is the conversation's latest.
	order := []string{}
	convs := map[string]*model.Conversation{}
	listingIDs := map[string]struct{}{}
	for _, m := range msgs {
		otherID, otherName := m.SenderID, m.SenderName
		if m.SenderID == userID {
			otherID, otherName = m.ReceiverID, m.ReceiverName
		}
		key := m.ListingID + "_" + otherID
		cv, ok := convs[key]
		if !ok {
			cv = &model.Conversation{
				ListingID:       m.ListingID,
				ListingTitle:    "Item",
				OtherUserID:     otherID,
				OtherUserName:   otherName,
				LastMessage:     m.Content,
				LastMessageTime: m.CreatedAt,
			}
			convs[key] = cv
			order = append(order, key)
			listingIDs[m.ListingID] = struct{}{}
		}
		if m.ReceiverID == userID && !m.IsRead {
			cv.UnreadCount++
		}
	}

	// Resolve listing titles; purged listings keep the placeholder.
	ids := make([]string, 0, len(listingIDs))
	for id := range listingIDs {
		ids = append(ids, id)
	}
	listings, err := h.Listings.GetByIDs(ctx, ids)
	if err != nil {
		log.Printf("messages: listing lookup failed: %v", err)
	} else {
		for _, cv := range convs {
			if l, ok := listings[cv.ListingID]; ok {
				cv.ListingTitle = l.Title
				cv.ListingImage = l.ImageURL
			}
		}
	}

	out := make([]model.Conversation, 0, len(order))
	for _, key := range order {
		out = append(out, *convs[key])
	}
	return c.JSON(http.StatusOK, out)
}

// Conversation handles GET /api/messages/conversation/:listingId/:otherUserId.
// Returns the thread oldest first and marks the counterpart's messages
// as read, the way the chat screen consumes it.
func (h *MessageHandler) Conversation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listingID := c.Param("listingId")
	otherUserID := c.Param("otherUserId")

	ctx := c.Request().Context()
	msgs, err := h.Messages.Conversation(ctx, listingID, userID, otherUserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error fetching messages"})
	}
	if _, err := h.Messages.MarkRead(ctx, listingID, otherUserID, userID); err != nil {
		log.Printf("messages: mark read failed: %v", err)
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return c.JSON(http.StatusOK, msgs)
}

// MarkRead handles PUT /api/messages/read/:listingId/:otherUserId.
func (h *MessageHandler) MarkRead(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	_, err = h.Messages.MarkRead(c.Request().Context(), c.Param("listingId"), c.Param("otherUserId"), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error marking messages as read"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
