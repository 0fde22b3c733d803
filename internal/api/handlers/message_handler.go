package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Ralph2001/marketplace/internal/api/middleware"
	"github.com/Ralph2001/marketplace/internal/config"
	"github.com/Ralph2001/marketplace/internal/feed"
	"github.com/Ralph2001/marketplace/internal/realtime"
	"github.com/Ralph2001/marketplace/internal/services"
	"github.com/Ralph2001/marketplace/internal/utils"
)

// MessageHandler serves the contact, inbox and live notification endpoints.
type MessageHandler struct {
	cfg            *config.Config
	listingService services.IListingService
	messageService services.IMessageService
	hub            *realtime.Hub
}

func NewMessageHandler(
	cfg *config.Config,
	listingService services.IListingService,
	messageService services.IMessageService,
	hub *realtime.Hub,
) *MessageHandler {
	return &MessageHandler{
		cfg:            cfg,
		listingService: listingService,
		messageService: messageService,
		hub:            hub,
	}
}

// sendEmailRequest mirrors the frontend's contact form payload. To and
// Subject are accepted but the canonical recipient and subject are derived
// from the listing itself, so a tampered form cannot redirect the email.
type sendEmailRequest struct {
	To          string `json:"to"`
	Subject     string `json:"subject"`
	Text        string `json:"text"`
	SenderEmail string `json:"senderEmail"`
	ItemID      string `json:"itemId"`
}

func (h *MessageHandler) buyerIdentity(c *gin.Context, fallbackEmail string) (utils.ShortID, string) {
	var userID utils.ShortID
	if v, ok := c.Get(middleware.ContextKeyUserID); ok {
		if id, ok := v.(utils.ShortID); ok {
			userID = id
		}
	}
	buyerEmail := c.GetString(middleware.ContextKeyUserEmail)
	if buyerEmail == "" {
		buyerEmail = fallbackEmail
	}
	return userID, buyerEmail
}

// SendEmail handles POST /api/send-email: the buyer contact flow. The seller
// is emailed and a message copy is stored; a failed email alone does not fail
// the request.
func (h *MessageHandler) SendEmail(c *gin.Context) {
	var req sendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	userID, buyerEmail := h.buyerIdentity(c, req.SenderEmail)
	if req.ItemID == "" || buyerEmail == "" || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	listing, err := h.listingService.FindByPublicID(c.Request.Context(), req.ItemID)
	if err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Listing not found"})
			return
		}
		log.Printf("Error finding listing %s for contact: %v", req.ItemID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send email"})
		return
	}

	outcome, err := h.messageService.SendMessage(c.Request.Context(), listing, userID, buyerEmail, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage), errors.Is(err, services.ErrSelfMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Printf("Error sending message for listing %s: %v", req.ItemID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send email"})
		}
		return
	}

	resp := gin.H{"message": "Email sent successfully!", "data": outcome.Message}
	if !outcome.EmailDelivered {
		resp["warning"] = "Message saved, but the notification email could not be delivered."
	}
	c.JSON(http.StatusOK, resp)
}

type createMessageRequest struct {
	ItemID string `json:"itemId" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

// CreateMessage handles POST /api/messages: the authenticated contact flow.
// Unlike the legacy send-email endpoint the buyer identity always comes from
// the session, and delivery is reported explicitly.
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	userID, buyerEmail := h.buyerIdentity(c, "")
	if buyerEmail == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	listing, err := h.listingService.FindByPublicID(c.Request.Context(), req.ItemID)
	if err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Listing not found"})
			return
		}
		log.Printf("Error finding listing %s for message: %v", req.ItemID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	outcome, err := h.messageService.SendMessage(c.Request.Context(), listing, userID, buyerEmail, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage), errors.Is(err, services.ErrSelfMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Printf("Error sending message for listing %s: %v", req.ItemID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		}
		return
	}

	resp := gin.H{"data": outcome.Message, "email_delivered": outcome.EmailDelivered}
	if !outcome.EmailDelivered {
		resp["warning"] = "Message saved, but the notification email could not be delivered."
	}
	c.JSON(http.StatusCreated, resp)
}

// ListMessages handles GET /api/messages: the user's full conversation log,
// messages they sent as a buyer included.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	userEmail := c.GetString(middleware.ContextKeyUserEmail)

	messages, err := h.messageService.ListForEmail(c.Request.Context(), userEmail)
	if err != nil {
		log.Printf("Error listing messages for %s: %v", userEmail, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages."})
		return
	}
	c.JSON(http.StatusOK, messages)
}

// ListNotifications handles GET /api/notifications: the capped inbox view.
func (h *MessageHandler) ListNotifications(c *gin.Context) {
	sellerEmail := c.GetString(middleware.ContextKeyUserEmail)

	messages, err := h.messageService.ListInbox(c.Request.Context(), sellerEmail)
	if err != nil {
		log.Printf("Error listing notifications for %s: %v", sellerEmail, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications."})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"messages":          messages,
		"has_notifications": len(messages) > 0,
	})
}

// StreamNotifications handles GET /api/notifications/stream: a Server-Sent
// Events feed of the seller's inbox. An initial snapshot is sent on connect;
// each live arrival pushes a fresh capped view.
func (h *MessageHandler) StreamNotifications(c *gin.Context) {
	sellerEmail := c.GetString(middleware.ContextKeyUserEmail)

	seedMessages, err := h.messageService.ListInbox(c.Request.Context(), sellerEmail)
	if err != nil {
		log.Printf("Error seeding notification stream for %s: %v", sellerEmail, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open notification stream."})
		return
	}

	inbox := feed.NewInbox(h.cfg.InboxSize)
	inbox.Seed(seedMessages)

	sub := h.hub.SubscribeMessages(c.Request.Context(), sellerEmail)
	defer sub.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	writeSnapshot := func() bool {
		c.Stream(func(w io.Writer) bool {
			c.SSEvent("inbox", gin.H{
				"messages":          inbox.Items(),
				"has_notifications": inbox.HasNotifications(),
			})
			return false
		})
		return !c.IsAborted()
	}

	if !writeSnapshot() {
		return
	}

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case msg, ok := <-sub.C:
			if !ok {
				return
			}
			inbox.Push(msg)
			if !writeSnapshot() {
				return
			}
		}
	}
}
