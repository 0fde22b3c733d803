package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Ralph2001/marketplace/internal/config"
	"github.com/Ralph2001/marketplace/internal/db"
	"github.com/Ralph2001/marketplace/internal/email"
	"github.com/Ralph2001/marketplace/internal/models"
	"github.com/Ralph2001/marketplace/internal/realtime"
	"github.com/Ralph2001/marketplace/internal/utils"
)

var (
	ErrEmptyMessage = errors.New("message body cannot be empty")
	ErrSelfMessage  = errors.New("cannot message your own listing")
	// ErrPersistAfterEmail means the notification email went out but the
	// message copy could not be stored. Callers should surface this
	// distinctly: the seller was notified but the inbox record is missing.
	ErrPersistAfterEmail = errors.New("email delivered but message could not be saved")
)

// SendOutcome reports what actually happened during a send. Email delivery
// is best-effort, so a message can be persisted with EmailDelivered false.
type SendOutcome struct {
	Message        *models.Message
	EmailDelivered bool
	EmailErr       error
}

// IMessageService defines buyer-to-seller messaging operations.
type IMessageService interface {
	// SendMessage emails the seller and persists a copy of the message.
	// buyerUserID is the zero value for anonymous buyers.
	SendMessage(ctx context.Context, listing *models.Listing, buyerUserID utils.ShortID, buyerEmail, body string) (*SendOutcome, error)
	// HasContacted reports whether buyerEmail has already messaged the
	// listing. An empty buyerEmail is always "not contacted".
	HasContacted(ctx context.Context, listingPublicID, buyerEmail string) (bool, error)
	// ListInbox returns the seller's most recent messages, newest first,
	// capped at the inbox size.
	ListInbox(ctx context.Context, sellerEmail string) ([]models.Message, error)
	// ListForEmail returns the full conversation log for an address: every
	// message it sent as a buyer or received as a seller, newest first.
	ListForEmail(ctx context.Context, emailAddr string) ([]models.Message, error)
}

const messagesCollection = "messages"

type messageService struct {
	db     *mongo.Database
	cfg    *config.Config
	sender email.Sender
	hub    realtime.Publisher
}

// NewMessageService creates a new MessageService. hub may be nil when no
// live notification fan-out is wanted (e.g. in the image worker).
func NewMessageService(database *mongo.Database, cfg *config.Config, sender email.Sender, hub realtime.Publisher) IMessageService {
	return &messageService{db: database, cfg: cfg, sender: sender, hub: hub}
}

// SendMessage runs the two legs of a contact: the notification email and the
// persisted message copy. The email going out does not gate persistence, and
// a failed email still leaves a stored message for the seller's inbox.
func (s *messageService) SendMessage(ctx context.Context, listing *models.Listing, buyerUserID utils.ShortID, buyerEmail, body string) (*SendOutcome, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	buyerEmail = strings.TrimSpace(buyerEmail)
	if buyerEmail == "" {
		return nil, fmt.Errorf("buyer email is required")
	}
	if strings.EqualFold(buyerEmail, listing.EmailAddress) {
		return nil, ErrSelfMessage
	}
	if !buyerUserID.IsZero() && buyerUserID == listing.UserID {
		return nil, ErrSelfMessage
	}

	outcome := &SendOutcome{}

	itemURL := fmt.Sprintf("%s/item/%s", strings.TrimRight(s.cfg.AppURL, "/"), listing.PublicID)
	raw := email.BuildContactMessage(s.cfg.SMTPFrom, listing.EmailAddress, buyerEmail, listing.Title, body, itemURL)
	if err := s.sender.Send(ctx, []string{listing.EmailAddress}, email.ContactSubject(listing.Title), raw); err != nil {
		log.Printf("Failed to email seller %s about listing %s: %v", listing.EmailAddress, listing.PublicID, err)
		outcome.EmailErr = err
	} else {
		outcome.EmailDelivered = true
	}

	collection := s.db.Collection(messagesCollection)
	var msg *models.Message
	operation := func() error {
		msg = &models.Message{
			Base: models.Base{
				ID:        utils.NewShortID(),
				CreatedAt: time.Now().UTC(),
			},
			ListingID:    listing.PublicID,
			ListingTitle: listing.Title,
			SellerEmail:  listing.EmailAddress,
			BuyerEmail:   buyerEmail,
			Body:         body,
		}
		_, insertErr := collection.InsertOne(ctx, msg)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		if outcome.EmailDelivered {
			return nil, fmt.Errorf("%w: %v", ErrPersistAfterEmail, err)
		}
		return nil, fmt.Errorf("failed to save message for listing %s: %w", listing.PublicID, err)
	}
	outcome.Message = msg

	if s.hub != nil {
		if err := s.hub.PublishMessage(ctx, msg); err != nil {
			// Live fan-out is best-effort; the store copy is authoritative.
			log.Printf("Failed to publish message %s to live feed: %v", msg.ID.String(), err)
		}
	}
	return outcome, nil
}

// HasContacted checks for any prior message from buyerEmail on the listing.
func (s *messageService) HasContacted(ctx context.Context, listingPublicID, buyerEmail string) (bool, error) {
	buyerEmail = strings.TrimSpace(buyerEmail)
	if buyerEmail == "" {
		// No identity to check against; skip the query entirely.
		return false, nil
	}
	count, err := s.db.Collection(messagesCollection).CountDocuments(ctx,
		bson.M{"listing_id": listingPublicID, "buyer_email": buyerEmail},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("failed to check contact state for listing %s: %w", listingPublicID, err)
	}
	return count > 0, nil
}

// ListInbox returns the inbox view: the newest received messages up to the cap.
func (s *messageService) ListInbox(ctx context.Context, sellerEmail string) ([]models.Message, error) {
	return s.listMessages(ctx, bson.M{"seller_email": sellerEmail}, int64(s.cfg.InboxSize))
}

// ListForEmail returns the full conversation log, sent and received, newest
// first.
func (s *messageService) ListForEmail(ctx context.Context, emailAddr string) ([]models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"seller_email": emailAddr},
		bson.M{"buyer_email": emailAddr},
	}}
	return s.listMessages(ctx, filter, 0)
}

func (s *messageService) listMessages(ctx context.Context, filter bson.M, limit int64) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := s.db.Collection(messagesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := make([]models.Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}
