package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/Ralph2001/marketplace/internal/models"
)

// Publisher pushes a newly persisted message to whoever is listening for the
// seller. Implementations must not block message persistence: delivery here
// is best-effort.
type Publisher interface {
	PublishMessage(ctx context.Context, msg *models.Message) error
}

// Hub fans buyer messages out to live seller notification feeds via Redis
// pub/sub. Each seller email gets its own channel, so a subscriber only
// receives its own traffic.
type Hub struct {
	rdb *redis.Client
}

func NewHub(rdb *redis.Client) *Hub {
	return &Hub{rdb: rdb}
}

func channelFor(sellerEmail string) string {
	return "messages:" + sellerEmail
}

// PublishMessage broadcasts the message on the seller's channel.
func (h *Hub) PublishMessage(ctx context.Context, msg *models.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message for publish: %w", err)
	}
	if err := h.rdb.Publish(ctx, channelFor(msg.SellerEmail), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Subscription is a live feed of messages for one seller. Close it when the
// client disconnects.
type Subscription struct {
	C      <-chan models.Message
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

// Close tears down the underlying pub/sub subscription and drains C.
func (s *Subscription) Close() {
	s.cancel()
	_ = s.pubsub.Close()
}

// SubscribeMessages opens a live subscription for the seller's messages.
// Malformed payloads are logged and skipped; the channel closes when the
// subscription is closed or ctx is cancelled.
func (h *Hub) SubscribeMessages(ctx context.Context, sellerEmail string) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	pubsub := h.rdb.Subscribe(ctx, channelFor(sellerEmail))
	out := make(chan models.Message, 8)

	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case redisMsg, ok := <-ch:
				if !ok {
					return
				}
				var msg models.Message
				if err := json.Unmarshal([]byte(redisMsg.Payload), &msg); err != nil {
					log.Printf("realtime: dropping malformed message payload: %v", err)
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{C: out, pubsub: pubsub, cancel: cancel}
}
