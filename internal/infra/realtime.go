package infra

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Realtime topics
const TopicAuthEventos = "auth:eventos"

func TopicMensajes(conversacionID string) string  { return "mensajes:" + conversacionID }
func TopicConversaciones(usuarioID string) string { return "conversaciones:" + usuarioID }

// Realtime is the change feed over Redis pub/sub.
type Realtime struct {
	rdb *redis.Client
}

func NewRealtime(rdb *redis.Client) *Realtime {
	return &Realtime{rdb: rdb}
}

// Publish JSON-encodes v onto topic.
func (r *Realtime) Publish(ctx context.Context, topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("realtime: marshal: %w", err)
	}
	return r.rdb.Publish(ctx, topic, data).Err()
}

// Subscribe streams raw payloads from topic until ctx ends. The returned
// channel is closed on exit.
func (r *Realtime) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	sub := r.rdb.Subscribe(ctx, topic)
	// wait for the subscription confirmation so no message published after
	// Subscribe returns is lost
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("realtime: subscribe %s: %w", topic, err)
	}

	out := make(chan []byte, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				default:
					log.Warn().Str("topic", topic).Msg("realtime: slow subscriber, message dropped")
				}
			}
		}
	}()
	return out, nil
}
