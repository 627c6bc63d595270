package stream

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	TopicStats   = "stats"
	TopicSamples = "samples"

	channelPrefix = "stream:"

	outboxSize     = 256
	publishTimeout = 2 * time.Second
)

// Hub fans topic messages out to websocket clients. With a redis client the
// messages are relayed to hubs in other processes as well.
type Hub struct {
	id      string
	redis   *redis.Client
	log     logrus.FieldLogger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	outbox  chan outbound
	cancel  context.CancelFunc
}

type outbound struct {
	channel string
	msg     []byte
}

type Client struct {
	Topic string
	Send  chan []byte
}

type envelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

func NewHub(redisClient *redis.Client, log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	h := &Hub{
		id:      uuid.NewString(),
		redis:   redisClient,
		log:     log.WithField("component", "stream"),
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancel = cancel
		h.outbox = make(chan outbound, outboxSize)
		pubsub := redisClient.PSubscribe(ctx, channelPrefix+"*")
		go h.relay(ctx, pubsub)
		go h.publish(ctx)
	}
	return h
}

func (h *Hub) Register(topic string) *Client {
	client := &Client{
		Topic: topic,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		h.clients[topic] = map[*Client]struct{}{}
	}
	h.clients[topic][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if topicClients, ok := h.clients[client.Topic]; ok {
		if _, ok := topicClients[client]; !ok {
			return
		}
		delete(topicClients, client)
		if len(topicClients) == 0 {
			delete(h.clients, client.Topic)
		}
		close(client.Send)
	}
}

// Broadcast delivers payload, which must be JSON, to local subscribers of
// topic and queues it for other instances. It never waits on redis: slow
// clients and a full outbox drop messages.
func (h *Hub) Broadcast(topic string, payload []byte) {
	h.deliver(topic, payload)

	if h.outbox == nil {
		return
	}
	msg, err := json.Marshal(envelope{Origin: h.id, Payload: payload})
	if err != nil {
		h.log.WithError(err).Warn("stream envelope encode failed")
		return
	}
	select {
	case h.outbox <- outbound{channel: channelPrefix + topic, msg: msg}:
	default:
		h.log.WithField("topic", topic).Warn("redis outbox full, message dropped")
	}
}

// Publish marshals v to JSON and broadcasts it on topic.
func (h *Hub) Publish(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.log.WithError(err).WithField("topic", topic).Warn("stream payload encode failed")
		return
	}
	h.Broadcast(topic, payload)
}

func (h *Hub) Close() {
	if h.cancel != nil {
		h.cancel()
	}
}

func (h *Hub) deliver(topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[topic] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) publish(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case out := <-h.outbox:
			pctx, cancel := context.WithTimeout(ctx, publishTimeout)
			if err := h.redis.Publish(pctx, out.channel, out.msg).Err(); err != nil {
				h.log.WithError(err).WithField("channel", out.channel).Warn("redis publish failed")
			}
			cancel()
		}
	}
}

func (h *Hub) relay(ctx context.Context, pubsub *redis.PubSub) {
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.log.WithError(err).Warn("stream envelope decode failed")
				continue
			}
			if env.Origin == h.id {
				continue
			}
			h.deliver(topicFromChannel(msg.Channel), env.Payload)
		}
	}
}

func topicFromChannel(ch string) string {
	return strings.TrimPrefix(ch, channelPrefix)
}
