package service

import (
	"fmt"
	"sync"
	"time"

	stan "github.com/nats-io/go-nats-streaming"
	"go.uber.org/zap"

	"github.com/danielkrainas/lapse/pkg/util/log"
)

type NATSConfig struct {
	URL       string
	ClusterID string
	ClientID  string
	Durable   string
}

// natsSub is the part of stan.Subscription the hub relies on.
type natsSub interface {
	Unsubscribe() error
	Close() error
}

// NATSHub carries envelopes over NATS Streaming. Only the payload bytes
// travel on the wire; ID and timestamp come from the streaming sequence.
type NATSHub struct {
	conn    stan.Conn
	durable string
	mu      sync.Mutex
	subs    map[*natsSubscription]struct{}
}

var _ HubConnector = &NATSHub{}

func NewNATSHub(config NATSConfig) (*NATSHub, error) {
	conn, err := stan.Connect(config.ClusterID, config.ClientID, stan.NatsURL(config.URL))
	if err != nil {
		return nil, fmt.Errorf("nats streaming connect %s: %w", config.URL, err)
	}

	log.Info("nats hub connected", zap.String("url", config.URL), zap.String("cluster", config.ClusterID), zap.String("client", config.ClientID))
	return &NATSHub{
		conn:    conn,
		durable: config.Durable,
		subs:    make(map[*natsSubscription]struct{}),
	}, nil
}

func (hub *NATSHub) Subscribe(address string, handler func(e *Envelope)) (Subscription, error) {
	opts := []stan.SubscriptionOption{}
	if hub.durable != "" {
		opts = append(opts, stan.DurableName(hub.durable))
	}

	sub, err := hub.conn.Subscribe(
		address,
		stan.MsgHandler(func(msg *stan.Msg) {
			handler(&Envelope{
				ID:        fmt.Sprintf("%s.%d", msg.Subject, msg.Sequence),
				Address:   msg.Subject,
				Data:      msg.Data,
				Published: time.Unix(0, msg.Timestamp),
			})
		}),
		opts...,
	)

	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", address, err)
	}

	return hub.track(sub), nil
}

func (hub *NATSHub) track(sub natsSub) *natsSubscription {
	s := &natsSubscription{hub: hub, sub: sub, durable: hub.durable != ""}
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.subs == nil {
		hub.subs = make(map[*natsSubscription]struct{})
	}

	hub.subs[s] = struct{}{}
	return s
}

// release forgets s and reports whether it was still tracked.
func (hub *NATSHub) release(s *natsSubscription) bool {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if _, ok := hub.subs[s]; !ok {
		return false
	}

	delete(hub.subs, s)
	return true
}

func (hub *NATSHub) Publish(address string, e *Envelope) error {
	return hub.conn.Publish(address, e.Data)
}

func (hub *NATSHub) closeSubscriptions() {
	hub.mu.Lock()
	subs := hub.subs
	hub.subs = make(map[*natsSubscription]struct{})
	hub.mu.Unlock()
	for s := range subs {
		if err := s.sub.Close(); err != nil {
			log.Warn("failed to close nats subscription", zap.Error(err))
		}
	}
}

func (hub *NATSHub) Close() error {
	hub.closeSubscriptions()
	return hub.conn.Close()
}

// natsSubscription keeps durable interest on the server when the receiver
// goes away: a durable subscription is closed, never unsubscribed.
type natsSubscription struct {
	hub     *NATSHub
	sub     natsSub
	durable bool
}

func (s *natsSubscription) Unsubscribe() error {
	if !s.hub.release(s) {
		return nil
	}

	if s.durable {
		return s.sub.Close()
	}

	return s.sub.Unsubscribe()
}
