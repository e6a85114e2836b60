package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/danielkrainas/lapse/pkg/util/log"
)

const (
	DefaultMessagingTopic = "lapse.notifications"
	DefaultTitle          = "New Message"
	DefaultBody           = "You have a new notification"
	DefaultIcon           = "/favicon.png"
)

var ErrHandlerRegistered = errors.New("background message handler already registered")

// AppIdentity is the application identity the push-delivery channel is
// registered under.
type AppIdentity struct {
	APIKey        string `yaml:"api_key" toml:"api_key" env:"LAPSE_API_KEY"`
	SenderID      string `yaml:"sender_id" toml:"sender_id" env:"LAPSE_SENDER_ID"`
	AppID         string `yaml:"app_id" toml:"app_id" env:"LAPSE_APP_ID"`
	ProjectID     string `yaml:"project_id" toml:"project_id" env:"LAPSE_PROJECT_ID"`
	AuthDomain    string `yaml:"auth_domain" toml:"auth_domain"`
	StorageBucket string `yaml:"storage_bucket" toml:"storage_bucket"`
	MeasurementID string `yaml:"measurement_id" toml:"measurement_id"`
}

func (id AppIdentity) Validate() error {
	var missing []string
	if id.APIKey == "" {
		missing = append(missing, "api_key")
	}

	if id.SenderID == "" {
		missing = append(missing, "sender_id")
	}

	if id.AppID == "" {
		missing = append(missing, "app_id")
	}

	if id.ProjectID == "" {
		missing = append(missing, "project_id")
	}

	if len(missing) > 0 {
		return fmt.Errorf("app identity incomplete: missing %s", strings.Join(missing, ", "))
	}

	return nil
}

type NotificationContent struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

// MessagePayload is what the push-delivery channel hands to the receiver.
// Every part of it is optional.
type MessagePayload struct {
	Notification *NotificationContent `json:"notification,omitempty"`
	Data         map[string]string    `json:"data,omitempty"`
}

func (p *MessagePayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// DecodePayload parses a payload. Anything that does not decode is treated
// as an empty payload so that defaults apply.
func DecodePayload(data []byte) *MessagePayload {
	p := &MessagePayload{}
	if len(data) == 0 {
		return p
	}

	if err := json.Unmarshal(data, p); err != nil {
		log.Warn("malformed message payload, using defaults", zap.Error(err))
		return &MessagePayload{}
	}

	return p
}

type BackgroundMessageHandler func(p *MessagePayload) error

type Messaging interface {
	OnBackgroundMessage(handler BackgroundMessageHandler) error
	Close() error
}

type HubFactory func() (HubConnector, error)

type hubMessaging struct {
	hub   HubConnector
	topic string
	mu    sync.Mutex
	sub   Subscription
}

var _ Messaging = &hubMessaging{}

func NewMessaging(identity AppIdentity, topic string, connect HubFactory) (Messaging, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	if topic == "" {
		topic = DefaultMessagingTopic
	}

	hub, err := connect()
	if err != nil {
		return nil, fmt.Errorf("connect push-delivery channel: %w", err)
	}

	return &hubMessaging{
		hub:   hub,
		topic: topic,
	}, nil
}

func (m *hubMessaging) OnBackgroundMessage(handler BackgroundMessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sub != nil {
		return ErrHandlerRegistered
	}

	sub, err := m.hub.Subscribe(m.topic, func(e *Envelope) {
		if err := handler(DecodePayload(e.Data)); err != nil {
			log.Error("background message handler failed", zap.String("envelope", e.ID), zap.Error(err))
		}
	})

	if err != nil {
		return err
	}

	m.sub = sub
	return nil
}

func (m *hubMessaging) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sub != nil {
		if err := m.sub.Unsubscribe(); err != nil {
			log.Warn("unsubscribe failed", zap.Error(err))
		}

		m.sub = nil
	}

	return m.hub.Close()
}

// NoopMessaging is used when the push-delivery channel is unavailable.
type NoopMessaging struct{}

func (NoopMessaging) OnBackgroundMessage(handler BackgroundMessageHandler) error {
	return nil
}

func (NoopMessaging) Close() error {
	return nil
}

// InitMessaging sets up the push-delivery channel. Any failure, including a
// panic from the driver, is logged and downgraded to NoopMessaging.
func InitMessaging(identity AppIdentity, topic string, connect HubFactory) (m Messaging) {
	defer func() {
		if pobj := recover(); pobj != nil {
			log.Error("messaging initialization panicked, notifications disabled", zap.Any("reason", pobj))
			m = NoopMessaging{}
		}
	}()

	m, err := NewMessaging(identity, topic, connect)
	if err != nil {
		log.Error("messaging initialization failed, notifications disabled", zap.Error(err))
		return NoopMessaging{}
	}

	log.Info("messaging ready", zap.String("project", identity.ProjectID), zap.String("topic", topic))
	return m
}

// PublishNotification sends a payload over the push-delivery channel.
func PublishNotification(hub HubConnector, topic string, p *MessagePayload) (*Envelope, error) {
	if topic == "" {
		topic = DefaultMessagingTopic
	}

	data, err := p.Marshal()
	if err != nil {
		return nil, err
	}

	e := NewEnvelope(topic, data)
	if err := hub.Publish(topic, e); err != nil {
		return nil, fmt.Errorf("publish to %s: %w", topic, err)
	}

	return e, nil
}
