package service

import (
	"errors"
	"sync"
	"time"

	"github.com/cskr/pubsub"
	"github.com/danielkrainas/gobag/util/uid"
	"go.uber.org/zap"

	"github.com/danielkrainas/lapse/pkg/util/log"
)

var (
	ErrHubClosed = errors.New("hub is closed")

	// ErrHubNotShared is returned when a publisher asks for a hub that only
	// delivers inside its own process.
	ErrHubNotShared = errors.New("hub driver does not reach other processes")
)

// Envelope is a single message on the push-delivery channel.
type Envelope struct {
	ID        string
	Address   string
	Data      []byte
	Published time.Time
}

func NewEnvelope(address string, data []byte) *Envelope {
	return &Envelope{
		ID:        uid.Generate(),
		Address:   address,
		Data:      data,
		Published: time.Now(),
	}
}

type Subscription interface {
	Unsubscribe() error
}

type HubConnector interface {
	Subscribe(address string, handler func(e *Envelope)) (Subscription, error)
	Publish(address string, e *Envelope) error
	Close() error
}

const localHubCapacity = 64

// LocalHub delivers envelopes in-process. Each subscription gets its own
// goroutine so a slow handler only delays its own messages.
type LocalHub struct {
	ps     *pubsub.PubSub
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var _ HubConnector = &LocalHub{}

func NewLocalHub() *LocalHub {
	return &LocalHub{
		ps: pubsub.New(localHubCapacity),
	}
}

type localSubscription struct {
	hub     *LocalHub
	ch      chan interface{}
	address string
	once    sync.Once
}

func (s *localSubscription) Unsubscribe() error {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		if !s.hub.closed {
			s.hub.ps.Unsub(s.ch, s.address)
		}
	})

	return nil
}

func (hub *LocalHub) Subscribe(address string, handler func(e *Envelope)) (Subscription, error) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.closed {
		return nil, ErrHubClosed
	}

	ch := hub.ps.Sub(address)
	hub.wg.Add(1)
	go func() {
		defer hub.wg.Done()
		for msg := range ch {
			e, ok := msg.(*Envelope)
			if !ok {
				log.Warn("dropping unexpected hub message", zap.String("address", address))
				continue
			}

			handler(e)
		}
	}()

	return &localSubscription{hub: hub, ch: ch, address: address}, nil
}

func (hub *LocalHub) Publish(address string, e *Envelope) error {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.closed {
		return ErrHubClosed
	}

	if e.Address == "" {
		e.Address = address
	}

	hub.ps.Pub(e, address)
	return nil
}

// Close stops delivery and waits for in-flight handlers to return.
func (hub *LocalHub) Close() error {
	hub.mu.Lock()
	if hub.closed {
		hub.mu.Unlock()
		return nil
	}

	hub.closed = true
	hub.ps.Shutdown()
	hub.mu.Unlock()
	hub.wg.Wait()
	return nil
}
