package service

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danielkrainas/gobag/util/uid"
	"go.uber.org/zap"

	"github.com/danielkrainas/lapse/pkg/util/log"
)

type ReceiverState int32

const (
	ReceiverParsed ReceiverState = iota
	ReceiverInstalled
	ReceiverActivated
	ReceiverRedundant
)

func (s ReceiverState) String() string {
	switch s {
	case ReceiverParsed:
		return "parsed"
	case ReceiverInstalled:
		return "installed"
	case ReceiverActivated:
		return "activated"
	case ReceiverRedundant:
		return "redundant"
	}

	return "unknown"
}

var ErrReceiverNotActive = errors.New("receiver is not active")

// NotificationRenderer turns a payload into what gets displayed.
type NotificationRenderer struct {
	DefaultTitle string
	DefaultBody  string
	Icon         string
}

func DefaultRenderer() NotificationRenderer {
	return NotificationRenderer{
		DefaultTitle: DefaultTitle,
		DefaultBody:  DefaultBody,
		Icon:         DefaultIcon,
	}
}

func (nr NotificationRenderer) Render(p *MessagePayload) (string, NotificationOptions) {
	title, body := nr.DefaultTitle, nr.DefaultBody
	if p != nil && p.Notification != nil {
		if p.Notification.Title != "" {
			title = p.Notification.Title
		}

		if p.Notification.Body != "" {
			body = p.Notification.Body
		}
	}

	return title, NotificationOptions{
		Body: body,
		Icon: nr.Icon,
	}
}

// Receiver is the background context that displays push messages while no
// foreground client is focused. Its lifecycle only moves forward:
// parsed, installed, activated, and finally redundant once superseded.
type Receiver struct {
	ID       string
	reg      *Registration
	renderer NotificationRenderer
	display  Displayer
	state    int32
	mu       sync.Mutex
	lastSeen int64
}

func NewReceiver(reg *Registration, display Displayer, renderer NotificationRenderer) *Receiver {
	return &Receiver{
		ID:       uid.Generate(),
		reg:      reg,
		renderer: renderer,
		display:  display,
		state:    int32(ReceiverParsed),
	}
}

func (r *Receiver) State() ReceiverState {
	return ReceiverState(atomic.LoadInt32(&r.state))
}

func (r *Receiver) setState(s ReceiverState) {
	atomic.StoreInt32(&r.state, int32(s))
}

func (r *Receiver) fields(others ...zap.Field) []zap.Field {
	return append([]zap.Field{zap.String("receiver", r.ID), zap.Stringer("state", r.State())}, others...)
}

// Install registers the receiver and activates it immediately instead of
// waiting for the current receiver's clients to go away.
func (r *Receiver) Install() {
	r.mu.Lock()
	if r.State() != ReceiverParsed {
		r.mu.Unlock()
		return
	}

	r.reg.install(r)
	r.setState(ReceiverInstalled)
	r.mu.Unlock()
	log.Info("receiver installed", r.fields()...)
	r.Activate()
}

// Activate makes the receiver the registration's active receiver and takes
// control of every open client right away.
func (r *Receiver) Activate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State() != ReceiverInstalled {
		return
	}

	claimed := r.reg.activate(r)
	r.setState(ReceiverActivated)
	r.touch()
	log.Info("receiver activated", r.fields(zap.Int("claimed", claimed))...)
}

// HandleBackgroundMessage renders the payload as a system notification. When
// a focused client is attached the payload goes to that client instead.
// Display failures are logged and not returned.
func (r *Receiver) HandleBackgroundMessage(p *MessagePayload) error {
	if r.State() != ReceiverActivated {
		return ErrReceiverNotActive
	}

	r.touch()
	if c := r.reg.foreground(); c != nil {
		log.Debug("delivering message to foreground client", r.fields(zap.String("client", c.ID))...)
		c.OnMessage(p)
		return nil
	}

	title, opts := r.renderer.Render(p)
	log.Debug("received background message", r.fields(zap.String("title", title))...)
	if err := r.display.Show(title, opts); err != nil {
		log.Error("notification display failed", r.fields(zap.Error(err))...)
	}

	return nil
}

// LastSeen is the last time the receiver handled an event.
func (r *Receiver) LastSeen() time.Time {
	return time.Unix(0, atomic.LoadInt64(&r.lastSeen))
}

func (r *Receiver) touch() {
	atomic.StoreInt64(&r.lastSeen, time.Now().UnixNano())
}

// Transport wraps next so requests made by the application's clients keep
// the receiver alive. Requests and responses pass through untouched.
func (r *Receiver) Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}

	return &passthroughTransport{receiver: r, next: next}
}

type passthroughTransport struct {
	receiver *Receiver
	next     http.RoundTripper
}

func (t *passthroughTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.receiver.touch()
	return t.next.RoundTrip(req)
}
