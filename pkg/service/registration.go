package service

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/danielkrainas/lapse/pkg/util/log"
)

// Client is an open foreground context of the application, such as a page.
// OnMessage receives payloads while the client is focused.
type Client struct {
	ID        string                  `json:"id"`
	Focused   bool                    `json:"focused"`
	OnMessage func(p *MessagePayload) `json:"-"`
	Inbox     *Inbox                  `json:"-"`
}

const DefaultInboxSize = 32

// Inbox buffers foreground payloads for a client that collects them later.
// When full the oldest payload is dropped.
type Inbox struct {
	mu    sync.Mutex
	items []*MessagePayload
	limit int
}

func NewInbox(limit int) *Inbox {
	if limit <= 0 {
		limit = DefaultInboxSize
	}

	return &Inbox{limit: limit}
}

func (in *Inbox) Push(p *MessagePayload) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.items) >= in.limit {
		log.Warn("client inbox full, dropping oldest message", zap.Int("limit", in.limit))
		in.items = in.items[1:]
	}

	in.items = append(in.items, p)
}

func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.items)
}

// Drain returns every buffered payload, oldest first, and empties the inbox.
func (in *Inbox) Drain() []*MessagePayload {
	in.mu.Lock()
	defer in.mu.Unlock()
	items := in.items
	in.items = nil
	if items == nil {
		items = make([]*MessagePayload, 0)
	}

	return items
}

// NewInboxClient returns a client whose foreground messages land in an inbox.
func NewInboxClient(id string, focused bool, inboxSize int) *Client {
	inbox := NewInbox(inboxSize)
	return &Client{
		ID:        id,
		Focused:   focused,
		OnMessage: inbox.Push,
		Inbox:     inbox,
	}
}

// Registration tracks the receivers installed for the application and the
// clients they may control.
type Registration struct {
	mu          sync.Mutex
	active      *Receiver
	waiting     *Receiver
	clients     map[string]*Client
	controllers map[string]*Receiver
}

func NewRegistration() *Registration {
	return &Registration{
		clients:     make(map[string]*Client),
		controllers: make(map[string]*Receiver),
	}
}

// Attach adds an open client. It is controlled by the active receiver, if
// there is one.
func (reg *Registration) Attach(c *Client) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.clients[c.ID] = c
	if reg.active != nil {
		reg.controllers[c.ID] = reg.active
	} else {
		delete(reg.controllers, c.ID)
	}
}

// Detach removes a client and reports whether it was attached.
func (reg *Registration) Detach(id string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	_, ok := reg.clients[id]
	delete(reg.clients, id)
	delete(reg.controllers, id)
	return ok
}

// SetFocus reports whether the client was found.
func (reg *Registration) SetFocus(id string, focused bool) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	c, ok := reg.clients[id]
	if ok {
		c.Focused = focused
	}

	return ok
}

// Client returns a copy of the attached client.
func (reg *Registration) Client(id string) (Client, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	c, ok := reg.clients[id]
	if !ok {
		return Client{}, false
	}

	return *c, true
}

// Clients returns copies of the attached clients ordered by ID.
func (reg *Registration) Clients() []Client {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	result := make([]Client, 0, len(reg.clients))
	for _, c := range reg.clients {
		result = append(result, *c)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Controller returns the receiver controlling the client, or nil.
func (reg *Registration) Controller(id string) *Receiver {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.controllers[id]
}

func (reg *Registration) Active() *Receiver {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.active
}

func (reg *Registration) Waiting() *Receiver {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.waiting
}

func (reg *Registration) foreground() *Client {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, c := range reg.clients {
		if c.Focused && c.OnMessage != nil {
			return c
		}
	}

	return nil
}

// install puts r in the waiting slot, superseding any receiver already
// waiting there.
func (reg *Registration) install(r *Receiver) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.waiting != nil && reg.waiting != r {
		log.Debug("superseding waiting receiver", zap.String("receiver", reg.waiting.ID), zap.String("by", r.ID))
		reg.waiting.setState(ReceiverRedundant)
	}

	reg.waiting = r
}

// activate promotes r to active and claims every open client for it.
func (reg *Registration) activate(r *Receiver) int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.waiting == r {
		reg.waiting = nil
	}

	if reg.active != nil && reg.active != r {
		reg.active.setState(ReceiverRedundant)
	}

	reg.active = r
	for id := range reg.clients {
		reg.controllers[id] = r
	}

	return len(reg.clients)
}
