package api

import (
	"errors"
	"net/http"

	"github.com/danielkrainas/gobag/util/uid"
	gmux "github.com/gorilla/mux"
	"go.uber.org/zap"

	v1 "github.com/danielkrainas/lapse/pkg/api/v1"
	"github.com/danielkrainas/lapse/pkg/service"
	"github.com/danielkrainas/lapse/pkg/util/log"
)

func ClientsAPI() HttpHandler {
	return MethodRouter(map[string]HttpHandler{
		http.MethodGet:  ListClients,
		http.MethodPost: AttachClient,
	})
}

func ClientAPI() HttpHandler {
	return MethodRouter(map[string]HttpHandler{
		http.MethodGet:    GetClient,
		http.MethodPatch:  FocusClient,
		http.MethodDelete: DetachClient,
	})
}

func ClientMessagesAPI() HttpHandler {
	return MethodRouter(map[string]HttpHandler{
		http.MethodGet: CollectMessages,
	})
}

var errFocusRequired = errors.New("focused is required")

type AttachClientRequest struct {
	ID      string `json:"id"`
	Focused bool   `json:"focused"`
}

type FocusClientRequest struct {
	Focused *bool `json:"focused"`
}

func (req *FocusClientRequest) Validate() error {
	if req.Focused == nil {
		return errFocusRequired
	}

	return nil
}

type ClientResponse struct {
	ID         string `json:"id"`
	Focused    bool   `json:"focused"`
	Controller string `json:"controller,omitempty"`
	Pending    int    `json:"pending"`
}

func describeClient(reg *service.Registration, c service.Client) *ClientResponse {
	resp := &ClientResponse{
		ID:      c.ID,
		Focused: c.Focused,
	}

	if r := reg.Controller(c.ID); r != nil {
		resp.Controller = r.ID
	}

	if c.Inbox != nil {
		resp.Pending = c.Inbox.Len()
	}

	return resp
}

func ListClients(ctx *RequestContext, w http.ResponseWriter, r *http.Request) {
	clients := ctx.Registration.Clients()
	result := make([]*ClientResponse, 0, len(clients))
	for _, c := range clients {
		result = append(result, describeClient(ctx.Registration, c))
	}

	SendJSON(w, result)
}

func AttachClient(ctx *RequestContext, w http.ResponseWriter, r *http.Request) {
	req := &AttachClientRequest{}
	if !ParseAndValidate(r, req) {
		return
	}

	if req.ID == "" {
		req.ID = uid.Generate()
	}

	c := service.NewInboxClient(req.ID, req.Focused, ctx.InboxSize)
	ctx.Registration.Attach(c)
	log.Info("client attached", zap.String("client", c.ID), zap.Bool("focused", c.Focused))
	SendJSONStatus(w, http.StatusCreated, describeClient(ctx.Registration, *c))
}

func GetClient(ctx *RequestContext, w http.ResponseWriter, r *http.Request) {
	id := gmux.Vars(r)["id"]
	c, ok := ctx.Registration.Client(id)
	if !ok {
		SendError(r, v1.ErrorCodeClientUnknown.WithArgs(id))
		return
	}

	SendJSON(w, describeClient(ctx.Registration, c))
}

func FocusClient(ctx *RequestContext, w http.ResponseWriter, r *http.Request) {
	id := gmux.Vars(r)["id"]
	req := &FocusClientRequest{}
	if !ParseAndValidate(r, req) {
		return
	}

	if !ctx.Registration.SetFocus(id, *req.Focused) {
		SendError(r, v1.ErrorCodeClientUnknown.WithArgs(id))
		return
	}

	c, _ := ctx.Registration.Client(id)
	SendJSON(w, describeClient(ctx.Registration, c))
}

func DetachClient(ctx *RequestContext, w http.ResponseWriter, r *http.Request) {
	id := gmux.Vars(r)["id"]
	if !ctx.Registration.Detach(id) {
		SendError(r, v1.ErrorCodeClientUnknown.WithArgs(id))
		return
	}

	log.Info("client detached", zap.String("client", id))
	w.WriteHeader(http.StatusNoContent)
}

// CollectMessages hands a client the payloads delivered to it while focused.
func CollectMessages(ctx *RequestContext, w http.ResponseWriter, r *http.Request) {
	id := gmux.Vars(r)["id"]
	c, ok := ctx.Registration.Client(id)
	if !ok {
		SendError(r, v1.ErrorCodeClientUnknown.WithArgs(id))
		return
	}

	messages := make([]*service.MessagePayload, 0)
	if c.Inbox != nil {
		messages = c.Inbox.Drain()
	}

	SendJSON(w, messages)
}
