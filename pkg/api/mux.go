package api

import (
	"fmt"
	"net/http"
	"time"

	gmux "github.com/gorilla/mux"
	"go.uber.org/zap"

	v1 "github.com/danielkrainas/lapse/pkg/api/v1"
	"github.com/danielkrainas/lapse/pkg/service"
	"github.com/danielkrainas/lapse/pkg/util/log"
)

type HttpHandler func(rc *RequestContext, w http.ResponseWriter, r *http.Request)

type Mux struct {
	router *gmux.Router
	rc     RequestContext
}

func newMux(rc RequestContext) *Mux {
	api := &Mux{
		router: v1.RouterWithPrefix(""),
		rc:     rc,
	}

	api.register(v1.RouteNameBase, http.HandlerFunc(baseHandler))
	return api
}

// NewMux serves the sweeper daemon: polls and on-demand sweeps.
func NewMux(store service.PollStore, sweeper *service.Sweeper) (*Mux, error) {
	api := newMux(RequestContext{
		Store:   store,
		Sweeper: sweeper,
	})

	mappings := map[string]func() HttpHandler{
		v1.RouteNamePolls:  PollsAPI,
		v1.RouteNamePoll:   PollAPI,
		v1.RouteNameSweeps: SweepsAPI,
	}

	for routeName, dispatchFactory := range mappings {
		api.register(routeName, dispatchFactory())
	}

	return api, nil
}

// NewReceiverMux serves the receiver daemon: foreground clients attach,
// report focus and collect their messages. When upstream is set, requests
// under /app/ are passed through to it on the receiver's transport.
func NewReceiverMux(reg *service.Registration, receiver *service.Receiver, upstream string, inboxSize int) (*Mux, error) {
	api := newMux(RequestContext{
		Registration: reg,
		Receiver:     receiver,
		InboxSize:    inboxSize,
	})

	mappings := map[string]func() HttpHandler{
		v1.RouteNameClients:        ClientsAPI,
		v1.RouteNameClient:         ClientAPI,
		v1.RouteNameClientMessages: ClientMessagesAPI,
	}

	for routeName, dispatchFactory := range mappings {
		api.register(routeName, dispatchFactory())
	}

	if upstream != "" {
		proxy, err := newPassthroughProxy(upstream, receiver)
		if err != nil {
			return nil, err
		}

		api.router.PathPrefix(passthroughPrefix + "/").Handler(http.StripPrefix(passthroughPrefix, proxy))
	}

	return api, nil
}

func (api *Mux) register(routeName string, dispatch interface{}) {
	api.router.GetRoute(routeName).Handler(api.dispatcher(dispatch))
}

func (api *Mux) dispatcher(dispatch interface{}) http.Handler {
	if httpDispatch, ok := dispatch.(http.Handler); ok {
		return httpDispatch
	}

	if handlerDispatch, ok := dispatch.(HttpHandler); ok {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := api.rc
			rc.StartedAt = time.Now()
			handlerDispatch(&rc, w, r)
		})
	}

	log.Fatal("invalid dispatch handler type", zap.String("dispatch", fmt.Sprintf("%T", dispatch)))
	return nil
}

func (api *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.router.ServeHTTP(w, r)
}

// MethodRouter dispatches on the request method and answers 405 for
// methods it has no handler for.
func MethodRouter(methodHandlers map[string]HttpHandler) HttpHandler {
	return HttpHandler(func(rc *RequestContext, w http.ResponseWriter, r *http.Request) {
		if handler, ok := methodHandlers[r.Method]; ok {
			handler(rc, w, r)
			return
		}

		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func baseHandler(w http.ResponseWriter, r *http.Request) {
	const emptyJSON = "{}"

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", fmt.Sprint(len(emptyJSON)))
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, emptyJSON)
}
