package api

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"

	"github.com/danielkrainas/lapse/pkg/service"
	"github.com/danielkrainas/lapse/pkg/util/log"
)

const passthroughPrefix = "/app"

// newPassthroughProxy forwards client requests to the application origin
// unchanged. Responses are not cached or rewritten.
func newPassthroughProxy(upstream string, receiver *service.Receiver) (http.Handler, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("passthrough upstream: %w", err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = receiver.Transport(nil)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("passthrough request failed", zap.String("path", r.URL.Path), zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)
	}

	return proxy, nil
}
