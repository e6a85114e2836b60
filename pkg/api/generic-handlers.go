package api

import (
	"context"
	"net/http"

	bagcontext "github.com/danielkrainas/gobag/context"
	"github.com/danielkrainas/gobag/errcode"
	"github.com/urfave/negroni"
	"go.uber.org/zap"

	"github.com/danielkrainas/lapse/pkg/util/log"
)

func aliveHandler(path string) negroni.Handler {
	return negroni.HandlerFunc(func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		if r.URL.Path == path {
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	})
}

func contextHandler(parent context.Context) negroni.Handler {
	return negroni.HandlerFunc(func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		var iw http.ResponseWriter
		ctx := bagcontext.WithRequest(parent, r)
		ctx, iw = bagcontext.WithResponseWriter(ctx, w)
		ctx = bagcontext.WithLogger(ctx, bagcontext.GetLogger(ctx))
		next(iw, r.WithContext(ctx))
	})
}

func loggingHandler(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	ctx := r.Context()
	bagcontext.GetRequestLogger(ctx).Debug("request started")
	defer func() {
		status, ok := ctx.Value("http.response.status").(int)
		if ok && status >= 200 && status <= 399 {
			bagcontext.GetResponseLogger(ctx).Infof("response completed")
		}
	}()

	next(w, r)
}

func trackErrorsHandler(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	ctx := bagcontext.ErrorTracking(r.Context())
	next(w, r.WithContext(ctx))
	if errors := bagcontext.GetErrors(ctx); errors.Len() > 0 {
		if err := errcode.ServeJSON(w, errors); err != nil {
			log.Error("error serving error json", zap.Error(err), zap.NamedError("errors", errors))
		}

		logErrors(ctx, errors)
	}
}

func logErrors(ctx context.Context, errors errcode.Errors) {
	for _, err := range errors {
		var lctx context.Context

		switch e := err.(type) {
		case errcode.Error:
			lctx = bagcontext.WithValue(ctx, "err.code", e.Code)
			lctx = bagcontext.WithValue(lctx, "err.message", e.Message)
			lctx = bagcontext.WithValue(lctx, "err.detail", e.Detail)
		case errcode.ErrorCode:
			lctx = bagcontext.WithValue(ctx, "err.code", e)
			lctx = bagcontext.WithValue(lctx, "err.message", e.Message())
		default:
			lctx = bagcontext.WithValue(ctx, "err.code", errcode.ErrorCodeUnknown)
			lctx = bagcontext.WithValue(lctx, "err.message", err.Error())
		}

		lctx = bagcontext.WithLogger(lctx, bagcontext.GetLogger(lctx,
			"err.code",
			"err.message",
			"err.detail"))

		bagcontext.GetResponseLogger(lctx).Errorf("response completed with error")
	}
}
