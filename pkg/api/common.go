package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	bagcontext "github.com/danielkrainas/gobag/context"
	"go.uber.org/zap"

	v1 "github.com/danielkrainas/lapse/pkg/api/v1"
	"github.com/danielkrainas/lapse/pkg/service"
	"github.com/danielkrainas/lapse/pkg/util/log"
)

// RequestContext carries the daemon's services to every handler. Fields a
// daemon does not serve are nil.
type RequestContext struct {
	StartedAt time.Time

	Store   service.PollStore
	Sweeper *service.Sweeper

	Registration *service.Registration
	Receiver     *service.Receiver
	InboxSize    int
}

type OptionsValidator interface {
	Validate() error
}

type OptionsRequestParser interface {
	ParseRequest(r *http.Request) error
}

func readRequestOptions(r *http.Request, options interface{}) error {
	if parser, ok := options.(OptionsRequestParser); ok {
		if err := parser.ParseRequest(r); err != nil {
			log.Error("request parse failed", zap.Error(err))
			return err
		}

		return nil
	}

	if r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut {
		buf, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error("body read failed", zap.Error(err))
			return err
		}

		err = json.Unmarshal(buf, options)
		if err != nil {
			log.Debug("body parse failed", zap.Error(err))
			return err
		}
	} else {
		log.Error("unsure how to parse request options")
	}

	return nil
}

func Parse(r *http.Request, options interface{}) bool {
	err := readRequestOptions(r, options)
	if err != nil {
		SendError(r, v1.ErrorCodeRequestInvalid.WithDetail(err.Error()))
		return false
	}

	return true
}

func Validate(r *http.Request, validator interface{}) bool {
	if v, ok := validator.(OptionsValidator); ok {
		if err := v.Validate(); err != nil {
			SendError(r, v1.ErrorCodeRequestInvalid.WithDetail(err.Error()))
			return false
		}
	}

	return true
}

func ParseAndValidate(r *http.Request, options interface{}) bool {
	return Parse(r, options) && Validate(r, options)
}

func SendJSON(w http.ResponseWriter, data interface{}) {
	SendJSONStatus(w, http.StatusOK, data)
}

func SendJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("result json encoding failed", zap.Error(err))
	}
}

// SendError records err on the request; the error tracking middleware
// serves it once the handler returns.
func SendError(r *http.Request, err error) {
	bagcontext.TrackError(r.Context(), err)
}
