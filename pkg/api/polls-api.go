package api

import (
	"errors"
	"net/http"

	gmux "github.com/gorilla/mux"

	v1 "github.com/danielkrainas/lapse/pkg/api/v1"
	"github.com/danielkrainas/lapse/pkg/service"
)

func PollsAPI() HttpHandler {
	return MethodRouter(map[string]HttpHandler{
		http.MethodGet:  GetAllPolls,
		http.MethodPost: CreatePoll,
	})
}

func PollAPI() HttpHandler {
	return MethodRouter(map[string]HttpHandler{
		http.MethodGet: GetPoll,
	})
}

type CreatePollRequest struct {
	Question      string `json:"question"`
	EndTimeMillis int64  `json:"endTimeMillis"`
	IsActive      *bool  `json:"isActive,omitempty"`
}

func (req *CreatePollRequest) Validate() error {
	if req.EndTimeMillis <= 0 {
		return errors.New("endTimeMillis must be a positive epoch millisecond timestamp")
	}

	return nil
}

func GetAllPolls(ctx *RequestContext, w http.ResponseWriter, r *http.Request) {
	polls, err := ctx.Store.ListPolls(r.Context())
	if err != nil {
		SendError(r, err)
	} else {
		SendJSON(w, polls)
	}
}

func CreatePoll(ctx *RequestContext, w http.ResponseWriter, r *http.Request) {
	req := &CreatePollRequest{}
	if !ParseAndValidate(r, req) {
		return
	}

	p := &service.Poll{
		Question:      req.Question,
		EndTimeMillis: req.EndTimeMillis,
		IsActive:      true,
	}

	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	created, err := ctx.Store.CreatePoll(r.Context(), p)
	if err != nil {
		SendError(r, err)
	} else {
		SendJSONStatus(w, http.StatusCreated, created)
	}
}

func GetPoll(ctx *RequestContext, w http.ResponseWriter, r *http.Request) {
	id := gmux.Vars(r)["id"]
	p, err := ctx.Store.GetPoll(r.Context(), id)
	if errors.Is(err, service.ErrPollNotFound) {
		SendError(r, v1.ErrorCodePollUnknown.WithArgs(id))
	} else if err != nil {
		SendError(r, err)
	} else {
		SendJSON(w, p)
	}
}
