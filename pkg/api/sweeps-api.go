package api

import (
	"net/http"
	"time"

	v1 "github.com/danielkrainas/lapse/pkg/api/v1"
	"github.com/danielkrainas/lapse/pkg/service"
)

func SweepsAPI() HttpHandler {
	return MethodRouter(map[string]HttpHandler{
		http.MethodPost: RunSweep,
	})
}

type SweepResponse struct {
	*service.SweepReport
	DurationMillis int64    `json:"durationMillis"`
	Errors         []string `json:"errors,omitempty"`
}

func RunSweep(ctx *RequestContext, w http.ResponseWriter, r *http.Request) {
	report, err := ctx.Sweeper.Sweep(r.Context())
	if err != nil {
		SendError(r, v1.ErrorCodeSweepFailed.WithDetail(err.Error()))
		return
	}

	resp := &SweepResponse{
		SweepReport:    report,
		DurationMillis: int64(report.Duration / time.Millisecond),
	}

	for _, err := range report.Errors() {
		resp.Errors = append(resp.Errors, err.Error())
	}

	SendJSON(w, resp)
}
