package v1

import (
	"net/http"

	"github.com/danielkrainas/gobag/errcode"
)

const ErrorGroup = "lapse.api.v1"

var (
	ErrorCodeRequestInvalid = errcode.Register(ErrorGroup, errcode.ErrorDescriptor{
		Value:          "REQUEST_INVALID",
		Message:        "request validation failed",
		Description:    "The request body could not be parsed or failed validation.",
		HTTPStatusCode: http.StatusBadRequest,
	})

	ErrorCodePollUnknown = errcode.Register(ErrorGroup, errcode.ErrorDescriptor{
		Value:          "POLL_UNKNOWN",
		Message:        "poll %q is unknown",
		Description:    "The requested poll does not exist in the store.",
		HTTPStatusCode: http.StatusNotFound,
	})

	ErrorCodeClientUnknown = errcode.Register(ErrorGroup, errcode.ErrorDescriptor{
		Value:          "CLIENT_UNKNOWN",
		Message:        "client %q is not attached",
		Description:    "The client is not attached to the receiver registration.",
		HTTPStatusCode: http.StatusNotFound,
	})

	ErrorCodeSweepFailed = errcode.Register(ErrorGroup, errcode.ErrorDescriptor{
		Value:          "SWEEP_FAILED",
		Message:        "sweep failed",
		Description:    "The active polls could not be queried.",
		HTTPStatusCode: http.StatusInternalServerError,
	})
)
