package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"

	mgerrors "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/graph"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the {"error": {code, message}} body. Server-side
// failures are logged and their detail withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error) {
	status, code := classify(err)
	msg := err.Error()
	var ve *mgerrors.ValidationError
	switch {
	case status >= 500:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()), "err", err)
		msg = http.StatusText(status)
	case errors.As(err, &ve):
		msg = ve.Message
	}
	writeJSON(w, status, graph.ErrorBody{Error: graph.ErrorDetail{Code: string(code), Message: msg}})
}

// classify maps an error to an HTTP status and error code.
func classify(err error) (int, mgerrors.Code) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge, mgerrors.ErrCodeInvalidInput
	}

	code := mgerrors.GetCode(err)
	switch code {
	case mgerrors.ErrCodeInvalidInput,
		mgerrors.ErrCodeInvalidGraph,
		mgerrors.ErrCodeInvalidDirection,
		mgerrors.ErrCodeInvalidFormat,
		mgerrors.ErrCodeNoRoot,
		mgerrors.ErrCodeUnknownParent:
		return http.StatusBadRequest, code
	case mgerrors.ErrCodeNotFound:
		return http.StatusNotFound, code
	case mgerrors.ErrCodeNetwork, mgerrors.ErrCodeLoadFailed, mgerrors.ErrCodeSaveFailed:
		return http.StatusBadGateway, code
	case mgerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout, code
	case mgerrors.ErrCodeUnsupported:
		return http.StatusNotImplemented, code
	default:
		return http.StatusInternalServerError, mgerrors.ErrCodeInternal
	}
}

// badBody marks a request body decoding failure as a client error while
// keeping more specific codes, such as a validation error, intact.
func badBody(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) || mgerrors.GetCode(err) != "" {
		return err
	}
	return mgerrors.Wrap(mgerrors.ErrCodeInvalidFormat, err, "invalid request body")
}

func notFoundRoute(r *http.Request) error {
	return mgerrors.New(mgerrors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path)
}
