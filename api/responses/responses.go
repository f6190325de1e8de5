// Package responses writes the JSON envelopes every handler returns:
// {"data": ...} on success and {"error": {...}} on failure.
package responses

import (
	"context"
	"encoding/json"
	"net/http"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Body is the success envelope.
type Body struct {
	Data any `json:"data"`
}

// Problem is the client-facing half of a typed error.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Failure is the error envelope.
type Failure struct {
	Error Problem `json:"error"`
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Body{Data: data})
}

// WriteError maps err to its status and public message. Untyped errors are
// reported as internal so their text never reaches the client.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed := pkgerrors.Ensure(err)
	meta := pkgerrors.MetadataFor(typed.Code())
	msg, details := typed.Public()

	if logg != nil {
		fields := pkgerrors.TraceOf(typed).Fields()
		fields["status"] = meta.HTTPStatus
		logCtx := logg.WithFields(ctx, fields)
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(logCtx, "request failed", typed)
		} else {
			logg.Warn(logCtx, "request rejected: "+typed.Error())
		}
	}

	writeJSON(w, meta.HTTPStatus, Failure{Error: Problem{
		Code:    string(typed.Code()),
		Message: msg,
		Details: details,
	}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent, so an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(payload)
}
