// Package respond centralizes JSON encoding and the error envelope for the
// HTTP surface.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/jnardiello/printfarmhq-sub002/platform/logger"
)

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`

	// Details carries structured context for errors that have it, such as
	// per-material shortfalls.
	Details any `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(r.Context(), "write response", logger.ErrorF(err))
	}
}

func Error(w http.ResponseWriter, r *http.Request, status int, err error) {
	ErrorDetails(w, r, status, err, nil)
}

func ErrorDetails(w http.ResponseWriter, r *http.Request, status int, err error, details any) {
	JSON(w, r, status, errorBody{
		Code:    status,
		Message: err.Error(),
		Details: details,
	})
}
