package httputil

import (
	"encoding/json"
	"net/http"

	svcerrors "github.com/R3E-Network/appstore_gateway/internal/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError renders err as {message} with the status its taxonomy assigns.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, svcerrors.StatusOf(err), ErrorResponse{Message: svcerrors.MessageOf(err)})
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: message})
}

func NotFound(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusNotFound, ErrorResponse{Message: message})
}

func InternalError(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Message: message})
}
