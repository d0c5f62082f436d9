package api

import (
	"encoding/json"
	"net/http"

	"github.com/jatinkumarweb/agentDB9-sub010/internal/core"
)

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// WriteData writes a success envelope.
func WriteData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Envelope{Success: true, Data: data})
}

// WriteError writes a failure envelope with the error's HTTP status.
func WriteError(w http.ResponseWriter, err *core.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code.HTTPStatus())
	json.NewEncoder(w).Encode(Envelope{
		Success: false,
		Error:   string(err.Code),
		Message: err.Message,
	})
}

// WriteFailure maps any error to its envelope, defaulting to internal.
func WriteFailure(w http.ResponseWriter, err error) {
	WriteError(w, core.AsAppError(err))
}
