package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "credguard/pkg/domain-errors"
)

// MessageResponse is the {message} error body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorsResponse is the {errors:[...]} validation error body.
type ErrorsResponse struct {
	Errors []string `json:"errors"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteText writes a plain-text body.
func WriteText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// WriteErrors writes a validation failure as {errors:[...]}.
func WriteErrors(w http.ResponseWriter, status int, messages []string) {
	WriteJSON(w, status, ErrorsResponse{Errors: messages})
}

// WriteError centralizes domain error translation to HTTP responses.
// The body is {message} so clients can surface it verbatim.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), MessageResponse{Message: domainErr.Error()})
		return
	}
	WriteJSON(w, http.StatusInternalServerError, MessageResponse{Message: "internal error"})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput, dErrors.CodeMissingInput, dErrors.CodeMissingWalletID:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeInvalidState:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeTransport, dErrors.CodeRemote, dErrors.CodeMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
