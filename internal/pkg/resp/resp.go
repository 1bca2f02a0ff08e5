/*
Package resp provides helpers for constructing standardized HTTP JSON responses.

Enveloped responses carry {success, message, data}; failures always report
success=false with a client-safe message. Entity endpoints can also respond
with a bare JSON body via RespondRaw.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
)

// JSONResponse is the enveloped response structure returned to clients.
type JSONResponse struct {
	// Success reports whether the request was handled without error.
	Success bool `json:"success"`

	// Message is the client-facing status description or error message.
	Message string `json:"message"`

	// Data is the optional response payload.
	Data any `json:"data,omitempty"`
}

// RespondJSON sets the JSON content type and writes the payload with the given status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(err, "Error encoding JSON response", "http_status", httpStatus)

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	w.Write(response)
}

// RespondSuccess sends an enveloped success response with HTTP 200.
func RespondSuccess(w http.ResponseWriter, r *http.Request, message string, data any) {
	res := JSONResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
	RespondJSON(w, r, http.StatusOK, res)
}

// RespondCreated sends an enveloped success response with HTTP 201.
func RespondCreated(w http.ResponseWriter, r *http.Request, message string, data any) {
	res := JSONResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
	RespondJSON(w, r, http.StatusCreated, res)
}

// RespondRaw writes the payload as the entire response body, without the envelope.
func RespondRaw(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	RespondJSON(w, r, httpStatus, payload)
}

// RespondError sends an enveloped failure response derived from the custom error.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	res := JSONResponse{
		Success: false,
		Message: customErr.Message,
	}
	RespondJSON(w, r, customErr.Status, res)
}
