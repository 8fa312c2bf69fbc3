package pkg

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

var ContentType = struct {
	JSON string
	Text string
}{
	JSON: "application/json",
	Text: "text/plain; charset=utf-8",
}

// ErrorResponse is the body of every non-2xx JSON response of the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func WriteResponse(w http.ResponseWriter, contentType, message string, statusCode ...int) {
	WriteResponseBytes(w, contentType, []byte(message), statusCode...)
}

// WriteResponseBytes writes the message with the given content type. Status defaults to 200.
func WriteResponseBytes(w http.ResponseWriter, contentType string, message []byte, statusCode ...int) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	status := http.StatusOK
	if len(statusCode) > 0 {
		status = statusCode[0]
	}
	w.WriteHeader(status)

	if _, err := w.Write(message); err != nil {
		log.Errorf("failed to write response [%d bytes]: %s", len(message), err)
	}
}

func WriteTextResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.Text, message, http.StatusOK)
}

// WriteJSON marshals v and writes it with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	respBytes, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal json response: %s", err)
		WriteJSONError(w, http.StatusInternalServerError, "Internal Error", "failed to encode response", nil)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, respBytes, status)
}

func WriteJSONError(w http.ResponseWriter, status int, errTitle, message string, details any) {
	respBytes, err := json.Marshal(ErrorResponse{
		Error:   errTitle,
		Message: message,
		Details: details,
	})
	if err != nil {
		// cannot happen for the types above, still keep the status code
		http.Error(w, errTitle, status)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, respBytes, status)
}
