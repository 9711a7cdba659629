package respond

import (
	"encoding/json"
	"net/http"

	"github.com/AnshRaj112/pixora-backend/internal/apperror"
	"github.com/sirupsen/logrus"
)

// Envelope is the body of every successful response.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Results *int        `json:"results,omitempty"`
	Token   string      `json:"token,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorBody is the body of every failed response. Status is "fail" for
// client errors and "error" for server errors.
type ErrorBody struct {
	Status  string        `json:"status"`
	Kind    apperror.Kind `json:"kind"`
	Message string        `json:"message"`
}

func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope with data.
func OK(w http.ResponseWriter, status int, message string, data interface{}) {
	JSON(w, status, Envelope{Status: "success", Message: message, Data: data})
}

// List writes a success envelope carrying a result count.
func List(w http.ResponseWriter, data interface{}, n int) {
	JSON(w, http.StatusOK, Envelope{Status: "success", Results: &n, Data: data})
}

// Error converts err to its HTTP form. Server errors are logged with their
// cause; the cause is never sent to the client.
func Error(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	appErr := apperror.From(err)
	status := "fail"
	if appErr.Status >= http.StatusInternalServerError {
		status = "error"
	}
	if log != nil && appErr.Status >= http.StatusInternalServerError {
		log.WithError(err).WithField("kind", appErr.Kind).Error(appErr.Message)
	}
	JSON(w, appErr.Status, ErrorBody{Status: status, Kind: appErr.Kind, Message: appErr.Message})
}
