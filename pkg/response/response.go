// Package response writes the storefront's JSON bodies. Successful responses
// are the bare resource; failures are {"detail": "..."}.
package response

import (
	"encoding/json"
	"net/http"
)

// Problem is the error body every client reads error.response.data.detail from.
type Problem struct {
	Detail string            `json:"detail"`
	Errors map[string]string `json:"errors,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func OK(w http.ResponseWriter, v interface{})      { JSON(w, http.StatusOK, v) }

// Message writes {"message": msg} with 200.
func Message(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, map[string]string{"message": msg})
}

func Error(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, Problem{Detail: detail})
}

// ValidationError sends 422 with a field → message map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, Problem{Detail: "Validation failed", Errors: errs})
}

func Unauthorized(w http.ResponseWriter, detail string) { Error(w, http.StatusUnauthorized, detail) }
func Forbidden(w http.ResponseWriter, detail string)    { Error(w, http.StatusForbidden, detail) }
func NotFound(w http.ResponseWriter, detail string)     { Error(w, http.StatusNotFound, detail) }
