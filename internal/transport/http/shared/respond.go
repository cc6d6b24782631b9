// Package shared holds the JSON envelope helpers every handler uses, so the
// error contract is defined once.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	"campreg/pkg/domerrors"
)

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ErrorBody is the JSON error envelope: a stable code, a machine reason
// token, and a human message.
type ErrorBody struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

// WriteError translates a domain error into the HTTP error envelope. Uncoded
// errors become opaque 500s.
func WriteError(w http.ResponseWriter, err error) {
	var de *domerrors.Error
	if !errors.As(err, &de) {
		WriteJSON(w, http.StatusInternalServerError, ErrorBody{
			Error:   string(domerrors.CodeInternal),
			Message: "internal error",
		})
		return
	}
	WriteJSON(w, domerrors.ToHTTPStatus(de.Code), ErrorBody{
		Error:   string(de.Code),
		Reason:  de.Reason,
		Message: de.Message,
	})
}

// Decode parses a JSON request body into dst.
func Decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domerrors.New(domerrors.CodeValidation, "invalid request body")
	}
	return nil
}
