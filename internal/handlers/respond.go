// Package handlers implements the HTTP surface of the RateHub API. Each
// handler group is a struct holding its store and service dependencies;
// groups translate request payloads into store calls and store results
// into the JSON wire shapes.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

// maxBodyBytes caps request bodies. All payloads here are small JSON
// documents.
const maxBodyBytes = 1 << 20

// respondJSON writes v as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("response encode failed", "error", err)
		}
	}
}

// fieldErrors writes a 400 whose body maps field names to their error
// messages.
func fieldErrors(w http.ResponseWriter, fields map[string][]string) {
	respondJSON(w, http.StatusBadRequest, fields)
}

// fieldError is the single-field shorthand for fieldErrors.
func fieldError(w http.ResponseWriter, field, msg string) {
	fieldErrors(w, map[string][]string{field: {msg}})
}

// detailError writes a {"detail": ...} body with the given status. Used
// for 401, 403, 404 and 405 responses.
func detailError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"detail": msg})
}

func notFound(w http.ResponseWriter, msg string) {
	detailError(w, http.StatusNotFound, msg)
}

func unauthorized(w http.ResponseWriter) {
	detailError(w, http.StatusUnauthorized, "authentication required")
}

func forbidden(w http.ResponseWriter) {
	detailError(w, http.StatusForbidden, "you do not have permission to perform this action")
}

// serverError logs err and writes an opaque 500.
func serverError(w http.ResponseWriter, err error, msg string) {
	slog.Error(msg, "error", err)
	detailError(w, http.StatusInternalServerError, "internal server error")
}

// decodeJSON reads the request body into dst. Malformed or oversized
// bodies come back as an error for the caller to turn into a 400.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}
