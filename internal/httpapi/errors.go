package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/brainforge/braind/internal/apierr"
)

// statusFor maps a Kind to the HTTP status the wire contract promises
// (spec.md §7), the literal inverse of apiclient.translateStatus.
func statusFor(kind apierr.Kind) int {
	switch kind {
	case apierr.KindValidation, apierr.KindAmbiguousMatch:
		return http.StatusBadRequest
	case apierr.KindNotFound:
		return http.StatusNotFound
	case apierr.KindConflict:
		return http.StatusConflict
	case apierr.KindBackendUnavailable:
		return http.StatusServiceUnavailable
	case apierr.KindIO, apierr.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON shape every non-2xx response takes.
type errorBody struct {
	Message     string              `json:"message"`
	Kind        apierr.Kind         `json:"kind"`
	Details     []apierr.Detail     `json:"details,omitempty"`
	Suggestions []apierr.Suggestion `json:"suggestions,omitempty"`
}

// writeError translates err into the matching status code and JSON
// body. Anything not already an *apierr.Error is folded into Internal
// so a stray panic-turned-error never leaks a raw Go error string with
// a 200 status.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *apierr.Error
	if e, ok := err.(*apierr.Error); ok {
		apiErr = e
	} else {
		apiErr = apierr.Internal("httpapi: unexpected error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(apiErr.Kind))
	_ = json.NewEncoder(w).Encode(errorBody{
		Message:     apiErr.Message,
		Kind:        apiErr.Kind,
		Details:     apiErr.Details,
		Suggestions: apiErr.Suggestions,
	})
}

// writeJSON writes v as a JSON body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
