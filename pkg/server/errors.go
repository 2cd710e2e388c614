package server

import (
	"net/http"
	"strings"

	"github.com/zen-systems/mediagate/pkg/adapter"
)

// StatusFor maps an error to the HTTP status returned to API clients. Typed
// adapter errors map by kind; anything else falls back to a message heuristic.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if kind, ok := adapter.KindOf(err); ok {
		switch kind {
		case adapter.KindValidation, adapter.KindConfiguration, adapter.KindUnsupportedProvider:
			return http.StatusBadRequest
		case adapter.KindUnsupportedOperation:
			return http.StatusNotImplemented
		default:
			return http.StatusBadGateway
		}
	}

	msg := strings.ToLower(err.Error())
	for _, word := range []string{"missing", "invalid", "required"} {
		if strings.Contains(msg, word) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}
