package server

import (
	"net/http"

	"github.com/google/uuid"
)

// requestIDHeader is the header checked for a caller-supplied request
// id and echoed back, adapted from edirooss-zmux-server's gin
// RequestID middleware to a plain net/http middleware (no gin
// dependency carried over): same X-Request-ID contract, same
// generate-if-missing-or-too-long rule.
const requestIDHeader = "X-Request-ID"

func requestID(r *http.Request) string {
	id := r.Header.Get(requestIDHeader)
	if l := len(id); l < 1 || l > 64 {
		id = uuid.New().String()
	}
	return id
}

// withRequestID wraps next so every response carries an X-Request-ID
// header, reusing an inbound one when present and well-formed.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := requestID(r)
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}
