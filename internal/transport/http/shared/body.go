package shared

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"pms/internal/transport/http/api"
)

// ReadBody buffers the request body and rewinds r.Body so it can be decoded
// afterwards. It returns false after writing the error response.
func ReadBody(w http.ResponseWriter, r *http.Request, requestID string) ([]byte, bool) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
			return nil, false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return nil, false
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	return raw, true
}

// MarshalResponse encodes a response body for the idempotency store.
func MarshalResponse(v any) (json.RawMessage, error) {
	return json.Marshal(v)
}
