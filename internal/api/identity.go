package api

import (
	"net/http"
	"strconv"
)

// The credential layer lives in front of this service; an authenticating
// reverse proxy forwards the caller's numeric identity in this header. An
// absent or malformed header means an anonymous caller.
const identityHeader = "X-Forwarded-User"

func viewerID(r *http.Request) *int64 {
	raw := r.Header.Get(identityHeader)
	if raw == "" {
		return nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}
