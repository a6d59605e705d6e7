package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxBodySize bounds request bodies. Comments are text; a megabyte is
// already far beyond the comment length limits enforced downstream.
const maxBodySize = 1 << 20

// ParseJSON decodes JSON from the request body into the given destination.
// Unknown fields are rejected: the append API is narrow and a stray field
// usually means a confused or probing client.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
