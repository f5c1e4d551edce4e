package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxBodyBytes bounds JSON request bodies. Chat messages and profiles are small.
const maxBodyBytes = 1 << 20

// ParseJSON decodes JSON from the request body into dest, rejecting unknown fields
// and trailing data.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if decoder.More() {
		return errors.New("invalid JSON: unexpected data after object")
	}

	return nil
}

// PathParam reads a UUID path value. On failure it writes a 400 and returns false.
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value := r.PathValue(name)
	if value == "" {
		RespondError(w, http.StatusBadRequest, label+" is required")
		return "", false
	}
	if _, err := uuid.Parse(value); err != nil {
		RespondError(w, http.StatusBadRequest, label+" must be a UUID")
		return "", false
	}
	return value, true
}

// QueryInt parses an optional integer query parameter.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return v, nil
}

// QueryTime parses an optional RFC 3339 timestamp query parameter.
func QueryTime(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an RFC 3339 timestamp", name)
	}
	return &t, nil
}

// QueryUUID parses an optional UUID query parameter. Empty means nil.
func QueryUUID(r *http.Request, name string) (*string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(raw); err != nil {
		return nil, fmt.Errorf("%s must be a UUID", name)
	}
	return &raw, nil
}
