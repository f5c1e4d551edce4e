package httputil

import (
	"encoding/json"
	"net/http"
)

// problemTypes links each status the API returns to the RFC section that defines it.
var problemTypes = map[int]string{
	http.StatusBadRequest:          "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.1",
	http.StatusUnauthorized:        "https://datatracker.ietf.org/doc/html/rfc7235#section-3.1",
	http.StatusForbidden:           "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.3",
	http.StatusNotFound:            "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.4",
	http.StatusConflict:            "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.8",
	http.StatusTooManyRequests:     "https://datatracker.ietf.org/doc/html/rfc6585#section-4",
	http.StatusInternalServerError: "https://datatracker.ietf.org/doc/html/rfc7231#section-6.6.1",
	http.StatusServiceUnavailable:  "https://datatracker.ietf.org/doc/html/rfc7231#section-6.6.4",
}

// ProblemDetail is an RFC 7807 error body.
// Extra members sit at the top level, next to the standard ones.
type ProblemDetail struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Extra    map[string]any `json:"-"`
}

func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Extra)+5)
	for k, v := range p.Extra {
		m[k] = v
	}
	// Standard members win over extras of the same name.
	m["type"] = p.Type
	m["title"] = p.Title
	m["status"] = p.Status
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	}
	return json.Marshal(m)
}

// RespondJSON writes data as JSON. Encoding happens before the status is sent,
// so a failure still produces a clean 500.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	write(w, status, "application/json", payload)
}

// RespondError writes a problem response
func RespondError(w http.ResponseWriter, status int, detail string) {
	RespondErrorWithExtras(w, status, detail, nil)
}

// RespondErrorWithExtras writes a problem response with additional members
func RespondErrorWithExtras(w http.ResponseWriter, status int, detail string, extras map[string]any) {
	typ, ok := problemTypes[status]
	if !ok {
		typ = "about:blank"
	}
	payload, err := json.Marshal(ProblemDetail{
		Type:   typ,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Extra:  extras,
	})
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	write(w, status, "application/problem+json", payload)
}

func write(w http.ResponseWriter, status int, contentType string, payload []byte) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
