package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	type body struct {
		Action string `json:"action"`
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{"valid", `{"action":"like"}`, "like", ""},
		{"empty body", ``, "", "request body is required"},
		{"unknown field", `{"action":"like","extra":1}`, "", "unknown field"},
		{"trailing data", `{"action":"like"}{"action":"skip"}`, "", "unexpected data"},
		{"malformed", `{"action":`, "", "invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.input))
			w := httptest.NewRecorder()

			var dest body
			err := ParseJSON(w, r, &dest)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, dest.Action)
		})
	}
}

func TestPathParam(t *testing.T) {
	const id = "a0000000-0000-4000-8000-000000000001"

	tests := []struct {
		name   string
		value  string
		ok     bool
		status int
	}{
		{"uuid", id, true, http.StatusOK},
		{"not a uuid", "abc", false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/matches/"+tt.value, nil)
			r.SetPathValue("id", tt.value)
			w := httptest.NewRecorder()

			got, ok := PathParam(w, r, "id", "match id")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.status, w.Code)
			if ok {
				assert.Equal(t, tt.value, got)
			} else {
				assert.Contains(t, w.Body.String(), "match id must be a UUID")
			}
		})
	}
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet,
		"/x?limit=20&neg=-1&word=ten&before=2026-01-02T03:04:05.123Z&bad_time=yesterday&project_id=a0000000-0000-4000-8000-000000000001&bad_id=p1", nil)

	n, err := QueryInt(r, "limit", 50)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	n, err = QueryInt(r, "missing", 50)
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	_, err = QueryInt(r, "neg", 50)
	assert.Error(t, err)
	_, err = QueryInt(r, "word", 50)
	assert.Error(t, err)

	ts, err := QueryTime(r, "before")
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.Equal(t, 123000000, ts.Nanosecond())

	ts, err = QueryTime(r, "missing")
	require.NoError(t, err)
	assert.Nil(t, ts)

	_, err = QueryTime(r, "bad_time")
	assert.Error(t, err)

	id, err := QueryUUID(r, "project_id")
	require.NoError(t, err)
	require.NotNil(t, id)

	id, err = QueryUUID(r, "missing")
	require.NoError(t, err)
	assert.Nil(t, id)

	_, err = QueryUUID(r, "bad_id")
	assert.Error(t, err)
}

func TestContextValues(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetUserID(r))
	assert.Empty(t, GetRequestID(r))

	r = WithRequestID(WithUserID(r, "u1"), "req-1")
	assert.Equal(t, "u1", GetUserID(r))
	assert.Equal(t, "req-1", GetRequestID(r))
}
