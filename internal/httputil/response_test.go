package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorWithExtras(t *testing.T) {
	w := httptest.NewRecorder()
	RespondErrorWithExtras(w, http.StatusConflict, "interest already recorded", map[string]any{
		"resource_type": "interest",
		"resource_id":   "i1",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Conflict", body["title"])
	assert.Equal(t, float64(http.StatusConflict), body["status"])
	assert.Equal(t, "interest already recorded", body["detail"])
	assert.Equal(t, "interest", body["resource_type"])
	assert.Equal(t, "i1", body["resource_id"])
	assert.Contains(t, body["type"], "rfc7231")
}

func TestRespondJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RespondJSON(w, http.StatusCreated, map[string]int{"updated": 2})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"updated":2}`, w.Body.String())

	w = httptest.NewRecorder()
	RespondJSON(w, http.StatusOK, make(chan int))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
