package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndParseJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "yes", r.URL.Query().Get("dry"))
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["ref"]})
	}))
	defer srv.Close()

	var out map[string]string
	err := NewClient(WithTimeout(time.Second)).SendAndParse(context.Background(), &RequestOptions{
		Method:      http.MethodPost,
		URL:         srv.URL,
		QueryParams: map[string][]string{"dry": {"yes"}},
		Body:        map[string]string{"ref": "main"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "main", out["echo"])
}

func TestSendAndParseStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	err := NewClient().SendAndParse(context.Background(), &RequestOptions{Method: http.MethodGet, URL: srv.URL}, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnprocessableEntity, se.Code)
	assert.Equal(t, "nope", se.Body)
	assert.False(t, se.Temporary())
}
