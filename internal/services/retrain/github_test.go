package retrain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xhttp "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/http"
)

func TestTriggerPostsWorkflowDispatch(t *testing.T) {
	var got dispatchBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/acme/komoditas/actions/workflows/retrain.yml/dispatches", r.URL.Path)
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d, err := NewGitHubDispatcher(Config{APIURL: srv.URL + "/", Repo: "acme/komoditas", Workflow: "retrain.yml", Token: "s3cret"})
	require.NoError(t, err)
	require.NoError(t, d.Trigger(context.Background(), "drift"))

	assert.Equal(t, "main", got.Ref)
	assert.Equal(t, "drift", got.Inputs["reason"])
}

func TestTriggerSurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d, err := NewGitHubDispatcher(Config{APIURL: srv.URL, Repo: "a/b", Workflow: "w.yml", Token: "t"})
	require.NoError(t, err)

	err = d.Trigger(context.Background(), "")
	var se *xhttp.StatusError
	require.True(t, errors.As(err, &se))
	assert.True(t, se.Temporary())
}

func TestNewRequiresRepoWorkflowToken(t *testing.T) {
	_, err := NewGitHubDispatcher(Config{Repo: "a/b", Workflow: "w.yml"})
	assert.Error(t, err)
}
