package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushGauge(t *testing.T) {
	var path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewGaugePusher(srv.URL, "komoditas-model-eval")
	err := p.PushGauge(context.Background(), "model_mae_current", "Current MAE", 1.25, map[string]string{"model_version": "v1"})
	require.NoError(t, err)

	assert.Equal(t, "/metrics/job/komoditas-model-eval/model_version/v1", path)
	assert.NotEmpty(t, body)
}

func TestPushGaugeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewGaugePusher(srv.URL, "job").PushGauge(context.Background(), "g", "h", 1, nil)
	assert.Error(t, err)
}
