package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/chat", http.StatusOK, 0.01)
	m.ChatMessage("user")
	m.PersistenceFailure("create")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `fai_http_requests_total{method="GET",route="/chat",status="200"} 1`)
	assert.Contains(t, string(body), `fai_chat_messages_total{role="user"} 1`)
	assert.Contains(t, string(body), `fai_chat_persistence_failures_total{op="create"} 1`)
}
