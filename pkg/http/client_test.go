package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookClientConfig(t *testing.T) {
	cfg := WebhookClientConfig(30 * time.Second)

	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.LessOrEqual(t, cfg.MaxIdleConnsPerHost, cfg.MaxConnsPerHost)

	client := NewWebhookClient(cfg)
	assert.Equal(t, 30*time.Second, client.Timeout)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, transport.ResponseHeaderTimeout)
	assert.Equal(t, 5, transport.MaxConnsPerHost)
}

func TestNewWebhookClient_DoesNotFollowRedirects(t *testing.T) {
	followed := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/moved" {
			followed = true
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, "/moved", http.StatusFound)
	}))
	defer srv.Close()

	client := NewWebhookClient(WebhookClientConfig(5 * time.Second))
	resp, err := client.Post(srv.URL+"/hooks", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.False(t, followed)
}

func TestNewWebhookClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewWebhookClient(WebhookClientConfig(50 * time.Millisecond))
	_, err := client.Post(srv.URL, "application/json", nil)

	require.Error(t, err)
}
