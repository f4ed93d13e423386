// internal/api/server_test.go
package api

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "mergington-activities/internal/common/http"
	"mergington-activities/internal/common/logger"
)

func TestServer_ServesUntilCancelled(t *testing.T) {
	router, _ := newTestRouter(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(ServerConfig{
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}, router, logger.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client := apihttp.NewClient(time.Second)
	base := "http://" + ln.Addr().String()

	var confirmation struct {
		Message string `json:"message"`
	}
	require.NoError(t, client.PostJSON(ctx, base+"/activities/Chess%20Club/signup?email=live@mergington.edu", &confirmation))
	assert.Equal(t, "Signed up live@mergington.edu for Chess Club", confirmation.Message)

	req, err := http.NewRequest(http.MethodGet, base+"/", nil)
	require.NoError(t, err)
	resp, err := client.DoWithContext(ctx, req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_RunFailsOnBadAddress(t *testing.T) {
	srv := NewServer(ServerConfig{Address: "256.0.0.1:bad"}, http.NotFoundHandler(), logger.NewNoOpLogger())
	assert.Error(t, srv.Run(context.Background()))
}
