package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cheliosooo/bankineco-amm-interface/internal/bankineco/bankinecotest"
	"github.com/cheliosooo/bankineco-amm-interface/internal/venue"
)

func TestServer_Lifecycle(t *testing.T) {
	tr, err := venue.NewTracker(venue.TrackerConfig{
		Market:  bankinecotest.NewMarket(),
		Fetcher: staticFetcher{},
		Logger:  quietLogger(),
	})
	require.NoError(t, err)

	srv, err := NewServer(ServerDeps{
		Handlers: &Handlers{Tracker: tr, Logger: quietLogger()},
		Config:   ServerConfig{Addr: "127.0.0.1:0"},
	})
	require.NoError(t, err)

	started := make(chan error, 1)
	go func() { started <- srv.Start() }()

	require.Eventually(t, func() bool { return srv.e.ListenerAddr() != nil }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + srv.e.ListenerAddr().String() + "/v1/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.ErrorIs(t, <-started, http.ErrServerClosed)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, srv.WaitClosed(ctx))
}
