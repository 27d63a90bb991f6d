package adapters

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeAdapterWaitListening(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	probe := NewProbeAdapter()
	require.NoError(t, probe.WaitListening(t.Context(), listener.Addr().String(), time.Second))
}

func TestProbeAdapterWaitListeningTimesOut(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := listener.Addr().String()
	require.NoError(t, listener.Close())

	probe := NewProbeAdapter()
	probe.Interval = 20 * time.Millisecond
	err = probe.WaitListening(t.Context(), address, 100*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "nothing listening on")
}

func TestProbeAdapterHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/_stcore/health" {
			_, _ = w.Write([]byte("ok"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	probe := NewProbeAdapter()
	require.NoError(t, probe.Health(t.Context(), server.URL+"/_stcore/health"))

	err := probe.Health(t.Context(), server.URL+"/other")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health check failed")
}
