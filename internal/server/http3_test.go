package server

import (
	"context"
	"crypto/tls"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSelfSignedTLS(t *testing.T) {
	cfg, err := SelfSignedTLS([]string{"localhost", "127.0.0.1"}, time.Hour)
	require.NoError(t, err)
	require.Len(t, cfg.Certificates, 1)
	require.Equal(t, uint16(tls.VersionTLS13), cfg.MinVersion)

	_, err = ServerTLS("127.0.0.1:0", "", "")
	require.NoError(t, err)

	_, err = ServerTLS("no-port", "", "")
	require.Error(t, err)

	_, err = LoadTLS("missing.pem", "missing.key")
	require.Error(t, err)
}

func TestHTTP3Loopback(t *testing.T) {
	srvTLS, err := SelfSignedTLS([]string{"127.0.0.1"}, time.Hour)
	require.NoError(t, err)

	s := NewHTTP3Server("127.0.0.1:0", srvTLS, New(Options{}))
	addr, err := s.Start()
	if err != nil {
		t.Skip("http3 not supported here:", err)
	}
	defer s.Stop()

	c := NewClient(addr, &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS13}, 5*time.Second)
	defer c.Close()

	ctx := context.Background()
	resp, err := c.Run(ctx, RunRequest{Source: counter})
	if err != nil {
		t.Skip("http3 dial failed:", err)
	}
	require.Equal(t, "012", resp.Output)
	require.NotEmpty(t, resp.ID)

	_, err = c.Check(ctx, RunRequest{Source: "int main() { return true; }"})
	var remote *RemoteError
	require.True(t, errors.As(err, &remote), "got %v", err)
	require.Equal(t, 422, remote.Status)
	require.Equal(t, "VALIDATION", remote.Body.Error.Category)
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	srvTLS, err := SelfSignedTLS([]string{"127.0.0.1"}, time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	ready := make(chan string, 1)
	go func() {
		done <- ListenAndServe(ctx, "127.0.0.1:0", srvTLS, New(Options{}), func(a string) { ready <- a })
	}()

	select {
	case <-ready:
	case err := <-done:
		t.Skip("http3 not supported here:", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
