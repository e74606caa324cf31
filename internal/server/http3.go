package server

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/quic-go/quic-go/http3"
	"golang.org/x/sync/errgroup"
)

// HTTP3Server serves a handler over QUIC.
type HTTP3Server struct {
	srv  *http3.Server
	addr string
	pc   net.PacketConn
	done chan struct{}
}

// NewHTTP3Server creates a server for addr. Use ":0" for an ephemeral port.
func NewHTTP3Server(addr string, tlsCfg *tls.Config, h http.Handler) *HTTP3Server {
	return &HTTP3Server{
		srv:  &http3.Server{Addr: addr, TLSConfig: tlsCfg, Handler: h},
		addr: addr,
	}
}

// Start binds the UDP socket and serves in the background. It returns the
// bound address.
func (s *HTTP3Server) Start() (string, error) {
	pc, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return "", errors.Wrapf(err, "listen on %s", s.addr)
	}
	s.pc = pc
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		_ = s.srv.Serve(pc)
	}()

	return pc.LocalAddr().String(), nil
}

// Stop closes the server and waits briefly for the serve loop to exit.
func (s *HTTP3Server) Stop() error {
	if s.pc == nil {
		return nil
	}
	err := s.srv.Close()
	_ = s.pc.Close()

	select {
	case <-s.done:
	case <-time.After(time.Second):
	}
	return err
}

// ListenAndServe runs h on addr until ctx is cancelled. ready, if not
// nil, receives the bound address once the socket is open.
func ListenAndServe(ctx context.Context, addr string, tlsCfg *tls.Config, h http.Handler, ready func(string)) error {
	s := NewHTTP3Server(addr, tlsCfg, h)
	bound, err := s.Start()
	if err != nil {
		return err
	}
	if ready != nil {
		ready(bound)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-s.done
		if ctx.Err() == nil {
			return errors.Errorf("http3 server on %s stopped", bound)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return s.Stop()
	})
	return g.Wait()
}

// Client talks to a running service over HTTP/3.
type Client struct {
	BaseURL string
	http    *http.Client
}

// NewClient creates a client for the service at addr (host:port).
func NewClient(addr string, tlsCfg *tls.Config, timeout time.Duration) *Client {
	return &Client{
		BaseURL: "https://" + addr,
		http: &http.Client{
			Transport: &http3.Transport{TLSClientConfig: tlsCfg},
			Timeout:   timeout,
		},
	}
}

// Close releases the QUIC connections of the client.
func (c *Client) Close() error {
	if tr, ok := c.http.Transport.(*http3.Transport); ok {
		return tr.Close()
	}
	return nil
}

// RemoteError is a service-side failure reported by the client.
type RemoteError struct {
	Status int
	Body   ErrorResponse
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s error [%s] (request %s): %s",
		e.Body.Error.Category, e.Body.Error.Code, e.Body.ID, e.Body.Error.Message)
}

// Run sends source to POST /run.
func (c *Client) Run(ctx context.Context, req RunRequest) (*RunResponse, error) {
	var out RunResponse
	if err := c.post(ctx, "/run", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Check sends source to POST /check.
func (c *Client) Check(ctx context.Context, req RunRequest) (*CheckResponse, error) {
	var out CheckResponse
	if err := c.post(ctx, "/check", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return errors.Wrapf(err, "post %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		rerr := &RemoteError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(&rerr.Body); err != nil {
			return errors.Errorf("post %s: unexpected status %s", path, resp.Status)
		}
		return rerr
	}
	return errors.Wrapf(json.NewDecoder(resp.Body).Decode(out), "decode %s response", path)
}
