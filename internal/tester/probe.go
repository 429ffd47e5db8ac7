package tester

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// ErrConnect marks failures to establish the tunnel through the local
// SOCKS listener, as opposed to failures after the connection is up.
var ErrConnect = errors.New("proxy connect failed")

const maxProbeBody = 64 * 1024

// Prober fetches an echo-my-IP endpoint through the SOCKS5 listener on
// 127.0.0.1:<port>. Host names are resolved by the proxy.
type Prober struct {
	URL            string
	UserAgent      string
	ConnectTimeout time.Duration
	// Timeout bounds the whole request and must exceed ConnectTimeout.
	Timeout time.Duration
}

// Probe returns the trimmed response body.
func (p *Prober) Probe(ctx context.Context, port int) (string, error) {
	socks, err := proxy.SOCKS5("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), nil,
		&net.Dialer{Timeout: p.ConnectTimeout})
	if err != nil {
		return "", err
	}
	dialer, ok := socks.(proxy.ContextDialer)
	if !ok {
		return "", errors.New("socks5 dialer does not support contexts")
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			ctx, cancel := context.WithTimeout(ctx, p.ConnectTimeout)
			defer cancel()
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrConnect, err)
			}
			return conn, nil
		},
		DisableKeepAlives:   true,
		TLSHandshakeTimeout: p.ConnectTimeout,
	}
	defer transport.CloseIdleConnections()

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return "", err
	}
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}

	resp, err := (&http.Client{Transport: transport}).Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// describeProbeError maps a probe error to a failure message. Connect-level
// failures and timeouts get distinct messages.
func describeProbeError(err error) string {
	var netErr net.Error
	timeout := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())

	switch {
	case errors.Is(err, ErrConnect) && timeout:
		return "Connect timeout"
	case timeout:
		return "Connection timeout"
	}
	return "Connection failed: " + err.Error()
}
