package filter

import (
	"crypto/tls"
	"log/slog"
	"net"
	"strconv"
	"time"

	"proxyprobe/internal/model"
)

// Pipeline runs cheap reachability checks against an endpoint's server
// before an engine process is spent on it.
type Pipeline struct {
	Timeout time.Duration
}

func NewPipeline(timeout time.Duration) *Pipeline {
	return &Pipeline{Timeout: timeout}
}

// Check returns false as soon as one stage fails.
func (f *Pipeline) Check(ep *model.Endpoint) bool {
	if ep.Empty() || ep.Port == 0 {
		return false
	}

	target := net.JoinHostPort(ep.Server, strconv.Itoa(ep.Port))
	log := slog.With("target", target, "kind", ep.Kind())

	// 1. TCP connectivity
	start := time.Now()
	if !f.checkTCP(target) {
		log.Debug("tcp_connect_failed", "duration", time.Since(start))
		return false
	}

	// 2. TLS handshake, only where the endpoint itself speaks TLS
	if ep.Security != "tls" && ep.Security != "reality" {
		log.Debug("network_checks_passed", "note", "tls_skipped")
		return true
	}

	sni := ep.SNI
	if sni == "" {
		sni = ep.Host
	}
	if sni == "" {
		sni = ep.Server
	}

	startTLS := time.Now()
	if !f.checkTLS(target, sni) {
		log.Debug("tls_handshake_failed", "sni", sni, "duration", time.Since(startTLS))
		return false
	}
	log.Debug("network_checks_passed", "duration", time.Since(start))
	return true
}

func (f *Pipeline) checkTCP(address string) bool {
	conn, err := net.DialTimeout("tcp", address, f.Timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (f *Pipeline) checkTLS(address, sni string) bool {
	dialer := &net.Dialer{Timeout: f.Timeout}

	// Self-signed and Reality servers are common; only the handshake matters.
	conf := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         sni,
	}

	conn, err := tls.DialWithDialer(dialer, "tcp", address, conf)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
