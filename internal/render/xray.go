package render

import (
	"fmt"

	"proxyprobe/internal/model"
)

// Document is the subset of the Xray JSON configuration a trial needs:
// one SOCKS inbound and one outbound towards the endpoint.
type Document struct {
	Inbounds  []Inbound  `json:"inbounds"`
	Outbounds []Outbound `json:"outbounds"`
}

type Inbound struct {
	Port     int             `json:"port"`
	Protocol string          `json:"protocol"`
	Settings InboundSettings `json:"settings"`
}

type InboundSettings struct {
	UDP bool `json:"udp"`
}

type Outbound struct {
	Protocol       string           `json:"protocol"`
	Settings       OutboundSettings `json:"settings"`
	StreamSettings StreamSettings   `json:"streamSettings"`
}

type OutboundSettings struct {
	Vnext   []VnextServer `json:"vnext,omitempty"`
	Servers []Server      `json:"servers,omitempty"`
}

type VnextServer struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
	Users   []any  `json:"users"`
}

type VLESSUser struct {
	ID         string `json:"id"`
	Encryption string `json:"encryption"`
	Flow       string `json:"flow"`
}

type VMessUser struct {
	ID       string `json:"id"`
	AlterID  int    `json:"alterId"`
	Security string `json:"security"`
}

type Server struct {
	Address  string `json:"address"`
	Port     int    `json:"port"`
	Method   string `json:"method,omitempty"`
	Password string `json:"password"`
}

type StreamSettings struct {
	Network         string           `json:"network"`
	Security        string           `json:"security"`
	TLSSettings     *TLSSettings     `json:"tlsSettings,omitempty"`
	XTLSSettings    *XTLSSettings    `json:"xtlsSettings,omitempty"`
	RealitySettings *RealitySettings `json:"realitySettings,omitempty"`
	TCPSettings     *TCPSettings     `json:"tcpSettings,omitempty"`
	WSSettings      *WSSettings      `json:"wsSettings,omitempty"`
	GRPCSettings    *GRPCSettings    `json:"grpcSettings,omitempty"`
	QUICSettings    *QUICSettings    `json:"quicSettings,omitempty"`
}

type TLSSettings struct {
	ServerName  string   `json:"serverName"`
	Fingerprint string   `json:"fingerprint"`
	ALPN        []string `json:"alpn"`
}

type XTLSSettings struct {
	ServerName string `json:"serverName"`
}

type RealitySettings struct {
	PublicKey   string `json:"publicKey"`
	ShortID     string `json:"shortId"`
	ServerName  string `json:"serverName"`
	Fingerprint string `json:"fingerprint"`
}

type TCPSettings struct {
	Header TCPHeader `json:"header"`
}

type TCPHeader struct {
	Type    string      `json:"type"`
	Request HTTPRequest `json:"request"`
}

type HTTPRequest struct {
	Version string         `json:"version"`
	Method  string         `json:"method"`
	Path    []string       `json:"path"`
	Headers map[string]any `json:"headers"`
}

type WSSettings struct {
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers"`
}

type GRPCSettings struct {
	ServiceName string `json:"serviceName"`
	MultiMode   bool   `json:"multiMode"`
}

type QUICSettings struct {
	Security string     `json:"security"`
	Key      string     `json:"key"`
	Header   QUICHeader `json:"header"`
}

type QUICHeader struct {
	Type string `json:"type"`
}

const defaultFingerprint = "firefox"

// Some upstreams allowlist by header fingerprint; keep these values as is.
var camouflageUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/53.0.2785.143 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 10_0_2 like Mac OS X) AppleWebKit/601.1 (KHTML, like Gecko) CriOS/53.0.2785.109 Mobile/14A456 Safari/601.1.46",
}

// Xray builds the engine document for ep with a SOCKS inbound on port.
// It is pure; writing the document somewhere is the caller's job.
func Xray(ep *model.Endpoint, port int) (*Document, error) {
	switch ep.Kind() {
	case model.KindVLESS, model.KindVMess, model.KindTrojan, model.KindShadowsocks:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ep.Kind())
	}

	out := Outbound{
		Protocol: string(ep.Kind()),
		StreamSettings: StreamSettings{
			Network:  ep.Network,
			Security: ep.Security,
		},
	}
	applyTLS(&out.StreamSettings, ep)
	applyXTLS(&out.StreamSettings, ep)
	applyReality(&out.StreamSettings, ep)
	applyTransport(&out.StreamSettings, ep)
	applyServerSettings(&out.Settings, ep)

	return &Document{
		Inbounds: []Inbound{{
			Port:     port,
			Protocol: "socks",
			Settings: InboundSettings{UDP: true},
		}},
		Outbounds: []Outbound{out},
	}, nil
}

func tlsServerName(ep *model.Endpoint) string {
	switch {
	case ep.SNI != "":
		return ep.SNI
	case ep.Host != "":
		return ep.Host
	}
	return ep.Server
}

func fingerprint(ep *model.Endpoint) string {
	if ep.Fingerprint != "" {
		return ep.Fingerprint
	}
	return defaultFingerprint
}

func applyTLS(s *StreamSettings, ep *model.Endpoint) {
	if ep.Security == "none" {
		return
	}
	alpn := []string{}
	if ep.ALPN != "" {
		alpn = append(alpn, ep.ALPN)
	}
	s.TLSSettings = &TLSSettings{
		ServerName:  tlsServerName(ep),
		Fingerprint: fingerprint(ep),
		ALPN:        alpn,
	}
}

func applyXTLS(s *StreamSettings, ep *model.Endpoint) {
	if !ep.XTLS {
		return
	}
	s.XTLSSettings = &XTLSSettings{ServerName: tlsServerName(ep)}
}

func applyReality(s *StreamSettings, ep *model.Endpoint) {
	if ep.Security != "reality" {
		return
	}
	// sni only, no host/server fallback
	s.RealitySettings = &RealitySettings{
		PublicKey:   ep.PublicKey,
		ShortID:     ep.ShortID,
		ServerName:  ep.SNI,
		Fingerprint: fingerprint(ep),
	}
}

func applyTransport(s *StreamSettings, ep *model.Endpoint) {
	switch {
	case ep.Network == "tcp" && ep.HeaderType == "http":
		s.TCPSettings = httpCamouflage(ep)
	case ep.Network == "ws":
		s.WSSettings = &WSSettings{
			Path:    ep.Path,
			Headers: map[string]string{"Host": ep.Host},
		}
	case ep.Network == "grpc":
		s.GRPCSettings = &GRPCSettings{ServiceName: ep.GRPCServiceName}
	case ep.Network == "quic":
		s.QUICSettings = &QUICSettings{
			Security: ep.Security,
			Key:      ep.Password,
			Header:   QUICHeader{Type: ep.HeaderType},
		}
	}
}

func httpCamouflage(ep *model.Endpoint) *TCPSettings {
	path := []string{"/"}
	if ep.Path != "" {
		path = []string{ep.Path}
	}
	host := []string{}
	if ep.Host != "" {
		host = append(host, ep.Host)
	}
	return &TCPSettings{Header: TCPHeader{
		Type: "http",
		Request: HTTPRequest{
			Version: "1.1",
			Method:  "GET",
			Path:    path,
			Headers: map[string]any{
				"Host":            host,
				"User-Agent":      append([]string(nil), camouflageUserAgents...),
				"Accept-Encoding": []string{"gzip, deflate"},
				"Connection":      []string{"keep-alive"},
				"Pragma":          "no-cache",
			},
		},
	}}
}

func applyServerSettings(s *OutboundSettings, ep *model.Endpoint) {
	switch ep.Kind() {
	case model.KindVLESS:
		s.Vnext = []VnextServer{{
			Address: ep.Server,
			Port:    ep.Port,
			Users: []any{VLESSUser{
				ID:         ep.UUID,
				Encryption: ep.Encryption,
				Flow:       ep.Flow,
			}},
		}}
	case model.KindVMess:
		s.Vnext = []VnextServer{{
			Address: ep.Server,
			Port:    ep.Port,
			Users: []any{VMessUser{
				ID:       ep.UUID,
				AlterID:  ep.AlterID,
				Security: "auto",
			}},
		}}
	case model.KindTrojan:
		s.Servers = []Server{{
			Address:  ep.Server,
			Port:     ep.Port,
			Password: ep.Password,
		}}
	case model.KindShadowsocks:
		s.Servers = []Server{{
			Address:  ep.Server,
			Port:     ep.Port,
			Method:   ep.Method,
			Password: ep.Password,
		}}
	}
}
