package render

import (
	"encoding/json"
	"fmt"

	"proxyprobe/internal/model"
)

const singBoxProxyTag = "proxy"

// SingBoxConfig is the sing-box counterpart of Document: one local mixed
// listener routed to one outbound.
type SingBoxConfig struct {
	Log       SingBoxLog       `json:"log"`
	Inbounds  []SingBoxInbound `json:"inbounds"`
	Outbounds []any            `json:"outbounds"`
	Route     SingBoxRoute     `json:"route"`
}

type SingBoxLog struct {
	Disabled bool `json:"disabled"`
}

type SingBoxInbound struct {
	Type       string `json:"type"`
	Tag        string `json:"tag"`
	Listen     string `json:"listen"`
	ListenPort int    `json:"listen_port"`
}

type SingBoxRoute struct {
	Final string `json:"final"`
}

type SingBoxOutbound struct {
	Type       string `json:"type"`
	Tag        string `json:"tag"`
	Server     string `json:"server"`
	ServerPort int    `json:"server_port"`

	UUID     string `json:"uuid,omitempty"`
	Flow     string `json:"flow,omitempty"`
	AlterID  int    `json:"alter_id,omitempty"`
	Security string `json:"security,omitempty"`
	Password string `json:"password,omitempty"`
	Method   string `json:"method,omitempty"`

	TLS       *SingBoxTLS       `json:"tls,omitempty"`
	Transport *SingBoxTransport `json:"transport,omitempty"`
}

type SingBoxTLS struct {
	Enabled    bool            `json:"enabled"`
	ServerName string          `json:"server_name,omitempty"`
	Insecure   bool            `json:"insecure"`
	ALPN       []string        `json:"alpn,omitempty"`
	UTLS       *SingBoxUTLS    `json:"utls,omitempty"`
	Reality    *SingBoxReality `json:"reality,omitempty"`
}

type SingBoxUTLS struct {
	Enabled     bool   `json:"enabled"`
	Fingerprint string `json:"fingerprint"`
}

type SingBoxReality struct {
	Enabled   bool   `json:"enabled"`
	PublicKey string `json:"public_key"`
	ShortID   string `json:"short_id,omitempty"`
}

type SingBoxTransport struct {
	Type        string            `json:"type"`
	Path        string            `json:"path,omitempty"`
	Host        []string          `json:"host,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	ServiceName string            `json:"service_name,omitempty"`
}

// SingBox builds a sing-box document for ep. The inbound is a mixed
// (SOCKS5 + HTTP) listener on 127.0.0.1:port; anything not matched by the
// route falls through to the proxy outbound.
func SingBox(ep *model.Endpoint, port int) (*SingBoxConfig, error) {
	switch ep.Kind() {
	case model.KindVLESS, model.KindVMess, model.KindTrojan, model.KindShadowsocks:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ep.Kind())
	}

	return &SingBoxConfig{
		Log: SingBoxLog{Disabled: true},
		Inbounds: []SingBoxInbound{{
			Type:       "mixed",
			Tag:        fmt.Sprintf("mixed-%d", port),
			Listen:     "127.0.0.1",
			ListenPort: port,
		}},
		Outbounds: []any{
			singBoxOutbound(ep),
			map[string]string{"type": "direct", "tag": "direct"},
		},
		Route: SingBoxRoute{Final: singBoxProxyTag},
	}, nil
}

func singBoxOutbound(ep *model.Endpoint) SingBoxOutbound {
	out := SingBoxOutbound{
		// the four kinds share their names with sing-box outbound types
		Type:       string(ep.Kind()),
		Tag:        singBoxProxyTag,
		Server:     ep.Server,
		ServerPort: ep.Port,
		TLS:        singBoxTLS(ep),
		Transport:  singBoxTransport(ep),
	}

	switch ep.Kind() {
	case model.KindVLESS:
		out.UUID = ep.UUID
		out.Flow = ep.Flow
	case model.KindVMess:
		out.UUID = ep.UUID
		out.AlterID = ep.AlterID
		out.Security = "auto"
	case model.KindTrojan:
		out.Password = ep.Password
	case model.KindShadowsocks:
		out.Method = ep.Method
		out.Password = ep.Password
		// shadowsocks carries no tls or v2ray transport
		out.TLS, out.Transport = nil, nil
	}
	return out
}

func singBoxTLS(ep *model.Endpoint) *SingBoxTLS {
	if ep.Security == "none" {
		return nil
	}
	tls := &SingBoxTLS{
		Enabled:    true,
		ServerName: tlsServerName(ep),
		Insecure:   true,
	}
	if ep.ALPN != "" {
		tls.ALPN = []string{ep.ALPN}
	}
	if ep.Fingerprint != "" || ep.Security == "reality" {
		tls.UTLS = &SingBoxUTLS{Enabled: true, Fingerprint: fingerprint(ep)}
	}
	if ep.Security == "reality" {
		tls.ServerName = ep.SNI
		tls.Insecure = false
		tls.Reality = &SingBoxReality{
			Enabled:   true,
			PublicKey: ep.PublicKey,
			ShortID:   ep.ShortID,
		}
	}
	return tls
}

func singBoxTransport(ep *model.Endpoint) *SingBoxTransport {
	switch {
	case ep.Network == "tcp" && ep.HeaderType == "http":
		t := &SingBoxTransport{Type: "http", Path: ep.Path}
		if ep.Host != "" {
			t.Host = []string{ep.Host}
		}
		return t
	case ep.Network == "ws":
		t := &SingBoxTransport{Type: "ws", Path: ep.Path}
		if ep.Host != "" {
			t.Headers = map[string]string{"Host": ep.Host}
		}
		return t
	case ep.Network == "grpc":
		return &SingBoxTransport{Type: "grpc", ServiceName: ep.GRPCServiceName}
	case ep.Network == "quic":
		return &SingBoxTransport{Type: "quic"}
	}
	return nil
}

func SingBoxJSON(ep *model.Endpoint, port int) ([]byte, error) {
	cfg, err := SingBox(ep, port)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(cfg, "", "  ")
}
