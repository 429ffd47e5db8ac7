package model

// Kind is the URI dialect an endpoint was parsed from.
type Kind string

const (
	KindVLESS       Kind = "vless"
	KindVMess       Kind = "vmess"
	KindTrojan      Kind = "trojan"
	KindShadowsocks Kind = "shadowsocks"
)

const DefaultPort = 443

// Endpoint is the dialect-agnostic description of one remote proxy.
// Fields that do not apply to the endpoint's kind stay at their defaults.
type Endpoint struct {
	kind Kind

	// --- Identity ---
	Raw  string `json:"raw"`
	Name string `json:"name,omitempty"`

	Server string `json:"server"`
	Port   int    `json:"port"`

	UUID       string `json:"uuid,omitempty"`     // vless, vmess
	Password   string `json:"password,omitempty"` // trojan, shadowsocks
	Method     string `json:"method,omitempty"`   // shadowsocks
	Encryption string `json:"encryption,omitempty"`
	AlterID    int    `json:"alter_id"` // vmess

	// --- Transport ---
	Network         string `json:"network"` // tcp, ws, grpc, quic
	Path            string `json:"path"`
	Host            string `json:"host,omitempty"`
	HeaderType      string `json:"header_type,omitempty"`
	GRPCServiceName string `json:"grpc_service_name,omitempty"`

	// --- Security ---
	Security    string `json:"security"` // none, tls, reality
	SNI         string `json:"sni,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	ALPN        string `json:"alpn,omitempty"`
	Flow        string `json:"flow,omitempty"`
	XTLS        bool   `json:"xtls,omitempty"`
	PublicKey   string `json:"public_key,omitempty"`
	ShortID     string `json:"short_id,omitempty"`
}

// NewEndpoint returns an endpoint of the given kind with every field at its
// default. The kind cannot be changed afterwards.
func NewEndpoint(kind Kind, raw string) *Endpoint {
	return &Endpoint{
		kind:       kind,
		Raw:        raw,
		Port:       DefaultPort,
		Method:     "auto",
		Encryption: "none",
		Network:    "tcp",
		Path:       "/",
		Security:   "none",
	}
}

func (e *Endpoint) Kind() Kind { return e.kind }

// Empty reports whether parsing left the endpoint without a server address,
// which is how malformed input surfaces downstream.
func (e *Endpoint) Empty() bool { return e.Server == "" }
