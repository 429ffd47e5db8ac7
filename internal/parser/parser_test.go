package parser

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxyprobe/internal/model"
)

func TestNormalizeVLESS(t *testing.T) {
	ep := Normalize("vless://uuid-1@example.com:8443?type=ws&path=%2Fabc&security=tls&sni=example.com")

	assert.Equal(t, model.KindVLESS, ep.Kind())
	assert.Equal(t, "example.com", ep.Server)
	assert.Equal(t, 8443, ep.Port)
	assert.Equal(t, "uuid-1", ep.UUID)
	assert.Equal(t, "ws", ep.Network)
	assert.Equal(t, "/abc", ep.Path)
	assert.Equal(t, "tls", ep.Security)
	assert.Equal(t, "example.com", ep.SNI)
	assert.Equal(t, "none", ep.Encryption)
}

func TestNormalizeVLESSReality(t *testing.T) {
	raw := "vless://id@1.2.3.4:443?security=reality&pbk=KEY&sid=ab12&fp=chrome&flow=xtls-rprx-vision&sni=www.microsoft.com&type=grpc&serviceName=svc&xtls=TRUE#my%20node"
	ep := Normalize(raw)

	assert.Equal(t, "reality", ep.Security)
	assert.Equal(t, "KEY", ep.PublicKey)
	assert.Equal(t, "ab12", ep.ShortID)
	assert.Equal(t, "chrome", ep.Fingerprint)
	assert.Equal(t, "xtls-rprx-vision", ep.Flow)
	assert.Equal(t, "grpc", ep.Network)
	assert.Equal(t, "svc", ep.GRPCServiceName)
	assert.True(t, ep.XTLS)
	assert.Equal(t, "my node", ep.Name)
	assert.Equal(t, raw, ep.Raw)
}

func TestNormalizePortDefaults(t *testing.T) {
	cases := []struct {
		raw  string
		host string
		port int
	}{
		{"vless://u@example.com:2053?type=tcp", "example.com", 2053},
		{"vless://u@example.com?type=tcp", "example.com", 443},
		{"vless://u@example.com:abc?type=ws", "example.com", 443},
		{"trojan://pw@example.org:8443", "example.org", 8443},
		{"trojan://pw@example.org", "example.org", 443},
		{"trojan://pw@example.org:99999", "example.org", 443},
		{"vless://u@[2001:db8::1]:8080", "2001:db8::1", 8080},
	}
	for _, c := range cases {
		ep := Normalize(c.raw)
		assert.Equal(t, c.host, ep.Server, c.raw)
		assert.Equal(t, c.port, ep.Port, c.raw)
	}
}

func TestNormalizeBlankQueryKeepsDefaults(t *testing.T) {
	ep := Normalize("trojan://secret@example.org:443?type=&path=&security=tls")

	assert.Equal(t, model.KindTrojan, ep.Kind())
	assert.Equal(t, "secret", ep.Password)
	assert.Equal(t, "tcp", ep.Network)
	assert.Equal(t, "/", ep.Path)
	assert.Equal(t, "tls", ep.Security)
}

func TestNormalizeMissingAt(t *testing.T) {
	ep := Normalize("vless://example.com:443?type=ws")

	assert.Equal(t, model.KindVLESS, ep.Kind())
	assert.True(t, ep.Empty())
	assert.Equal(t, "", ep.UUID)
	assert.Equal(t, 443, ep.Port)
	assert.Equal(t, "tcp", ep.Network)
}

func TestNormalizeVMess(t *testing.T) {
	payload := `{"add":"1.2.3.4","port":"443","id":"u1","net":"tcp"}`
	ep := Normalize("vmess://" + base64.StdEncoding.EncodeToString([]byte(payload)))

	assert.Equal(t, model.KindVMess, ep.Kind())
	assert.Equal(t, "1.2.3.4", ep.Server)
	assert.Equal(t, 443, ep.Port)
	assert.Equal(t, "u1", ep.UUID)
	assert.Equal(t, "tcp", ep.Network)
	assert.Equal(t, "none", ep.Security)
	assert.Equal(t, "/", ep.Path)
	assert.Equal(t, 0, ep.AlterID)
}

func TestNormalizeVMessFields(t *testing.T) {
	payload := `{"ps":"hk-01","add":"vm.example.com","port":2096,"id":"u2","aid":"4","net":"ws","path":"/ray","host":"cdn.example.com","tls":"tls","type":"none"}`
	// padding stripped on purpose
	ep := Normalize("vmess://" + base64.RawStdEncoding.EncodeToString([]byte(payload)))

	assert.Equal(t, "hk-01", ep.Name)
	assert.Equal(t, "vm.example.com", ep.Server)
	assert.Equal(t, 2096, ep.Port)
	assert.Equal(t, 4, ep.AlterID)
	assert.Equal(t, "ws", ep.Network)
	assert.Equal(t, "/ray", ep.Path)
	assert.Equal(t, "cdn.example.com", ep.Host)
	assert.Equal(t, "tls", ep.Security)
	assert.Equal(t, "none", ep.HeaderType)
}

func TestNormalizeVMessTLSExactMatch(t *testing.T) {
	for _, v := range []string{`"1"`, `true`, `"TLS"`, `"xtls"`, `""`} {
		payload := `{"add":"1.2.3.4","port":"443","id":"u1","tls":` + v + `}`
		ep := Normalize("vmess://" + base64.StdEncoding.EncodeToString([]byte(payload)))
		assert.Equal(t, "none", ep.Security, v)
	}
}

func TestNormalizeVMessMalformed(t *testing.T) {
	for _, raw := range []string{
		"vmess://",
		"vmess://%%%not-base64%%%",
		"vmess://" + base64.StdEncoding.EncodeToString([]byte("not json")),
		"vmess://" + base64.StdEncoding.EncodeToString([]byte(`["array"]`)),
		"vmess://" + base64.StdEncoding.EncodeToString([]byte(`{"add":"h","port":"abc","aid":"x"}`)),
	} {
		ep := Normalize(raw)
		assert.Equal(t, model.KindVMess, ep.Kind(), raw)
		assert.Equal(t, 443, ep.Port, raw)
		assert.Equal(t, 0, ep.AlterID, raw)
	}
}

func TestNormalizeShadowsocks(t *testing.T) {
	t.Run("userinfo", func(t *testing.T) {
		cred := base64.RawURLEncoding.EncodeToString([]byte("aes-256-gcm:s3cr3t"))
		ep := Normalize("ss://" + cred + "@1.2.3.4:8388#node-a")

		assert.Equal(t, model.KindShadowsocks, ep.Kind())
		assert.Equal(t, "aes-256-gcm", ep.Method)
		assert.Equal(t, "s3cr3t", ep.Password)
		assert.Equal(t, "1.2.3.4", ep.Server)
		assert.Equal(t, 8388, ep.Port)
		assert.Equal(t, "node-a", ep.Name)
	})

	t.Run("whole", func(t *testing.T) {
		enc := base64.StdEncoding.EncodeToString([]byte("chacha20-ietf-poly1305:pw:with:colons@5.6.7.8:9000"))
		ep := Normalize("ss://" + enc + "#node-b")

		assert.Equal(t, "chacha20-ietf-poly1305", ep.Method)
		assert.Equal(t, "pw:with:colons", ep.Password)
		assert.Equal(t, "5.6.7.8", ep.Server)
		assert.Equal(t, 9000, ep.Port)
		assert.Equal(t, "node-b", ep.Name)
	})

	t.Run("userinfo falls back to whole", func(t *testing.T) {
		// left side decodes but has no colon
		enc := base64.StdEncoding.EncodeToString([]byte("nocolon"))
		ep := Normalize("ss://" + enc + "@1.1.1.1:80")
		assert.True(t, ep.Empty())
	})

	t.Run("unparseable", func(t *testing.T) {
		ep := Normalize("ss://!!!@###")
		assert.Equal(t, model.KindShadowsocks, ep.Kind())
		assert.Equal(t, "", ep.Password)
		assert.Equal(t, "", ep.UUID)
		assert.True(t, ep.Empty())
	})
}

func TestNormalizeIsTotal(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"\xff\xfe\x00garbage",
		"://",
		"vless://",
		"trojan://@",
		"ss://",
		"ss://@",
		"vmess://\x00\x01",
		"http://example.com",
		"vless://u@%zz:443",
	}
	for _, raw := range inputs {
		require.NotPanics(t, func() {
			ep := Normalize(raw)
			require.NotNil(t, ep)
		}, raw)
	}
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf("SS://abc")
	assert.True(t, ok)
	assert.Equal(t, model.KindShadowsocks, kind)

	kind, ok = KindOf("hysteria2://pw@host:443")
	assert.False(t, ok)
	assert.Equal(t, model.Kind("hysteria2"), kind)

	_, ok = KindOf("plain text")
	assert.False(t, ok)
}

func TestDecodeBase64(t *testing.T) {
	out, err := DecodeBase64(base64.RawStdEncoding.EncodeToString([]byte("hello?>")))
	require.NoError(t, err)
	assert.Equal(t, "hello?>", string(out))

	out, err = DecodeBase64(base64.RawURLEncoding.EncodeToString([]byte("hello?>")))
	require.NoError(t, err)
	assert.Equal(t, "hello?>", string(out))

	_, err = DecodeBase64(base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0xfd}))
	assert.Error(t, err)

	_, err = DecodeBase64("vless://not-base64")
	assert.Error(t, err)
}

func TestNormalizeKeepsBadlyEscapedQueryValues(t *testing.T) {
	ep := Normalize("vless://u@h.example:443?type=ws&path=%zz&sni=a%2Eb&host=%G1#n")

	assert.Equal(t, "ws", ep.Network)
	assert.Equal(t, "%zz", ep.Path)
	assert.Equal(t, "a.b", ep.SNI)
	assert.Equal(t, "%G1", ep.Host)
	assert.Equal(t, "h.example", ep.Server)
	assert.Equal(t, 443, ep.Port)
}

func TestParseQuery(t *testing.T) {
	q := parseQuery("a=1&b=%2Fx&c=%zz&&d&e=two+words&a=2")
	assert.Equal(t, []string{"1", "2"}, q["a"])
	assert.Equal(t, "/x", q.Get("b"))
	assert.Equal(t, "%zz", q.Get("c"))
	assert.Equal(t, "", q.Get("d"))
	assert.Equal(t, "two words", q.Get("e"))
	assert.Empty(t, parseQuery(""))
}
