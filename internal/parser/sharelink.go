package parser

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"proxyprobe/internal/model"
)

// parseShareLink handles the `identity@host:port?query#name` shape shared by
// vless and trojan. Query parameters only overwrite a default when present
// and non-blank.
func parseShareLink(ep *model.Endpoint, body string) {
	identity, serverInfo, found := strings.Cut(body, "@")
	if !found {
		return
	}

	host, port, query, fragment := splitServerInfo(serverInfo)
	ep.Server = host
	ep.Port = port
	ep.Name = fragment

	switch ep.Kind() {
	case model.KindVLESS:
		ep.UUID = identity
	case model.KindTrojan:
		ep.Password = identity
	}

	overlay(query, "type", &ep.Network)
	overlay(query, "path", &ep.Path)
	overlay(query, "security", &ep.Security)
	overlay(query, "encryption", &ep.Encryption)
	overlay(query, "host", &ep.Host)
	overlay(query, "sni", &ep.SNI)
	overlay(query, "fp", &ep.Fingerprint)
	overlay(query, "alpn", &ep.ALPN)
	overlay(query, "flow", &ep.Flow)
	overlay(query, "headerType", &ep.HeaderType)
	overlay(query, "serviceName", &ep.GRPCServiceName)
	overlay(query, "pbk", &ep.PublicKey)
	overlay(query, "sid", &ep.ShortID)
	if v := query.Get("xtls"); v != "" {
		ep.XTLS = strings.EqualFold(v, "true")
	}
}

func overlay(q url.Values, key string, dst *string) {
	if v := q.Get(key); v != "" {
		*dst = v
	}
}

// splitServerInfo parses `host:port?query#fragment` by lending it a synthetic
// scheme so the standard URL parser applies. A missing or non-numeric port
// falls back to the default instead of failing the parse.
func splitServerInfo(s string) (host string, port int, query url.Values, fragment string) {
	if u, err := url.Parse("https://" + s); err == nil {
		return u.Hostname(), parsePort(u.Port()), parseQuery(u.RawQuery), u.Fragment
	}

	// url.Parse rejects non-numeric ports; split by hand.
	rest, fragment, _ := strings.Cut(s, "#")
	if f, err := url.PathUnescape(fragment); err == nil {
		fragment = f
	}
	rest, rawQuery, _ := strings.Cut(rest, "?")
	authority, _, _ := strings.Cut(rest, "/")
	query = parseQuery(rawQuery)

	h, p, err := net.SplitHostPort(authority)
	if err != nil {
		return strings.Trim(authority, "[]"), model.DefaultPort, query, fragment
	}
	return h, parsePort(p), query, fragment
}

// parseQuery is url.ParseQuery except that a key or value with a bad
// percent escape keeps its raw text instead of dropping the pair.
func parseQuery(raw string) url.Values {
	q := url.Values{}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		q.Add(unescapeOrRaw(key), unescapeOrRaw(value))
	}
	return q
}

func unescapeOrRaw(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

func parsePort(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 || n > 65535 {
		return model.DefaultPort
	}
	return n
}
