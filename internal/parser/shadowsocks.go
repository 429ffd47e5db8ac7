package parser

import (
	"net/url"
	"strings"

	"proxyprobe/internal/model"
)

// parseShadowsocks accepts two layouts:
//
//	ss://base64(method:password)@host:port#name
//	ss://base64(method:password@host:port)#name
//
// The first is tried first; on any failure the second is attempted.
func parseShadowsocks(ep *model.Endpoint, body string) {
	if parseSSUserInfo(ep, body) {
		return
	}
	parseSSWhole(ep, body)
}

func parseSSUserInfo(ep *model.Endpoint, body string) bool {
	userInfo, serverInfo, found := strings.Cut(body, "@")
	if !found {
		return false
	}
	if u, err := url.PathUnescape(userInfo); err == nil {
		userInfo = u
	}
	decoded, err := DecodeBase64(userInfo)
	if err != nil {
		return false
	}
	method, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return false
	}

	host, port, _, fragment := splitServerInfo(serverInfo)
	ep.Method = method
	ep.Password = password
	ep.Server = host
	ep.Port = port
	ep.Name = fragment
	return true
}

func parseSSWhole(ep *model.Endpoint, body string) bool {
	encoded, fragment, _ := strings.Cut(body, "#")
	decoded, err := DecodeBase64(encoded)
	if err != nil {
		return false
	}
	method, rest, found := strings.Cut(string(decoded), ":")
	if !found {
		return false
	}
	password, serverInfo, found := strings.Cut(rest, "@")
	if !found {
		return false
	}

	host, port, _, _ := splitServerInfo(serverInfo)
	if name, err := url.PathUnescape(fragment); err == nil {
		fragment = name
	}
	ep.Method = method
	ep.Password = password
	ep.Server = host
	ep.Port = port
	ep.Name = fragment
	return true
}
