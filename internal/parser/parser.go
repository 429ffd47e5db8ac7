package parser

import (
	"strings"

	"proxyprobe/internal/model"
)

var schemes = map[string]model.Kind{
	"vless":       model.KindVLESS,
	"vmess":       model.KindVMess,
	"trojan":      model.KindTrojan,
	"ss":          model.KindShadowsocks,
	"shadowsocks": model.KindShadowsocks,
}

// Normalize turns a share link into an Endpoint. It never fails: input that
// cannot be decoded yields an endpoint of the scheme's kind with every other
// field left at its default. An unrecognised scheme produces an endpoint whose
// kind is the scheme itself, which the renderer rejects.
func Normalize(raw string) *model.Endpoint {
	raw = strings.TrimSpace(raw)
	kind, body := splitScheme(raw)
	ep := model.NewEndpoint(kind, raw)

	switch kind {
	case model.KindVLESS, model.KindTrojan:
		parseShareLink(ep, body)
	case model.KindVMess:
		parseVMess(ep, body)
	case model.KindShadowsocks:
		parseShadowsocks(ep, body)
	}
	return ep
}

// KindOf reports the dialect of raw and whether it is one of the supported four.
func KindOf(raw string) (model.Kind, bool) {
	kind, _ := splitScheme(strings.TrimSpace(raw))
	switch kind {
	case model.KindVLESS, model.KindVMess, model.KindTrojan, model.KindShadowsocks:
		return kind, true
	}
	return kind, false
}

func splitScheme(raw string) (model.Kind, string) {
	scheme, body, found := strings.Cut(raw, "://")
	if !found {
		return "", raw
	}
	scheme = strings.ToLower(scheme)
	if kind, ok := schemes[scheme]; ok {
		return kind, body
	}
	return model.Kind(scheme), body
}
