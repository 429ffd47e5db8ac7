package parser

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"proxyprobe/internal/model"
)

// parseVMess decodes the V2RayN style link: base64 of a flat JSON object.
func parseVMess(ep *model.Endpoint, body string) {
	decoded, err := DecodeBase64(body)
	if err != nil {
		return
	}
	var fields map[string]any
	if err := json.Unmarshal(decoded, &fields); err != nil {
		return
	}

	ep.Name = stringField(fields, "ps", "")
	ep.Server = stringField(fields, "add", "")
	ep.Port = intField(fields, "port", model.DefaultPort)
	ep.UUID = stringField(fields, "id", "")
	ep.AlterID = intField(fields, "aid", 0)
	ep.Network = stringField(fields, "net", "tcp")
	ep.Path = stringField(fields, "path", "/")
	ep.Host = stringField(fields, "host", "")
	ep.HeaderType = stringField(fields, "type", "")

	// Only the literal "tls" enables TLS; "1", true or "xtls" do not.
	if v, ok := fields["tls"].(string); ok && v == "tls" {
		ep.Security = "tls"
	} else {
		ep.Security = "none"
	}
}

func stringField(fields map[string]any, key, def string) string {
	var s string
	switch v := fields[key].(type) {
	case string:
		s = v
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(v)
	}
	if s == "" {
		return def
	}
	return s
}

func intField(fields map[string]any, key string, def int) int {
	switch v := fields[key].(type) {
	case float64:
		if v == math.Trunc(v) && v >= 0 && v <= math.MaxInt32 {
			return int(v)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
