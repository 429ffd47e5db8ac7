package render

import (
	"encoding/json"
	"errors"
	"fmt"

	"proxyprobe/internal/model"
)

var ErrUnsupportedFormat = errors.New("unsupported config format")

// Func renders an endpoint into the bytes of an engine configuration file
// whose local SOCKS listener binds to port.
type Func func(ep *model.Endpoint, port int) ([]byte, error)

const (
	EngineXray    = "xray"
	EngineSingBox = "singbox"
)

// ForEngine returns the renderer for the named engine format.
func ForEngine(name string) (Func, error) {
	switch name {
	case EngineXray, "":
		return XrayJSON, nil
	case EngineSingBox:
		return SingBoxJSON, nil
	}
	return nil, fmt.Errorf("unknown engine format %q", name)
}

// XrayJSON is Xray followed by indented JSON encoding.
func XrayJSON(ep *model.Endpoint, port int) ([]byte, error) {
	doc, err := Xray(ep, port)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}
