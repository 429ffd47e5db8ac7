package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"proxyprobe/internal/parser"
)

const maxSubscriptionSize = 32 << 20

// LoadFromFile reads a subscription file, base64 wrapped or plain.
func LoadFromFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeSubscription(data)
}

// LoadFromURL downloads a subscription (e.g. Github raw). timeout bounds the
// whole download; zero means no limit beyond ctx.
func LoadFromURL(ctx context.Context, url string, timeout time.Duration) ([]string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch subscription: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch subscription: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSubscriptionSize))
	if err != nil {
		return nil, fmt.Errorf("read subscription: %w", err)
	}
	return DecodeSubscription(data)
}

// DecodeSubscription splits a subscription body into raw endpoint strings.
// The body is first tried as base64; if that fails it is taken as plain
// text. Blank lines and '#' comments are dropped.
func DecodeSubscription(data []byte) ([]string, error) {
	if decoded, err := parser.DecodeBase64(string(data)); err == nil {
		data = decoded
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	// some subscription links are huge
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			out = append(out, line)
		}
	}
	return out, scanner.Err()
}
