package source

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plainSub = `# my list
vless://u1@a.example:443?type=ws

trojan://pw@b.example:8443
  ss://YWVzLTI1Ni1nY206cHc@c.example:8388  
`

var wantLinks = []string{
	"vless://u1@a.example:443?type=ws",
	"trojan://pw@b.example:8443",
	"ss://YWVzLTI1Ni1nY206cHc@c.example:8388",
}

func TestDecodeSubscriptionPlain(t *testing.T) {
	got, err := DecodeSubscription([]byte(plainSub))
	require.NoError(t, err)
	assert.Equal(t, wantLinks, got)
}

func TestDecodeSubscriptionBase64(t *testing.T) {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding} {
		body := enc.EncodeToString([]byte(plainSub))
		got, err := DecodeSubscription([]byte(body + "\n"))
		require.NoError(t, err)
		assert.Equal(t, wantLinks, got)
	}
}

func TestDecodeSubscriptionEmpty(t *testing.T) {
	got, err := DecodeSubscription(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub.txt")
	require.NoError(t, os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString([]byte(plainSub))), 0644))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, wantLinks, got)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLoadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sub":
			w.Write([]byte(base64.StdEncoding.EncodeToString([]byte(plainSub))))
		case "/slow":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	got, err := LoadFromURL(context.Background(), srv.URL+"/sub", time.Second)
	require.NoError(t, err)
	assert.Equal(t, wantLinks, got)

	_, err = LoadFromURL(context.Background(), srv.URL+"/missing", time.Second)
	assert.ErrorContains(t, err, "404")

	_, err = LoadFromURL(context.Background(), srv.URL+"/slow", 100*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
