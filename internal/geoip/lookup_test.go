package geoip

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxyprobe/internal/model"
)

func TestLookupWithoutDatabase(t *testing.T) {
	var d *Database
	cases := map[string]string{
		"203.0.113.7":        CodeNoDatabase,
		"2001:db8::7":        CodeNoDatabase,
		"not-an-ip":          CodeInvalid,
		"":                   CodeInvalid,
		"127.0.0.1":          CodeLocal,
		"10.1.2.3":           CodeLocal,
		"::ffff:192.168.1.1": CodeLocal,
		"fe80::1":            CodeLocal,
		"::1":                CodeLocal,
	}
	for addr, want := range cases {
		assert.Equal(t, want, d.Lookup(addr), addr)
	}
	assert.NoError(t, d.Close())
}

func TestAnnotate(t *testing.T) {
	var nilDB *Database
	r := model.TrialResult{Status: model.StatusSuccess, ObservedAddress: "203.0.113.7"}
	nilDB.Annotate(&r)
	assert.Empty(t, r.Country)

	d := &Database{}
	d.Annotate(&r)
	assert.Equal(t, CodeNoDatabase, r.Country)

	failed := model.Failed("vless://x", 1080, "Connection timeout")
	d.Annotate(&failed)
	assert.Empty(t, failed.Country)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mmdb"))
	assert.Error(t, err)
}

func TestOpenNotADatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.mmdb")
	require.NoError(t, os.WriteFile(path, []byte("definitely not maxmind"), 0644))

	_, err := Open(path)
	assert.Error(t, err)
}
