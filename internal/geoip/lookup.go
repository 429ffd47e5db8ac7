package geoip

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/oschwald/geoip2-golang"

	"proxyprobe/internal/model"
)

// Placeholder codes for addresses that get no country.
const (
	CodeNoDatabase = "N/A"
	CodeInvalid    = "INVALID_IP"
	CodeLocal      = "LOCAL"
	CodeUnknown    = "UNKNOWN"
)

// Database resolves egress addresses to ISO country codes.
type Database struct {
	reader *geoip2.Reader
}

// Open loads a MaxMind Country or City database. Other editions (ASN, ISP)
// carry no country data and are rejected.
func Open(path string) (*Database, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	if kind := r.Metadata().DatabaseType; !strings.Contains(kind, "Country") && !strings.Contains(kind, "City") {
		r.Close()
		return nil, fmt.Errorf("geoip: %s is a %q database, need Country or City", path, kind)
	}
	return &Database{reader: r}, nil
}

// Lookup never fails; it returns a placeholder code instead. Loopback,
// private and link-local addresses are answered without the database.
func (d *Database) Lookup(addr string) string {
	ip, err := netip.ParseAddr(strings.TrimSpace(addr))
	if err != nil {
		return CodeInvalid
	}
	ip = ip.Unmap()
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
		return CodeLocal
	}
	if d == nil || d.reader == nil {
		return CodeNoDatabase
	}

	record, err := d.reader.Country(ip.AsSlice())
	if err != nil || record.Country.IsoCode == "" {
		return CodeUnknown
	}
	return record.Country.IsoCode
}

// Annotate fills in the country of a successful result. A nil database
// leaves the result untouched.
func (d *Database) Annotate(r *model.TrialResult) {
	if d == nil || !r.OK() || r.ObservedAddress == "" {
		return
	}
	r.Country = d.Lookup(r.ObservedAddress)
}

func (d *Database) Close() error {
	if d == nil || d.reader == nil {
		return nil
	}
	return d.reader.Close()
}
