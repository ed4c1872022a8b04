// Package geoip handles downloading, updating, and reading MaxMind GeoLite2
// databases. Country codes decorate the status notifications; everything here
// degrades to "unknown" rather than failing a cycle.
package geoip

import (
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/rs/zerolog/log"
)

// Provider wraps the GeoIP2 database reader for country lookups.
type Provider struct {
	db *geoip2.Reader
}

// Open initializes the GeoIP database reader from a file path.
func Open(path string) (*Provider, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}

	return &Provider{db: db}, nil
}

// Close closes the underlying GeoIP database reader.
func (p *Provider) Close() error {
	return p.db.Close()
}

// Country looks up the ISO country code (e.g. "US", "DE") for a host, which
// may be an IP address or a resolvable name. It returns an empty string when
// the country cannot be determined.
func (p *Provider) Country(host string) string {
	ip := net.ParseIP(host)
	if ip == nil {
		addrs, err := net.LookupIP(host)
		if err != nil || len(addrs) == 0 {
			return ""
		}
		ip = addrs[0]
	}

	record, err := p.db.Country(ip)
	if err != nil {
		return ""
	}

	return record.Country.IsoCode
}

// EnsureDB checks that the GeoIP database at path exists and is newer than
// maxAge, downloading a fresh copy from url otherwise.
func EnsureDB(path, url string, maxAge time.Duration) error {
	info, err := os.Stat(path)

	switch {
	case err == nil:
		if time.Since(info.ModTime()) < maxAge {
			log.Info().Str("path", path).Msg("GeoIP database is up to date")
			return nil
		}
		log.Info().Str("path", path).Msg("GeoIP database is outdated, updating...")
	case os.IsNotExist(err):
		log.Info().Str("path", path).Msg("GeoIP database missing, downloading...")
	default:
		return err
	}

	return downloadFile(path, url)
}

// downloadFile fetches url into path via a temporary file and rename, so a
// failed download never clobbers a working database.
func downloadFile(path string, url string) error {
	tmpPath := path + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	resp, err := http.Get(url) //nolint:gosec
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Msg("Failed to download GeoIP DB")
		return os.ErrInvalid
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}

	if err := out.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}
