package security

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// URLGuard は外部フィード取得時のSSRFを防止する。
// ValidateURLは登録前の静的検査、NewClientはDNS解決後のIPを検査するクライアントを返す。
type URLGuard struct {
	blocked []netip.Prefix
}

var defaultBlockedPrefixes = []string{
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16", // クラウドメタデータ（169.254.169.254）を含む
	"0.0.0.0/8",
	"100.64.0.0/10",
	"::1/128",
	"fe80::/10",
	"fc00::/7",
}

// NewURLGuard はURLGuardを生成する。
func NewURLGuard() *URLGuard {
	g := &URLGuard{}
	for _, p := range defaultBlockedPrefixes {
		g.blocked = append(g.blocked, netip.MustParsePrefix(p))
	}
	return g
}

// NewClient はsafeurlでラップしたHTTPクライアントを返す。
// http/httpsの80/443番ポートのみ許可し、プライベート宛ての接続はダイヤル時に拒否される。
func (g *URLGuard) NewClient(timeout time.Duration) *http.Client {
	cfg := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(cfg).Client
}

// ValidateURL はDNS解決を伴わない静的な検査を行う。
func (g *URLGuard) ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("empty URL")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("disallowed scheme: %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".localhost") {
		return fmt.Errorf("blocked host: %s", host)
	}

	if ip := net.ParseIP(host); ip != nil {
		addr, ok := netip.AddrFromSlice(ip)
		if !ok {
			return fmt.Errorf("invalid IP address: %s", host)
		}
		addr = addr.Unmap()
		for _, p := range g.blocked {
			if p.Contains(addr) {
				return fmt.Errorf("blocked IP address: %s", addr)
			}
		}
	}

	return nil
}
