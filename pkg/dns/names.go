package dns

import (
	"fmt"
	"net"
	"strings"

	"github.com/cuemby/fluxdns/pkg/types"
	"github.com/miekg/dns"
)

// Subdomain builds the canonical "<app>.<zone>" name managed for an
// application. The result is lower-cased, has no trailing dot and must be a
// valid domain name.
func Subdomain(app, zone string) (string, error) {
	app = strings.Trim(strings.TrimSpace(app), ".")
	zone = strings.Trim(strings.TrimSpace(zone), ".")
	if app == "" {
		return "", fmt.Errorf("empty application name")
	}
	if zone == "" {
		return "", fmt.Errorf("empty zone")
	}

	fqdn := dns.CanonicalName(app + "." + zone)
	if _, ok := dns.IsDomainName(fqdn); !ok {
		return "", fmt.Errorf("invalid domain name: %s", fqdn)
	}
	for _, label := range dns.SplitDomainName(fqdn) {
		if !hostLabel(label) {
			return "", fmt.Errorf("invalid host label %q in %s", label, fqdn)
		}
	}

	return strings.TrimSuffix(fqdn, "."), nil
}

// hostLabel reports whether label is a letters-digits-hyphen host label
func hostLabel(label string) bool {
	if label == "" || label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for _, c := range label {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}

// SameName reports whether two domain names are equal ignoring case and a
// trailing dot
func SameName(a, b string) bool {
	return dns.CanonicalName(a) == dns.CanonicalName(b)
}

// recordRR renders a record in zone-file form for logs
func recordRR(record types.DNSRecord) string {
	rr := &dns.A{
		Hdr: dns.RR_Header{
			Name:   dns.Fqdn(record.Name),
			Rrtype: dns.TypeA,
			Class:  dns.ClassINET,
			Ttl:    uint32(record.TTL),
		},
		A: net.ParseIP(record.Content),
	}
	return rr.String()
}
