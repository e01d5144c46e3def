// Package addr resolves operator-supplied multicast addresses and
// network interface references into the forms the transport needs.
//
// Both resolutions happen exactly once at startup; the results are
// immutable for the process lifetime.
package addr

import (
	"net"
	"strconv"
	"strings"

	"github.com/projectdiscovery/gologger"

	"github.com/joshuafuller/mping/internal/errors"
)

// DefaultInterface is the interface index meaning "let the OS choose".
const DefaultInterface = 0

// ParseMulticastAddress parses a textual IPv6 multicast group address.
//
// Addresses that fail a direct parse get one recovery attempt: any
// colon-delimited segment longer than four hex digits is split into
// four-digit chunks and the result re-parsed. This tolerates inputs where
// a hextet separator was dropped, e.g. "ff12c909:3199:..." for
// "ff12:c909:3199:...". A successful recovery is logged so the operator
// sees what address is actually in use.
//
// A parseable address outside ff00::/8 is returned usable with a warning;
// the group join will reject it later if the kernel cares.
func ParseMulticastAddress(text string) (net.IP, error) {
	if ip := parseIPv6(text); ip != nil {
		warnIfNotMulticast(ip, text)
		return ip, nil
	}

	fixed := splitLongSegments(text)
	if ip := parseIPv6(fixed); ip != nil {
		gologger.Info().Msgf("fixed multicast address from %q -> %q", text, fixed)
		warnIfNotMulticast(ip, fixed)
		return ip, nil
	}

	return nil, &errors.ValidationError{
		Field:   "multicast address",
		Value:   text,
		Message: "failed to parse as IPv6, tried " + strconv.Quote(fixed),
	}
}

// parseIPv6 parses text as an IPv6 address, rejecting IPv4 forms.
func parseIPv6(text string) net.IP {
	ip := net.ParseIP(text)
	if ip == nil || ip.To4() != nil {
		return nil
	}
	return ip
}

func warnIfNotMulticast(ip net.IP, text string) {
	if !ip.IsMulticast() {
		gologger.Warning().Msgf("address %q is not in ff00::/8; group join may fail", text)
	}
}

// splitLongSegments rewrites each colon-delimited segment longer than four
// hex characters into four-character chunks.
func splitLongSegments(s string) string {
	segments := strings.Split(s, ":")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		for len(seg) > 4 {
			out = append(out, seg[:4])
			seg = seg[4:]
		}
		out = append(out, seg)
	}
	return strings.Join(out, ":")
}

// ResolveInterface turns an interface name or numeric index into the
// index used for group membership and outbound interface selection.
//
// The empty string yields DefaultInterface. A non-negative numeric string
// is accepted as a literal index without checking the interface table, so
// pre-resolved indices survive environments where the name lookup is
// unavailable. Anything else goes through the OS name-to-index facility.
func ResolveInterface(nameOrIndex string) (int, error) {
	if nameOrIndex == "" {
		return DefaultInterface, nil
	}

	if idx, err := strconv.Atoi(nameOrIndex); err == nil && idx >= 0 {
		return idx, nil
	}

	iface, err := net.InterfaceByName(nameOrIndex)
	if err != nil {
		return 0, &errors.NetworkError{
			Operation: "resolve interface",
			Err:       err,
			Details:   "interface " + strconv.Quote(nameOrIndex) + " not found",
		}
	}
	return iface.Index, nil
}
