// Package privacy masks personal identifiers before they reach logs or audit records.
package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
)

// AnonymizeIP truncates an IP address to its network prefix: /24 for IPv4,
// /48 for IPv6. Returns "invalid" for unparseable addresses and "unknown"
// for empty input.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}

	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}

// AnonymizeAddr anonymizes the host part of a host:port remote address.
func AnonymizeAddr(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	return AnonymizeIP(host)
}

// MaskDID keeps the DID method and replaces the method-specific identifier
// with a short stable digest, so log lines about one wallet still correlate.
// "did:example:123" becomes "did:example:" followed by eight hex digits.
func MaskDID(did string) string {
	did = strings.TrimSpace(did)
	if did == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(did))
	digest := hex.EncodeToString(sum[:4])

	parts := strings.SplitN(did, ":", 3)
	if len(parts) == 3 && parts[0] == "did" && parts[1] != "" {
		return "did:" + parts[1] + ":" + digest
	}
	return digest
}
