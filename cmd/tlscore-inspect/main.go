// Command tlscore-inspect decodes a ClientHello or ServerHello handshake
// body and prints its extension set, the way the teacher's example/decode
// prints an ECHConfigList. Where an extension is a key_share, P-256/P-384
// points are additionally validated against ecmath; X25519/X448 shares are
// only length-checked.
package main

import (
	"encoding/base64"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"math/big"
	"os"
	"strings"

	"golang.org/x/crypto/cryptobyte"

	"github.com/c2FmZQ/tlscore/ecmath"
	"github.com/c2FmZQ/tlscore/helloext"
)

var extNames = map[uint16]string{
	helloext.TLSIDServerName:         "server_name",
	helloext.TLSIDSupportedGroups:    "supported_groups",
	helloext.TLSIDSignatureAlgs:      "signature_algorithms",
	helloext.TLSIDALPN:               "application_layer_protocol_negotiation",
	helloext.TLSIDPreSharedKey:       "pre_shared_key",
	helloext.TLSIDSupportedVersions:  "supported_versions",
	helloext.TLSIDCookie:             "cookie",
	helloext.TLSIDPSKKeyExchangeMode: "psk_key_exchange_modes",
	helloext.TLSIDKeyShare:           "key_share",
	helloext.TLSIDDumbFW:             "dumbfw",
}

var namedGroups = map[uint16]string{
	0x0017: "secp256r1",
	0x0018: "secp384r1",
	0x0019: "secp521r1",
	0x001d: "x25519",
	0x001e: "x448",
}

func main() {
	msgType := flag.String("type", "client", "handshake message type: client or server")
	dtls := flag.Bool("dtls", false, "treat input as DTLS framing")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-type client|server] [-dtls] <hex-or-base64-handshake-body>\n", os.Args[0])
		os.Exit(2)
	}
	body, err := decodeBlob(flag.Arg(0))
	if err != nil {
		log.Fatalf("decode input: %v", err)
	}

	extVector, err := splitHelloPrefix(*msgType, *dtls, body)
	if err != nil {
		log.Fatalf("parse hello prefix: %v", err)
	}

	// The session is the receiving side: a server parses a ClientHello and
	// a client parses a ServerHello.
	entity := helloext.Server
	msgKind := helloext.MsgClientHello
	if *msgType == "server" {
		entity = helloext.Client
		msgKind = helloext.MsgTLS13ServerHello
	}
	s := helloext.NewSession(entity, transportOf(*dtls))
	s.Trace = os.Stdout

	if err := walkExtensions(extVector, func(tlsID uint16, data []byte) {
		printExtension(tlsID, data, *msgType)
	}); err != nil {
		log.Fatalf("walk extensions: %v", err)
	}

	// Also run the extensions through the real dispatch engine so
	// registered built-ins (server_name, ALPN, supported_versions, ...)
	// report their trace lines, the same diagnostic path a live session
	// would use.
	if err := helloext.Parse(s, msgKind, helloext.ParseAny, extVector); err != nil {
		fmt.Fprintf(os.Stderr, "dispatch: %v\n", err)
	}
}

func transportOf(dtls bool) helloext.Transport {
	if dtls {
		return helloext.TransportDTLS
	}
	return helloext.TransportTLS
}

func decodeBlob(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if b, err := hex.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.StdEncoding.DecodeString(s)
}

// splitHelloPrefix skips the fixed ClientHello/ServerHello prefix and
// returns the remaining extensions vector (its own 2-byte length still
// attached, as helloext.Parse expects).
func splitHelloPrefix(msgType string, dtls bool, body []byte) ([]byte, error) {
	b := cryptobyte.String(body)
	var legacyVersion uint16
	if !b.ReadUint16(&legacyVersion) {
		return nil, fmt.Errorf("truncated legacy_version")
	}
	if !b.Skip(32) { // random
		return nil, fmt.Errorf("truncated random")
	}
	var sessID cryptobyte.String
	if !b.ReadUint8LengthPrefixed(&sessID) {
		return nil, fmt.Errorf("truncated session id")
	}
	if msgType == "client" {
		if dtls {
			var cookie cryptobyte.String
			if !b.ReadUint8LengthPrefixed(&cookie) {
				return nil, fmt.Errorf("truncated cookie")
			}
		}
		var suites cryptobyte.String
		if !b.ReadUint16LengthPrefixed(&suites) {
			return nil, fmt.Errorf("truncated cipher suites")
		}
		var comp cryptobyte.String
		if !b.ReadUint8LengthPrefixed(&comp) {
			return nil, fmt.Errorf("truncated compression methods")
		}
	} else {
		var suite uint16
		if !b.ReadUint16(&suite) {
			return nil, fmt.Errorf("truncated cipher_suite")
		}
		var comp uint8
		if !b.ReadUint8(&comp) {
			return nil, fmt.Errorf("truncated compression_method")
		}
	}
	if b.Empty() {
		return nil, fmt.Errorf("no extensions present")
	}
	return []byte(b), nil
}

// walkExtensions iterates the {tls_id, len, data} entries of a length
// prefixed extensions vector, calling fn for each.
func walkExtensions(extVector []byte, fn func(tlsID uint16, data []byte)) error {
	outer := cryptobyte.String(extVector)
	var body cryptobyte.String
	if !outer.ReadUint16LengthPrefixed(&body) {
		return fmt.Errorf("truncated extensions vector")
	}
	for !body.Empty() {
		var tlsID uint16
		var data cryptobyte.String
		if !body.ReadUint16(&tlsID) || !body.ReadUint16LengthPrefixed(&data) {
			return fmt.Errorf("truncated extension entry")
		}
		fn(tlsID, []byte(data))
	}
	return nil
}

func printExtension(tlsID uint16, data []byte, msgType string) {
	name := extNames[tlsID]
	if name == "" {
		name = "unknown"
	}
	fmt.Printf("extension %s (%d), %d bytes\n", name, tlsID, len(data))
	if tlsID == helloext.TLSIDKeyShare {
		if err := inspectKeyShare(data, msgType, os.Stdout); err != nil {
			fmt.Printf("  key_share: %v\n", err)
		}
	}
}

// inspectKeyShare decodes the key_share payload (a vector of entries in a
// ClientHello, a single entry in a ServerHello) and validates each share
// against ecmath.
func inspectKeyShare(data []byte, msgType string, w io.Writer) error {
	b := cryptobyte.String(data)
	if msgType == "client" {
		var entries cryptobyte.String
		if !b.ReadUint16LengthPrefixed(&entries) {
			return fmt.Errorf("truncated client_shares vector")
		}
		for !entries.Empty() {
			if err := inspectOneShare(&entries, w); err != nil {
				return err
			}
		}
		return nil
	}
	return inspectOneShare(&b, w)
}

func inspectOneShare(b *cryptobyte.String, w io.Writer) error {
	var group uint16
	var share cryptobyte.String
	if !b.ReadUint16(&group) || !b.ReadUint16LengthPrefixed(&share) {
		return fmt.Errorf("truncated key_share entry")
	}
	groupName := namedGroups[group]
	if groupName == "" {
		groupName = "unknown"
	}
	fmt.Fprintf(w, "  group %s (0x%04x), %d bytes: ", groupName, group, len(share))
	switch group {
	case 0x001d:
		if len(share) != 32 {
			fmt.Fprintf(w, "invalid length for x25519\n")
			return nil
		}
		fmt.Fprintf(w, "x25519 share (length OK, curve25519 has no public validity check)\n")
	case 0x001e:
		if len(share) != 56 {
			fmt.Fprintf(w, "invalid length for x448\n")
			return nil
		}
		fmt.Fprintf(w, "x448 share (length OK, curve448 has no public validity check)\n")
	case 0x0017:
		validateUncompressedPoint(ecmath.P256(), share, w)
	case 0x0018:
		validateUncompressedPoint(ecmath.P384(), share, w)
	default:
		fmt.Fprintf(w, "no validator registered for this group\n")
	}
	return nil
}

func validateUncompressedPoint(c *ecmath.WeierstrassCurve, share []byte, w io.Writer) {
	coordLen := (c.BitSize + 7) / 8
	if len(share) != 1+2*coordLen || share[0] != 0x04 {
		fmt.Fprintf(w, "malformed uncompressed point for %s\n", c.Name)
		return
	}
	x := new(big.Int).SetBytes(share[1 : 1+coordLen])
	y := new(big.Int).SetBytes(share[1+coordLen:])
	ok := c.IsOnCurve(ecmath.AffinePoint{X: x, Y: y})
	fmt.Fprintf(w, "%s point, on_curve=%v\n", c.Name, ok)
}
