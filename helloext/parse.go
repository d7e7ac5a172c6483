package helloext

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// Parse consumes a length-prefixed extension vector of the form
//
//	uint16 total; { uint16 tls_id; uint16 len; opaque data[len]; }*
//
// where the inner entries exactly tile total, and dispatches each entry per
// §4.1. A zero-length outer vector is accepted and is a no-op.
func Parse(s *Session, msgKind Msg, parseType ParseType, buf []byte) error {
	s.currentMsg = msgKind

	outer := cryptobyte.String(buf)
	var body cryptobyte.String
	if !outer.ReadUint16LengthPrefixed(&body) {
		return fmt.Errorf("%w: truncated outer length", ErrUnexpectedExtensionsLength)
	}
	if !outer.Empty() {
		return fmt.Errorf("%w: trailing bytes after extensions vector", ErrUnexpectedExtensionsLength)
	}
	return parseVector(s, msgKind, parseType, body)
}

// parseVector iterates the inner {tls_id,len,data} entries of body and
// dispatches each one; shared by Parse and RawParse.
func parseVector(s *Session, msgKind Msg, parseType ParseType, body cryptobyte.String) error {
	seenPSK := false
	for !body.Empty() {
		var tlsID uint16
		var data cryptobyte.String
		if !body.ReadUint16(&tlsID) || !body.ReadUint16LengthPrefixed(&data) {
			return fmt.Errorf("%w: truncated extension entry", ErrUnexpectedExtensionsLength)
		}

		if tlsID == PreSharedKeyTLSID {
			seenPSK = true
		} else if seenPSK && s.Entity == Server {
			return fmt.Errorf("%w: extension after pre_shared_key", ErrReceivedIllegalParameter)
		}

		if err := dispatchRecv(s, msgKind, parseType, tlsID, []byte(data)); err != nil {
			return err
		}
	}
	return nil
}

func dispatchRecv(s *Session, msgKind Msg, parseType ParseType, tlsID uint16, data []byte) error {
	e := s.lookupByTLSID(tlsID, parseType)
	if e == nil || e.Recv == nil {
		s.trace("EXT: ignoring unknown extension %d\n", tlsID)
		return nil
	}

	if s.Transport == TransportDTLS {
		if !e.Validity.HasTransport(TransportDTLS) {
			s.trace("EXT: ignoring %s, not valid for DTLS\n", e)
			return nil
		}
	} else if !e.Validity.HasTransport(TransportTLS) {
		s.trace("EXT: ignoring %s, not valid for TLS\n", e)
		return nil
	}

	if s.Entity == Client {
		if e.Validity&FlagIgnoreClientRequest == 0 && !s.Used(e.GID) {
			return fmt.Errorf("%w: unexpected extension %s", ErrReceivedIllegalExtension, e)
		}
	}

	if !e.Validity.HasMsg(msgKind) {
		return fmt.Errorf("%w: %s not valid for this message", ErrReceivedIllegalExtension, e)
	}

	if s.Entity == Server {
		if s.Used(e.GID) {
			return fmt.Errorf("%w: duplicate extension %s", ErrReceivedIllegalExtension, e)
		}
		s.setUsed(e.GID)
	}

	s.trace("EXT: parsing %s (%d bytes)\n", e, len(data))
	return e.Recv(s, data)
}

// clientHelloPrefixLen is the fixed portion of a ClientHello body before the
// session id: 2 version bytes + 32 random bytes.
const clientHelloPrefixLen = 34

// RawParse implements gnutls_ext_raw_parse: it accepts an entire ClientHello
// body (TLS or DTLS framing selected by dtls) and skips the fixed prefix
// before dispatching the extensions vector. It returns
// ErrRequestedDataNotAvailable if no extension bytes remain.
func RawParse(s *Session, msgKind Msg, parseType ParseType, body []byte, dtls bool) error {
	b := cryptobyte.String(body)

	var version uint16
	if !b.ReadUint16(&version) {
		return fmt.Errorf("%w: truncated version", ErrUnexpectedExtensionsLength)
	}
	hi := byte(version >> 8)
	if (!dtls && hi != 0x03) || (dtls && hi != 0xFE) {
		return fmt.Errorf("%w: unexpected legacy_version high byte 0x%02x", ErrReceivedIllegalParameter, hi)
	}
	if !b.Skip(32) { // random
		return fmt.Errorf("%w: truncated random", ErrUnexpectedExtensionsLength)
	}
	var sessID cryptobyte.String
	if !b.ReadUint8LengthPrefixed(&sessID) {
		return fmt.Errorf("%w: truncated session id", ErrUnexpectedExtensionsLength)
	}
	if dtls {
		var cookie cryptobyte.String
		if !b.ReadUint8LengthPrefixed(&cookie) {
			return fmt.Errorf("%w: truncated cookie", ErrUnexpectedExtensionsLength)
		}
	}
	var suites cryptobyte.String
	if !b.ReadUint16LengthPrefixed(&suites) {
		return fmt.Errorf("%w: truncated cipher suites", ErrUnexpectedExtensionsLength)
	}
	var comp cryptobyte.String
	if !b.ReadUint8LengthPrefixed(&comp) {
		return fmt.Errorf("%w: truncated compression methods", ErrUnexpectedExtensionsLength)
	}

	if b.Empty() {
		return ErrRequestedDataNotAvailable
	}
	return Parse(s, msgKind, parseType, []byte(b))
}
