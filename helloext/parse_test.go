package helloext

import (
	"bytes"
	"errors"
	"testing"
)

// TestParseUnexpectedExtensionsLength is scenario S1 from the spec: outer
// length 5, one extension tls_id=0x002B length 1 value 0x0E, then a
// trailing 0x00 byte that doesn't belong to the declared outer length.
func TestParseUnexpectedExtensionsLength(t *testing.T) {
	blob := []byte{0x00, 0x05, 0x00, 0x2B, 0x00, 0x01, 0x0E, 0x00}
	s := NewSession(Server, TransportTLS)
	err := Parse(s, MsgClientHello, ParseAny, blob)
	if !errors.Is(err, ErrUnexpectedExtensionsLength) {
		t.Fatalf("Parse() = %v, want %v", err, ErrUnexpectedExtensionsLength)
	}
}

func TestParseEmptyOuterIsNoop(t *testing.T) {
	s := NewSession(Server, TransportTLS)
	if err := Parse(s, MsgClientHello, ParseAny, []byte{0x00, 0x00}); err != nil {
		t.Fatalf("Parse() = %v, want nil", err)
	}
}

func TestParseTruncatedOuterLength(t *testing.T) {
	s := NewSession(Server, TransportTLS)
	err := Parse(s, MsgClientHello, ParseAny, []byte{0x00})
	if !errors.Is(err, ErrUnexpectedExtensionsLength) {
		t.Fatalf("Parse() = %v, want %v", err, ErrUnexpectedExtensionsLength)
	}
}

func TestPreSharedKeyMustBeLast(t *testing.T) {
	// pre_shared_key (41) followed by server_name (0): illegal on the server.
	var buf Buffer
	lenPos := buf.appendInit()
	buf.AppendUint16(TLSIDPreSharedKey)
	buf.AppendUint16(0)
	buf.AppendUint16(TLSIDServerName)
	buf.AppendUint16(0)
	buf.patchUint16(lenPos, uint16(buf.Len()-lenPos-2))

	s := NewSession(Server, TransportTLS)
	err := Parse(s, MsgClientHello, ParseAny, buf.Bytes())
	if !errors.Is(err, ErrReceivedIllegalParameter) {
		t.Fatalf("Parse() = %v, want %v", err, ErrReceivedIllegalParameter)
	}
}

func TestPreSharedKeyLastIsFine(t *testing.T) {
	var buf Buffer
	lenPos := buf.appendInit()
	buf.AppendUint16(TLSIDServerName)
	buf.AppendUint16(5)
	buf.AppendUint16(0)
	buf.AppendUint16(1)
	buf.AppendBytes([]byte{'a'})
	buf.AppendUint16(TLSIDPreSharedKey)
	buf.AppendUint16(0)
	buf.patchUint16(lenPos, uint16(buf.Len()-lenPos-2))

	s := NewSession(Server, TransportTLS)
	if err := Parse(s, MsgClientHello, ParseAny, buf.Bytes()); err != nil {
		t.Fatalf("Parse() = %v, want nil", err)
	}
}

func TestServerDuplicateExtensionRejected(t *testing.T) {
	var buf Buffer
	lenPos := buf.appendInit()
	for range 2 {
		buf.AppendUint16(TLSIDServerName)
		buf.AppendUint16(5)
		buf.AppendUint16(0)
		buf.AppendUint16(1)
		buf.AppendBytes([]byte{'a'})
	}
	buf.patchUint16(lenPos, uint16(buf.Len()-lenPos-2))

	s := NewSession(Server, TransportTLS)
	err := Parse(s, MsgClientHello, ParseAny, buf.Bytes())
	if !errors.Is(err, ErrReceivedIllegalExtension) {
		t.Fatalf("Parse() = %v, want %v", err, ErrReceivedIllegalExtension)
	}
}

func TestClientRejectsUnsolicitedExtension(t *testing.T) {
	var buf Buffer
	lenPos := buf.appendInit()
	buf.AppendUint16(TLSIDServerName)
	buf.AppendUint16(5)
	buf.AppendUint16(0)
	buf.AppendUint16(1)
	buf.AppendBytes([]byte{'a'})
	buf.patchUint16(lenPos, uint16(buf.Len()-lenPos-2))

	s := NewSession(Client, TransportTLS)
	err := Parse(s, MsgTLS12ServerHello, ParseAny, buf.Bytes())
	if !errors.Is(err, ErrReceivedIllegalExtension) {
		t.Fatalf("Parse() = %v, want %v", err, ErrReceivedIllegalExtension)
	}
}

// TestGenerateRoundTrip exercises property 1: for a valid extensions blob,
// client-side generate-then-server-side-parse recovers the same data.
func TestGenerateRoundTrip(t *testing.T) {
	client := NewSession(Client, TransportTLS)
	client.SetPriv(TLSIDServerNameGID(), serverNamePriv{Name: "example.com"})
	client.SetPriv(alpnGID(), alpnPriv{Protos: []string{"h2", "http/1.1"}})

	var buf Buffer
	if err := Generate(client, &buf, MsgClientHello, ParseAny); err != nil {
		t.Fatalf("Generate() = %v", err)
	}

	server := NewSession(Server, TransportTLS)
	if err := Parse(server, MsgClientHello, ParseAny, buf.Bytes()); err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	priv, ok := server.Priv(TLSIDServerNameGID())
	if !ok {
		t.Fatalf("server_name not recorded")
	}
	if got := priv.(serverNamePriv).Name; got != "example.com" {
		t.Fatalf("ServerName = %q, want %q", got, "example.com")
	}
	alpnP, ok := server.Priv(alpnGID())
	if !ok {
		t.Fatalf("alpn not recorded")
	}
	want := []string{"h2", "http/1.1"}
	got := alpnP.(alpnPriv).Protos
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("ALPNProtos = %v, want %v", got, want)
	}
}

func TestGenerateEmptyExtensionsTruncation(t *testing.T) {
	// A server that has received nothing sends no extension, so the hello's
	// empty extensions field is removed. (A client always sends
	// supported_versions and so never produces an empty ClientHello list.)
	s := NewSession(Server, TransportTLS)
	var buf Buffer
	if err := Generate(s, &buf, MsgTLS12ServerHello, ParseAny); err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if len(buf.Bytes()) != 0 {
		t.Fatalf("Generate() left %d bytes, want the placeholder truncated away", len(buf.Bytes()))
	}
}

func TestGenerateEEKeepsEmptyPlaceholder(t *testing.T) {
	s := NewSession(Server, TransportTLS)
	var buf Buffer
	if err := Generate(s, &buf, MsgEE, ParseAny); err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0x00, 0x00}) {
		t.Fatalf("Generate() = %x, want 0000 (placeholder kept for EE)", buf.Bytes())
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	s := NewSession(Client, TransportTLS)
	s.setUsed(TLSIDServerNameGID())
	s.SetPriv(TLSIDServerNameGID(), serverNamePriv{Name: "example.com"})

	var buf Buffer
	if err := Pack(s, &buf); err != nil {
		t.Fatalf("Pack() = %v", err)
	}

	s2 := NewSession(Client, TransportTLS)
	if err := Unpack(s2, buf.Bytes()); err != nil {
		t.Fatalf("Unpack() = %v", err)
	}
	d := s2.priv[TLSIDServerNameGID()]
	if !d.resumedSet {
		t.Fatalf("resumed priv not set")
	}
	if got := d.resumedPriv.(serverNamePriv).Name; got != "example.com" {
		t.Fatalf("resumed ServerName = %q, want %q", got, "example.com")
	}
}

func TestRegisterCollision(t *testing.T) {
	_, err := Register(&Entry{Name: "dup", TLSID: TLSIDServerName}, 0)
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("Register() = %v, want %v", err, ErrAlreadyRegistered)
	}
}

func TestHelloRetryRequestRandomLength(t *testing.T) {
	if len(helloRetryRequestRandom) != 32 {
		t.Fatalf("helloRetryRequestRandom length = %d, want 32", len(helloRetryRequestRandom))
	}
}

func TestUnpackCachedMatchesUnpack(t *testing.T) {
	s := NewSession(Client, TransportTLS)
	s.setUsed(TLSIDServerNameGID())
	s.SetPriv(TLSIDServerNameGID(), serverNamePriv{Name: "cached.example.com"})

	var buf Buffer
	if err := Pack(s, &buf); err != nil {
		t.Fatalf("Pack() = %v", err)
	}
	packed := buf.Bytes()

	for i := 0; i < 2; i++ {
		s2 := NewSession(Client, TransportTLS)
		if err := UnpackCached(s2, packed); err != nil {
			t.Fatalf("UnpackCached() iteration %d = %v", i, err)
		}
		d := s2.priv[TLSIDServerNameGID()]
		if !d.resumedSet {
			t.Fatalf("iteration %d: resumed priv not set", i)
		}
		if got := d.resumedPriv.(serverNamePriv).Name; got != "cached.example.com" {
			t.Fatalf("iteration %d: resumed ServerName = %q, want %q", i, got, "cached.example.com")
		}
	}
}
