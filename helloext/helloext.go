// Package helloext implements the TLS Hello-Extension engine: a
// length-prefixed iteration over extension blobs, a registry of per-extension
// handlers with validity masks, and extension emission with back-patched
// size fields.
//
// The wire format, dispatch order, and registration rules follow RFC 8446
// §4.2 and the pre-shared-key-must-be-last rule of §4.2.11.
package helloext

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// MaxExtTypes bounds the dense gid space; used_exts is a bitset this wide.
const MaxExtTypes = 64

// Sentinel errors, matching the teacher's flat errors.New + fmt.Errorf("%w: ...") style.
var (
	ErrUnexpectedExtensionsLength = errors.New("unexpected extensions length")
	ErrReceivedIllegalParameter   = errors.New("received illegal parameter")
	ErrReceivedIllegalExtension   = errors.New("received illegal extension")
	ErrRequestedDataNotAvailable  = errors.New("requested data not available")
	ErrAlreadyRegistered          = errors.New("already registered")
	ErrMemoryError                = errors.New("memory error")
	ErrParsingError                = errors.New("parsing error")
)

// Msg identifies which handshake message is currently being parsed or
// generated. Extension validity masks are checked against this.
type Msg uint16

const (
	MsgClientHello Msg = 1 << iota
	MsgTLS12ServerHello
	MsgTLS13ServerHello
	MsgEE
	MsgHRR
)

// Transport selects TLS vs DTLS framing and extension-validity filtering.
type Transport uint16

const (
	TransportTLS Transport = 1 << iota
	TransportDTLS
)

// Validity is a bitmask of Msg and Transport flags plus the behavioral
// flag below (FlagIgnoreClientRequest), mirroring GNUTLS_EXT_FLAG_*.
type Validity uint32

const (
	FlagIgnoreClientRequest Validity = 1 << 16
)

func v(m Msg) Validity { return Validity(m) }
func vt(t Transport) Validity { return Validity(t) << 8 }

// msgMask / transportMask isolate the message and transport bits of a Validity.
const (
	msgMask       = Validity(MsgClientHello | MsgTLS12ServerHello | MsgTLS13ServerHello | MsgEE | MsgHRR)
	transportMask = Validity(TransportTLS|TransportDTLS) << 8
)

// DefaultValidity is applied when a registration doesn't specify one:
// CLIENT_HELLO | TLS12_SERVER_HELLO | EE, plus transport bits: Register adds
// both TLS and DTLS, RegisterSession adds the session's own transport.
const DefaultValidity = Validity(MsgClientHello | MsgTLS12ServerHello | MsgEE)

// WithMsg ORs a message flag into a Validity.
func WithMsg(val Validity, m Msg) Validity { return val | Validity(m) }

// WithTransport ORs a transport flag into a Validity.
func WithTransport(val Validity, t Transport) Validity { return val | Validity(t)<<8 }

// HasMsg reports whether val is valid for message m.
func (val Validity) HasMsg(m Msg) bool { return val&Validity(m) != 0 }

// HasTransport reports whether val is valid for transport t.
func (val Validity) HasTransport(t Transport) bool { return val&(Validity(t)<<8) != 0 }

// PreSharedKeyTLSID is the numeric TLS extension id that must be the last
// extension in a ClientHello (RFC 8446 §4.2.11).
const PreSharedKeyTLSID = 41

// ParseType filters which parser an extension is valid for.
type ParseType int

const (
	ParseAny ParseType = iota
	ParseClient
	ParseClientAuth
	ParseTLS12Server
	ParseEncryptedExt
)

// Entry is one registered extension, the Go analogue of GnuTLS's
// hello_ext_entry_st. Recv/Send/Pack/Unpack/Deinit model the four function
// pointers and the deinit callback; a nil field means "not supported", as in
// the original (recv_func == NULL means "ignore").
type Entry struct {
	Name      string
	TLSID     uint16
	GID       uint
	ParseType ParseType
	Validity  Validity

	// Recv processes a received extension payload. A negative-equivalent
	// error is propagated unchanged to the caller.
	Recv func(s *Session, data []byte) error
	// Send appends the extension's payload to buf. When it appends
	// nothing, returning (true, nil) emits an explicit empty extension and
	// (false, nil) causes the 4-byte header to be rolled back.
	Send func(s *Session, buf *Buffer) (emitEmpty bool, err error)
	// Pack/Unpack serialise this extension's private data for session
	// resumption.
	Pack   func(priv any, buf *Buffer) error
	Unpack func(r *cryptobyte.String) (priv any, err error)
	// Deinit releases/zeroises any private data held for this extension.
	Deinit func(priv any)

	CannotBeOverridden bool
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s(%d)", e.Name, e.TLSID)
}
