package helloext

import (
	"fmt"
	"io"
	"sync"
)

// global is the process-local gid-indexed array of built-in extensions,
// the Go analogue of hello_ext.c's static extfunc[MAX_EXT_TYPES+1] table.
// It is documented as not thread-safe (§5): a correct deployment performs
// all Register calls before handing sessions to worker threads.
var (
	globalMu   sync.Mutex
	global     [MaxExtTypes]*Entry
	globalNext uint
)

// RegisterFlags controls optional behavior of Register.
type RegisterFlags uint

const (
	// OverrideInternal permits replacing a built-in entry that collides
	// on TLSID, provided the existing entry's CannotBeOverridden is false.
	OverrideInternal RegisterFlags = 1 << iota
)

// Register adds a new built-in extension, valid for every session, the
// analogue of gnutls_ext_register. It fails with ErrAlreadyRegistered if
// TLSID collides with an existing global entry unless flags carries
// OverrideInternal and the colliding entry permits it. The gid assigned is
// one above the maximum gid currently used; if that would exceed
// MaxExtTypes, ErrMemoryError is returned.
func Register(e *Entry, flags RegisterFlags) (uint, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	gid := uint(0)
	for i, existing := range global {
		if existing == nil {
			continue
		}
		if existing.TLSID == e.TLSID {
			if flags&OverrideInternal == 0 || existing.CannotBeOverridden {
				return 0, fmt.Errorf("%w: tls_id %d", ErrAlreadyRegistered, e.TLSID)
			}
			gid = uint(i)
			goto assign
		}
		if existing.GID >= gid {
			gid = existing.GID + 1
		}
	}
	if gid >= MaxExtTypes {
		return 0, fmt.Errorf("%w: gid space exhausted", ErrMemoryError)
	}

assign:
	if e.Validity&(msgMask|transportMask) == 0 {
		e.Validity = DefaultValidity | vt(TransportTLS) | vt(TransportDTLS)
	}
	e.GID = gid
	global[gid] = e
	return gid, nil
}

// lookupGlobalByTLSID scans the built-in table for a matching TLS id,
// honoring parseType the way tls_id_to_ext_entry does.
func lookupGlobalByTLSID(tlsID uint16, parseType ParseType) *Entry {
	for _, e := range global {
		if e == nil || e.TLSID != tlsID {
			continue
		}
		if parseType == ParseAny || e.ParseType == parseType {
			return e
		}
		return nil
	}
	return nil
}

func lookupGlobalByGID(gid uint) *Entry {
	if gid >= MaxExtTypes {
		return nil
	}
	return global[gid]
}

// Session is per-connection extension state: the Go analogue of the
// extension-related fields of gnutls_session_t's internals (used_exts,
// ext_data, rexts, full ClientHello capture, current message tag).
type Session struct {
	Entity          Entity
	Transport       Transport
	Trace           io.Writer // defaults to io.Discard; never nil after NewSession

	usedExts   uint64
	userExts   []*Entry
	priv       [MaxExtTypes]extData
	currentMsg Msg

	fullClientHello  []byte
	extensionsOffset int
}

type extData struct {
	set         bool
	priv        any
	resumedSet  bool
	resumedPriv any
}

// Entity distinguishes which side of the handshake a Session represents;
// several dispatch rules in §4.1 differ for client vs server.
type Entity int

const (
	Client Entity = iota
	Server
)

// NewSession returns a ready-to-use Session for the given entity/transport.
func NewSession(entity Entity, transport Transport) *Session {
	return &Session{Entity: entity, Transport: transport, Trace: io.Discard}
}

func (s *Session) trace(format string, args ...any) {
	fmt.Fprintf(s.Trace, format, args...)
}

// RegisterSession adds a session-scoped extension, the analogue of
// gnutls_session_ext_register. A TLSID that collides with a global entry is
// accepted only when flags has OverrideInternal and that entry is not
// CannotBeOverridden; duplicate TLSIDs within the same session vector are
// always rejected.
func (s *Session) RegisterSession(e *Entry, flags RegisterFlags) (uint, error) {
	globalMu.Lock()
	gid := uint(0)
	for i, existing := range global {
		if existing == nil {
			continue
		}
		if existing.TLSID == e.TLSID {
			if flags&OverrideInternal == 0 || existing.CannotBeOverridden {
				globalMu.Unlock()
				return 0, fmt.Errorf("%w: tls_id %d", ErrAlreadyRegistered, e.TLSID)
			}
		}
		if existing.GID >= gid {
			gid = existing.GID + 1
		}
		_ = i
	}
	globalMu.Unlock()

	for _, existing := range s.userExts {
		if existing.TLSID == e.TLSID {
			return 0, fmt.Errorf("%w: tls_id %d", ErrAlreadyRegistered, e.TLSID)
		}
		if existing.GID >= gid {
			gid = existing.GID + 1
		}
	}
	if gid >= MaxExtTypes {
		return 0, fmt.Errorf("%w: gid space exhausted", ErrMemoryError)
	}

	if e.Validity&(msgMask|transportMask) == 0 {
		e.Validity = DefaultValidity
		if s.Transport == TransportDTLS {
			e.Validity = WithTransport(e.Validity, TransportDTLS)
		} else {
			e.Validity = WithTransport(e.Validity, TransportTLS)
		}
	} else if e.Validity&transportMask == 0 {
		if s.Transport == TransportDTLS {
			e.Validity = WithTransport(e.Validity, TransportDTLS)
		} else {
			e.Validity = WithTransport(e.Validity, TransportTLS)
		}
	}

	e.GID = gid
	s.userExts = append(s.userExts, e)
	return gid, nil
}

func (s *Session) lookupByTLSID(tlsID uint16, parseType ParseType) *Entry {
	for _, e := range s.userExts {
		if e.TLSID == tlsID {
			if parseType == ParseAny || e.ParseType == parseType {
				return e
			}
			return nil
		}
	}
	return lookupGlobalByTLSID(tlsID, parseType)
}

func (s *Session) lookupByGID(gid uint) *Entry {
	for _, e := range s.userExts {
		if e.GID == gid {
			return e
		}
	}
	return lookupGlobalByGID(gid)
}

// Used reports whether gid has been recorded as seen/advertised.
func (s *Session) Used(gid uint) bool {
	if gid >= 64 {
		return false
	}
	return s.usedExts&(1<<gid) != 0
}

func (s *Session) setUsed(gid uint) {
	if gid < 64 {
		s.usedExts |= 1 << gid
	}
}

// SetPriv stores priv as extension gid's current private data, releasing
// any previous value via its Deinit callback first.
func (s *Session) SetPriv(gid uint, priv any) {
	s.unsetPriv(gid)
	s.priv[gid].set = true
	s.priv[gid].priv = priv
}

func (s *Session) unsetPriv(gid uint) {
	d := &s.priv[gid]
	if !d.set {
		return
	}
	if e := s.lookupByGID(gid); e != nil && e.Deinit != nil && d.priv != nil {
		e.Deinit(d.priv)
	}
	d.set = false
	d.priv = nil
}

// Priv retrieves extension gid's current private data.
func (s *Session) Priv(gid uint) (any, bool) {
	d := &s.priv[gid]
	return d.priv, d.set
}

// Deinit releases every extension's private data, current and resumed,
// the analogue of _gnutls_hello_ext_priv_deinit.
func (s *Session) Deinit() {
	for gid := range s.priv {
		d := &s.priv[gid]
		if !d.set && !d.resumedSet {
			continue
		}
		e := s.lookupByGID(uint(gid))
		if e == nil || e.Deinit == nil {
			continue
		}
		if d.set && d.priv != nil {
			e.Deinit(d.priv)
		}
		if d.resumedSet && d.resumedPriv != nil {
			e.Deinit(d.resumedPriv)
		}
		d.set, d.priv = false, nil
		d.resumedSet, d.resumedPriv = false, nil
	}
}

// SetFullClientHello captures the full ClientHello for the TLS 1.3
// transcript (§3 Session Extension State).
func (s *Session) SetFullClientHello(b []byte) { s.fullClientHello = append([]byte(nil), b...) }

// FullClientHello returns the captured ClientHello, if any.
func (s *Session) FullClientHello() ([]byte, bool) {
	if len(s.fullClientHello) == 0 {
		return nil, false
	}
	return s.fullClientHello, true
}
