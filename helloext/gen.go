package helloext

import "fmt"

// Generate writes a 2-byte placeholder, records its offset on the session
// (for back-patching by the caller's record layer), then iterates the
// session's user-registered extensions first and the global registry
// second, emitting every entry whose validity intersects msgKind and the
// session's transport. The outer 2-byte length is back-patched afterward,
// and — for Hello messages only — truncated away if nothing was written.
func Generate(s *Session, buf *Buffer, msgKind Msg, parseType ParseType) error {
	s.currentMsg = msgKind

	outerPos := buf.appendInit()
	s.extensionsOffset = outerPos

	for _, e := range s.userExts {
		if err := emit(s, buf, msgKind, parseType, e); err != nil {
			return err
		}
	}
	for _, e := range global {
		if e == nil {
			continue
		}
		if err := emit(s, buf, msgKind, parseType, e); err != nil {
			return err
		}
	}

	return buf.appendFinal(outerPos, msgKind != MsgEE)
}

// emit writes one extension's (tls_id, inner_len, payload) onto buf,
// implementing the skip/rollback/advertise rules of hello_ext_send.
func emit(s *Session, buf *Buffer, msgKind Msg, parseType ParseType, e *Entry) error {
	if e.Send == nil {
		return nil
	}
	if parseType != ParseAny && e.ParseType != parseType {
		return nil
	}
	if s.Transport == TransportDTLS {
		if !e.Validity.HasTransport(TransportDTLS) {
			s.trace("EXT: not sending %s, invalid for DTLS\n", e)
			return nil
		}
	} else if !e.Validity.HasTransport(TransportTLS) {
		s.trace("EXT: not sending %s, invalid for TLS\n", e)
		return nil
	}
	if !e.Validity.HasMsg(msgKind) {
		s.trace("EXT: not sending %s, invalid for this message\n", e)
		return nil
	}

	already := s.Used(e.GID)
	if s.Entity == Server {
		if e.Validity&FlagIgnoreClientRequest == 0 && !already {
			return nil
		}
	} else if already {
		return nil
	}

	headerPos := buf.Len()
	buf.AppendUint16(e.TLSID)
	lenPos := buf.appendInit()

	before := buf.Len()
	emitEmpty, err := e.Send(s, buf)
	if err != nil {
		return fmt.Errorf("%s: %w", e, err)
	}
	appended := buf.Len() - before

	if appended == 0 && !emitEmpty {
		buf.Truncate(headerPos)
		return nil
	}
	if appended > 0xFFFF {
		return fmt.Errorf("%s: %w: extension too large", e, ErrMemoryError)
	}
	buf.patchUint16(lenPos, uint16(appended))

	if s.Entity == Client {
		s.setUsed(e.GID)
	}
	s.trace("EXT: sending %s (%d bytes)\n", e, appended)
	return nil
}
