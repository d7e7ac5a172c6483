package helloext

import (
	"crypto/sha256"
	"fmt"

	"github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/cryptobyte"
)

// resumptionCacheSize bounds the number of distinct packed resumption blobs
// whose parsed private-data maps are kept around. A TLS terminator under
// load replays the same few session tickets far more often than it sees
// fresh ones, so a small bounded cache turns repeat Unpack calls for an
// already-seen ticket into a map copy instead of a full re-parse.
const resumptionCacheSize = 4096

// resumptionCache maps a packed blob's fingerprint to its parsed gid->priv
// map. Built lazily since most callers never touch session resumption.
var resumptionCache *lru.Cache[[32]byte, map[uint]any]

func getResumptionCache() *lru.Cache[[32]byte, map[uint]any] {
	if resumptionCache == nil {
		c, err := lru.New[[32]byte, map[uint]any](resumptionCacheSize)
		if err != nil {
			panic(err) // only returns an error for a non-positive size
		}
		resumptionCache = c
	}
	return resumptionCache
}

// Pack writes a 4-byte count placeholder, then for each gid in [0, MaxExtTypes)
// whose bit is set in usedExts and whose entry carries a Pack callback:
// writes gid (4B), a 4-byte inner-length placeholder, calls Pack to append
// the serialized private data, and back-patches the inner length.
func Pack(s *Session, buf *Buffer) error {
	countPos := buf.Len()
	buf.AppendUint32(0)

	var n uint32
	for gid := uint(0); gid < MaxExtTypes; gid++ {
		if !s.Used(gid) {
			continue
		}
		e := s.lookupByGID(gid)
		if e == nil || e.Pack == nil {
			continue
		}
		priv, ok := s.Priv(gid)
		if !ok {
			continue
		}

		buf.AppendUint32(uint32(gid))
		lenPos := buf.Len()
		buf.AppendUint32(0)
		before := buf.Len()
		if err := e.Pack(priv, buf); err != nil {
			return fmt.Errorf("%s: %w", e, err)
		}
		buf.patchUint32(lenPos, uint32(buf.Len()-before))
		n++
	}
	buf.patchUint32(countPos, n)
	return nil
}

// Unpack is the inverse of Pack. It strictly verifies that the inner
// callback consumed exactly the stated length for each entry, returning
// ErrParsingError otherwise.
func Unpack(s *Session, packed []byte) error {
	priv, err := unpackAll(s, packed)
	if err != nil {
		return err
	}
	for gid, p := range priv {
		s.setResumedPriv(gid, p)
	}
	return nil
}

// UnpackCached behaves like Unpack but consults a bounded LRU keyed by the
// packed blob's SHA-256 fingerprint first, skipping the full parse (and
// every extension's Unpack callback) when an identical blob was seen
// before. Intended for session-ticket resumption, where the same ticket is
// commonly replayed many times in a short window.
func UnpackCached(s *Session, packed []byte) error {
	fp := sha256.Sum256(packed)
	cache := getResumptionCache()
	if priv, ok := cache.Get(fp); ok {
		for gid, p := range priv {
			s.setResumedPriv(gid, p)
		}
		return nil
	}
	priv, err := unpackAll(s, packed)
	if err != nil {
		return err
	}
	cache.Add(fp, priv)
	for gid, p := range priv {
		s.setResumedPriv(gid, p)
	}
	return nil
}

// unpackAll parses packed into a gid->priv map without mutating s, so the
// result can be cached and replayed by UnpackCached.
func unpackAll(s *Session, packed []byte) (map[uint]any, error) {
	b := cryptobyte.String(packed)
	var count uint32
	if !b.ReadUint32(&count) {
		return nil, fmt.Errorf("%w: truncated count", ErrParsingError)
	}
	result := make(map[uint]any, count)
	for i := uint32(0); i < count; i++ {
		var gid, size uint32
		if !b.ReadUint32(&gid) || !b.ReadUint32(&size) {
			return nil, fmt.Errorf("%w: truncated entry header", ErrParsingError)
		}
		if uint32(len(b)) < size {
			return nil, fmt.Errorf("%w: entry %d length overruns buffer", ErrParsingError, gid)
		}
		var body []byte
		if !b.ReadBytes(&body, int(size)) {
			return nil, fmt.Errorf("%w: truncated entry body", ErrParsingError)
		}
		inner := cryptobyte.String(body)

		e := s.lookupByGID(uint(gid))
		if e == nil || e.Unpack == nil {
			return nil, fmt.Errorf("%w: no unpack for gid %d", ErrParsingError, gid)
		}
		before := len(inner)
		priv, err := e.Unpack(&inner)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e, err)
		}
		if consumed := before - len(inner); consumed != int(size) {
			return nil, fmt.Errorf("%w: gid %d consumed %d, expected %d", ErrParsingError, gid, consumed, size)
		}
		result[uint(gid)] = priv
	}
	return result, nil
}

func (s *Session) setResumedPriv(gid uint, priv any) {
	d := &s.priv[gid]
	if d.resumedSet && d.resumedPriv != nil {
		if e := s.lookupByGID(gid); e != nil && e.Deinit != nil {
			e.Deinit(d.resumedPriv)
		}
	}
	d.resumedSet = true
	d.resumedPriv = priv
}
