// Package pkdispatch implements the public-key operations (RSA, RSA-PSS,
// DSA, ECDSA, EdDSA, GOST-DSA, DH/ECDH) dispatched by algorithm tag, built
// on top of ecmath for curve arithmetic and asn1tree for DER signature
// serialization.
package pkdispatch

import (
	"errors"
	"sync/atomic"
)

// Sentinel errors, matching the taxonomy of §7: Format, Range, Policy,
// Resource, State, Crypto.
var (
	ErrInvalidPubkeyParams = errors.New("invalid public key parameters")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrVerificationFailed  = errors.New("signature verification failed")
	ErrPCTFailed           = errors.New("pairwise consistency test failed")
	ErrSelfTestFailed      = errors.New("self-test failed")
	ErrLibraryInErrorState = errors.New("library is in a terminal error state")
	ErrZeroSharedSecret    = errors.New("shared secret is all-zero")
)

// Algorithm tags selecting the public-key operation family.
type Algorithm int

const (
	AlgRSA Algorithm = iota
	AlgRSAPSS
	AlgDSA
	AlgECDSA
	AlgEdDSA25519
	AlgEdDSA448
	AlgGOSTDSA
	AlgDH
	AlgECDH
)

// libState is the single process-wide terminal-error-state flag: once any
// self-test or PCT fails, every subsequent primitive call observes it and
// refuses to operate, per §7's "Self-test and PCT failures transition the
// library to a terminal error state" rule. Checked at every primitive's
// entry via checkLibState.
var libState atomic.Bool // true once tripped

// LibraryOK reports whether the library is still usable.
func LibraryOK() bool { return !libState.Load() }

// tripErrorState permanently disables all further crypto operations.
func tripErrorState() { libState.Store(true) }

func checkLibState() error {
	if libState.Load() {
		return ErrLibraryInErrorState
	}
	return nil
}

// FIPSMode gates whether deterministic (RFC 6979) signing is permitted
// outside self-test, and whether PCT runs after key generation.
var fipsMode atomic.Bool

// SetFIPSMode enables or disables FIPS-mode policy checks.
func SetFIPSMode(on bool) { fipsMode.Store(on) }

// FIPSMode reports the current FIPS-mode setting.
func FIPSMode() bool { return fipsMode.Load() }

// selfTestMode marks that the library is currently running its own
// self-tests, the one context where deterministic signing is permitted even
// under FIPS mode.
var selfTestMode atomic.Bool

// SetSelfTestMode toggles the self-test context flag.
func SetSelfTestMode(on bool) { selfTestMode.Store(on) }

func deterministicAllowed(reproducible bool) bool {
	if !reproducible && !selfTestMode.Load() {
		return false
	}
	if fipsMode.Load() && !selfTestMode.Load() {
		return false
	}
	return true
}
