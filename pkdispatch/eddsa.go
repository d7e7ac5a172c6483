package pkdispatch

import (
	"crypto/ed25519"
	"fmt"

	circlEd448 "github.com/cloudflare/circl/sign/ed448"
)

// EdDSASign25519 signs message with an Ed25519 seed, recomputing the public
// key from the seed if pub is nil and cross-checking it otherwise, per
// §4.4's "public key is recomputed from the private seed on import if
// absent; if both are present they must agree".
func EdDSASign25519(seed []byte, pub ed25519.PublicKey, message []byte) ([]byte, error) {
	if err := checkLibState(); err != nil {
		return nil, err
	}
	priv := ed25519.NewKeyFromSeed(seed)
	derivedPub := priv.Public().(ed25519.PublicKey)
	if pub != nil && !derivedPub.Equal(pub) {
		return nil, fmt.Errorf("%w: supplied Ed25519 public key disagrees with seed", ErrInvalidRequest)
	}
	return ed25519.Sign(priv, message), nil
}

// EdDSAVerify25519 verifies an Ed25519 signature.
func EdDSAVerify25519(pub ed25519.PublicKey, message, sig []byte) error {
	if err := checkLibState(); err != nil {
		return err
	}
	if !ed25519.Verify(pub, message, sig) {
		return ErrVerificationFailed
	}
	return nil
}

// EdDSASign448 signs message with an Ed448 seed using circl's
// constant-time implementation (SHAKE256 internally, per RFC 8032).
func EdDSASign448(seed []byte, pub circlEd448.PublicKey, message []byte) ([]byte, error) {
	if err := checkLibState(); err != nil {
		return nil, err
	}
	priv := circlEd448.NewKeyFromSeed(seed)
	derivedPub := priv.Public().(circlEd448.PublicKey)
	if pub != nil && !derivedPub.Equal(pub) {
		return nil, fmt.Errorf("%w: supplied Ed448 public key disagrees with seed", ErrInvalidRequest)
	}
	return circlEd448.Sign(priv, message, ""), nil
}

// EdDSAVerify448 verifies an Ed448 signature.
func EdDSAVerify448(pub circlEd448.PublicKey, message, sig []byte) error {
	if err := checkLibState(); err != nil {
		return err
	}
	if !circlEd448.Verify(pub, message, sig, "") {
		return ErrVerificationFailed
	}
	return nil
}
