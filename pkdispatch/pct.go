package pkdispatch

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
)

// canonicalPCTMessage is the fixed canned input signed/encrypted during the
// pairwise consistency test.
var canonicalPCTMessage = []byte("pairwise-consistency-test")

// PCTRSA performs the FIPS-mode pairwise consistency test for an RSA key
// pair: always sign-then-verify, and additionally encrypt-then-decrypt when
// signOnly is false. A failure trips the process-wide terminal error state
// per §4.4's "After any key generation in FIPS mode ... failure transitions
// the library to an unrecoverable error state."
func PCTRSA(priv *rsa.PrivateKey, signOnly bool) error {
	if !FIPSMode() {
		return nil
	}
	if err := checkLibState(); err != nil {
		return err
	}
	digest := sha256.Sum256(canonicalPCTMessage)
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	if err != nil {
		tripErrorState()
		return ErrPCTFailed
	}
	if err := rsa.VerifyPKCS1v15(&priv.PublicKey, crypto.SHA256, digest[:], sig); err != nil {
		tripErrorState()
		return ErrPCTFailed
	}
	if signOnly {
		return nil
	}
	ct, err := rsa.EncryptPKCS1v15(rand.Reader, &priv.PublicKey, canonicalPCTMessage)
	if err != nil {
		tripErrorState()
		return ErrPCTFailed
	}
	pt, err := rsa.DecryptPKCS1v15(rand.Reader, priv, ct)
	if err != nil || string(pt) != string(canonicalPCTMessage) {
		tripErrorState()
		return ErrPCTFailed
	}
	return nil
}

// PCTEd25519 performs the pairwise consistency test for a freshly generated
// Ed25519 key pair (Testable Property 7).
func PCTEd25519(priv ed25519.PrivateKey) error {
	if !FIPSMode() {
		return nil
	}
	if err := checkLibState(); err != nil {
		return err
	}
	sig := ed25519.Sign(priv, canonicalPCTMessage)
	pub := priv.Public().(ed25519.PublicKey)
	if !ed25519.Verify(pub, canonicalPCTMessage, sig) {
		tripErrorState()
		return ErrPCTFailed
	}
	return nil
}
