package pkdispatch

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/subtle"
	"fmt"
)

// RSAParams mirrors the reference's tagged RSA key record: n, e for the
// public half; d, p, q, coef (qInv), e1 (dP), e2 (dQ) for the private half,
// wrapped here as Go's native *rsa.PrivateKey / *rsa.PublicKey instead of
// loose big.Int fields, since crypto/rsa already owns that representation.
type RSAParams struct {
	Pub  *rsa.PublicKey
	Priv *rsa.PrivateKey
}

// RSAEncrypt performs PKCS#1 v1.5 encryption.
func RSAEncrypt(pub *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	if err := checkLibState(); err != nil {
		return nil, err
	}
	return rsa.EncryptPKCS1v15(rand.Reader, pub, plaintext)
}

// RSADecrypt performs blinded PKCS#1 v1.5 decryption. crypto/rsa's
// DecryptPKCS1v15 already blinds with an internal random factor (the
// "passes a random-fn to the low-level routine" behavior the reference
// describes), so no extra blinding step is needed here.
func RSADecrypt(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	if err := checkLibState(); err != nil {
		return nil, err
	}
	return rsa.DecryptPKCS1v15(rand.Reader, priv, ciphertext)
}

// RSADecrypt2 implements constant-time "implicit rejection": on a padding
// failure it returns a fixed-size buffer filled with bytes derived from a
// random key rather than an error, and the reported success flag is
// computed without a data-dependent branch, mirroring crypto/rsa's own
// DecryptPKCS1v15SessionKey (designed for exactly this purpose: blending a
// random fallback key so a Bleichenbacher oracle sees no distinguishable
// behavior between a valid and an invalid ciphertext).
func RSADecrypt2(priv *rsa.PrivateKey, ciphertext []byte, length int) (out []byte, ok bool, err error) {
	if err := checkLibState(); err != nil {
		return nil, false, err
	}
	randomKey := make([]byte, length)
	if _, err := rand.Read(randomKey); err != nil {
		return nil, false, err
	}
	result := make([]byte, length)
	copy(result, randomKey)
	decryptErr := rsa.DecryptPKCS1v15SessionKey(rand.Reader, priv, ciphertext, result)
	// decryptErr is non-nil only for malformed ciphertexts of the wrong
	// size or a key too small to hold length bytes, never for bad padding
	// (DecryptPKCS1v15SessionKey already folds that case into leaving
	// result untouched/random); both outcomes still return a fixed-size
	// buffer and a success flag, never a distinguishing error for the
	// padding-invalid case itself.
	success := subtle.ConstantTimeEq(int32(boolToInt(decryptErr == nil)), 1) == 1
	return result, success, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// RSASign signs digest (already hashed with hash) using PKCS#1 v1.5.
func RSASign(priv *rsa.PrivateKey, hash crypto.Hash, digest []byte) ([]byte, error) {
	if err := checkLibState(); err != nil {
		return nil, err
	}
	return rsa.SignPKCS1v15(rand.Reader, priv, hash, digest)
}

// RSAPSSSign signs digest using RSA-PSS with the given salt length. Length
// bounds (digest_len + salt_len + 2 <= key_bytes) are validated up front
// per §4.4; a violation is reported as ErrInvalidPubkeyParams rather than
// left for crypto/rsa's own (differently worded) error.
func RSAPSSSign(priv *rsa.PrivateKey, hash crypto.Hash, digest []byte, saltLen int) ([]byte, error) {
	if err := checkLibState(); err != nil {
		return nil, err
	}
	keyBytes := (priv.N.BitLen() + 7) / 8
	if hash.Size()+saltLen+2 > keyBytes {
		return nil, fmt.Errorf("%w: digest+salt too large for %d-byte key", ErrInvalidPubkeyParams, keyBytes)
	}
	return rsa.SignPSS(rand.Reader, priv, hash, digest, &rsa.PSSOptions{SaltLength: saltLen, Hash: hash})
}

// RSAPSSVerify verifies an RSA-PSS signature.
func RSAPSSVerify(pub *rsa.PublicKey, hash crypto.Hash, digest, sig []byte, saltLen int) error {
	if err := checkLibState(); err != nil {
		return err
	}
	if err := rsa.VerifyPSS(pub, hash, digest, sig, &rsa.PSSOptions{SaltLength: saltLen, Hash: hash}); err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	return nil
}

// RSAVerify verifies a PKCS#1 v1.5 signature.
func RSAVerify(pub *rsa.PublicKey, hash crypto.Hash, digest, sig []byte) error {
	if err := checkLibState(); err != nil {
		return err
	}
	if err := rsa.VerifyPKCS1v15(pub, hash, digest, sig); err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	return nil
}
