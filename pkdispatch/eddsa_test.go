package pkdispatch

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"testing"
)

// S4: RFC 8032 §7.1 test 1.
func TestEd25519RFC8032Test1(t *testing.T) {
	seed, _ := hex.DecodeString("9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60")
	wantSig, _ := hex.DecodeString(
		"e5564300c360ac729086e2cc806e828a84877f1eb8e5d974d873e065224901555fb8821590a33bacc61e39701cf9b46bd25bf5f0595bbe24655141438e7a100b")

	sig, err := EdDSASign25519(seed, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(sig, wantSig) {
		t.Fatalf("got %x, want %x", sig, wantSig)
	}

	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	if err := EdDSAVerify25519(pub, nil, sig); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestEd25519RejectsMismatchedPublicKey(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	otherSeed := make([]byte, ed25519.SeedSize)
	otherSeed[0] = 1
	wrongPub := ed25519.NewKeyFromSeed(otherSeed).Public().(ed25519.PublicKey)

	if _, err := EdDSASign25519(seed, wrongPub, []byte("msg")); err == nil {
		t.Fatal("expected mismatch error")
	}
}
