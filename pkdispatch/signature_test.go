package pkdispatch

import (
	"math/big"
	"testing"
)

func TestDSASignatureDEREncodeDecodeRoundTrip(t *testing.T) {
	sig := &DSASignature{R: big.NewInt(12345), S: big.NewInt(67890)}
	der, err := EncodeDSASignature(sig)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeDSASignature(der)
	if err != nil {
		t.Fatal(err)
	}
	if got.R.Cmp(sig.R) != 0 || got.S.Cmp(sig.S) != 0 {
		t.Fatalf("round trip mismatch: got r=%v s=%v, want r=%v s=%v", got.R, got.S, sig.R, sig.S)
	}
}

func TestDSASignatureDEREncodeHighBitPadding(t *testing.T) {
	// R's top byte has its high bit set; the DER INTEGER encoding must
	// prepend a 0x00 pad byte so the value doesn't decode as negative.
	sig := &DSASignature{R: big.NewInt(0xFF), S: big.NewInt(1)}
	der, err := EncodeDSASignature(sig)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeDSASignature(der)
	if err != nil {
		t.Fatal(err)
	}
	if got.R.Cmp(sig.R) != 0 {
		t.Fatalf("got r=%v, want r=%v", got.R, sig.R)
	}
}

func TestDSASignatureDEREncodeZero(t *testing.T) {
	sig := &DSASignature{R: big.NewInt(0), S: big.NewInt(1)}
	der, err := EncodeDSASignature(sig)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeDSASignature(der)
	if err != nil {
		t.Fatal(err)
	}
	if got.R.Sign() != 0 {
		t.Fatalf("got r=%v, want 0", got.R)
	}
}
