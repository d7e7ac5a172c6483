package ecmath

import "math/big"

func mustHex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("ecmath: invalid hex constant " + s)
	}
	return v
}

// P256 is the NIST P-256 / secp256r1 curve (FIPS 186-4 D.1.2.3), provided
// as a ready-to-use WeierstrassCurve descriptor for callers (such as
// cmd/tlscore-inspect) that need to validate a TLS key_share point without
// hand-assembling curve parameters.
func P256() *WeierstrassCurve {
	p := mustHex("FFFFFFFF00000001000000000000000000000000FFFFFFFFFFFFFFFFFFFFFFFF")
	n := mustHex("FFFFFFFF00000000FFFFFFFFFFFFFFFFBCE6FAADA7179E84F3B9CAC2FC632551")
	return &WeierstrassCurve{
		Name:    "P-256",
		P:       NewField(p),
		N:       NewField(n),
		A:       mustHex("FFFFFFFF00000001000000000000000000000000FFFFFFFFFFFFFFFFFFFFFFFC"),
		B:       mustHex("5AC635D8AA3A93E7B3EBBD55769886BC651D06B0CC53B0F63BCE3C3E27D2604B"),
		Gx:      mustHex("6B17D1F2E12C4247F8BCE6E563A440F277037D812DEB33A0F4A13945D898C296"),
		Gy:      mustHex("4FE342E2FE1A7F9B8EE7EB4A7C0F9E162BCE33576B315ECECBB6406837BF51F5"),
		BitSize: 256,
	}
}

// P384 is the NIST P-384 / secp384r1 curve (FIPS 186-4 D.1.2.4).
func P384() *WeierstrassCurve {
	p := mustHex("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFE" +
		"FFFFFFFF0000000000000000FFFFFFFF")
	n := mustHex("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFC7634D81F4372DDF" +
		"581A0DB248B0A77AECEC196ACCC52973")
	return &WeierstrassCurve{
		Name: "P-384",
		P:    NewField(p),
		N:    NewField(n),
		A: mustHex("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFE" +
			"FFFFFFFF0000000000000000FFFFFFFC"),
		B: mustHex("B3312FA7E23EE7E4988E056BE3F82D19181D9C6EFE8141120314088F5013875A" +
			"C656398D8A2ED19D2A85C8EDD3EC2AEF"),
		Gx: mustHex("AA87CA22BE8B05378EB1C71EF320AD746E1D3B628BA79B9859F741E082542A38" +
			"5502F25DBF55296C3A545E3872760AB7"),
		Gy: mustHex("3617DE4A96262C6F5D9E98BF9292DC29F8F41DBD289A147CE9DA3113B5F0B8C0" +
			"0A60B1CE1D7E819D7A431D7C90EA0E5F"),
		BitSize: 384,
	}
}
