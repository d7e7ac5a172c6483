package helloext

// helloRetryRequestRandom is the fixed 32-byte random value that
// distinguishes a HelloRetryRequest from an ordinary ServerHello at the
// transcript level (RFC 8446 §4.1.3). It must be reproduced bit-exact.
var helloRetryRequestRandom = []byte{
	0xCF, 0x21, 0xAD, 0x74, 0xE5, 0x9A, 0x61, 0x11, 0xBE, 0x1D, 0x8C, 0x02, 0x1E, 0x65, 0xB8, 0x91,
	0xC2, 0xA2, 0x11, 0x16, 0x7A, 0xBB, 0x8C, 0x5E, 0x07, 0x9E, 0x09, 0xE2, 0xC8, 0xA8, 0x33, 0x9C,
}

// IsHelloRetryRequest reports whether random matches the fixed HRR marker.
func IsHelloRetryRequest(random []byte) bool {
	if len(random) != len(helloRetryRequestRandom) {
		return false
	}
	for i := range random {
		if random[i] != helloRetryRequestRandom[i] {
			return false
		}
	}
	return true
}
