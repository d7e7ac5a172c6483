// Package tlscore implements the core cryptographic subsystems shared by a
// TLS 1.2/1.3 stack: Hello-Extension wire framing, an ASN.1 DER codec with a
// tree-structured node model, elliptic-curve arithmetic for the
// short-Weierstrass, twisted-Edwards, Montgomery and GOST curve families, and
// a public-key dispatch layer built on top of the other three.
//
//	raw bytes --> helloext.Parse --> per-extension callback --> pkdispatch --> ecmath
//
// Emission reverses the flow: pkdispatch produces signatures and key shares,
// asn1tree serialises DSA/ECDSA signatures and SubjectPublicKeyInfo, and
// helloext.Generate emits the resulting extensions with back-patched length
// fields.
//
// Handshake orchestration, certificate path building, cipher-suite policy,
// and session-ticket persistence are not part of this module; they are
// external collaborators that call into it. See the four subpackages:
//
//	helloext/    TLS extension dispatch and wire framing
//	asn1tree/    ASN.1 DER tree codec
//	ecmath/      elliptic-curve field and point arithmetic
//	pkdispatch/  RSA/DSA/ECDSA/EdDSA/GOST-DSA/DH dispatch
package tlscore
