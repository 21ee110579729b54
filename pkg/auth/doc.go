// Package auth implements the DPP authentication exchange.
//
// The Initiator knows the Responder's bootstrapping key (from a scanned URI)
// and proves nothing about itself unless the Responder also knows the
// Initiator's bootstrapping key, in which case mutual authentication is
// used. The key schedule is:
//
//	M  = bR * PI = pI * BR           k1 = HKDF(<>, "first intermediate key", M.x)
//	N  = pR * PI = pI * PR           k2 = HKDF(<>, "second intermediate key", N.x)
//	L  = (bR + pR) * BI = bI * (BR + PR)   (mutual only)
//	ke = HKDF(I-nonce | R-nonce, "DPP Key", M.x | N.x [| L.x])
//
// The authentication tags R-auth and I-auth hash both nonces and the x
// coordinates of all keys involved, and are carried wrapped under ke.
//
// All per-exchange secrets are held in an Arena and zeroized by Close.
package auth
