// Package bootstrap implements DPP bootstrapping information.
//
// # Overview
//
// Before two devices can run DPP Authentication, the initiator must learn
// the responder's bootstrapping public key out of band. This package
// generates and parses that information in its URI form, as displayed in a
// QR code, written to an NFC tag or copied by hand.
//
// # URI Format
//
//	DPP:[C:<opclass>/<channel>,...;][M:<mac>;][I:<info>;][V:<version>;]K:<key>;;
//
// Example:
//
//	DPP:C:81/1,115/36;I:SN=4774LH2b4044;M:5254005828e5;V:2;K:MDkwEwYHKoZIzj0CAQYIKoZIzj0DAQcDIgADURzxmttZoIRIPWGoQMV00XHWCAQIhXruVWOz0NjlkIA=;;
//
// K carries the base64 encoded DER SubjectPublicKeyInfo of the bootstrapping
// key. C lists the channels the device listens on, as global operating class
// and channel number pairs. M is the device MAC address without separators.
// The URI always ends with a double semicolon and nothing may follow it.
//
// # Cryptographic Parameters
//
//   - Curves: P-256, P-384, P-521 (IKE groups 19, 20, 21)
//   - Bootstrapping key hash: SHA-256 over the DER SubjectPublicKeyInfo
package bootstrap
