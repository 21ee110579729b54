// Package frame encodes and decodes DPP action frames.
//
// Authentication and Configuration Result frames are vendor specific public
// action frames:
//
//	04 09 50 6f 9a 1a 01 <type> <attributes>
//
// The configuration exchange runs over GAS initial request/response frames
// (04 0a / 04 0b) carrying the DPP advertisement protocol identifier, with
// the attributes as query body.
//
// Attributes are encoded as little-endian id(2) length(2) followed by the
// value. Every frame produced by this package carries a Transaction ID
// attribute so receivers can route it to the right session.
package frame
