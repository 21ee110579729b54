// Package discovery advertises and browses DPP bootstrap information over
// mDNS/DNS-SD.
//
// A device that wants to be found publishes its DPP URI under the
// _dpp._udp service type. The instance name is DPP-<fingerprint>, where the
// fingerprint is the first 64 bits of the bootstrap key hash, so that the
// same key always maps to the same instance.
//
// # TXT records
//
//	role  enrollee or configurator
//	name  device name (optional)
//	ver   DPP protocol version
//	u0..  the DPP URI, split into chunks of at most 200 bytes
//
// A browser reassembles the URI chunks and validates the result with
// bootstrap.Parse before reporting the service. Entries whose URI does not
// parse are ignored.
package discovery
