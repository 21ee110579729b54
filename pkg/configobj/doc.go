// Package configobj encodes the DPP configuration exchange payloads.
//
// The Configurator hands the Enrollee a JSON configuration object:
//
//	{
//	  "wi-fi_tech": "infra",
//	  "discovery": {"ssid": "ssidCCMP"},
//	  "cred": {"akm": "psk", "pass": "secret123"}
//	}
//
// or, for DPP network access, a credential carrying a signed Connector and
// the Configurator's C-sign key:
//
//	"cred": {"akm": "dpp", "signedConnector": "<JWS>", "csign": {<JWK>}}
//
// Payloads travel as wrapped attributes under the session key ke, with
// associated data binding them to the frame type, protocol version and
// transaction id.
package configobj
