// Package dpp implements the Device Provisioning Protocol state machine.
//
// An Engine drives onboarding exchanges for one device over a
// transport.Radio. Each exchange is a Session parameterised by role
// (Enrollee or Configurator) and by whether the local side initiates the
// Authentication exchange; all four combinations are supported:
//
//	uri, _ := engine.StartEnrollee(ctx, dpp.StartOptions{})           // show uri as QR code
//	s, _ := engine.StartConfiguratorInitiator(ctx, scannedURI, dpp.StartOptions{})
//
// Frames heard by the radio are fed to Engine.HandleFrame. A Session moves
// through Idle, BootstrapAdvertised, AuthRequested, AuthResponded,
// AuthConfirmed and ConfigRequested to Provisioned, or ends in Failed or
// Aborted. An Enrollee hands the received credentials to its ProfileSink
// only on Provisioned. Secrets of a Session are wiped on its terminal
// transition.
//
// Frames whose transaction id is unknown, stale or belongs to a finished
// step are dropped without affecting any Session.
package dpp
