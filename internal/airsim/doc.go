// Package airsim simulates the 802.11 medium for DPP tests.
//
// Stations listen on one channel at a time. A frame sent on a channel is
// heard by every other station tuned to it whose address matches the
// destination (or any station for broadcast), and is acknowledged when at
// least one station heard it. Delivery is queued and performed by Flush,
// so a station that answers from inside its receive handler never
// re-enters the sender.
//
// Drop rules mirror mac80211_hwsim rules: a frame whose bytes at Offset
// start with Prefix is discarded (and not acknowledged) until the rule has
// matched Times frames.
package airsim
