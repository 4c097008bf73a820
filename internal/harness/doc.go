// Package harness runs YAML conformance scenarios against the deep-link
// parser.
//
// A scenario configures a parser (scheme, hosts, static identifier lookups),
// runs a list of parse and create steps, checks each step's expect clause
// and then evaluates trace assertions. Every run produces a trace: one event
// per step with the resolved route, parameters and rendered URLs, or the
// error code. Traces serialize to canonical JSON so they can be compared
// byte-for-byte against golden files.
//
// Each run also records its parse results into a private in-memory corpus
// and re-verifies it at the end, so a scenario fails if resolving the same
// URL twice gives different answers.
//
// Example scenario:
//
//	name: join-place
//	description: place links resolve on both surfaces
//	lookups:
//	  place_universe: {1818: 13058}
//	steps:
//	  - parse: roblox://placeId=1818
//	    expect:
//	      route: joinPlace
//	      params: {placeId: "1818"}
//	assertions:
//	  - type: round_trip
package harness
