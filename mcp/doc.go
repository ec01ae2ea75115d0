// Package mcp defines the wire-level data model for the stateless MCP-style
// protocol served by this module: method identifiers, request/result payload
// shapes, capability descriptors and the protocol-defined logging levels.
//
// The package is deliberately limited to the surface a stateless server can
// reach. There are no subscription, sampling, roots or elicitation types
// because those flows require a server-initiated message channel, and this
// transport answers every envelope within a single HTTP exchange.
package mcp
