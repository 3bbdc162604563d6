// Package internal contains helper utilities that are intentionally private to authcore,
// chiefly bearer-token generation and token hashing.
//
// # Sub-packages
//
//   - flows: flow orchestrators for every Engine operation
//   - config: process configuration for the authcored binary
//   - telemetry: OpenTelemetry tracer provider bootstrap
//
// # What this package must NOT do
//
//   - Export types that appear in the public authcore API.
//   - Be imported by any package outside the authcore module.
package internal
