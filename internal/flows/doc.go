// Package flows contains the orchestration behind every Engine operation.
//
// Each Run* function takes a typed dependency struct and has no side effects
// beyond what those dependencies do. Host sentinels, metric ids and logging
// hooks are passed in, so the Engine stays thin and the flows can be tested
// against fakes.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authcore (to avoid import cycles).
//   - Perform I/O directly. Stores and the session service are reached only
//     through the dependency structs.
package flows
