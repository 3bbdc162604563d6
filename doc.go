// Package authcore registers users, logs them in with opaque bearer tokens,
// and guards identifier-based user lookups.
//
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config]
// and value types ([User], [Session], [ValidationResult]). Credential
// storage lives in userstore, hashing in password, the token lifecycle in
// session and flow orchestration under internal/.
//
// # Error contract
//
// Every failure is one of the sentinels in errors.go. Credential and token
// failures are deliberately vague: [ErrInvalidCredentials] never says which
// half of the pair was wrong and [ErrInvalidToken] never says whether a token
// expired, was revoked or never existed. Storage failures surface as
// [ErrInternal]; the cause is logged, not returned.
//
// # What this package must NOT do
//
//   - Expose password hashes, Redis clients or store internals in its API.
//   - Log plaintext passwords or tokens.
//   - Import any sub-package that re-imports authcore (no import cycles).
package authcore
