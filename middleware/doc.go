// Package middleware adapts authcore.Engine validation to net/http.
//
// # Guards
//
//   - [Guard] refuses requests without an active bearer token with a
//     plain-text 401.
//   - [GuardWithErrorHandler] lets the transport write its own refusals.
//
// Both read the Authorization header, call Engine.Validate, and put the
// validated session in the request context for [SessionFromContext].
//
// # What this package must NOT do
//
//   - Decide who may read which user (the Engine's guard does that).
//   - Access Redis or the user store.
package middleware
