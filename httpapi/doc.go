// Package httpapi exposes an authcore Engine over HTTP.
//
// Routes live under /users:
//
//	POST /users/register      {"identity","password"}  201 user
//	POST /users/login         {"identity","password"}  200 {"token","expiresAt"}
//	POST /users/logout        {"token"} or bearer        204
//	POST /users/logout-all    bearer                     200 {"revoked"}
//	GET  /users/sessions      bearer                     200 [session]
//	GET  /users/user/token    ?token=                    200 {"valid":true,"session"}
//	GET  /users/user/{id}     bearer                     200 user
//
// Failures are {"error": message} with a fixed message per error kind. An
// invalid token on the validation route answers 401
// {"valid":false,"message":"Invalid token"} instead.
//
// The router also serves /healthz, /readyz and /metrics.
package httpapi
