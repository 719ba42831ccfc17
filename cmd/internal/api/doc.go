// Package api is the HTTP boundary: a chi router exposing the account and
// session operations as JSON endpoints under /api/1.0, with bearer-token
// authentication backed by the session service.
package api
