// Package auth protects the doorbell's administrative API.
//
// The doorbell has a single administrator. Their password is configured as
// an Argon2id PHC hash (security.admin_password_hash); a successful login
// returns a short-lived HS256 JWT that the API accepts as a bearer token
// or, for the live WebSocket stream, as a token query parameter.
package auth
