// Package common contains shared constants and sentinel errors used across
// gophtodo components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the only accepted authorization scheme.
const BearerScheme = "Bearer"

// DateLayout is the wire format of calendar dates (target_date etc).
const DateLayout = "2006-01-02"
