package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "bearer"

// UnknownCountry is recorded when the geolocation lookup fails.
const UnknownCountry = "Unknown"
