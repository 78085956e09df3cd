package common

const (
	// AuthorizationHeaderName is the HTTP header and gRPC metadata key that
	// carries the bearer access token.
	AuthorizationHeaderName = "authorization"

	// TokenType is the token_type reported with every issued access token.
	TokenType = "bearer"
)
