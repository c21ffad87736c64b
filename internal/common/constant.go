package common

// Parameter and metadata names understood by the session layer.
const (
	ParamUsername = "username"
	ParamPassword = "password"
	ParamAPIKey   = "api_key"
	ParamKey      = "key"
)

// SessionKeyName is the carrier key (cookie value, gRPC metadata entry) that
// holds the persisted session key between requests.
const SessionKeyName = "gophauth-session"

// APIKeyHeaderName is the HTTP header / gRPC metadata key carrying an API key.
const APIKeyHeaderName = "x-api-key"

// SignInLocationKey is the gRPC trailer key that tells a rejected caller where
// to sign in.
const SignInLocationKey = "sign-in-location"
