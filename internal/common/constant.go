package common

// Headers required by every trakt API request.
const (
	APIVersionHeaderName = "trakt-api-version"
	APIKeyHeaderName     = "trakt-api-key"
	APIVersion           = "2"
)

// NonceSize is the number of random bytes used for the OAuth state nonce.
const NonceSize = 32
