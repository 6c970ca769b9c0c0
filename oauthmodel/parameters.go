package oauthmodel

// ResponseType is the authorize endpoint response_type parameter. Only the
// authorization-code flow is supported.
type ResponseType string

const ResponseTypeCode ResponseType = "code"

// ChallengeMethod is the PKCE code_challenge_method parameter.
type ChallengeMethod string

const (
	ChallengeMethodS256  ChallengeMethod = "S256"
	ChallengeMethodPlain ChallengeMethod = "plain"
)

// ValidChallengeMethod reports whether the method is one the server accepts.
func ValidChallengeMethod(m ChallengeMethod) bool {
	return m == ChallengeMethodS256 || m == ChallengeMethodPlain
}

// AuthorizeParameters holds the query parameters of a GET /oauth/authorize
// request.
type AuthorizeParameters struct {
	// ResponseType must be "code".
	ResponseType ResponseType

	// ClientID identifies the application requesting authorization.
	ClientID string

	// RedirectURI is where the authorization response is sent. It must
	// exactly match one of the client's registered URIs; anything else is
	// rejected without redirecting.
	RedirectURI string

	// Scope is the space-separated scope request.
	Scope string

	// State is an opaque client value echoed back on every redirect,
	// including error redirects.
	State string

	// CodeChallenge and CodeChallengeMethod carry the PKCE commitment.
	// Required for public clients.
	CodeChallenge       string
	CodeChallengeMethod ChallengeMethod
}
