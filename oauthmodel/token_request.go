package oauthmodel

// TokenRequest holds the form parameters of a POST /oauth/token request.
// Which fields matter depends on grant_type.
type TokenRequest struct {
	// GrantType selects the flow: authorization_code, refresh_token,
	// client_credentials or password.
	GrantType string

	// ClientID identifies the OAuth2 client making the request.
	ClientID string

	// ClientSecret authenticates confidential clients. Never logged.
	ClientSecret string

	// Code is the authorization code being redeemed (authorization_code).
	Code string

	// RedirectURI must match the one presented at the authorize endpoint
	// (authorization_code).
	RedirectURI string

	// CodeVerifier is the PKCE verifier matching the stored code_challenge
	// (authorization_code).
	CodeVerifier string

	// RefreshToken is the token being rotated (refresh_token).
	RefreshToken string

	// Scope is the requested scope string (client_credentials, password).
	Scope string

	// Username and Password carry resource-owner credentials for the legacy
	// password grant.
	Username string
	Password string
}

// TokenResponse is the JSON body of a successful token request.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// IntrospectionResponse is the RFC 7662 response body. When Active is false
// every other field is omitted.
type IntrospectionResponse struct {
	Active    bool   `json:"active"`
	Scope     string `json:"scope,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Sub       string `json:"sub,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Iat       int64  `json:"iat,omitempty"`
	JTI       string `json:"jti,omitempty"`
}
