// Package clients holds the OAuth2 client registry.
package clients

import (
	"time"

	"github.com/cleanhq/cleaner/scopes"
)

// GrantType names a flow a client is allowed to use.
type GrantType string

const (
	GrantAuthorizationCode GrantType = "authorization_code"
	GrantRefreshToken      GrantType = "refresh_token"
	GrantClientCredentials GrantType = "client_credentials"
	GrantPassword          GrantType = "password"
)

// Client is a registered OAuth2 application. Public clients (SPAs, mobile
// apps) carry no secret and must use PKCE; confidential clients authenticate
// with a bcrypt-digested secret.
type Client struct {
	ID           string      `json:"client_id"`
	Name         string      `json:"name"`
	SecretDigest string      `json:"-"`
	RedirectURIs []string    `json:"redirect_uris"`
	GrantTypes   []GrantType `json:"grant_types"`
	Scopes       scopes.Set  `json:"-"`
	Public       bool        `json:"public"`
	CreatedAt    time.Time   `json:"created_at"`
}

// IsPublic returns true if the client cannot keep a secret.
func (c *Client) IsPublic() bool {
	return c.Public
}

// AllowsRedirectURI checks uri against the registered whitelist. Exact match
// only, no prefix or wildcard logic.
func (c *Client) AllowsRedirectURI(uri string) bool {
	for _, registered := range c.RedirectURIs {
		if uri == registered {
			return true
		}
	}
	return false
}

// AllowsGrantType checks whether the client may use the grant.
func (c *Client) AllowsGrantType(grant GrantType) bool {
	for _, g := range c.GrantTypes {
		if g == grant {
			return true
		}
	}
	return false
}

// AllowsScopes checks whether every requested scope is within the client's
// allowed set.
func (c *Client) AllowsScopes(requested scopes.Set) bool {
	return requested.IsSubsetOf(c.Scopes)
}
