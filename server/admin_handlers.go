package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cleanhq/cleaner/clients"
	"github.com/cleanhq/cleaner/scopes"
)

type createClientRequest struct {
	Name         string   `json:"name"`
	RedirectURIs []string `json:"redirect_uris"`
	GrantTypes   []string `json:"grant_types"`
	Scopes       []string `json:"scopes"`
	Public       bool     `json:"public"`
}

type createClientResponse struct {
	*clients.Client
	ClientSecret string   `json:"client_secret,omitempty"`
	Scopes       []string `json:"scopes"`
}

// createClient registers an OAuth2 client. The plaintext secret appears in
// this response and nowhere else.
func (s *Server) createClient(c echo.Context) error {
	var req createClientRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("malformed request body")
	}
	if req.Name == "" {
		return badRequest("name is required")
	}

	grantTypes := make([]clients.GrantType, 0, len(req.GrantTypes))
	for _, g := range req.GrantTypes {
		grantTypes = append(grantTypes, clients.GrantType(g))
	}

	scps, err := scopes.ParseSlice(req.Scopes)
	if err != nil {
		return badRequest(err.Error())
	}
	if scps.IsEmpty() {
		scps = scopes.Default()
	}

	client, secret, err := s.deps.Clients.Create(c.Request().Context(), req.Name, req.RedirectURIs, grantTypes, scps, req.Public)
	if err != nil {
		return badRequest(err.Error())
	}

	return c.JSON(http.StatusCreated, createClientResponse{
		Client:       client,
		ClientSecret: secret,
		Scopes:       client.Scopes.Slice(),
	})
}

func (s *Server) listClients(c echo.Context) error {
	list, err := s.deps.Clients.List(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]createClientResponse, 0, len(list))
	for _, client := range list {
		out = append(out, createClientResponse{Client: client, Scopes: client.Scopes.Slice()})
	}
	return c.JSON(http.StatusOK, out)
}
